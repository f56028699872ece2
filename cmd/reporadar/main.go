package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elonfeng/reporadar/pkg/summary"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode keeps a missing model name apart from scoring failures.
func exitCode(err error) int {
	if errors.Is(err, summary.ErrModelRequired) {
		return 2
	}
	return 1
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reporadar",
		Short:         "Score, rank and record trending GitHub repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	root.AddCommand(scoreCmd())
	root.AddCommand(ledgerCmd())
	root.AddCommand(runsCmd())
	root.AddCommand(serveCmd())

	return root
}

func scoreCmd() *cobra.Command {
	var opts scoreOptions

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score and rank repositories from a fetcher document",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.runScore(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input JSON file (required)")
	f.StringVarP(&opts.output, "output", "o", "", "output JSON file (default: stdout)")
	f.IntVar(&opts.top, "top", -1, "keep only the top N repos, 0 keeps none (default: from config)")
	f.BoolVar(&opts.table, "table", false, "print a table")
	f.BoolVar(&opts.detail, "detail", false, "show score details in the table")
	f.StringVar(&opts.domain, "domain", "", "domain hint: all, ai, web3, frontend, tools, infra")
	f.StringVar(&opts.ledger, "ledger", "", "ledger (summary.md) path (default: from config)")
	f.BoolVar(&opts.noFilter, "no-filter", false, "skip filtering repos already in the ledger")
	f.BoolVar(&opts.updateSummary, "update-summary", false, "insert today's top results into the ledger")
	f.StringVar(&opts.model, "model", "", "model name for the summary row")
	f.StringVar(&opts.date, "date", "", "summary date as YYYY-MM-DD (default: today)")
	f.BoolVar(&opts.archive, "archive", false, "archive the run in the database")
	f.BoolVar(&opts.notify, "notify", false, "send the digest to configured alert destinations")
	cmd.MarkFlagRequired("input")

	return cmd
}

func ledgerCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List repositories already recorded in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.runLedger(path)
		},
	}

	cmd.Flags().StringVar(&path, "ledger", "", "ledger (summary.md) path (default: from config)")
	return cmd
}

func runsCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "Show archived scoring runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return a.runShowRun(cmd.Context(), args[0], jsonOutput)
			}
			return a.runListRuns(cmd.Context(), limit, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
