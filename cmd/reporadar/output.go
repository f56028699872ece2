package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/elonfeng/reporadar/internal/store"
	"github.com/elonfeng/reporadar/pkg/trend"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeOutputFile(path string, out *trend.Output) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	if err := writeJSON(f, out); err != nil {
		f.Close()
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return f.Close()
}

// writeTable prints ranked repos. The detail variant shows the score
// breakdown; the brief one a description excerpt.
func writeTable(w io.Writer, ranked []trend.Ranked, detail bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if detail {
		fmt.Fprintln(tw, "RANK\tREPO\tSTARS\tDOMAIN\tACTIVITY\tHEAT\tDW\tSPREAD\tFINAL\tADJUSTMENTS")
		for i := range ranked {
			r := &ranked[i]
			sd := r.ScoreDetail
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.1f\t%.1f\t%d\t%.2f\t%.2f\t%s\n",
				r.Rank, r.FullName, r.Stars, r.Domain, r.Activity(),
				sd.HeatScore, sd.DomainWeight, sd.SpreadValue, r.FinalScore,
				strings.Join(sd.Adjustments, "; "))
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, "RANK\tREPO\tSTARS\tDOMAIN\tFINAL\tDESCRIPTION")
	for i := range ranked {
		r := &ranked[i]
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.2f\t%s\n",
			r.Rank, r.FullName, r.Stars, r.Domain, r.FinalScore, excerpt(r.Description, 38))
	}
	return tw.Flush()
}

func writeRunsTable(w io.Writer, runs []store.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORED AT\tMODEL\tINPUT\tEXCLUDED\tOUTPUT\tMEAN\tMEDIAN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%.2f\t%.2f\n",
			r.ID, r.ScoredAt.Local().Format(time.RFC3339), r.Model,
			r.InputCount, r.ExcludedCount, r.OutputCount, r.MeanScore, r.MedianScore)
	}
	return tw.Flush()
}

func writeRunReposTable(w io.Writer, run *store.Run, repos []store.RunRepo) error {
	fmt.Fprintf(w, "run %d  %s  model=%s\n\n", run.ID, run.ScoredAt.Local().Format(time.RFC3339), run.Model)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tREPO\tSTARS\tDOMAIN\tFINAL\tONE-LINER")
	for _, r := range repos {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.2f\t%s\n",
			r.Rank, r.FullName, r.Stars, r.Domain, r.FinalScore, r.OneLiner)
	}
	return tw.Flush()
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
