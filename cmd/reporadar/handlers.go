package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/elonfeng/reporadar/internal/config"
	"github.com/elonfeng/reporadar/internal/store"
	"github.com/elonfeng/reporadar/pkg/alert"
	"github.com/elonfeng/reporadar/pkg/server"
	"github.com/elonfeng/reporadar/pkg/source"
	"github.com/elonfeng/reporadar/pkg/summary"
	"github.com/elonfeng/reporadar/pkg/trend"
)

const dateLayout = "2006-01-02"

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	now    func() time.Time
}

type scoreOptions struct {
	input         string
	output        string
	top           int
	table         bool
	detail        bool
	domain        string
	ledger        string
	noFilter      bool
	updateSummary bool
	model         string
	date          string
	archive       bool
	notify        bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &app{
		cfg:    cfg,
		logger: newLogger(cmd.ErrOrStderr(), verbose, quiet),
		stdout: cmd.OutOrStdout(),
		now:    time.Now,
	}, nil
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) buildEngine(domain string) *trend.Engine {
	if domain == "" {
		domain = a.cfg.Scoring.Domain
	}
	return trend.NewEngine(a.cfg.Rules(), a.logger,
		trend.WithDomainHint(source.Domain(domain)),
		trend.WithClock(a.now),
	)
}

func (a *app) buildAlertManager() *alert.Manager {
	var notifiers []alert.Notifier

	if a.cfg.Alerts.Slack.Enabled && a.cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(a.cfg.Alerts.Slack.WebhookURL))
	}
	if a.cfg.Alerts.Discord.Enabled && a.cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(a.cfg.Alerts.Discord.WebhookURL))
	}
	if a.cfg.Alerts.Webhook.Enabled && a.cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(a.cfg.Alerts.Webhook.URL, a.cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers, a.cfg.Alerts.Attempts, a.logger)
}

// loadLedger reads the history ledger; failures only disable filtering.
func (a *app) loadLedger(path string) *source.Ledger {
	ledger, err := source.LoadLedger(path)
	if err != nil {
		a.logger.Warn("ledger unreadable, treating as empty", "path", path, "error", err)
	}
	return ledger
}

func (a *app) runScore(ctx context.Context, opts scoreOptions) error {
	model := opts.model
	if model == "" {
		model = a.cfg.Ledger.Model
	}
	if opts.updateSummary && model == "" {
		return fmt.Errorf("--update-summary: %w (set --model)", summary.ErrModelRequired)
	}

	summaryDate := a.now()
	if opts.date != "" {
		d, err := time.ParseInLocation(dateLayout, opts.date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", opts.date, err)
		}
		summaryDate = d
	}

	top := opts.top
	if top < 0 {
		top = a.cfg.Scoring.Top
	}
	ledgerPath := opts.ledger
	if ledgerPath == "" {
		ledgerPath = a.cfg.Ledger.Path
	}

	doc, err := source.Load(opts.input)
	if err != nil {
		return err
	}

	var ledger *source.Ledger
	if !opts.noFilter {
		ledger = a.loadLedger(ledgerPath)
	}

	result := a.buildEngine(opts.domain).Run(doc.Repos, ledger)
	ranked := trend.Top(result.Ranked, top)
	scoredAt := a.now()

	if opts.table {
		if err := writeTable(a.stdout, ranked, opts.detail); err != nil {
			return fmt.Errorf("print table: %w", err)
		}
	}

	out := trend.NewOutput(doc.Meta, ranked, scoredAt)
	switch {
	case opts.output != "":
		if err := writeOutputFile(opts.output, out); err != nil {
			return err
		}
		a.logger.Info("saved output", "path", opts.output)
	case !opts.table:
		if err := writeJSON(a.stdout, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if opts.updateSummary {
		if err := summary.Update(ledgerPath, summaryDate, model, summaryEntries(ranked)); err != nil {
			return fmt.Errorf("update summary: %w", err)
		}
		a.logger.Info("updated summary", "path", ledgerPath, "month", summaryDate.Month(), "day", summaryDate.Day())
	}

	if opts.archive || a.cfg.Database.Enabled {
		if err := a.archive(ctx, doc.Meta, model, result, ranked, scoredAt); err != nil {
			return err
		}
	}

	if opts.notify {
		a.notify(ctx, model, ranked, scoredAt)
	}
	return nil
}

func (a *app) archive(ctx context.Context, meta map[string]any, model string, result trend.Result, ranked []trend.Ranked, scoredAt time.Time) error {
	db, err := store.New(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	mean, median := trend.ScoreStats(ranked)
	run := &store.Run{
		Model:         model,
		ScoredAt:      scoredAt,
		InputCount:    result.InputCount,
		ExcludedCount: result.Excluded,
		OutputCount:   len(ranked),
		MeanScore:     mean,
		MedianScore:   median,
		Meta:          meta,
	}
	if err := db.SaveRun(ctx, run, ranked); err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	a.logger.Info("archived run", "id", run.ID, "repos", len(ranked))
	return nil
}

// notify delivers the digest; delivery problems never fail the run.
func (a *app) notify(ctx context.Context, model string, ranked []trend.Ranked, scoredAt time.Time) {
	mgr := a.buildAlertManager()
	if !mgr.HasNotifiers() {
		a.logger.Warn("--notify set but no alert destination is configured")
		return
	}
	digest := &alert.Digest{
		Title:    fmt.Sprintf("Trending repos %s", scoredAt.Format(dateLayout)),
		Model:    model,
		ScoredAt: scoredAt,
		Repos:    ranked,
	}
	if err := mgr.Broadcast(ctx, digest); err != nil {
		a.logger.Error("digest delivery failed", "error", err)
	}
}

func summaryEntries(ranked []trend.Ranked) []summary.Entry {
	entries := make([]summary.Entry, 0, min(len(ranked), summary.Slots))
	for i := range trend.Top(ranked, summary.Slots) {
		r := &ranked[i]
		entries = append(entries, summary.Entry{Name: r.DisplayName(), URL: r.Link()})
	}
	return entries
}

func (a *app) runLedger(path string) error {
	if path == "" {
		path = a.cfg.Ledger.Path
	}
	ledger := a.loadLedger(path)
	for _, key := range ledger.Keys() {
		fmt.Fprintln(a.stdout, key)
	}
	a.logger.Info("ledger loaded", "path", path, "repos", ledger.Len())
	return nil
}

func (a *app) runListRuns(ctx context.Context, limit int, jsonOutput bool) error {
	db, err := store.New(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, store.RunListOpts{Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(a.stdout, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "no runs archived (try: reporadar score --archive)")
		return nil
	}
	return writeRunsTable(a.stdout, runs)
}

func (a *app) runShowRun(ctx context.Context, rawID string, jsonOutput bool) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", rawID, err)
	}

	db, err := store.New(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	repos, err := db.GetRunRepos(ctx, id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(a.stdout, map[string]any{"run": run, "repos": repos})
	}
	return writeRunReposTable(a.stdout, run, repos)
}

func (a *app) runServe(ctx context.Context, port int) error {
	if port == 0 {
		port = a.cfg.Server.Port
	}

	var db store.Store
	if a.cfg.Database.Enabled {
		sqlite, err := store.New(a.cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer sqlite.Close()
		db = sqlite
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(db, a.buildEngine(""), a.cfg.Ledger.Path, a.cfg.Scoring.Top, port, a.logger)
	return srv.ListenAndServe(ctx)
}
