package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/reporadar/pkg/trend"
)

// Run is one archived scoring run.
type Run struct {
	ID            int64          `db:"id" json:"id"`
	Model         string         `db:"model" json:"model"`
	ScoredAt      time.Time      `db:"scored_at" json:"scored_at"`
	InputCount    int            `db:"input_count" json:"input_count"`
	ExcludedCount int            `db:"excluded_count" json:"excluded_count"`
	OutputCount   int            `db:"output_count" json:"output_count"`
	MeanScore     float64        `db:"mean_score" json:"mean_score"`
	MedianScore   float64        `db:"median_score" json:"median_score"`
	MetaJSON      string         `db:"meta" json:"-"`
	Meta          map[string]any `db:"-" json:"meta"`
}

// RunRepo is one ranked repository of an archived run.
type RunRepo struct {
	ID         int64             `db:"id" json:"-"`
	RunID      int64             `db:"run_id" json:"run_id"`
	Rank       int               `db:"rank" json:"rank"`
	FullName   string            `db:"full_name" json:"full_name"`
	URL        string            `db:"url" json:"url"`
	Domain     string            `db:"domain" json:"domain"`
	Stars      int               `db:"stars" json:"stars"`
	FinalScore float64           `db:"final_score" json:"final_score"`
	OneLiner   string            `db:"one_liner" json:"one_liner"`
	DetailJSON string            `db:"detail" json:"-"`
	Detail     trend.ScoreDetail `db:"-" json:"score_detail"`
}

// RunListOpts controls run listing.
type RunListOpts struct {
	Since time.Time
	Limit int
}

// Store is the persistence interface.
type Store interface {
	SaveRun(ctx context.Context, run *Run, repos []trend.Ranked) error
	ListRuns(ctx context.Context, opts RunListOpts) ([]Run, error)
	GetRun(ctx context.Context, id int64) (*Run, error)
	GetRunRepos(ctx context.Context, runID int64) ([]RunRepo, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun archives run together with its ranked repos and sets run.ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, repos []trend.Ranked) error {
	metaJSON, err := json.Marshal(run.Meta)
	if err != nil {
		return fmt.Errorf("marshal run meta: %w", err)
	}
	if run.Meta == nil {
		metaJSON = []byte("{}")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (model, scored_at, input_count, excluded_count, output_count, mean_score, median_score, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Model, run.ScoredAt.UTC(), run.InputCount, run.ExcludedCount, run.OutputCount,
		run.MeanScore, run.MedianScore, string(metaJSON))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for i := range repos {
		r := &repos[i]
		detailJSON, err := json.Marshal(r.ScoreDetail)
		if err != nil {
			return fmt.Errorf("marshal detail %s: %w", r.FullName, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_repos (run_id, rank, full_name, url, domain, stars, final_score, one_liner, detail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, r.Rank, r.FullName, r.Link(), string(r.Domain), r.Stars, r.FinalScore, r.OneLiner, string(detailJSON))
		if err != nil {
			return fmt.Errorf("insert run repo %s: %w", r.FullName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	run.ID = runID
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts RunListOpts) ([]Run, error) {
	query := "SELECT * FROM runs WHERE 1=1"
	var args []any

	if !opts.Since.IsZero() {
		query += " AND scored_at >= ?"
		args = append(args, opts.Since.UTC())
	}

	query += " ORDER BY scored_at DESC, id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	for i := range runs {
		if err := runs[i].decode(); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	var run Run
	if err := s.db.GetContext(ctx, &run, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	if err := run.decode(); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLiteStore) GetRunRepos(ctx context.Context, runID int64) ([]RunRepo, error) {
	var repos []RunRepo
	err := s.db.SelectContext(ctx, &repos,
		"SELECT * FROM run_repos WHERE run_id = ? ORDER BY rank", runID)
	if err != nil {
		return nil, fmt.Errorf("get run repos %d: %w", runID, err)
	}

	for i := range repos {
		if err := json.Unmarshal([]byte(repos[i].DetailJSON), &repos[i].Detail); err != nil {
			return nil, fmt.Errorf("decode run %d repo %s detail: %w", runID, repos[i].FullName, err)
		}
	}
	return repos, nil
}

func (r *Run) decode() error {
	if err := json.Unmarshal([]byte(r.MetaJSON), &r.Meta); err != nil {
		return fmt.Errorf("decode run %d meta: %w", r.ID, err)
	}
	return nil
}
