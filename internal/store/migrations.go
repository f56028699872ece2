package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    model          TEXT NOT NULL DEFAULT '',
    scored_at      DATETIME NOT NULL,
    input_count    INTEGER NOT NULL DEFAULT 0,
    excluded_count INTEGER NOT NULL DEFAULT 0,
    output_count   INTEGER NOT NULL DEFAULT 0,
    mean_score     REAL NOT NULL DEFAULT 0,
    median_score   REAL NOT NULL DEFAULT 0,
    meta           TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_runs_scored_at ON runs(scored_at);

CREATE TABLE IF NOT EXISTS run_repos (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      INTEGER NOT NULL REFERENCES runs(id),
    rank        INTEGER NOT NULL,
    full_name   TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    domain      TEXT NOT NULL DEFAULT '',
    stars       INTEGER NOT NULL DEFAULT 0,
    final_score REAL NOT NULL DEFAULT 0,
    one_liner   TEXT NOT NULL DEFAULT '',
    detail      TEXT NOT NULL DEFAULT '{}',
    UNIQUE(run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_run_repos_run ON run_repos(run_id);
CREATE INDEX IF NOT EXISTS idx_run_repos_full_name ON run_repos(full_name);
`
