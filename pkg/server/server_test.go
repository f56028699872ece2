package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/reporadar/internal/store"
	"github.com/elonfeng/reporadar/pkg/trend"
)

var testNow = time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)

const scoreBody = `{
	"meta": {"window": "past_week"},
	"repos": [
		{"full_name": "acme/fastx", "html_url": "https://github.com/acme/fastx", "stars": 12000, "forks": 600,
		 "open_issues": 20, "license": "MIT", "topics": ["ai", "agent", "rag"],
		 "description": "A faster alternative to X", "pushed_at": "2026-01-28T12:00:00Z"},
		{"full_name": "b/seen", "html_url": "https://github.com/b/seen", "stars": 9000},
		{"full_name": "c/small", "html_url": "https://github.com/c/small", "stars": 3}
	]
}`

func newTestServer(t *testing.T, s store.Store, ledgerPath string, top int) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := trend.NewEngine(trend.DefaultRules(), logger, trend.WithClock(func() time.Time { return testNow }))
	srv := New(s, engine, ledgerPath, top, 0, logger)
	srv.now = func() time.Time { return testNow }
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, nil, "", 5).Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScore(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, os.WriteFile(ledger, []byte("| 29  | `m` | [seen](https://github.com/b/seen) |  |  |  |  |\n"), 0o644))
	h := newTestServer(t, nil, ledger, 5).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/score", scoreBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out trend.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Repos, 2)
	assert.Equal(t, "acme/fastx", out.Repos[0].FullName)
	assert.Equal(t, 1, out.Repos[0].Rank)
	assert.Equal(t, "c/small", out.Repos[1].FullName)
	assert.Equal(t, "past_week", out.Meta["window"])
	assert.Equal(t, "2026-01-30T12:00:00Z", out.Meta["scored_at"])
	assert.EqualValues(t, 2, out.Meta["count"])

	t.Run("top query", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/score?top=1", scoreBody)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Len(t, out.Repos, 1)
	})

	t.Run("top zero keeps none", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/score?top=0", scoreBody)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Empty(t, out.Repos)
	})

	t.Run("missing ledger scores everything", func(t *testing.T) {
		h := newTestServer(t, nil, filepath.Join(t.TempDir(), "absent.md"), -1).Handler()
		rec := do(t, h, http.MethodPost, "/api/v1/score", scoreBody)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Len(t, out.Repos, 3)
	})
}

func TestScore_BadRequests(t *testing.T) {
	h := newTestServer(t, nil, "", 5).Handler()

	testCases := []struct {
		name   string
		target string
		body   string
	}{
		{name: "malformed json", target: "/api/v1/score", body: `{"repos": [`},
		{name: "no repos", target: "/api/v1/score", body: `{"repos": []}`},
		{name: "bad top", target: "/api/v1/score?top=-2", body: scoreBody},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tc.target, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRuns_ArchiveDisabled(t *testing.T) {
	h := newTestServer(t, nil, "", 5).Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs/1", "").Code)
}

func TestRuns(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	run := &store.Run{Model: "gpt-5.2", ScoredAt: testNow, OutputCount: 1}
	ranked := []trend.Ranked{{FinalScore: 3.2, Rank: 1}}
	ranked[0].FullName = "acme/fastx"
	require.NoError(t, s.SaveRun(context.Background(), run, ranked))

	h := newTestServer(t, s, "", 5).Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data  []store.Run `json:"data"`
		Count int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "gpt-5.2", list.Data[0].Model)

	rec = do(t, h, http.MethodGet, "/api/v1/runs/"+strconv.FormatInt(run.ID, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Run   store.Run       `json:"run"`
		Repos []store.RunRepo `json:"repos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Repos, 1)
	assert.Equal(t, "acme/fastx", detail.Repos[0].FullName)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/runs/abc", "").Code)
}
