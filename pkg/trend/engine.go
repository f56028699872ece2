package trend

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/montanaflynn/stats"

	"github.com/elonfeng/reporadar/pkg/source"
)

// oneLinerMax caps the length, in characters, of a one-liner.
const oneLinerMax = 50

// ScoreDetail records how a repository's final score was reached.
type ScoreDetail struct {
	HeatScore    float64            `json:"heat_score"`
	DomainWeight int                `json:"domain_weight"`
	SpreadValue  float64            `json:"spread_value"`
	SpreadDetail map[string]float64 `json:"spread_detail"`
	RawScore     float64            `json:"raw_score"`
	Adjustments  []string           `json:"adjustments"`
	FinalScore   float64            `json:"final_score"`
}

// Ranked is a scored repository with its position in the ranking.
type Ranked struct {
	source.Repository
	ScoreDetail ScoreDetail `json:"score_detail"`
	FinalScore  float64     `json:"final_score"`
	Rank        int         `json:"rank"`
	OneLiner    string      `json:"one_liner"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	Ranked     []Ranked
	InputCount int
	Excluded   int
}

// Engine scores and ranks candidate repositories.
type Engine struct {
	rules  Rules
	hint   source.Domain
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDomainHint forces every repository into d unless d is "all".
func WithDomainHint(d source.Domain) Option {
	return func(e *Engine) { e.hint = d }
}

// WithClock overrides the reference time used for recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a new scoring engine.
func NewEngine(rules Rules, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		rules:  rules,
		hint:   source.DomainAll,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run classifies, filters against the ledger and ranks repos. The input
// slice is not modified. A nil ledger disables history filtering.
func (e *Engine) Run(repos []source.Repository, ledger *source.Ledger) Result {
	prepared := e.Prepare(repos)

	candidates := prepared
	if ledger != nil {
		candidates = ledger.Filter(prepared)
	}
	excluded := len(prepared) - len(candidates)
	if excluded > 0 {
		e.logger.Info("filtered repos already in ledger", "component", "engine", "excluded", excluded)
	}

	e.logger.Info("scoring repos", "component", "engine", "count", len(candidates))
	return Result{
		Ranked:     e.Rank(candidates),
		InputCount: len(repos),
		Excluded:   excluded,
	}
}

// Prepare returns a copy of repos with domain and activity score filled in
// wherever they are still absent.
func (e *Engine) Prepare(repos []source.Repository) []source.Repository {
	now := e.now()
	out := make([]source.Repository, len(repos))
	for i := range repos {
		repo := repos[i]
		if repo.Domain == "" {
			repo.Domain = e.rules.Classify(&repo, e.hint)
		}
		if repo.ActivityScore == nil {
			activity := ActivityScore(&repo, now)
			repo.ActivityScore = &activity
		}
		out[i] = repo
	}
	return out
}

// Rank scores prepared repos, sorts them by final score descending (stable
// for ties) and assigns 1-based ranks.
func (e *Engine) Rank(repos []source.Repository) []Ranked {
	ranked := make([]Ranked, len(repos))
	for i := range repos {
		detail := e.ScoreDetail(&repos[i])
		ranked[i] = Ranked{
			Repository:  repos[i],
			ScoreDetail: detail,
			FinalScore:  detail.FinalScore,
			OneLiner:    OneLiner(repos[i].Description),
		}
		e.logger.Debug("scored repo", "component", "engine",
			"repo", repos[i].FullName, "final", detail.FinalScore, "adjustments", len(detail.Adjustments))
	}

	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		switch {
		case a.FinalScore > b.FinalScore:
			return -1
		case a.FinalScore < b.FinalScore:
			return 1
		}
		return 0
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// ScoreDetail computes the full score breakdown for a prepared repository.
func (e *Engine) ScoreDetail(repo *source.Repository) ScoreDetail {
	heat := HeatScore(repo)
	domain := repo.Domain
	if domain == "" {
		domain = source.DomainOther
	}
	weight := e.rules.DomainWeight(domain)

	spread := e.rules.SpreadValue(repo)
	spreadValue := spread[SpreadAverage]

	raw := heat * (float64(weight) / 5) * spreadValue
	final, adjustments := e.rules.Adjust(repo, raw)

	return ScoreDetail{
		HeatScore:    round2(heat),
		DomainWeight: weight,
		SpreadValue:  spreadValue,
		SpreadDetail: spread,
		RawScore:     round2(raw),
		Adjustments:  adjustments,
		FinalScore:   round2(final),
	}
}

// OneLiner derives a short positioning line from a description: the text
// itself when short enough, otherwise its first sentence cut to 50
// characters.
func OneLiner(desc string) string {
	if utf8.RuneCountInString(desc) <= oneLinerMax {
		return desc
	}
	first, _, _ := strings.Cut(desc, ".")
	return truncateRunes(first, oneLinerMax)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Top returns at most n leading entries of ranked. A negative n keeps all;
// zero keeps none.
func Top(ranked []Ranked, n int) []Ranked {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// ScoreStats returns the mean and median final score of ranked.
func ScoreStats(ranked []Ranked) (mean, median float64) {
	if len(ranked) == 0 {
		return 0, 0
	}
	scores := make(stats.Float64Data, len(ranked))
	for i := range ranked {
		scores[i] = ranked[i].FinalScore
	}
	mean, _ = stats.Mean(scores)
	median, _ = stats.Median(scores)
	return round2(mean), round2(median)
}

// Output is the scored document written for downstream consumers.
type Output struct {
	Meta  map[string]any `json:"meta"`
	Repos []Ranked       `json:"repos"`
}

// NewOutput wraps ranked repos with the input meta plus scored_at and count.
func NewOutput(meta map[string]any, repos []Ranked, scoredAt time.Time) *Output {
	m := make(map[string]any, len(meta)+2)
	maps.Copy(m, meta)
	m["scored_at"] = scoredAt.Format(time.RFC3339)
	m["count"] = len(repos)
	if repos == nil {
		repos = []Ranked{}
	}
	return &Output{Meta: m, Repos: repos}
}
