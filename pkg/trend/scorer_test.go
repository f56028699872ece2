package trend

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/elonfeng/reporadar/pkg/source"
)

var refNow = time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) string {
	return refNow.Add(-d).Format(time.RFC3339)
}

func withActivity(r source.Repository, a float64) *source.Repository {
	r.ActivityScore = &a
	return &r
}

func TestActivityScore(t *testing.T) {
	testCases := []struct {
		name string
		repo source.Repository
		want float64
	}{
		{
			name: "empty record scores zero",
			repo: source.Repository{},
			want: 0,
		},
		{
			name: "license only",
			repo: source.Repository{License: "GPL-3.0"},
			want: 1.5,
		},
		{
			name: "topic bonus is capped at 2.0",
			repo: source.Repository{Topics: strings.Fields("a b c d e f g h i j")},
			want: 2.0,
		},
		{
			name: "pushed within a day",
			repo: source.Repository{PushedAt: ago(3 * time.Hour)},
			want: 3.0,
		},
		{
			name: "pushed within a week",
			repo: source.Repository{PushedAt: ago(5 * 24 * time.Hour)},
			want: 2.0,
		},
		{
			name: "pushed within a month",
			repo: source.Repository{PushedAt: ago(20 * 24 * time.Hour)},
			want: 1.0,
		},
		{
			name: "stale push earns nothing",
			repo: source.Repository{PushedAt: ago(90 * 24 * time.Hour)},
			want: 0,
		},
		{
			name: "unparseable timestamp is ignored",
			repo: source.Repository{PushedAt: "last tuesday"},
			want: 0,
		},
		{
			name: "zone-less timestamp is accepted",
			repo: source.Repository{PushedAt: refNow.Add(-time.Hour).Format("2006-01-02T15:04:05")},
			want: 3.0,
		},
		{
			name: "healthy star/fork ratio",
			repo: source.Repository{Stars: 1000, Forks: 100},
			want: 1.5,
		},
		{
			name: "ratio outside band",
			repo: source.Repository{Stars: 1000, Forks: 10},
			want: 0,
		},
		{
			name: "moderate issue count",
			repo: source.Repository{OpenIssues: 100},
			want: 1.0,
		},
		{
			name: "too many issues",
			repo: source.Repository{OpenIssues: 101},
			want: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ActivityScore(&tc.repo, refNow), 1e-9)
		})
	}
}

func TestHeatScore(t *testing.T) {
	testCases := []struct {
		name string
		repo *source.Repository
		want float64
	}{
		{
			name: "no stars keeps only activity",
			repo: withActivity(source.Repository{}, 4),
			want: 0.4,
		},
		{
			name: "log scale is capped at 8",
			repo: withActivity(source.Repository{Stars: 1_000_000_000}, 0),
			want: 8,
		},
		{
			name: "healthy fork ratio adds one",
			repo: withActivity(source.Repository{Stars: 100, Forks: 10}, 0),
			want: 5,
		},
		{
			name: "fork ratio above band",
			repo: withActivity(source.Repository{Stars: 100, Forks: 50}, 0),
			want: 4,
		},
		{
			name: "clamped to 10",
			repo: withActivity(source.Repository{Stars: 1_000_000, Forks: 100_000}, 10),
			want: 10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, HeatScore(tc.repo), 1e-9)
		})
	}
}

func TestSpreadValue(t *testing.T) {
	rules := DefaultRules()

	t.Run("minimal record", func(t *testing.T) {
		got := rules.SpreadValue(withActivity(source.Repository{}, 0))
		assert.Equal(t, 2.0, got[SpreadPainPoint])
		assert.Equal(t, 1.0, got[SpreadDisruption])
		assert.Equal(t, 2.0, got[SpreadUnderstandable])
		assert.Equal(t, 2.0, got[SpreadTryable])
		assert.Equal(t, 1.75, got[SpreadAverage])
	})

	t.Run("pain keywords saturate at 5", func(t *testing.T) {
		repo := source.Repository{Description: "A faster, simpler, better alternative to replace X"}
		got := rules.SpreadValue(withActivity(repo, 0))
		assert.Equal(t, 5.0, got[SpreadPainPoint])
	})

	t.Run("disruption matches topics exactly and description by substring", func(t *testing.T) {
		repo := source.Repository{
			Description: "An autonomous coding assistant",
			Topics:      []string{"LLM", "agents"},
		}
		got := rules.SpreadValue(withActivity(repo, 0))
		// "llm" via topic, "autonomous" via description; "agents" is not an exact topic match.
		assert.Equal(t, 3.0, got[SpreadDisruption])
	})

	t.Run("understandable bands", func(t *testing.T) {
		cases := map[int]float64{10: 2, 30: 3, 49: 3, 50: 4, 200: 4, 201: 3, 250: 3, 251: 2}
		for n, want := range cases {
			repo := source.Repository{Description: strings.Repeat("x", n)}
			got := rules.SpreadValue(withActivity(repo, 0))
			assert.Equal(t, want, got[SpreadUnderstandable], "length %d", n)
		}
	})

	t.Run("topics lift understandable but never past 5", func(t *testing.T) {
		repo := source.Repository{
			Description: strings.Repeat("y", 100),
			Topics:      []string{"one", "two", "three"},
		}
		got := rules.SpreadValue(withActivity(repo, 0))
		assert.Equal(t, 5.0, got[SpreadUnderstandable])
	})

	t.Run("tryable with open license and high activity", func(t *testing.T) {
		got := rules.SpreadValue(withActivity(source.Repository{License: "MIT"}, 8))
		assert.Equal(t, 5.0, got[SpreadTryable])
	})

	t.Run("tryable ignores non-approved license", func(t *testing.T) {
		got := rules.SpreadValue(withActivity(source.Repository{License: "GPL-3.0"}, 5))
		assert.Equal(t, 3.0, got[SpreadTryable])
	})
}

func TestScoresStayInRange(t *testing.T) {
	rules := DefaultRules()
	repos := []source.Repository{
		{},
		{Stars: 1, Forks: 1, OpenIssues: 1},
		{Stars: 250_000, Forks: 40_000, OpenIssues: 5000, License: "MIT", PushedAt: ago(time.Hour),
			Topics: strings.Fields("ai llm gpt agent autonomous zero-knowledge hacktoberfest documentation"),
			Description: "Revolutionary next-gen breakthrough: a faster, simpler, better alternative to replace and solve everything with AI"},
		{Stars: 7, Forks: 90, Description: strings.Repeat("long ", 200)},
	}

	for i := range repos {
		repo := repos[i]
		activity := ActivityScore(&repo, refNow)
		repo.ActivityScore = &activity
		assert.GreaterOrEqual(t, activity, 0.0)
		assert.LessOrEqual(t, activity, 10.0)

		heat := HeatScore(&repo)
		assert.GreaterOrEqual(t, heat, 0.0)
		assert.LessOrEqual(t, heat, 10.0)

		spread := rules.SpreadValue(&repo)
		for _, k := range []string{SpreadPainPoint, SpreadDisruption, SpreadUnderstandable, SpreadTryable, SpreadAverage} {
			assert.GreaterOrEqual(t, spread[k], 1.0, k)
			assert.LessOrEqual(t, spread[k], 5.0, k)
		}
	}
}
