package trend

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/montanaflynn/stats"

	"github.com/elonfeng/reporadar/pkg/source"
)

// Spread sub-dimension names as they appear in spread_detail.
const (
	SpreadPainPoint      = "pain_point"
	SpreadDisruption     = "disruption"
	SpreadUnderstandable = "understandable"
	SpreadTryable        = "tryable"
	SpreadAverage        = "average"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the ISO-8601 shapes the fetcher emits.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ActivityScore rates freshness and project health on a 0-10 scale.
// A missing or unparseable pushed_at contributes nothing.
func ActivityScore(repo *source.Repository, now time.Time) float64 {
	score := 0.0

	if repo.License != "" {
		score += 1.5
	}

	score += math.Min(float64(len(repo.Topics))*0.3, 2.0)

	if pushed, ok := parseTimestamp(repo.PushedAt); ok {
		daysAgo := int(math.Floor(now.Sub(pushed).Hours() / 24))
		switch {
		case daysAgo <= 1:
			score += 3.0
		case daysAgo <= 7:
			score += 2.0
		case daysAgo <= 30:
			score += 1.0
		}
	}

	if repo.Forks > 0 {
		ratio := float64(repo.Stars) / float64(repo.Forks)
		if ratio >= 5 && ratio <= 50 {
			score += 1.5
		}
	}

	if repo.OpenIssues >= 5 && repo.OpenIssues <= 100 {
		score += 1.0
	}

	return clamp(score, 0, 10)
}

// HeatScore rates popularity on a 0-10 scale. It depends on the activity
// score, so ActivityScore must run first.
func HeatScore(repo *source.Repository) float64 {
	score := 0.0
	if repo.Stars > 0 {
		score = math.Min(math.Log10(float64(repo.Stars))*2, 8)
	}

	if repo.Forks > 0 && repo.Stars > 0 {
		ratio := float64(repo.Forks) / float64(repo.Stars)
		if ratio >= 0.05 && ratio <= 0.3 {
			score++
		}
	}

	score += repo.Activity() * 0.1
	return clamp(score, 0, 10)
}

// SpreadValue scores how well the repository's story travels. Each of the
// four sub-scores lies in [1, 5]; the map also carries their average
// rounded to two decimals under "average".
func (r *Rules) SpreadValue(repo *source.Repository) map[string]float64 {
	desc := strings.ToLower(repo.Description)
	topics := lowerSet(repo.Topics)

	pain := 0
	for _, kw := range r.PainKeywords {
		if strings.Contains(desc, strings.ToLower(kw)) {
			pain++
		}
	}

	disrupt := 0
	for _, kw := range r.DisruptKeywords {
		kw = strings.ToLower(kw)
		if _, ok := topics[kw]; ok || strings.Contains(desc, kw) {
			disrupt++
		}
	}

	understandable := 2.0
	switch n := utf8.RuneCountInString(repo.Description); {
	case n >= 50 && n <= 200:
		understandable = 4
	case n >= 30 && n <= 250:
		understandable = 3
	}
	if len(repo.Topics) >= 3 {
		understandable = math.Min(understandable+1, 5)
	}

	tryable := 2.0
	if r.IsOpenLicense(repo.License) {
		tryable++
	}
	if activity := repo.Activity(); activity >= 5 {
		tryable++
		if activity >= 8 {
			tryable++
		}
	}

	detail := map[string]float64{
		SpreadPainPoint:      clamp(float64(pain+2), 1, 5),
		SpreadDisruption:     clamp(float64(disrupt+1), 1, 5),
		SpreadUnderstandable: understandable,
		SpreadTryable:        clamp(tryable, 1, 5),
	}

	avg, _ := stats.Mean(stats.Float64Data{
		detail[SpreadPainPoint],
		detail[SpreadDisruption],
		detail[SpreadUnderstandable],
		detail[SpreadTryable],
	})
	detail[SpreadAverage] = round2(avg)
	return detail
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func round2(v float64) float64 {
	rounded, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return rounded
}
