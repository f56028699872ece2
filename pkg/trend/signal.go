package trend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/elonfeng/reporadar/pkg/source"
)

// inflatedStars is the star count above which low activity looks suspicious.
const inflatedStars = 5000

// Adjust applies lexical and statistical signals to base and returns the
// adjusted score, floored at zero, together with one description per
// applied adjustment in application order.
func (r *Rules) Adjust(repo *source.Repository, base float64) (float64, []string) {
	score := base
	adjustments := []string{}

	name := strings.ToLower(repo.Name)
	desc := strings.ToLower(repo.Description)
	topics := make([]string, len(repo.Topics))
	for i, t := range repo.Topics {
		topics[i] = strings.ToLower(t)
	}

	for _, topic := range r.PositiveTopics {
		if slices.Contains(topics, strings.ToLower(topic)) {
			score += 0.3
			adjustments = append(adjustments, fmt.Sprintf("+0.3 (topic: %s)", topic))
		}
	}

	if r.IsOpenLicense(repo.License) {
		score += 0.5
		adjustments = append(adjustments, fmt.Sprintf("+0.5 (license: %s)", repo.License))
	}

	if kw, ok := firstContained(name, r.NegativeNames); ok {
		score -= 1.0
		adjustments = append(adjustments, fmt.Sprintf("-1.0 (name: %s)", kw))
	}

	if kw, ok := firstContained(desc, r.SpamKeywords); ok {
		score -= 2.0
		adjustments = append(adjustments, fmt.Sprintf("-2.0 (desc: %s)", kw))
	}

	if repo.Stars > inflatedStars && repo.Activity() < 3 {
		score -= 1.5
		adjustments = append(adjustments, "-1.5 (high stars but low activity)")
	}

	return max(score, 0), adjustments
}

// firstContained returns the first keyword that is a substring of text.
func firstContained(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
