package trend

import (
	"strings"

	"github.com/elonfeng/reporadar/pkg/source"
)

// Classify assigns a domain to repo. Any hint other than "all" (or empty) is
// returned unchanged. Otherwise the first catalog domain with at least two
// keyword hits wins, where a hit is a substring of the description or an
// exact topic. Catalog order breaks ties, not hit counts.
func (r *Rules) Classify(repo *source.Repository, hint source.Domain) source.Domain {
	if hint != "" && hint != source.DomainAll {
		return hint
	}

	desc := strings.ToLower(repo.Description)
	topics := lowerSet(repo.Topics)

	for _, entry := range r.Catalog {
		matches := 0
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(kw)
			if _, ok := topics[kw]; ok || strings.Contains(desc, kw) {
				matches++
			}
		}
		if matches >= 2 {
			return entry.Domain
		}
	}

	if repo.Language != "" {
		for _, ld := range r.Languages {
			if ld.Language == repo.Language {
				return ld.Domain
			}
		}
	}
	return source.DomainOther
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
