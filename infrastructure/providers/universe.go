package providers

import (
	"strings"

	"github.com/sourceblend/recommender/internal/domain"
)

// ResolveUniverse merges the enabled word-bank entries with the
// source's own newline-delimited candidate list into a deduplicated,
// first-seen-ordered set of allowed candidate IDs.
//
// An empty result means "no universe constraint": the adapter must
// treat the candidate space as open rather than forbidding everything.
func ResolveUniverse(source domain.Source, wordBank []domain.WordBankEntry) []string {
	seen := make(map[string]struct{})
	allowed := []string{}

	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		allowed = append(allowed, id)
	}

	for _, entry := range wordBank {
		if entry.IsEnabled() {
			add(entry.Word)
		}
	}

	// A source may extend the global universe with its own candidates.
	for _, line := range strings.Split(source.RecommendationUniverse, "\n") {
		add(line)
	}

	return allowed
}
