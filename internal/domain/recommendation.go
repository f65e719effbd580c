package domain

// ScoredItem is one candidate recommendation produced by a single
// adapter call. The score has already been multiplied by the source's
// weight; items are ephemeral and only live until the engine folds them
// into the aggregate.
type ScoredItem struct {
	// ID is the candidate identifier.
	ID string `json:"id"`

	// Score is the weighted score assigned by the contributing source.
	Score float64 `json:"score"`

	// Source is the display name of the contributing source.
	Source string `json:"source"`
}

// Contributor records which source contributed which weighted score to
// an aggregated recommendation.
type Contributor struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// AggregatedRecommendation is one entry of the final ranked result.
// It is created fresh per aggregation run and never persisted.
type AggregatedRecommendation struct {
	// ID is the candidate identifier.
	ID string `json:"id"`

	// Score is the sum of all contributing weighted scores.
	Score float64 `json:"score"`

	// Contributors lists the per-source score contributions in the
	// order the sources were merged.
	Contributors []Contributor `json:"contributors"`
}

// Result is the complete output of one aggregation run: a ranked,
// bounded recommendation list plus every non-fatal diagnostic collected
// along the way. Issues are never truncated.
type Result struct {
	Recommendations []AggregatedRecommendation `json:"recommendations"`
	Issues          []Issue                    `json:"issues"`
}
