package domain

import (
	"regexp"
	"strconv"
)

// TopK bounds shared by sources and the aggregation engine.
const (
	// DefaultTopK is the result bound used when a source specifies
	// neither an explicit topK nor a "top N" prompt directive.
	DefaultTopK = 5

	// MinTopK is the lowest admissible per-source result bound.
	MinTopK = 1

	// MaxTopK is the highest admissible per-source result bound.
	MaxTopK = 20
)

// topKDirective matches a case-insensitive "top N" token inside a
// prompt template, e.g. "Return top 5 recommendation IDs".
var topKDirective = regexp.MustCompile(`(?i)\btop\s+(\d+)\b`)

// Source is one independently configured recommendation provider.
// A source owns its endpoint, model, weight, and prompt instructions;
// sources are evaluated independently and their failures never abort a
// run.
type Source struct {
	// ID identifies the source and namespaces its issue codes.
	ID string `json:"id"`

	// Name is the display name stamped onto contributed items.
	Name string `json:"name"`

	// Provider keys into the adapter registry (e.g. "openai").
	Provider string `json:"provider"`

	// Endpoint overrides the provider's default API endpoint.
	Endpoint string `json:"endpoint,omitempty"`

	// Model names the upstream model to query.
	Model string `json:"model,omitempty"`

	// Weight multiplies every score this source contributes.
	// Zero means unset and is treated as 1.
	Weight float64 `json:"weight,omitempty"`

	// Enabled gates participation in a run. Nil means enabled;
	// only an explicit false disables the source.
	Enabled *bool `json:"enabled,omitempty"`

	// PromptTemplate is the operator-supplied instruction text.
	// It may embed a "top N" directive which bounds the result.
	PromptTemplate string `json:"promptTemplate,omitempty"`

	// RecommendationUniverse holds newline-delimited candidate IDs
	// that extend the global word bank for this source only.
	RecommendationUniverse string `json:"recommendationUniverse,omitempty"`

	// TopK explicitly bounds this source's result count.
	// Zero means unset.
	TopK int `json:"topK,omitempty"`
}

// IsEnabled reports whether the source participates in a run.
// A source is enabled unless it explicitly opts out.
func (s Source) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

// EffectiveWeight returns the score multiplier for this source,
// defaulting to 1 when unset.
func (s Source) EffectiveWeight() float64 {
	if s.Weight == 0 {
		return 1
	}
	return s.Weight
}

// ResolveTopK determines the result bound for this source.
// An explicit positive TopK wins, then a "top N" directive found in the
// prompt template, then DefaultTopK. The resolved value is always
// clamped to [MinTopK, MaxTopK].
func (s Source) ResolveTopK() int {
	if s.TopK > 0 {
		return clampTopK(s.TopK)
	}
	if m := topKDirective.FindStringSubmatch(s.PromptTemplate); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return clampTopK(n)
		}
	}
	return DefaultTopK
}

func clampTopK(n int) int {
	if n < MinTopK {
		return MinTopK
	}
	if n > MaxTopK {
		return MaxTopK
	}
	return n
}

// WordBankEntry is one operator-curated recommendable item identifier.
type WordBankEntry struct {
	// ID identifies the entry itself, not the candidate.
	ID string `json:"id"`

	// Word is the candidate identifier offered to providers.
	Word string `json:"word"`

	// Enabled gates the entry. Nil means enabled; only an explicit
	// false removes the word from the candidate universe.
	Enabled *bool `json:"enabled,omitempty"`
}

// IsEnabled reports whether the entry contributes to the candidate
// universe.
func (w WordBankEntry) IsEnabled() bool { return w.Enabled == nil || *w.Enabled }
