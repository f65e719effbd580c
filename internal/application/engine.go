package application

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/ports"
)

// DefaultMaxConcurrency limits concurrent adapter invocations when no
// explicit limit is configured. Sources are independent, so fan-out is
// safe; the limit only protects upstream providers from bursts.
const DefaultMaxConcurrency = 4

// RunInput is the complete input of one aggregation run, as received
// from the transport collaborator.
type RunInput struct {
	// Sources lists every configured source; disabled ones are
	// filtered out by the engine.
	Sources []domain.Source

	// Questions is the normalized questionnaire.
	Questions []domain.Question

	// Answers maps question IDs to the respondent's answers.
	Answers domain.AnswerSet

	// WordBank is the global candidate vocabulary.
	WordBank []domain.WordBankEntry
}

// Engine merges the outputs of all enabled sources into a single
// ranked, deduplicated, bounded recommendation list. The engine owns no
// state across invocations; each Run is a pure function of its inputs
// plus the adapters' network calls.
type Engine struct {
	registry       *Registry
	maxConcurrency int
}

// NewEngine creates an aggregation engine backed by the given adapter
// registry. A non-positive maxConcurrency selects
// DefaultMaxConcurrency.
func NewEngine(registry *Registry, maxConcurrency int) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("adapter registry cannot be nil: %w", domain.ErrEmptyValue)
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Engine{registry: registry, maxConcurrency: maxConcurrency}, nil
}

// Run fans out to every enabled source, merges the weighted scores per
// item identifier, ranks, and truncates to the bound derived from the
// sources' resolved topK values. Per-source failures surface as issues
// and never abort the run: the result always holds a (possibly empty)
// ranked list plus every collected issue.
//
// Adapters execute concurrently, but per-source results are merged in a
// single-threaded reduction in declared source order, so the output is
// deterministic for identical inputs and equal to sequential
// processing.
func (e *Engine) Run(ctx context.Context, input RunInput) domain.Result {
	enabled := enabledSources(input.Sources)
	bound := resultBound(enabled)

	results := make([]ports.AdapterResult, len(enabled))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)

	for i, source := range enabled {
		adapter, ok := e.registry.Get(source.Provider)
		if !ok {
			results[i] = ports.AdapterResult{
				Issues: []domain.Issue{domain.NewIssue(
					source.ID,
					domain.IssueUnsupportedProvider,
					fmt.Sprintf("no adapter registered for provider %q", source.Provider),
				)},
			}
			continue
		}

		req := ports.AdapterRequest{
			Source:    source,
			Questions: input.Questions,
			Answers:   input.Answers,
			WordBank:  input.WordBank,
		}
		g.Go(func() error {
			results[i] = adapter.Run(gctx, req)
			return nil
		})
	}

	// Adapters never return errors; Wait only orders the writes above.
	_ = g.Wait()

	issues := []domain.Issue{}
	for _, res := range results {
		issues = append(issues, res.Issues...)
	}

	recommendations := foldItems(results)
	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Score > recommendations[j].Score
	})
	if len(recommendations) > bound {
		recommendations = recommendations[:bound]
	}

	return domain.Result{Recommendations: recommendations, Issues: issues}
}

// enabledSources filters to sources that have not explicitly opted out.
func enabledSources(sources []domain.Source) []domain.Source {
	enabled := make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		if s.IsEnabled() {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// resultBound is the maximum of the enabled sources' resolved topK
// values, or DefaultTopK when no sources are enabled. Issues are never
// subject to this bound.
func resultBound(enabled []domain.Source) int {
	bound := domain.DefaultTopK
	for i, s := range enabled {
		if k := s.ResolveTopK(); i == 0 || k > bound {
			bound = k
		}
	}
	return bound
}

// foldItems reduces the concatenated per-source item lists into one
// aggregate per item identifier. The first sighting of an identifier
// fixes its position, so equal scores keep first-seen order after the
// stable sort; every sighting adds its weighted score to the running
// total and appends a contributor record.
func foldItems(results []ports.AdapterResult) []domain.AggregatedRecommendation {
	index := make(map[string]int)
	aggregated := []domain.AggregatedRecommendation{}

	for _, res := range results {
		for _, item := range res.Items {
			pos, seen := index[item.ID]
			if !seen {
				pos = len(aggregated)
				index[item.ID] = pos
				aggregated = append(aggregated, domain.AggregatedRecommendation{
					ID:           item.ID,
					Contributors: []domain.Contributor{},
				})
			}
			aggregated[pos].Score += item.Score
			aggregated[pos].Contributors = append(aggregated[pos].Contributors, domain.Contributor{
				Source: item.Source,
				Score:  item.Score,
			})
		}
	}

	return aggregated
}
