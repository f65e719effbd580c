// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/sourceblend/recommender/internal/domain"
)

// AdapterRequest carries everything a provider adapter needs for one
// invocation: the source's configuration, the normalized questionnaire,
// the respondent's answers, and the global word bank.
type AdapterRequest struct {
	// Source is the configuration of the source being queried.
	Source domain.Source

	// Questions is the normalized questionnaire providing intent
	// context for the provider.
	Questions []domain.Question

	// Answers maps question IDs to the respondent's answers.
	Answers domain.AnswerSet

	// WordBank is the global list of recommendable item identifiers.
	WordBank []domain.WordBankEntry
}

// AdapterResult is the outcome of one adapter invocation. Adapters
// never fail: every failure mode is converted into an Issue and an
// empty item list, so a misbehaving source degrades the run instead of
// aborting it.
type AdapterResult struct {
	// Items holds the weighted, per-source scored candidates.
	Items []domain.ScoredItem

	// Issues holds the non-fatal diagnostics encountered while
	// querying the source.
	Issues []domain.Issue
}

// ProviderAdapter bridges one provider variant into the aggregation
// engine. Implementations must be stateless and safe for concurrent
// use; each Run call performs at most one blocking network round trip.
//
// Adding a provider means registering a new implementation with the
// engine's registry, never modifying the aggregation loop.
type ProviderAdapter interface {
	// Name returns the provider key this adapter serves (e.g. "openai").
	Name() string

	// Run queries the source and returns its scored items plus any
	// issues. Implementations must respect context cancellation and
	// report a deadline as a network_error issue rather than an error.
	Run(ctx context.Context, req AdapterRequest) AdapterResult
}

// CredentialStore resolves upstream API credentials for providers.
// Implementations could read from the process environment, a secrets
// manager, or a vault service.
type CredentialStore interface {
	// Credential returns the API credential for the named provider,
	// or the empty string when none is configured.
	Credential(provider string) string
}
