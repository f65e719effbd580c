package domain

// Issue kinds emitted by adapters and the aggregation engine.
// The full issue code is the kind namespaced by the source ID, e.g.
// "source_openai_missing_api_key".
const (
	// IssueMissingAPIKey signals that the required upstream credential
	// is absent.
	IssueMissingAPIKey = "missing_api_key"

	// IssueNetworkError signals a transport-level failure reaching the
	// provider, including per-adapter timeouts.
	IssueNetworkError = "network_error"

	// IssueHTTPError signals a non-success HTTP status from the
	// provider.
	IssueHTTPError = "http_error"

	// IssueInvalidResponse signals that the provider response could not
	// be parsed into the expected item-array shape.
	IssueInvalidResponse = "invalid_response"

	// IssueUnsupportedProvider signals that a source names a provider
	// with no registered adapter.
	IssueUnsupportedProvider = "unsupported_provider"
)

// Issue is a structured, non-fatal diagnostic describing a degraded or
// skipped contribution to the result. Issues accumulate across a whole
// run and never abort it.
type Issue struct {
	// Code is a stable identifier of the form "<sourceID>_<kind>".
	Code string `json:"code"`

	// Message is a human-readable description of what went wrong.
	Message string `json:"message"`
}

// NewIssue builds an Issue with its code namespaced by the source ID.
func NewIssue(sourceID, kind, message string) Issue {
	return Issue{Code: sourceID + "_" + kind, Message: message}
}
