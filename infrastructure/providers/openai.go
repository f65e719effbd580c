// Package providers implements the provider adapters that feed the
// aggregation engine, along with the response-recovery logic and the
// middleware chain shared by all adapters.
//
// Adapters never fail: every failure mode — missing credential,
// transport error, non-success status, unparsable payload — is
// converted into a namespaced Issue and an empty item list, so a
// single misbehaving source degrades the run instead of aborting it.
package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/ports"
)

const (
	// OpenAIDefaultEndpoint is used when a source does not configure
	// its own endpoint.
	OpenAIDefaultEndpoint = "https://api.openai.com/v1/responses"

	// OpenAIDefaultModel is used when a source does not name a model.
	OpenAIDefaultModel = "gpt-4.1-mini"

	// requestTemperature keeps provider output near-deterministic.
	requestTemperature = 0.2

	// maxErrorBodyChars bounds how much of an error response body is
	// copied into an http_error issue message.
	maxErrorBodyChars = 240

	// maxResponseBytes bounds how much of a success response body is
	// read before envelope decoding.
	maxResponseBytes = 1 << 20
)

var _ ports.ProviderAdapter = (*OpenAIAdapter)(nil)

// openAIRequest is the wire format POSTed to the provider endpoint.
type openAIRequest struct {
	Model       string  `json:"model"`
	Input       string  `json:"input"`
	Temperature float64 `json:"temperature"`
}

// itemsPayload is the JSON shape the provider is instructed to return.
// IDs and scores stay loosely typed so one malformed entry does not
// discard the whole payload.
type itemsPayload struct {
	Items []payloadItem `json:"items"`
}

type payloadItem struct {
	ID    any `json:"id"`
	Score any `json:"score"`
}

// OpenAIAdapter queries openai-style HTTP/JSON providers: a single
// POST of {model, input, temperature} answered by a nested response
// envelope carrying the recommendation JSON as text.
type OpenAIAdapter struct {
	credentials ports.CredentialStore
	httpClient  *http.Client
}

// NewOpenAIAdapter creates the reference openai-style adapter.
// A nil httpClient selects http.DefaultClient; callers impose
// per-adapter timeouts through the middleware chain or a custom client.
func NewOpenAIAdapter(credentials ports.CredentialStore, httpClient *http.Client) (*OpenAIAdapter, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential store cannot be nil: %w", domain.ErrEmptyValue)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIAdapter{credentials: credentials, httpClient: httpClient}, nil
}

// Name returns the provider key this adapter serves.
func (a *OpenAIAdapter) Name() string { return "openai" }

// Run queries the source's endpoint and maps the recovered payload to
// weighted scored items. All failure modes surface as issues.
func (a *OpenAIAdapter) Run(ctx context.Context, req ports.AdapterRequest) ports.AdapterResult {
	source := req.Source

	apiKey := a.credentials.Credential(a.Name())
	if apiKey == "" {
		return issueResult(source.ID, domain.IssueMissingAPIKey,
			fmt.Sprintf("credential for provider %q is not configured", a.Name()))
	}

	topK := source.ResolveTopK()
	allowed := ResolveUniverse(source, req.WordBank)
	prompt := buildPrompt(req, topK, allowed)

	body, err := json.Marshal(openAIRequest{
		Model:       modelOrDefault(source),
		Input:       prompt,
		Temperature: requestTemperature,
	})
	if err != nil {
		return issueResult(source.ID, domain.IssueInvalidResponse,
			fmt.Sprintf("failed to encode provider request: %v", err))
	}

	endpoint := source.Endpoint
	if endpoint == "" {
		endpoint = OpenAIDefaultEndpoint
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return issueResult(source.ID, domain.IssueNetworkError,
			fmt.Sprintf("failed to build provider request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		// Timeouts and cancellations land here as well and report
		// the same network_error class.
		return issueResult(source.ID, domain.IssueNetworkError, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return issueResult(source.ID, domain.IssueHTTPError,
			fmt.Sprintf("provider returned HTTP %d: %s", resp.StatusCode, readErrorBody(resp.Body)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return issueResult(source.ID, domain.IssueNetworkError,
			fmt.Sprintf("failed to read provider response: %v", err))
	}

	var envelope ResponseEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return issueResult(source.ID, domain.IssueInvalidResponse,
			fmt.Sprintf("provider response envelope is not valid JSON: %v", err))
	}

	var payload itemsPayload
	if !DecodeJSONPayload(ExtractText(envelope), &payload) || payload.Items == nil {
		return issueResult(source.ID, domain.IssueInvalidResponse,
			"provider response did not contain a parsable items array")
	}

	weight := source.EffectiveWeight()
	items := make([]domain.ScoredItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		// Entries without a string id are dropped silently;
		// permissive filtering of malformed entries is intentional.
		id, ok := item.ID.(string)
		if !ok {
			continue
		}
		items = append(items, domain.ScoredItem{
			ID:     id,
			Score:  asNumber(item.Score) * weight,
			Source: source.Name,
		})
	}

	return ports.AdapterResult{Items: items}
}

func issueResult(sourceID, kind, message string) ports.AdapterResult {
	return ports.AdapterResult{Issues: []domain.Issue{domain.NewIssue(sourceID, kind, message)}}
}

func modelOrDefault(source domain.Source) string {
	if source.Model != "" {
		return source.Model
	}
	return OpenAIDefaultModel
}

// readErrorBody returns up to maxErrorBodyChars characters of an error
// response body for diagnostic messages.
func readErrorBody(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxResponseBytes))
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(raw))
	if runes := []rune(text); len(runes) > maxErrorBodyChars {
		return string(runes[:maxErrorBodyChars])
	}
	return text
}

// asNumber coerces a JSON-decoded score value to float64, defaulting
// to 0 for anything non-numeric.
func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// buildPrompt assembles the provider instruction: the strict JSON
// contract, the source's own instruction text, and the run context
// (questions, answers, source configuration, allowed IDs).
func buildPrompt(req ports.AdapterRequest, topK int, allowed []string) string {
	var b strings.Builder

	b.WriteString("You are a recommendation source inside a multi-source recommendation engine.\n")
	fmt.Fprintf(&b, "Return strictly JSON of the shape {\"items\": [{\"id\": string, \"score\": number}]} with at most %d entries.\n\n", topK)

	instruction := strings.TrimSpace(req.Source.PromptTemplate)
	if instruction == "" {
		instruction = fmt.Sprintf("Recommend the top %d candidate IDs with confidence scores.", topK)
	}
	b.WriteString("Source instructions:\n")
	b.WriteString(instruction)
	b.WriteString("\n\n")

	b.WriteString("Use these questions to understand intent:\n")
	writeJSON(&b, req.Questions)

	b.WriteString("User answers:\n")
	writeJSON(&b, req.Answers)

	b.WriteString("Source configuration:\n")
	writeJSON(&b, req.Source)

	if len(allowed) > 0 {
		b.WriteString("Allowed IDs (recommend only these):\n")
		writeJSON(&b, allowed)
	} else {
		// No universe constraint: the candidate space stays open.
		b.WriteString("Any candidate ID may be recommended.\n")
	}

	return strings.TrimSpace(b.String())
}

func writeJSON(b *strings.Builder, v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		encoded = []byte("null")
	}
	b.Write(encoded)
	b.WriteString("\n\n")
}
