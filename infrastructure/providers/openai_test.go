package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/ports"
)

func testCredentials() StaticCredentialStore {
	return StaticCredentialStore{"openai": "test-key"}
}

// envelopeWith wraps the given text in the provider response envelope.
func envelopeWith(text string) string {
	encoded, _ := json.Marshal(ResponseEnvelope{Output: []OutputItem{
		{Type: "message", Content: []ContentPart{{Type: "output_text", Text: text}}},
	}})
	return string(encoded)
}

func sampleRequest(source domain.Source) ports.AdapterRequest {
	return ports.AdapterRequest{
		Source: source,
		Questions: []domain.Question{
			{ID: "budget", Label: "Budget", Type: domain.QuestionSingle, Options: []string{"Low", "Mid", "High"}, Required: true},
		},
		Answers: domain.AnswerSet{"budget": "Mid"},
		WordBank: []domain.WordBankEntry{
			{ID: "item_1", Word: "listing_riverside_2br"},
			{ID: "item_2", Word: "listing_metro_studio"},
		},
	}
}

func TestOpenAIAdapter_Success(t *testing.T) {
	var capturedAuth string
	var capturedBody openAIRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(envelopeWith(`{"items": [{"id": "listing_riverside_2br", "score": 0.9}, {"id": "listing_metro_studio", "score": 0.4}]}`)))
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter(testCredentials(), server.Client())
	require.NoError(t, err)

	result := adapter.Run(context.Background(), sampleRequest(domain.Source{
		ID:       "source_openai",
		Name:     "OpenAI Recommender",
		Provider: "openai",
		Endpoint: server.URL,
		Weight:   2,
	}))

	require.Empty(t, result.Issues)
	require.Len(t, result.Items, 2)
	assert.Equal(t, domain.ScoredItem{ID: "listing_riverside_2br", Score: 1.8, Source: "OpenAI Recommender"}, result.Items[0])
	assert.Equal(t, domain.ScoredItem{ID: "listing_metro_studio", Score: 0.8, Source: "OpenAI Recommender"}, result.Items[1])

	assert.Equal(t, "Bearer test-key", capturedAuth)
	assert.Equal(t, OpenAIDefaultModel, capturedBody.Model)
	assert.Equal(t, 0.2, capturedBody.Temperature)
	assert.Contains(t, capturedBody.Input, "listing_riverside_2br")
	assert.Contains(t, capturedBody.Input, `"budget"`)
}

func TestOpenAIAdapter_MissingCredential(t *testing.T) {
	adapter, err := NewOpenAIAdapter(StaticCredentialStore{}, nil)
	require.NoError(t, err)

	result := adapter.Run(context.Background(), sampleRequest(domain.Source{ID: "src"}))

	assert.Empty(t, result.Items)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "src_missing_api_key", result.Issues[0].Code)
}

func TestOpenAIAdapter_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close() // connection refused from here on

	adapter, err := NewOpenAIAdapter(testCredentials(), nil)
	require.NoError(t, err)

	result := adapter.Run(context.Background(), sampleRequest(domain.Source{ID: "src", Endpoint: endpoint}))

	assert.Empty(t, result.Items)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "src_network_error", result.Issues[0].Code)
	assert.NotEmpty(t, result.Issues[0].Message)
}

func TestOpenAIAdapter_HTTPErrorTruncatesBody(t *testing.T) {
	longBody := strings.Repeat("x", 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(longBody))
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter(testCredentials(), server.Client())
	require.NoError(t, err)

	result := adapter.Run(context.Background(), sampleRequest(domain.Source{ID: "src", Endpoint: server.URL}))

	assert.Empty(t, result.Items)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "src_http_error", result.Issues[0].Code)
	assert.Contains(t, result.Issues[0].Message, "HTTP 429")
	assert.Contains(t, result.Issues[0].Message, strings.Repeat("x", 240))
	assert.NotContains(t, result.Issues[0].Message, strings.Repeat("x", 241))
}

func TestOpenAIAdapter_InvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"envelope is not JSON", "<html>gateway error</html>"},
		{"text is not JSON", envelopeWith("sorry, I cannot produce JSON today")},
		{"items key missing", envelopeWith(`{"recommendations": []}`)},
		{"items is not an array", envelopeWith(`{"items": {"id": "x"}}`)},
		{"empty envelope", `{"output": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter, err := NewOpenAIAdapter(testCredentials(), server.Client())
			require.NoError(t, err)

			result := adapter.Run(context.Background(), sampleRequest(domain.Source{ID: "src", Endpoint: server.URL}))

			assert.Empty(t, result.Items)
			require.Len(t, result.Issues, 1)
			assert.Equal(t, "src_invalid_response", result.Issues[0].Code)
		})
	}
}

func TestOpenAIAdapter_RecoversFencedJSON(t *testing.T) {
	text := "Here are my picks:\n```json\n{\"items\": [{\"id\": \"x\", \"score\": 1}]}\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelopeWith(text)))
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter(testCredentials(), server.Client())
	require.NoError(t, err)

	result := adapter.Run(context.Background(), sampleRequest(domain.Source{ID: "src", Name: "Src", Endpoint: server.URL}))

	require.Empty(t, result.Issues)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "x", result.Items[0].ID)
}

func TestOpenAIAdapter_DropsItemsWithoutStringID(t *testing.T) {
	text := `{"items": [{"id": 42, "score": 9}, {"score": 1}, {"id": "keep", "score": "not a number"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelopeWith(text)))
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter(testCredentials(), server.Client())
	require.NoError(t, err)

	result := adapter.Run(context.Background(), sampleRequest(domain.Source{ID: "src", Name: "Src", Endpoint: server.URL}))

	require.Empty(t, result.Issues)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "keep", result.Items[0].ID)
	assert.Equal(t, 0.0, result.Items[0].Score, "non-numeric scores coerce to zero")
}

func TestOpenAIAdapter_PromptMentionsTopKAndModel(t *testing.T) {
	var captured openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(envelopeWith(`{"items": []}`)))
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter(testCredentials(), server.Client())
	require.NoError(t, err)

	result := adapter.Run(context.Background(), sampleRequest(domain.Source{
		ID:       "src",
		Endpoint: server.URL,
		Model:    "gpt-4.1",
		TopK:     3,
	}))

	require.Empty(t, result.Issues)
	assert.Equal(t, "gpt-4.1", captured.Model)
	assert.Contains(t, captured.Input, "at most 3 entries")
}

func TestOpenAIAdapter_OpenUniverse(t *testing.T) {
	var captured openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(envelopeWith(`{"items": []}`)))
	}))
	defer server.Close()

	adapter, err := NewOpenAIAdapter(testCredentials(), server.Client())
	require.NoError(t, err)

	req := sampleRequest(domain.Source{ID: "src", Endpoint: server.URL})
	req.WordBank = nil

	result := adapter.Run(context.Background(), req)

	require.Empty(t, result.Issues)
	assert.Contains(t, captured.Input, "Any candidate ID may be recommended")
	assert.NotContains(t, captured.Input, "Allowed IDs")
}

func TestNewOpenAIAdapter_RequiresCredentialStore(t *testing.T) {
	_, err := NewOpenAIAdapter(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyValue)
}
