package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceblend/recommender/infrastructure/providers"
	"github.com/sourceblend/recommender/internal/application"
	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/ports"
)

type stubAdapter struct {
	name  string
	items []domain.ScoredItem
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Run(_ context.Context, req ports.AdapterRequest) ports.AdapterResult {
	weight := req.Source.EffectiveWeight()
	items := make([]domain.ScoredItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, domain.ScoredItem{
			ID:     item.ID,
			Score:  item.Score * weight,
			Source: req.Source.Name,
		})
	}
	return ports.AdapterResult{Items: items}
}

func newTestServer(t *testing.T, creds providers.StaticCredentialStore, adapters ...ports.ProviderAdapter) *Server {
	t.Helper()

	registry := application.NewRegistry()
	for _, adapter := range adapters {
		require.NoError(t, registry.Register(adapter))
	}
	engine, err := application.NewEngine(registry, 0)
	require.NoError(t, err)

	server, err := NewServer(engine, creds, zerolog.Nop())
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRecommendAggregatesAndFramesMetadata(t *testing.T) {
	server := newTestServer(t, providers.StaticCredentialStore{},
		&stubAdapter{name: "openai", items: []domain.ScoredItem{
			{ID: "alpha", Score: 3},
			{ID: "beta", Score: 1},
		}},
	)

	disabled := false
	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/v1/recommend", recommendRequest{
		Questions: []domain.RawQuestion{
			{ID: "budget", Label: "Budget?", Type: "single"},
		},
		Answers: domain.AnswerSet{"budget": "Low"},
		Sources: []domain.Source{
			{ID: "src", Name: "Primary", Provider: "openai", Weight: 2},
			{ID: "off", Name: "Off", Provider: "openai", Enabled: &disabled},
		},
		WordBank: []domain.WordBankEntry{
			{ID: "w1", Word: "alpha"},
			{ID: "w2", Word: "beta", Enabled: &disabled},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "alpha", resp.Recommendations[0].ID)
	assert.InDelta(t, 6.0, resp.Recommendations[0].Score, 1e-9)
	assert.Equal(t, "beta", resp.Recommendations[1].ID)
	assert.InDelta(t, 2.0, resp.Recommendations[1].Score, 1e-9)
	assert.Empty(t, resp.Issues)

	// Metadata counts reflect the raw submission, disabled entries
	// included.
	assert.Equal(t, 1, resp.Metadata.QuestionCount)
	assert.Equal(t, 2, resp.Metadata.SourceCount)
	assert.Equal(t, 2, resp.Metadata.WordCount)
	assert.False(t, resp.Metadata.GeneratedAt.IsZero())
}

func TestRecommendRejectsMalformedBody(t *testing.T) {
	server := newTestServer(t, providers.StaticCredentialStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to generate recommendations", resp.Error)
	assert.NotEmpty(t, resp.Details)
}

func TestRecommendReportsUnsupportedProvider(t *testing.T) {
	server := newTestServer(t, providers.StaticCredentialStore{})

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/recommend", recommendRequest{
		Sources: []domain.Source{
			{ID: "mystery", Name: "Mystery", Provider: "oracle"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Recommendations)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "mystery_unsupported_provider", resp.Issues[0].Code)
}

func TestQuestionnaireBuildsSchema(t *testing.T) {
	server := newTestServer(t, providers.StaticCredentialStore{})

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/v1/questionnaire", questionnaireRequest{
		Questions: []domain.RawQuestion{
			{ID: "Budget Range!", Label: "Budget?", Type: "single", Options: []any{"Low", "High"}, Required: true},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Schema struct {
			Type       string         `json:"type"`
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		} `json:"schema"`
		Questions []domain.Question `json:"normalizedQuestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "object", resp.Schema.Type)
	assert.Contains(t, resp.Schema.Properties, "budget_range")
	assert.Equal(t, []string{"budget_range"}, resp.Schema.Required)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "budget_range", resp.Questions[0].ID)
}

func TestHealthReflectsCredentialPresence(t *testing.T) {
	tests := []struct {
		name       string
		creds      providers.StaticCredentialStore
		wantStatus string
		wantConfig bool
	}{
		{
			name:       "credential present",
			creds:      providers.StaticCredentialStore{"openai": "sk-test"},
			wantStatus: "ok",
			wantConfig: true,
		},
		{
			name:       "credential absent",
			creds:      providers.StaticCredentialStore{},
			wantStatus: "degraded",
			wantConfig: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.creds)

			rec := doJSON(t, server.Handler(), http.MethodGet, "/api/v1/health", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp healthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, serviceName, resp.Service)
			assert.Equal(t, tt.wantConfig, resp.OpenAIConfigured)
			assert.False(t, resp.Timestamp.IsZero())
		})
	}
}

func TestSampleIsASubmittablePayload(t *testing.T) {
	server := newTestServer(t, providers.StaticCredentialStore{},
		&stubAdapter{name: "openai", items: []domain.ScoredItem{{ID: "listing_metro_studio", Score: 0.9}}},
	)

	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/v1/recommend/sample", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sample recommendRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sample))
	require.Len(t, sample.Sources, 1)
	assert.Equal(t, "openai", sample.Sources[0].Provider)
	assert.Len(t, sample.Questions, 2)
	assert.Len(t, sample.WordBank, 3)

	// The fixture must survive a round trip through the recommend
	// endpoint unchanged.
	run := doJSON(t, server.Handler(), http.MethodPost, "/api/v1/recommend", sample)
	require.Equal(t, http.StatusOK, run.Code)

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(run.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Metadata.QuestionCount)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "listing_metro_studio", resp.Recommendations[0].ID)
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, providers.StaticCredentialStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommend", nil)
	req.Header.Set("Origin", "https://widgets.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRequestIDHeader(t *testing.T) {
	server := newTestServer(t, providers.StaticCredentialStore{})

	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/v1/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	echo := httptest.NewRecorder()
	server.Handler().ServeHTTP(echo, req)
	assert.Equal(t, "fixed-id", echo.Header().Get("X-Request-Id"))
}

func TestNewServerRequiresDependencies(t *testing.T) {
	registry := application.NewRegistry()
	engine, err := application.NewEngine(registry, 0)
	require.NoError(t, err)

	_, err = NewServer(nil, providers.StaticCredentialStore{}, zerolog.Nop())
	require.ErrorIs(t, err, domain.ErrEmptyValue)

	_, err = NewServer(engine, nil, zerolog.Nop())
	require.ErrorIs(t, err, domain.ErrEmptyValue)
}
