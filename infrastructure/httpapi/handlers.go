package httpapi

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sourceblend/recommender/internal/application"
	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/questionnaire"
)

const serviceName = "recommender-api"

type recommendRequest struct {
	Questions []domain.RawQuestion   `json:"questions"`
	Answers   domain.AnswerSet       `json:"answers"`
	Sources   []domain.Source        `json:"sources"`
	WordBank  []domain.WordBankEntry `json:"wordBank"`
}

type recommendMetadata struct {
	QuestionCount int       `json:"questionCount"`
	SourceCount   int       `json:"sourceCount"`
	WordCount     int       `json:"wordCount"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

type recommendResponse struct {
	Recommendations []domain.AggregatedRecommendation `json:"recommendations"`
	Issues          []domain.Issue                    `json:"issues"`
	Metadata        recommendMetadata                 `json:"metadata"`
}

type questionnaireRequest struct {
	Questions []domain.RawQuestion `json:"questions"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status           string    `json:"status"`
	Service          string    `json:"service"`
	OpenAIConfigured bool      `json:"openaiConfigured"`
	Timestamp        time.Time `json:"timestamp"`
}

// handleRecommend normalizes the submitted questionnaire, fans the
// request out to every enabled source, and frames the aggregate with
// request metadata.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Failed to generate recommendations",
			Details: err.Error(),
		})
		return
	}

	questions := questionnaire.Normalize(req.Questions)
	answers := req.Answers
	if answers == nil {
		answers = domain.AnswerSet{}
	}

	result := s.engine.Run(r.Context(), application.RunInput{
		Sources:   req.Sources,
		Questions: questions,
		Answers:   answers,
		WordBank:  req.WordBank,
	})

	writeJSON(w, http.StatusOK, recommendResponse{
		Recommendations: result.Recommendations,
		Issues:          result.Issues,
		Metadata: recommendMetadata{
			QuestionCount: len(questions),
			SourceCount:   len(req.Sources),
			WordCount:     len(req.WordBank),
			GeneratedAt:   time.Now().UTC(),
		},
	})
}

// handleQuestionnaire exposes the schema builder so embedding clients
// can render a form without replicating the normalization rules.
func (s *Server) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req questionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Failed to build questionnaire",
			Details: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, questionnaire.Build(req.Questions))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	configured := s.credentials.Credential("openai") != ""
	status := "ok"
	if !configured {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           status,
		Service:          serviceName,
		OpenAIConfigured: configured,
		Timestamp:        time.Now().UTC(),
	})
}

// handleSample returns a ready-to-submit payload exercising every
// request field, for smoke-testing a deployment.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	enabled := true
	writeJSON(w, http.StatusOK, recommendRequest{
		Questions: []domain.RawQuestion{
			{
				ID:       "budget",
				Label:    "What is your budget?",
				Type:     "single",
				Options:  []any{"Low", "Mid", "High"},
				Required: true,
			},
			{
				ID:       "use_case",
				Label:    "What are you using this for?",
				Type:     "multi",
				Options:  []any{"Work", "Travel", "Gaming"},
				Required: true,
			},
		},
		Answers: domain.AnswerSet{
			"purpose":             "Buy to live",
			"budget_range":        "$300,000-$600,000",
			"property_type":       []any{"Condo", "Townhouse"},
			"bedrooms":            "2",
			"location_preference": []any{"Near transport", "City center"},
			"timeline":            "1-3 months",
		},
		Sources: []domain.Source{
			{
				ID:                     "source_openai",
				Name:                   "OpenAI Recommender",
				Provider:               "openai",
				Endpoint:               "https://api.openai.com/v1/responses",
				Model:                  "gpt-4.1-mini",
				Weight:                 1,
				Enabled:                &enabled,
				PromptTemplate:         "Return top 5 recommendation IDs with confidence scores",
				RecommendationUniverse: "listing_riverside_2br\nlisting_metro_studio\nlisting_greenfield_3br",
			},
		},
		WordBank: []domain.WordBankEntry{
			{ID: "item_1", Word: "listing_riverside_2br", Enabled: &enabled},
			{ID: "item_2", Word: "listing_metro_studio", Enabled: &enabled},
			{ID: "item_3", Word: "listing_greenfield_3br", Enabled: &enabled},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
