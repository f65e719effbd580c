// Package httpapi implements the HTTP boundary around the aggregation
// engine: request decoding, CORS, response framing, and the metadata
// the core deliberately does not produce.
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sourceblend/recommender/internal/application"
	"github.com/sourceblend/recommender/internal/domain"
	"github.com/sourceblend/recommender/internal/ports"
)

// Server exposes the aggregation engine over HTTP.
type Server struct {
	engine      *application.Engine
	credentials ports.CredentialStore
	logger      zerolog.Logger
	router      chi.Router
}

// NewServer wires the engine and credential store into a routed HTTP
// handler.
func NewServer(engine *application.Engine, credentials ports.CredentialStore, logger zerolog.Logger) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil: %w", domain.ErrEmptyValue)
	}
	if credentials == nil {
		return nil, fmt.Errorf("credential store cannot be nil: %w", domain.ErrEmptyValue)
	}

	s := &Server{
		engine:      engine,
		credentials: credentials,
		logger:      logger,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the fully assembled HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/recommend", s.handleRecommend)
		r.Route("/v1", func(r chi.Router) {
			r.Post("/recommend", s.handleRecommend)
			r.Get("/recommend/sample", s.handleSample)
			r.Post("/questionnaire", s.handleQuestionnaire)
			r.Get("/health", s.handleHealth)
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestID stamps every request with a UUID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", ww.Header().Get("X-Request-Id")).
			Msg("request handled")
	})
}
