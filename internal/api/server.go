// Package api implements the HTTP layer for the Diabetes Risk Planner.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/planner"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// JWTSecret verifies the HS256 bearer tokens. Tokens are issued by the
	// identity provider, never by this service.
	JWTSecret []byte

	// Env is "production", "staging", or "development".
	Env string

	// RequestTimeout bounds a whole request. Plan pages make up to three
	// generation calls in parallel, so it must exceed the generation timeout.
	RequestTimeout time.Duration
}

// Planner is the pipeline the handlers drive. *planner.Service satisfies it.
type Planner interface {
	SubmitAssessment(ctx context.Context, sessionID, userID string, raw map[string]string) (classifier.RiskLabel, error)
	Dashboard(ctx context.Context, sessionID string) (planner.DashboardView, error)
	EndSession(ctx context.Context, sessionID string) error
	GetDietPlan(ctx context.Context, sessionID, chatQuery string) (planner.PlanResponse, error)
	GetWorkoutPlan(ctx context.Context, sessionID, chatQuery string) (planner.PlanResponse, error)
	SearchExercise(ctx context.Context, term string) planner.SearchResult
	SearchFood(ctx context.Context, term string) planner.SearchResult
	Progress(ctx context.Context, sessionID string) (planner.ProgressView, error)
	History(ctx context.Context, userID string, limit int) (planner.HistoryView, error)
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	planner Planner
	cfg     Config
	logger  *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(p Planner, cfg Config, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	s := &Server{
		planner: p,
		cfg:     cfg,
		logger:  logger,
	}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)

		// Search pages do not depend on the assessment.
		r.Get("/search/exercise", s.handleSearchExercise)
		r.Get("/search/food", s.handleSearchFood)

		r.Get("/history", s.handleHistory)

		// Session-scoped routes.
		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			r.Post("/assessment", s.handleSubmitAssessment)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/progress", s.handleProgress)
			r.Delete("/session", s.handleEndSession)

			r.Get("/plans/diet", s.handleDietPlan)
			r.Post("/plans/diet", s.handleDietPlan)
			r.Get("/plans/workout", s.handleWorkoutPlan)
			r.Post("/plans/workout", s.handleWorkoutPlan)
		})
	})

	return r
}
