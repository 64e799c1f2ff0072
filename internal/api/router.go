package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Merit/internal/evaluation"
	"github.com/MikeSquared-Agency/Merit/internal/hermes"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

type RouterConfig struct {
	AdminToken string
	// RateLimit is requests per minute per caller; zero disables it.
	RateLimit int
}

func NewRouter(s store.Store, h hermes.Client, svc *evaluation.Service, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.RateLimit))

	teachers := NewTeachersHandler(s, h, svc)
	criteria := NewCriteriaHandler(s)
	comparisons := NewComparisonsHandler(s, h, svc)
	scores := NewScoresHandler(s, h, svc)
	rankings := NewRankingsHandler(s, svc)
	solve := NewSolveHandler(svc.Engine().Options())
	statsH := NewStatsHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/teachers", teachers.List)
		r.Get("/teachers/{id}", teachers.Get)
		r.Get("/criteria", criteria.List)
		r.Get("/criteria/{id}", criteria.Get)
		r.Get("/comparisons/criteria", comparisons.GetCriteria)
		r.Get("/criteria/{id}/comparisons", comparisons.GetSubcriteria)
		r.Get("/weights", rankings.Weights)
		r.Get("/rankings/latest", rankings.Latest)
		r.Get("/stats/spearman", statsH.Spearman)
		r.Post("/ahp/solve", solve.Solve)

		r.Group(func(r chi.Router) {
			r.Use(AssessorIDMiddleware)
			r.Use(AdminAuthMiddleware(cfg.AdminToken))

			r.Post("/teachers", teachers.Create)
			r.Put("/teachers/{id}", teachers.Update)
			r.Delete("/teachers/{id}", teachers.Delete)
			r.Post("/criteria", criteria.Create)
			r.Post("/criteria/{id}/subcriteria", criteria.CreateSubcriterion)
			r.Put("/comparisons/criteria", comparisons.PutCriteria)
			r.Delete("/comparisons/criteria", comparisons.ResetCriteria)
			r.Delete("/comparisons/criteria/{a}/{b}", comparisons.DeleteCriteriaPair)
			r.Put("/criteria/{id}/comparisons", comparisons.PutSubcriteria)
			r.Delete("/criteria/{id}/comparisons", comparisons.ResetSubcriteria)
			r.Delete("/criteria/{id}/comparisons/{a}/{b}", comparisons.DeleteSubcriteriaPair)
			r.Put("/scores", scores.Put)
			r.Post("/rankings", rankings.Recompute)
		})
	})

	return r
}

// NewMetricsRouter serves /health and /metrics. A nil gatherer uses the
// default registry.
func NewMetricsRouter(h hermes.Client, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "hermes": "disabled"}
		if h != nil {
			status["hermes"] = "disconnected"
			if h.Connected() {
				status["hermes"] = "connected"
			}
		}
		writeJSON(w, http.StatusOK, status)
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
