package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/interfaces/http/rest/handlers"
	"github.com/rawcontext/engram-sub005/interfaces/http/rest/middleware"
)

// Router creates and configures the admin HTTP router
type Router struct {
	admin      *handlers.AdminHandler
	enableCORS bool
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(admin *handlers.AdminHandler, enableCORS bool, logger *zap.Logger) *Router {
	return &Router{
		admin:      admin,
		enableCORS: enableCORS,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	limiter := middleware.NewRateLimiter(60, time.Second)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Route("/activity", func(r chi.Router) {
			r.Get("/{project}", rt.admin.GetActivityStats)
			r.Delete("/{project}", rt.admin.ResetActivityCounters)
		})
		r.Get("/schedule", rt.admin.GetSchedule)
		r.Post("/jobs/{job}/trigger", rt.admin.TriggerJob)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
