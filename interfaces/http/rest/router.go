// Package rest wires the HTTP surface of the learning loop.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"focusloop/infrastructure/config"
	"focusloop/interfaces/http/rest/handlers"
	"focusloop/interfaces/http/rest/middleware"
	"focusloop/pkg/auth"
	"focusloop/pkg/common"
	"focusloop/pkg/observability"
)

// Router builds the chi handler from the wired HTTP handlers
type Router struct {
	cfg      *config.Config
	limiter  *auth.DistributedRateLimiter
	topics   *handlers.TopicHandler
	attempts *handlers.AttemptHandler
	settings *handlers.SettingsHandler
	logger   *zap.Logger
}

// NewRouter creates a router instance
func NewRouter(
	cfg *config.Config,
	limiter *auth.DistributedRateLimiter,
	topics *handlers.TopicHandler,
	attempts *handlers.AttemptHandler,
	settings *handlers.SettingsHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		limiter:  limiter,
		topics:   topics,
		attempts: attempts,
		settings: settings,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableTracing {
		router.Use(middleware.Tracing(observability.NewTracer("focusloop")))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.focusloop.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.cfg, rt.limiter, rt.logger))

		r.Route("/topics", func(r chi.Router) {
			r.Get("/", rt.topics.ListTopics)
			r.Post("/", rt.topics.CreateTopic)
			r.Get("/{topicID}", rt.topics.GetTopic)
			r.Put("/{topicID}", rt.topics.UpdateTopic)
			r.Delete("/{topicID}", rt.topics.DeleteTopic)
			r.Get("/{topicID}/export", rt.topics.ExportTopic)
			r.Post("/{topicID}/themes", rt.topics.AddTheme)
			r.Put("/{topicID}/themes/{themeID}", rt.topics.UpdateTheme)
			r.Delete("/{topicID}/themes/{themeID}", rt.topics.RemoveTheme)
		})

		r.Route("/attempts", func(r chi.Router) {
			r.Post("/", rt.attempts.SubmitAttempt)
			r.Get("/{attemptID}", rt.attempts.GetAttempt)
			r.Post("/{attemptID}/feedback/fetch", rt.attempts.FetchFeedback)
			r.Post("/{attemptID}/feedback/confirm", rt.attempts.ConfirmFeedback)
			r.Post("/{attemptID}/concept", rt.attempts.RequestConcept)
			r.Post("/{attemptID}/exercise", rt.attempts.GenerateExercise)
			r.Post("/{attemptID}/answer", rt.attempts.SubmitAnswer)
		})

		r.Get("/models", rt.settings.ListModels)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", rt.settings.GetSettings)
			r.Put("/model", rt.settings.SelectModel)
			r.Put("/prompts/{kind}", rt.settings.UpdatePrompt)
			r.Post("/models/refresh", rt.settings.RefreshModels)
		})

		r.Route("/drafts", func(r chi.Router) {
			r.Put("/{draftID}", rt.settings.SaveDraft)
			r.Get("/{draftID}", rt.settings.GetDraft)
			r.Delete("/{draftID}", rt.settings.DeleteDraft)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
