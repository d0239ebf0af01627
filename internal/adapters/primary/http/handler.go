package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/takumi/line-bot/config"
	"github.com/takumi/line-bot/internal/adapters/primary/line"
	"github.com/takumi/line-bot/internal/core/services"
	"github.com/takumi/line-bot/internal/logger"
)

// Handler is the HTTP handler for the bot application
type Handler struct {
	service     *services.ReplyService
	logger      logger.Logger
	router      *chi.Mux
	config      *config.Config
	lineAdapter *line.LineAdapter
}

// NewHandler creates a new HTTP handler. lineAdapter may be nil when the
// channel credentials are missing; the webhook then answers 503.
func NewHandler(service *services.ReplyService, cfg *config.Config, lineAdapter *line.LineAdapter, log logger.Logger) *Handler {
	h := &Handler{
		service:     service,
		logger:      log,
		config:      cfg,
		lineAdapter: lineAdapter,
	}

	h.setupRouter()
	return h
}

// setupRouter sets up the Chi router with middleware and routes
func (h *Handler) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// LINE platform webhook
	r.Post("/callback", h.Callback)

	// Operational endpoints
	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/model", h.GetModelInfo)
		r.Get("/status", h.GetStatus)
		r.Get("/journal/recent", h.RecentJournal)
	})

	h.router = r
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Callback handles webhook deliveries from the LINE platform
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.lineAdapter == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "LINE channel not configured")
		return
	}
	h.lineAdapter.HandleWebhook(w, r)
}

// HealthCheck handles the health check request
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "LINE Bot",
	})
}

// GetModelInfo handles the get model info request
func (h *Handler) GetModelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetModelInfo(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Completion backend not configured")
		return
	}

	h.respondWithJSON(w, http.StatusOK, info)
}

// GetStatus reports which backends the running bot is wired to
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"service":              "LINE Bot",
		"model":                h.service.GetModelName(),
		"search_provider":      h.service.SearchProviderName(),
		"search_enabled":       h.config.WebSearch.Enabled,
		"signature_validation": h.config.Line.ValidateSignature,
	}

	if count, err := h.service.JournalCount(r.Context()); err == nil {
		status["journal_entries"] = count
	}

	h.respondWithJSON(w, http.StatusOK, status)
}

// RecentJournal handles the recent journal entries request
func (h *Handler) RecentJournal(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.service.RecentJournal(r.Context(), limit)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}

	h.respondWithJSON(w, http.StatusOK, entries)
}

// respondWithError sends an error response
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// LoggerMiddleware is a middleware that logs HTTP requests
func LoggerMiddleware(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := context.WithValue(r.Context(), "logger", log)

			defer func() {
				log.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
