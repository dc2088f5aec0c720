package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"heartbot/internal/bot"
	"heartbot/internal/metrics"
	"heartbot/internal/session"
)

// Handler serves the LINE webhook and the operational endpoints.
type Handler struct {
	router        *bot.Router
	sessions      session.Store
	messenger     Messenger
	channelSecret string
	publicBaseURL string
	staticDir     string
}

// Options configures a Handler.
type Options struct {
	ChannelSecret string
	PublicBaseURL string
	StaticDir     string
}

// NewHandler creates a new handler.
func NewHandler(router *bot.Router, sessions session.Store, messenger Messenger, opts Options) *Handler {
	return &Handler{
		router:        router,
		sessions:      sessions,
		messenger:     messenger,
		channelSecret: opts.ChannelSecret,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		staticDir:     opts.StaticDir,
	}
}

// Routes builds the HTTP routing table.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Post("/callback", h.Callback)
	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", noListing(http.FileServer(http.Dir(h.staticDir)))))
	return r
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	storeOK := h.sessions.Ping(r.Context()) == nil

	status := "healthy"
	httpStatus := http.StatusOK

	if !storeOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"sessions":  storeOK,
		"timestamp": time.Now(),
	})
}

// instrument records request count and latency per route pattern.
// Requests matching no route share the "unmatched" label.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	})
}

// noListing hides directory indexes of the chart directory.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
