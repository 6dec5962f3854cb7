package server

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/flagquiz/flagquiz-api/internal/config"
	"github.com/flagquiz/flagquiz-api/internal/logging"
	"github.com/flagquiz/flagquiz-api/internal/ranking"
	httperrors "github.com/flagquiz/flagquiz-api/pkg/http/errors"
	"github.com/flagquiz/flagquiz-api/pkg/http/ratelimit"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps holds everything the HTTP layer routes to.
type Deps struct {
	Ranking  *ranking.HTTPHandler
	Limiter  *ratelimit.Limiter
	Gatherer prometheus.Gatherer
	// Checks maps dependency names to readiness probes.
	Checks map[string]Pinger
}

// NewUpgrader builds a WebSocket upgrader that accepts the configured CORS origins.
func NewUpgrader(cors config.CORS) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(cors.AllowedOrigins, origin)
		},
	}
}

// NewHTTPServer wires health, metrics and the quiz ranking API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed handler with logging and CORS middleware applied.
func NewHandler(cfg *config.App, logger zerolog.Logger, deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", readiness(deps.Checks))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if h := deps.Ranking; h != nil {
		submit := http.Handler(http.HandlerFunc(h.HandleSubmit))
		if deps.Limiter != nil {
			submit = deps.Limiter.Middleware(submit)
		}
		mux.HandleFunc("POST /api/quiz/start", h.HandleStart)
		mux.Handle("POST /api/ranking", submit)
		mux.HandleFunc("GET /api/ranking", h.HandleList)
		mux.HandleFunc("GET /api/ranking/live", h.HandleLive)
	}

	return logging.Middleware(logger)(corsMiddleware(cfg.CORS)(mux))
}

func readiness(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		ready := true
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				hlog.FromRequest(r).Error().Err(err).Str("dependency", name).Msg("dependency ping failed")
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		httperrors.RespondJSON(w, code, map[string]any{"ready": ready, "dependencies": status})
	}
}

func corsMiddleware(cors config.CORS) func(http.Handler) http.Handler {
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cors.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !originAllowed(cors.AllowedOrigins, origin) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
