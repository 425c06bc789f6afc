// Package api exposes the transit engine over a JSON HTTP surface.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/stellarflux/transit-simulator/internal/config"
	"github.com/stellarflux/transit-simulator/internal/logging"
	"github.com/stellarflux/transit-simulator/internal/observability"
	"github.com/stellarflux/transit-simulator/store"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	store      *store.ScenarioStore
	engineCfg  config.EngineConfig
	log        logging.Logger
	metrics    *observability.APICollector
	engMetrics *observability.EngineCollector
}

// NewServer creates a configured HTTP server. Nil metrics collectors and
// loggers are tolerated and disable the corresponding instrumentation.
func NewServer(cfg config.Config, st *store.ScenarioStore, log logging.Logger,
	apiMetrics *observability.APICollector, engMetrics *observability.EngineCollector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		store:      st,
		engineCfg:  cfg.Engine,
		log:        log,
		metrics:    apiMetrics,
		engMetrics: engMetrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("POST /v1/lightcurve", s.route("/v1/lightcurve", s.handleLightCurve))
	mux.Handle("POST /v1/position", s.route("/v1/position", s.handlePosition))
	mux.Handle("GET /v1/scenarios", s.route("/v1/scenarios", s.handleListScenarios))
	mux.Handle("PUT /v1/scenarios/{name}", s.route("/v1/scenarios/{name}", s.handlePutScenario))
	mux.Handle("GET /v1/scenarios/{name}", s.route("/v1/scenarios/{name}", s.handleGetScenario))
	mux.Handle("DELETE /v1/scenarios/{name}", s.route("/v1/scenarios/{name}", s.handleDeleteScenario))
	mux.Handle("POST /v1/scenarios/{name}/lightcurve",
		s.route("/v1/scenarios/{name}/lightcurve", s.handleScenarioLightCurve))
	if apiMetrics != nil {
		mux.Handle("GET /metrics", apiMetrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.loggingMiddleware(mux),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// route wraps a handler with a server span and per-route metrics.
func (s *Server) route(name string, fn http.HandlerFunc) http.Handler {
	var h http.Handler = fn
	if s.metrics != nil {
		h = s.metrics.Middleware(name, fn)
	}
	return observability.TraceMiddleware(name, h)
}

// HTTPServer returns the underlying *http.Server for external control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func probePath(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, reqLog := logging.WithRequestLogger(r.Context(), s.log)
		r = r.WithContext(logging.ContextWithLogger(ctx, reqLog))

		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)

		if probePath(r.URL.Path) {
			return
		}
		reqLog.Info(r.Context(), "request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("status", strconv.Itoa(sr.statusCode)),
			logging.Duration("duration", time.Since(start)),
			logging.String("remote_ip", r.RemoteAddr),
		)
	})
}
