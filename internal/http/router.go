// Package httpx exposes the BalanceHub API over HTTP.
package httpx

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MarvinPescos/balancehub/internal/service/auth"
	"github.com/MarvinPescos/balancehub/internal/service/building"
	"github.com/MarvinPescos/balancehub/internal/service/catfacts"
	"github.com/MarvinPescos/balancehub/internal/service/joke"
	"github.com/MarvinPescos/balancehub/internal/service/oauth"
	"github.com/MarvinPescos/balancehub/internal/service/trivia"
	"github.com/MarvinPescos/balancehub/internal/service/twofactor"
	"github.com/MarvinPescos/balancehub/pkg/config"
)

// APIPrefix is prepended to every application route.
const APIPrefix = "/fullstack_authentication"

const (
	apiVersion         = "1.0.0"
	healthCheckTimeout = 2 * time.Second
)

// Services groups the handlers' dependencies.
type Services struct {
	Auth      auth.Service
	TwoFactor twofactor.Service
	OAuth     oauth.Service
	Trivia    *trivia.Service
	Joke      *joke.Service
	CatFacts  *catfacts.Service
	Buildings *building.Service
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	cfg      config.APIConfig
	services Services
	limiter  RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// NewRouter assembles routes with dependencies. A nil limiter falls back to
// an in-memory one.
func NewRouter(logger *slog.Logger, cfg config.APIConfig, services Services, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		cfg:      cfg,
		services: services,
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, r.audit(h))
}

// api registers an application route under APIPrefix.
func (r *Router) api(method, path string, h http.HandlerFunc) {
	r.handle(method+" "+APIPrefix+path, h)
}

func (r *Router) register() {
	r.handle("GET /{$}", r.handleRoot)
	r.handle("GET /health", r.handleHealth)
	r.mux.Handle("GET /metrics", promhttp.Handler())

	r.registerAuth()
	r.registerTwoFactor()
	r.registerOAuth()
	r.registerActivities()
	r.registerCatFacts()
	r.registerBuildings()
}

func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": r.cfg.AppName,
		"version": apiVersion,
		"docs":    "/docs",
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	payload := map[string]any{
		"status":    "healthy",
		"service":   r.cfg.AppName,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error("health check failed", "error", err)
			payload["status"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, payload)
			return
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reqID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(req)
		hub.Scope().SetTag("request_id", reqID)
		req = req.WithContext(sentry.SetHubOnContext(req.Context(), hub))

		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		r.serveRecovered(recorder, req, hub, next)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		route := req.Pattern
		if route == "" {
			route = req.URL.Path
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", reqID,
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if user, ok := userFromContext(ctx); ok {
			fields = append(fields, "user_id", user.ID)
		}
		r.recordRequestMetrics(req.Method, route, status, duration)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

func (r *Router) serveRecovered(w *statusRecorder, req *http.Request, hub *sentry.Hub, next http.HandlerFunc) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		hub.RecoverWithContext(req.Context(), rec)
		r.logger.Error("panic recovered", "panic", rec, "path", req.URL.Path)
		if w.status == 0 {
			writeError(w, http.StatusInternalServerError, internalErrorMessage)
		}
	}()
	next(w, req)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
