package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"commentcascade/internal/metrics"
	"commentcascade/internal/security"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(logger *slog.Logger, m *metrics.Metrics) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{logger: logger, metrics: m}
}

// statusRecorder captures the status code written by the next handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestID attaches a request id to the context and the response
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(security.RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = security.NewRequestID()
		}
		w.Header().Set(security.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(security.WithRequestID(r.Context(), id)))
	})
}

// Logging middleware logs HTTP requests and records their latency
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Call next handler
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.metrics.ObserveRequest(route, r.Method, strconv.Itoa(rec.status), elapsed.Seconds())

		m.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
			"request_id", security.RequestIDFrom(r.Context()),
		)
	})
}

// Recover turns a panic in a handler into a 500 response
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				m.logger.Error("panic serving request",
					"path", r.URL.Path,
					"request_id", security.RequestIDFrom(r.Context()),
					"panic", fmt.Sprint(v),
					"stack", string(debug.Stack()),
				)
				respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests over the limiter's budget with 429
func (m *Middleware) RateLimit(rl *security.RateLimiter) func(http.Handler) http.Handler {
	return rl.Middleware(func(w http.ResponseWriter, r *http.Request) {
		m.logger.Warn("rate limit exceeded",
			"client_ip", security.GetClientIP(r),
			"path", r.URL.Path,
		)
		respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
	})
}

// Chain applies middleware so the first listed runs outermost
func Chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
