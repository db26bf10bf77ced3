package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "gastos/internal/log"
	"gastos/internal/prefs"
	"gastos/internal/services"
)

const requestIDHeader = "X-Request-ID"

// Server serves the JSON API over a ledger.
type Server struct {
	http.Server
	ledger      *services.Ledger
	prefs       *prefs.Preferences
	ready       func(context.Context) error
	logger      *applog.Logger
	access      *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	heartbeat    time.Duration
	closing      chan struct{}
	shutdownOnce sync.Once
}

type Option func(*Server)

// WithReadiness sets the check behind /readyz, usually the store ping.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHeartbeat sets how often an idle event stream gets a keep-alive comment.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) { s.heartbeat = d }
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.Ledger, p *prefs.Preferences, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:      ledger,
		prefs:       p,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		heartbeat:   25 * time.Second,
		closing:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(applog.ComponentHTTP)
	s.access = applog.NewStructuredLogger(s.logger)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.withSecurityHeaders(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withSecurityHeaders(s.handleCreateCategory))
	mux.HandleFunc("PATCH /api/categories/{id}", s.withSecurityHeaders(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withSecurityHeaders(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/expenses", s.withSecurityHeaders(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withSecurityHeaders(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses/{id}", s.withSecurityHeaders(s.handleGetExpense))
	mux.HandleFunc("PATCH /api/expenses/{id}", s.withSecurityHeaders(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withSecurityHeaders(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/expenses/{id}/repeat", s.withSecurityHeaders(s.handleRepeatExpense))

	mux.HandleFunc("GET /api/budget", s.withSecurityHeaders(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budget", s.withSecurityHeaders(s.handleSetBudget))
	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.handleDashboard))

	mux.HandleFunc("GET /api/export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withSecurityHeaders(s.handleImport))

	mux.HandleFunc("GET /api/preferences/theme", s.withSecurityHeaders(s.handleGetTheme))
	mux.HandleFunc("PUT /api/preferences/theme", s.withSecurityHeaders(s.handleSetTheme))

	mux.HandleFunc("GET /api/events", s.withSecurityHeaders(s.handleEvents))

	var h http.Handler = mux
	h = applog.RequestIDMiddleware(func(r *http.Request) string { return r.Header.Get(requestIDHeader) })(h)
	h = applog.Middleware(s.logger)(h)
	h = withRequestID(h)
	s.Handler = h

	// Shutdown does not interrupt streaming handlers on its own.
	s.RegisterOnShutdown(s.stopStreams)

	return s
}

func (s *Server) stopStreams() {
	s.shutdownOnce.Do(func() {
		close(s.closing)
		s.rateLimiter.stop()
	})
}

// Shutdown ends open event streams, stops the rate limiter and shuts the
// HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopStreams()
	return s.Server.Shutdown(ctx)
}

// withRequestID makes sure every request carries an id, echoed back to the
// client.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = generateRequestID()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent())
		}

		// Only writes are rate limited.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Flush lets event streams push through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
