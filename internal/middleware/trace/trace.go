// Package trace tags every request with an id, logs its start and end and
// records HTTP metrics.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"billminder/internal/log"
	"billminder/internal/metrics"
)

type (
	contextKey struct{}
	routeKey   struct{}
)

// routeSlot receives the matched pattern from handlers deeper in the chain,
// where middlewares may have replaced the *http.Request.
type routeSlot struct {
	pattern string
}

// HeaderRequestID is echoed on every response and honoured on requests.
const HeaderRequestID = "X-Request-ID"

const unmatchedRoute = "unmatched"

type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger
	metrics   *metrics.Metrics
}

// NewMiddleware creates the trace middleware. extractIP and m may be nil.
func NewMiddleware(extractIP func(*http.Request) string, logger *log.Logger, m *metrics.Metrics) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentTrace)),
		metrics:   m,
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = NewRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		slot := &routeSlot{}
		ctx := context.WithValue(r.Context(), contextKey{}, requestID)
		ctx = context.WithValue(ctx, routeKey{}, slot)
		r = r.WithContext(ctx)
		m.logger.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		route := slot.pattern
		if route == "" {
			route = r.Pattern
		}
		if route == "" {
			route = unmatchedRoute
		}
		m.metrics.ObserveHTTP(r.Method, route, rw.statusCode, duration)
		m.logger.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	})
}

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

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// NewRequestID returns a random request id.
func NewRequestID() string {
	return uuid.NewString()
}

// RequestID extracts the request id from ctx, or "" when there is none.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromRequest adapts RequestID for log.RequestIDMiddleware.
func RequestIDFromRequest(r *http.Request) string {
	return RequestID(r.Context())
}

// RecordRoute stores the pattern matched by the ServeMux for the metrics
// label. Call it from the routed handler, after the mux has set r.Pattern.
func RecordRoute(r *http.Request) {
	if slot, ok := r.Context().Value(routeKey{}).(*routeSlot); ok {
		slot.pattern = r.Pattern
	}
}
