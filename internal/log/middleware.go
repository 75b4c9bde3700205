package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := NewContext(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		base:      slog.Default().Handler(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds request ID to logger context
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogBillSaved logs a created or updated bill.
func (sl *StructuredLogger) LogBillSaved(ctx context.Context, op string, id int64, name string, amountCents int64, category, dueDate string) {
	fields := NewFields().
		WithBill(id, name, amountCents, category, dueDate).
		WithOperation(op)

	sl.logger.InfoContext(ctx, "Bill saved", fields.ToSlice()...)
}

// LogPaymentRecorded logs a recorded payment.
func (sl *StructuredLogger) LogPaymentRecorded(ctx context.Context, id, billID, amountCents int64, method string) {
	fields := NewFields().
		WithPayment(id, billID, amountCents, method).
		WithOperation(OpCreate)

	sl.logger.InfoContext(ctx, "Payment recorded", fields.ToSlice()...)
}

// LogReminderRecorded logs a persisted reminder record.
func (sl *StructuredLogger) LogReminderRecorded(ctx context.Context, billID int64, kind, date string) {
	sl.logger.InfoContext(ctx, "Reminder recorded",
		FieldBillID, billID,
		FieldReminderKind, kind,
		FieldDueDate, date,
		FieldOperation, OpRecord)
}

// LogError logs a failed operation tagged with its error type.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation, errType string, args ...any) {
	fields := NewFields().
		WithError(err).
		WithErrorType(errType).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, append(fields.ToSlice(), args...)...)
}
