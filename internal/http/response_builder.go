package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// Event names listened to by the pages. Every list partial reloads on the
// events that can change it.
const (
	EventBillsChanged     = "bills:changed"
	EventPaymentsChanged  = "payments:changed"
	EventRemindersChanged = "reminders:changed"
	EventFormReset        = "form:reset"
)

// TriggerBillsChanged announces a bill write. Reminders and dashboard
// panels derive from bills, so they refresh too.
func (b *HTMXResponseBuilder) TriggerBillsChanged(id int64) *HTMXResponseBuilder {
	b.Trigger(EventRemindersChanged, struct{}{})
	return b.Trigger(EventBillsChanged, map[string]int64{"id": id})
}

// TriggerPaymentsChanged announces a payment write for billID.
func (b *HTMXResponseBuilder) TriggerPaymentsChanged(billID int64) *HTMXResponseBuilder {
	return b.Trigger(EventPaymentsChanged, map[string]int64{"bill_id": billID})
}

// TriggerRemindersChanged announces a change to the reminder log.
func (b *HTMXResponseBuilder) TriggerRemindersChanged() *HTMXResponseBuilder {
	return b.Trigger(EventRemindersChanged, struct{}{})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a show-notification trigger with the specified parameters.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// TriggerWarnings shows validation warnings as one warning notification.
func (b *HTMXResponseBuilder) TriggerWarnings(warnings []string) *HTMXResponseBuilder {
	if len(warnings) == 0 {
		return b
	}
	return b.TriggerNotification(NotificationWarning, strings.Join(warnings, " · "), 6000)
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ValidationErrorResponse renders every validation error as a list.
func ValidationErrorResponse(errs []string) *HTMXResponseBuilder {
	var sb strings.Builder
	sb.WriteString(`<div class="error"><ul>`)
	for _, e := range errs {
		sb.WriteString("<li>" + template.HTMLEscapeString(e) + "</li>")
	}
	sb.WriteString(`</ul></div>`)
	return NewHTMXResponse().
		Status(http.StatusUnprocessableEntity).
		BodyHTML(sb.String())
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
