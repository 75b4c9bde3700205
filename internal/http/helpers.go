package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/services"
)

// formatMoney renders an amount as dollars with thousands separators,
// e.g. "$1,234.50".
func formatMoney(m core.Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	s := fmt.Sprintf("$%s.%02d", sb.String(), cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// dueLabel describes a signed days-until-due count for humans.
func dueLabel(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("%d days overdue", -days)
	case days == -1:
		return "1 day overdue"
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	default:
		return fmt.Sprintf("due in %d days", days)
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// barWidth is part as a rounded percentage of total, at least 2 so tiny
// values stay visible.
func barWidth(part, total int64) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	width := int((part*100 + total/2) / total)
	return min(max(width, 2), 100)
}

var templateFuncs = template.FuncMap{
	"barWidth": barWidth,
	"money":    formatMoney,
	"dueLabel": dueLabel,
	"score":    func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"pct":      func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"date":     func(d core.Date) string { return d.String() },
	"levelClass": func(l core.UrgencyLevel) string {
		return "urgency urgency--" + string(l)
	},
	"categories": core.Categories,
	"methods":    core.PaymentMethods,
}

// render executes a named template, answering 500 when templates are
// missing or execution fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// writeServiceError maps a service error onto an htmx response: validation
// errors become 422, missing records 404, the rest 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if ve, ok := services.AsValidation(err); ok {
		ValidationErrorResponse(ve.Errors).TriggerWarnings(ve.Warnings).Write(w)
		return
	}
	if services.IsNotFound(err) {
		NotFoundError("Not found").Write(w)
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.FieldError, err,
		log.FieldOperation, op,
		log.FieldErrorType, log.ErrorTypeInternal)
	InternalServerError("Something went wrong, please retry").Write(w)
}

type apiError struct {
	Error    string   `json:"error"`
	Details  []string `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAPIError is the JSON counterpart of writeServiceError.
func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if ve, ok := services.AsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "validation failed", Details: ve.Errors, Warnings: ve.Warnings})
		return
	}
	if services.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "not found"})
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "API request failed",
		log.FieldError, err,
		log.FieldOperation, op,
		log.FieldErrorType, log.ErrorTypeInternal)
	writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
}
