package http

import (
	"net/http"

	"billminder/internal/analytics"
	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/reminders"
	"billminder/internal/scoring"
)

// JSON views. Amounts are exposed as dollars; dates as YYYY-MM-DD.

type billJSON struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	DueDate      string  `json:"due_date"`
	Category     string  `json:"category"`
	Paid         bool    `json:"paid"`
	Recurrence   string  `json:"recurrence,omitempty"`
	DaysUntilDue int     `json:"days_until_due"`
	Version      int64   `json:"version"`
}

func toBillJSON(b core.Bill, today core.Date) billJSON {
	return billJSON{
		ID:           b.ID,
		Name:         b.Name,
		Amount:       b.Amount.Dollars(),
		DueDate:      b.DueDate.String(),
		Category:     string(b.Category),
		Paid:         b.Paid,
		Recurrence:   string(b.Recurrence),
		DaysUntilDue: b.DaysUntilDue(today),
		Version:      b.Version,
	}
}

type eventJSON struct {
	reminders.Event
	Amount  float64 `json:"amount"`
	DueDate string  `json:"due_date"`
}

func toEventsJSON(events []reminders.Event) []eventJSON {
	out := make([]eventJSON, len(events))
	for i, e := range events {
		out[i] = eventJSON{Event: e, Amount: e.Amount.Dollars(), DueDate: e.DueDate.String()}
	}
	return out
}

type scoreJSON struct {
	Bill      billJSON       `json:"bill"`
	Scores    scoring.Bundle `json:"scores"`
	Reminders []eventJSON    `json:"reminders"`
}

type upcomingJSON struct {
	reminders.Summary
	Days        int     `json:"days"`
	TotalAmount float64 `json:"total_amount"`
}

type categoryJSON struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Amount   float64 `json:"amount"`
}

type analyticsJSON struct {
	analytics.Report
	UnpaidTotal float64        `json:"unpaid_total"`
	Categories  []categoryJSON `json:"categories"`
}

type methodJSON struct {
	Method string  `json:"method"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

type monthJSON struct {
	analytics.MonthTotal
	Total float64 `json:"total"`
}

type billPaymentsJSON struct {
	analytics.BillPayments
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	First   string  `json:"first_payment"`
	Last    string  `json:"last_payment"`
}

type paymentJSON struct {
	ID       int64   `json:"id"`
	BillID   int64   `json:"bill_id"`
	BillName string  `json:"bill_name"`
	Date     string  `json:"payment_date"`
	Amount   float64 `json:"amount"`
	Method   string  `json:"payment_method"`
	Notes    string  `json:"notes,omitempty"`
}

type paymentAnalyticsJSON struct {
	Total    float64                `json:"total"`
	Amounts  analytics.Distribution `json:"amounts"`
	ByMethod []methodJSON           `json:"by_method"`
	ByMonth  []monthJSON            `json:"by_month"`
	ByBill   []billPaymentsJSON     `json:"by_bill"`
	Recent   []paymentJSON          `json:"recent"`
}

func toPaymentAnalyticsJSON(r analytics.PaymentReport) paymentAnalyticsJSON {
	out := paymentAnalyticsJSON{
		Total:    r.Total.Dollars(),
		Amounts:  r.Amounts,
		ByMethod: make([]methodJSON, len(r.ByMethod)),
		ByMonth:  make([]monthJSON, len(r.ByMonth)),
		ByBill:   make([]billPaymentsJSON, len(r.ByBill)),
		Recent:   make([]paymentJSON, len(r.Recent)),
	}
	for i, m := range r.ByMethod {
		out.ByMethod[i] = methodJSON{Method: string(m.Method), Count: m.Count, Amount: m.Amount.Dollars()}
	}
	for i, m := range r.ByMonth {
		out.ByMonth[i] = monthJSON{MonthTotal: m, Total: m.Total.Dollars()}
	}
	for i, b := range r.ByBill {
		out.ByBill[i] = billPaymentsJSON{
			BillPayments: b,
			Total:        b.Total.Dollars(),
			Average:      b.Average.Dollars(),
			First:        b.First.String(),
			Last:         b.Last.String(),
		}
	}
	for i, p := range r.Recent {
		out.Recent[i] = paymentJSON{
			ID:       p.ID,
			BillID:   p.BillID,
			BillName: p.BillName,
			Date:     p.Date.String(),
			Amount:   p.Amount.Dollars(),
			Method:   string(p.Method),
			Notes:    p.Notes,
		}
	}
	return out
}

// handleAPIBills lists bills; ?paid=true includes paid ones.
func (s *Server) handleAPIBills(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	bills, err := s.bills.List(ctx, ParseBoolQuery(r.URL.Query(), "paid"))
	if err != nil {
		s.writeAPIError(w, r, log.OpList, err)
		return
	}
	today := s.today()
	out := make([]billJSON, len(bills))
	for i, b := range bills {
		out[i] = toBillJSON(b, today)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIScore(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	scored, err := s.reminders.Score(ctx, id)
	if err != nil {
		s.writeAPIError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreJSON{
		Bill:      toBillJSON(scored.Bill, s.today()),
		Scores:    scored.Scores,
		Reminders: toEventsJSON(scored.Events),
	})
}

func (s *Server) handleAPIReminders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	events, err := s.reminders.All(ctx)
	if err != nil {
		s.writeAPIError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventsJSON(events))
}

// handleAPITopReminders returns the ?limit highest weighted reminders.
// A limit of zero or less yields an empty list.
func (s *Server) handleAPITopReminders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	limit := ParseIntQuery(r.URL.Query(), "limit", s.reminders.Limit())
	events, err := s.reminders.Top(ctx, limit)
	if err != nil {
		s.writeAPIError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventsJSON(events))
}

func (s *Server) handleAPIReminderStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	stats, err := s.reminders.Stats(ctx)
	if err != nil {
		s.writeAPIError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAPIUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	days := ParseIntQuery(r.URL.Query(), "days", s.reminders.UpcomingDays())
	summary, err := s.reminders.Upcoming(ctx, days)
	if err != nil {
		s.writeAPIError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, upcomingJSON{Summary: summary, Days: days, TotalAmount: summary.TotalAmount.Dollars()})
}

func (s *Server) handleAPIAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	report, err := s.reminders.Analytics(ctx)
	if err != nil {
		s.writeAPIError(w, r, log.OpRead, err)
		return
	}
	out := analyticsJSON{
		Report:      report,
		UnpaidTotal: report.UnpaidTotal.Dollars(),
		Categories:  make([]categoryJSON, len(report.Categories)),
	}
	for i, c := range report.Categories {
		out.Categories[i] = categoryJSON{Category: string(c.Category), Count: c.Count, Amount: c.Amount.Dollars()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIPaymentAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	report, err := s.payments.Analytics(ctx)
	if err != nil {
		s.writeAPIError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentAnalyticsJSON(report))
}
