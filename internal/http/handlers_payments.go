package http

import (
	"fmt"
	"html/template"
	"net/http"

	"billminder/internal/analytics"
	"billminder/internal/core"
	"billminder/internal/log"
)

type paymentListData struct {
	Payments []core.Payment
}

type paymentFormData struct {
	Today  core.Date
	BillID int64
	Bills  []core.Bill
}

func (s *Server) handlePaymentsPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	payments, err := s.payments.List(ctx)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	bills, err := s.bills.List(ctx, false)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "payments_page", struct {
		paymentListData
		Form paymentFormData
	}{
		paymentListData{Payments: payments},
		paymentFormData{Today: s.today(), Bills: bills},
	})
}

// handlePaymentList renders all payments, or one bill's history when
// ?bill_id is set.
func (s *Server) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var (
		payments []core.Payment
		err      error
	)
	if billID := ParseIntQuery(r.URL.Query(), "bill_id", 0); billID > 0 {
		payments, err = s.payments.History(ctx, int64(billID))
	} else {
		payments, err = s.payments.List(ctx)
	}
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "payment_list", paymentListData{Payments: payments})
}

func (s *Server) handlePaymentForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	bills, err := s.bills.List(ctx, false)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "payment_form", paymentFormData{
		Today:  s.today(),
		BillID: int64(ParseIntQuery(r.URL.Query(), "bill_id", 0)),
		Bills:  bills,
	})
}

func (s *Server) handlePaymentAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	report, err := s.payments.Analytics(ctx)
	if err != nil {
		s.writeServiceError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "payment_analytics", struct {
		Report    analytics.PaymentReport
		MethodMax int64
	}{report, methodMax(report)})
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	in, err := bindPaymentForm(parser).ToInput()
	if err != nil {
		s.writeServiceError(w, r, log.OpValidate, err)
		return
	}

	p, warnings, err := s.payments.Record(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpRecord, err)
		return
	}

	resp := NewHTMXResponse().
		TriggerPaymentsChanged(p.BillID).
		TriggerFormReset().
		TriggerSuccessNotification("Payment recorded").
		TriggerWarnings(warnings)
	if in.MarkPaid {
		resp.TriggerBillsChanged(p.BillID)
	}
	resp.BodyHTML(fmt.Sprintf(`<div class="success">Recorded %s by %s on %s</div>`,
		formatMoney(p.Amount), template.HTMLEscapeString(string(p.Method)), p.Date)).
		Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.payments.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, log.OpDelete, err)
		return
	}
	NewHTMXResponse().
		TriggerPaymentsChanged(0).
		TriggerSuccessNotification("Payment deleted").
		Write(w)
}

// methodMax is the largest per-method total, used to scale the bars.
func methodMax(r analytics.PaymentReport) int64 {
	var top int64
	for _, m := range r.ByMethod {
		if m.Amount.Cents > top {
			top = m.Amount.Cents
		}
	}
	return top
}
