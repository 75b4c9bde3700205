package http

import (
	"fmt"
	"html/template"
	"net/http"

	"billminder/internal/core"
	"billminder/internal/log"
)

type billListData struct {
	Today       core.Date
	IncludePaid bool
	Bills       []core.Bill
}

type billFormData struct {
	Today core.Date
	Bill  *core.Bill
}

func (s *Server) loadBillList(r *http.Request) (billListData, error) {
	ctx, cancel := requestContext(r)
	defer cancel()

	d := billListData{Today: s.today(), IncludePaid: ParseBoolQuery(r.URL.Query(), "paid")}
	bills, err := s.bills.List(ctx, d.IncludePaid)
	d.Bills = bills
	return d, err
}

func (s *Server) handleBillsPage(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadBillList(r)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "bills_page", struct {
		billListData
		Bill *core.Bill
	}{billListData: d})
}

func (s *Server) handleBillList(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadBillList(r)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "bill_list", d)
}

// handleBillForm renders the empty create form, or the edit form when the
// route carries a bill id.
func (s *Server) handleBillForm(w http.ResponseWriter, r *http.Request) {
	d := billFormData{Today: s.today()}
	if r.PathValue("id") != "" {
		id, err := ParseID(r, "id")
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		bill, err := s.bills.Get(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, log.OpRead, err)
			return
		}
		d.Bill = &bill
	}
	s.render(w, r, "bill_form", d)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	in, err := bindBillForm(parser).ToInput()
	if err != nil {
		s.writeServiceError(w, r, log.OpValidate, err)
		return
	}

	bill, warnings, err := s.bills.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, err)
		return
	}

	NewHTMXResponse().
		TriggerBillsChanged(bill.ID).
		TriggerFormReset().
		TriggerSuccessNotification("Bill added").
		TriggerWarnings(warnings).
		BodyHTML(fmt.Sprintf(`<div class="success">Added %s: %s due %s</div>`,
			template.HTMLEscapeString(bill.Name), formatMoney(bill.Amount), bill.DueDate)).
		Write(w)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	in, err := bindBillForm(parser).ToInput()
	if err != nil {
		s.writeServiceError(w, r, log.OpValidate, err)
		return
	}

	bill, warnings, err := s.bills.Update(r.Context(), id, in)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}

	NewHTMXResponse().
		TriggerBillsChanged(bill.ID).
		TriggerSuccessNotification("Bill updated").
		TriggerWarnings(warnings).
		BodyHTML(fmt.Sprintf(`<div class="success">Updated %s</div>`, template.HTMLEscapeString(bill.Name))).
		Write(w)
}

// handleMarkPaid marks a bill paid. For recurring bills the response names
// the next occurrence that was created.
func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	paid, next, err := s.bills.MarkPaid(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, log.OpMarkPaid, err)
		return
	}

	msg := fmt.Sprintf("%s marked as paid", paid.Name)
	if next != nil {
		msg += fmt.Sprintf(", next due %s", next.DueDate)
	}
	NewHTMXResponse().
		TriggerBillsChanged(paid.ID).
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.bills.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, log.OpDelete, err)
		return
	}

	// Empty body: htmx swaps the row out.
	NewHTMXResponse().
		TriggerBillsChanged(id).
		TriggerPaymentsChanged(id).
		TriggerSuccessNotification("Bill deleted").
		Write(w)
}

// handleBillReport renders the payment review of one bill.
func (s *Server) handleBillReport(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	report, err := s.payments.Report(ctx, id)
	if err != nil {
		s.writeServiceError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "bill_report", report)
}
