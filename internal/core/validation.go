package core

import (
	"fmt"
	"sort"
	"strings"
)

// Validation collects blocking errors and non-blocking warnings for user input.
type Validation struct {
	Errors   []string
	Warnings []string
}

func (v Validation) OK() bool {
	return len(v.Errors) == 0
}

func (v *Validation) errorf(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

const (
	minNameLen = 2
	maxNameLen = 100
	maxNotes   = 500
)

var (
	highBillAmount    = Money{Cents: 10_000_00}
	lowBillAmount     = Money{Cents: 1_00}
	highPaymentAmount = Money{Cents: 50_000_00}
)

// CheckBill validates bill input relative to today.
func CheckBill(name string, amount Money, due Date, category Category, today Date) Validation {
	var v Validation

	name = strings.TrimSpace(name)
	switch n := len([]rune(name)); {
	case n == 0:
		v.errorf("Bill name is required")
	case n < minNameLen:
		v.errorf("Bill name must be at least %d characters long", minNameLen)
	case n > maxNameLen:
		v.errorf("Bill name must be less than %d characters", maxNameLen)
	}

	switch {
	case amount.Cents <= 0:
		v.errorf("Amount must be greater than 0")
	case amount.Cents > highBillAmount.Cents:
		v.warnf("Amount is unusually high (over $10,000)")
	case amount.Cents < lowBillAmount.Cents:
		v.warnf("Amount is very low (under $1)")
	}

	if due.IsZero() {
		v.errorf("Invalid due date format. Use YYYY-MM-DD")
	} else {
		switch d := DaysBetween(today, due); {
		case d < -365:
			v.errorf("Due date cannot be more than 1 year in the past")
		case d > 365:
			v.warnf("Due date is more than 1 year in the future")
		case d < -30:
			v.warnf("Due date is more than 30 days overdue")
		}
	}

	if category == "" {
		v.errorf("Category is required")
	} else if !category.Valid() {
		v.errorf("Category must be one of: %s", joinCategories())
	}

	return v
}

// CheckPayment validates payment input. bill is nil when the referenced bill
// does not exist.
func CheckPayment(p Payment, bill *Bill, today Date) Validation {
	var v Validation

	switch {
	case p.BillID <= 0:
		v.errorf("Bill ID is required")
	case bill == nil:
		v.errorf("Bill with ID %d not found", p.BillID)
	case bill.Paid:
		v.warnf("Bill is already marked as paid")
	}

	switch {
	case p.Amount.Cents <= 0:
		v.errorf("Payment amount must be greater than 0")
	case p.Amount.Cents > highPaymentAmount.Cents:
		v.warnf("Payment amount is unusually high (over $50,000)")
	}
	if bill != nil && p.Amount.Cents > 0 && p.Amount.Cents > 2*bill.Amount.Cents {
		v.warnf("Payment amount ($%s) is much higher than bill amount ($%s)", p.Amount, bill.Amount)
	}

	if p.Date.IsZero() {
		v.errorf("Invalid payment date format. Use YYYY-MM-DD")
	} else {
		if p.Date.After(today.Time) {
			v.errorf("Payment date cannot be in the future")
		}
		if DaysBetween(p.Date, today) > 365 {
			v.warnf("Payment date is more than 1 year ago")
		}
	}

	if p.Method == "" {
		v.errorf("Payment method is required")
	} else if !p.Method.Valid() {
		v.errorf("Payment method must be one of: %s", joinMethods())
	}

	if len([]rune(p.Notes)) > maxNotes {
		v.warnf("Notes are very long (over %d characters)", maxNotes)
	}

	return v
}

// HistoryReport summarizes the payments recorded against one bill.
type HistoryReport struct {
	BillID       int64
	BillAmount   Money
	TotalPaid    Money
	PaymentCount int
	Remaining    Money
	Overpayment  Money
	Warnings     []string
}

// ReviewHistory checks a bill's payment history for over/under payment and
// duplicate payment dates.
func ReviewHistory(bill Bill, payments []Payment) HistoryReport {
	r := HistoryReport{BillID: bill.ID, BillAmount: bill.Amount, PaymentCount: len(payments)}

	seen := make(map[string]int, len(payments))
	for _, p := range payments {
		r.TotalPaid = r.TotalPaid.Add(p.Amount)
		seen[p.Date.String()]++
	}

	if diff := bill.Amount.Sub(r.TotalPaid); diff.Cents > 0 {
		r.Remaining = diff
	} else {
		r.Overpayment = Money{Cents: -diff.Cents}
	}

	if r.TotalPaid.Cents > bill.Amount.Cents {
		r.Warnings = append(r.Warnings, fmt.Sprintf("Total payments ($%s) exceed bill amount ($%s)", r.TotalPaid, bill.Amount))
	}
	if bill.Paid && r.TotalPaid.Cents < bill.Amount.Cents {
		r.Warnings = append(r.Warnings, fmt.Sprintf("Bill is marked as paid but total payments ($%s) are less than bill amount ($%s)", r.TotalPaid, bill.Amount))
	}

	var dups []string
	for date, n := range seen {
		if n > 1 {
			dups = append(dups, date)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		r.Warnings = append(r.Warnings, "Multiple payments found on same date(s): "+strings.Join(dups, ", "))
	}

	return r
}

// PaymentSuggestions returns short hints about what to do next with a bill.
func PaymentSuggestions(bill Bill, payments []Payment, today Date) []string {
	var total Money
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	remaining := bill.Amount.Sub(total)

	switch {
	case remaining.Cents > 0:
		out := []string{fmt.Sprintf("Remaining amount to pay: $%s", remaining)}
		switch d := bill.DaysUntilDue(today); {
		case d < 0:
			out = append(out, "⚠️ This bill is overdue. Pay immediately to avoid penalties.")
		case d <= 3:
			out = append(out, "🔔 This bill is due soon. Consider paying today.")
		case d <= 7:
			out = append(out, "📅 This bill is due within a week. Plan your payment.")
		}
		return out
	case remaining.Cents < 0:
		return []string{fmt.Sprintf("✅ Overpaid by $%s. You may be eligible for a refund.", Money{Cents: -remaining.Cents})}
	default:
		return []string{"✅ Bill is fully paid!"}
	}
}

func joinCategories() string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func joinMethods() string {
	names := make([]string, len(paymentMethods))
	for i, m := range paymentMethods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
