package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckBill(t *testing.T) {
	today := NewDate(2025, 6, 15)

	testCases := []struct {
		name         string
		billName     string
		amount       Money
		due          Date
		category     Category
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name:     "happy_case",
			billName: "Electricity Bill",
			amount:   Money{Cents: 12050},
			due:      today.AddDays(10),
			category: Utilities,
		},
		{
			name:       "missing_name",
			billName:   "   ",
			amount:     Money{Cents: 100},
			due:        today,
			category:   Rent,
			wantErrors: []string{"Bill name is required"},
		},
		{
			name:       "short_name",
			billName:   "A",
			amount:     Money{Cents: 100},
			due:        today,
			category:   Rent,
			wantErrors: []string{"Bill name must be at least 2 characters long"},
		},
		{
			name:       "long_name",
			billName:   strings.Repeat("x", 101),
			amount:     Money{Cents: 100},
			due:        today,
			category:   Rent,
			wantErrors: []string{"Bill name must be less than 100 characters"},
		},
		{
			name:       "zero_amount",
			billName:   "Rent",
			amount:     Money{},
			due:        today,
			category:   Rent,
			wantErrors: []string{"Amount must be greater than 0"},
		},
		{
			name:         "high_amount_warns",
			billName:     "Rent",
			amount:       Money{Cents: 10_000_01},
			due:          today,
			category:     Rent,
			wantWarnings: []string{"Amount is unusually high (over $10,000)"},
		},
		{
			name:         "low_amount_warns",
			billName:     "Tip",
			amount:       Money{Cents: 99},
			due:          today,
			category:     Other,
			wantWarnings: []string{"Amount is very low (under $1)"},
		},
		{
			name:       "too_far_in_past",
			billName:   "Rent",
			amount:     Money{Cents: 100},
			due:        today.AddDays(-366),
			category:   Rent,
			wantErrors: []string{"Due date cannot be more than 1 year in the past"},
		},
		{
			name:         "far_future_warns",
			billName:     "Rent",
			amount:       Money{Cents: 100},
			due:          today.AddDays(366),
			category:     Rent,
			wantWarnings: []string{"Due date is more than 1 year in the future"},
		},
		{
			name:         "long_overdue_warns",
			billName:     "Rent",
			amount:       Money{Cents: 100},
			due:          today.AddDays(-31),
			category:     Rent,
			wantWarnings: []string{"Due date is more than 30 days overdue"},
		},
		{
			name:       "missing_date",
			billName:   "Rent",
			amount:     Money{Cents: 100},
			category:   Rent,
			wantErrors: []string{"Invalid due date format. Use YYYY-MM-DD"},
		},
		{
			name:       "unknown_category",
			billName:   "Groceries",
			amount:     Money{Cents: 100},
			due:        today,
			category:   "Food",
			wantErrors: []string{"Category must be one of: Utilities, Rent, Subscriptions, EMI, Insurance, Phone, Internet, Other"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := CheckBill(tc.billName, tc.amount, tc.due, tc.category, today)
			assert.Equal(t, tc.wantErrors, v.Errors)
			assert.Equal(t, tc.wantWarnings, v.Warnings)
			assert.Equal(t, len(tc.wantErrors) == 0, v.OK())
		})
	}
}

func TestCheckPayment(t *testing.T) {
	today := NewDate(2025, 6, 15)
	bill := &Bill{ID: 7, Name: "Internet", Amount: Money{Cents: 5000}, DueDate: today, Category: Internet}

	t.Run("happy_case", func(t *testing.T) {
		p := Payment{BillID: 7, Date: today, Amount: Money{Cents: 5000}, Method: BankTransfer}
		v := CheckPayment(p, bill, today)
		assert.True(t, v.OK())
		assert.Empty(t, v.Warnings)
	})

	t.Run("bill_not_found", func(t *testing.T) {
		p := Payment{BillID: 99, Date: today, Amount: Money{Cents: 5000}, Method: Cash}
		v := CheckPayment(p, nil, today)
		assert.Equal(t, []string{"Bill with ID 99 not found"}, v.Errors)
	})

	t.Run("future_date_and_bad_method", func(t *testing.T) {
		p := Payment{BillID: 7, Date: today.AddDays(1), Amount: Money{Cents: 5000}, Method: "Barter"}
		v := CheckPayment(p, bill, today)
		assert.Contains(t, v.Errors, "Payment date cannot be in the future")
		assert.Contains(t, v.Errors, "Payment method must be one of: Cash, Credit Card, Debit Card, Bank Transfer, UPI, Check, Other")
	})

	t.Run("warnings_only", func(t *testing.T) {
		paid := *bill
		paid.Paid = true
		p := Payment{
			BillID: 7,
			Date:   today.AddDays(-400),
			Amount: Money{Cents: 10001},
			Method: UPI,
			Notes:  strings.Repeat("n", 501),
		}
		v := CheckPayment(p, &paid, today)
		assert.True(t, v.OK())
		assert.Equal(t, []string{
			"Bill is already marked as paid",
			"Payment amount ($100.01) is much higher than bill amount ($50.00)",
			"Payment date is more than 1 year ago",
			"Notes are very long (over 500 characters)",
		}, v.Warnings)
	})
}

func TestReviewHistory(t *testing.T) {
	bill := Bill{ID: 3, Amount: Money{Cents: 10000}, Paid: true}

	t.Run("underpaid_with_duplicates", func(t *testing.T) {
		payments := []Payment{
			{BillID: 3, Date: NewDate(2025, 1, 5), Amount: Money{Cents: 3000}},
			{BillID: 3, Date: NewDate(2025, 1, 5), Amount: Money{Cents: 2000}},
		}
		r := ReviewHistory(bill, payments)
		assert.Equal(t, Money{Cents: 5000}, r.TotalPaid)
		assert.Equal(t, 2, r.PaymentCount)
		assert.Equal(t, Money{Cents: 5000}, r.Remaining)
		assert.Equal(t, Money{}, r.Overpayment)
		assert.Equal(t, []string{
			"Bill is marked as paid but total payments ($50.00) are less than bill amount ($100.00)",
			"Multiple payments found on same date(s): 2025-01-05",
		}, r.Warnings)
	})

	t.Run("overpaid", func(t *testing.T) {
		r := ReviewHistory(bill, []Payment{{BillID: 3, Date: NewDate(2025, 1, 5), Amount: Money{Cents: 12500}}})
		assert.Equal(t, Money{Cents: 2500}, r.Overpayment)
		assert.Equal(t, Money{}, r.Remaining)
		assert.Equal(t, []string{"Total payments ($125.00) exceed bill amount ($100.00)"}, r.Warnings)
	})
}

func TestPaymentSuggestions(t *testing.T) {
	today := NewDate(2025, 6, 15)
	bill := Bill{ID: 1, Amount: Money{Cents: 10000}, DueDate: today.AddDays(2)}

	assert.Equal(t, []string{
		"Remaining amount to pay: $60.00",
		"🔔 This bill is due soon. Consider paying today.",
	}, PaymentSuggestions(bill, []Payment{{Amount: Money{Cents: 4000}}}, today))

	overdue := bill
	overdue.DueDate = today.AddDays(-1)
	assert.Equal(t, "⚠️ This bill is overdue. Pay immediately to avoid penalties.",
		PaymentSuggestions(overdue, nil, today)[1])

	assert.Equal(t, []string{"✅ Bill is fully paid!"},
		PaymentSuggestions(bill, []Payment{{Amount: Money{Cents: 10000}}}, today))
	assert.Equal(t, []string{"✅ Overpaid by $5.00. You may be eligible for a refund."},
		PaymentSuggestions(bill, []Payment{{Amount: Money{Cents: 10500}}}, today))

	later := bill
	later.DueDate = today.AddDays(20)
	assert.Equal(t, []string{"Remaining amount to pay: $100.00"}, PaymentSuggestions(later, nil, today))
}
