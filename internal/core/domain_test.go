package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d != NewDate(2025, 3, 9) {
		t.Fatalf("ParseDate() = %v, want 2025-03-09", d)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("String() = %q", d.String())
	}
	for _, bad := range []string{"", "09/03/2025", "2025-13-01"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	today := NewDate(2024, 2, 27)
	tests := []struct {
		name string
		to   Date
		want int
	}{
		{"same day", today, 0},
		{"tomorrow", NewDate(2024, 2, 28), 1},
		{"across leap day", NewDate(2024, 3, 1), 3},
		{"overdue", NewDate(2024, 2, 20), -7},
		{"next year", NewDate(2025, 2, 27), 366},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(today, tt.to); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	if DateOf(late) != NewDate(2025, 6, 1) {
		t.Fatalf("DateOf() kept the time of day")
	}
	if NewDate(2025, 6, 1).AddDays(-1) != NewDate(2025, 5, 31) {
		t.Fatalf("AddDays(-1) did not cross the month boundary")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestBillValidate(t *testing.T) {
	good := Bill{
		Name:     "Rent",
		Amount:   Money{Cents: 120000},
		DueDate:  NewDate(2025, 1, 1),
		Category: Rent,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Bill)
		want error
	}{
		{"empty name", func(b *Bill) { b.Name = "  " }, ErrEmptyName},
		{"zero amount", func(b *Bill) { b.Amount = Money{} }, ErrInvalidAmount},
		{"zero date", func(b *Bill) { b.DueDate = Date{} }, ErrInvalidDate},
		{"unknown category", func(b *Bill) { b.Category = "Groceries" }, ErrInvalidCategory},
		{"unknown recurrence", func(b *Bill) { b.Recurrence = "weekly" }, ErrInvalidRecurrence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := good
			tc.mut(&b)
			if err := b.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBillDaysUntilDue(t *testing.T) {
	b := Bill{DueDate: NewDate(2025, 1, 10)}
	if got := b.DaysUntilDue(NewDate(2025, 1, 8)); got != 2 {
		t.Errorf("DaysUntilDue() = %d, want 2", got)
	}
	if got := b.DaysUntilDue(NewDate(2025, 1, 15)); got != -5 {
		t.Errorf("DaysUntilDue() = %d, want -5", got)
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{BillID: 1, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 100}, Method: UPI}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Payment{
		{BillID: 0, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 100}, Method: UPI},
		{BillID: 1, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 0}, Method: UPI},
		{BillID: 1, Date: Date{}, Amount: Money{Cents: 100}, Method: UPI},
		{BillID: 1, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 100}, Method: "Barter"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestUrgencyWeight(t *testing.T) {
	if High.Weight() != 3 || Medium.Weight() != 2 || Low.Weight() != 1 {
		t.Fatalf("unexpected urgency weights: %v %v %v", High.Weight(), Medium.Weight(), Low.Weight())
	}
}
