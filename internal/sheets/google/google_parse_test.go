package google

import (
	"testing"
	"time"

	"billminder/internal/core"
)

func TestBillRow(t *testing.T) {
	b := core.Bill{
		ID:        7,
		Name:      "Rent",
		Amount:    core.Money{Cents: 120000},
		DueDate:   core.NewDate(2025, 3, 1),
		Category:  core.Rent,
		Paid:      true,
		Version:   3,
		UpdatedAt: time.Date(2025, 2, 20, 9, 30, 0, 0, time.UTC),
	}

	row := billRow(b)
	want := []any{int64(7), "Rent", "1200.00", "2025-03-01", "Rent", "Paid", "none", int64(3), "2025-02-20T09:30:00Z"}
	if len(row) != len(want) {
		t.Fatalf("billRow() has %d columns, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}

	b.Recurrence = core.Monthly
	if got := billRow(b)[6]; got != "monthly" {
		t.Errorf("recurrence column = %v, want monthly", got)
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {"3"}, {}, {float64(12)}, {" 5 "}}

	tests := []struct {
		id   int64
		want int
	}{
		{3, 2},
		{12, 4},
		{5, 5},
		{4, 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
	if got := nextRow(values); got != 6 {
		t.Errorf("nextRow() = %d, want 6", got)
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Bills", 4); got != "Bills!A4:I4" {
		t.Errorf("rowRange() = %q, want Bills!A4:I4", got)
	}
}
