package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"1200", 120000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{Cents: 120000}, "1200.00"},
		{Money{Cents: 4599}, "45.99"},
		{Money{Cents: 5}, "0.05"},
		{Money{Cents: -250}, "-2.50"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.m.Cents, got, tc.want)
		}
	}
}

func TestMoneyDollarsAndFromFloat(t *testing.T) {
	if got := (Money{Cents: 12050}).Dollars(); got != 120.5 {
		t.Errorf("Dollars() = %v, want 120.5", got)
	}
	if got := NewMoneyFromFloat(45.987); got.Cents != 4599 {
		t.Errorf("NewMoneyFromFloat(45.987) = %d, want 4599", got.Cents)
	}
	sum := Money{Cents: 100}.Add(Money{Cents: 250}).Sub(Money{Cents: 50})
	if sum.Cents != 300 {
		t.Errorf("Add/Sub = %d, want 300", sum.Cents)
	}
}
