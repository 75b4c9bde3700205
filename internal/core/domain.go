package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Utilities     Category = "Utilities"
	Rent          Category = "Rent"
	Subscriptions Category = "Subscriptions"
	EMI           Category = "EMI"
	Insurance     Category = "Insurance"
	Phone         Category = "Phone"
	Internet      Category = "Internet"
	Other         Category = "Other"
)

const (
	Cash         PaymentMethod = "Cash"
	CreditCard   PaymentMethod = "Credit Card"
	DebitCard    PaymentMethod = "Debit Card"
	BankTransfer PaymentMethod = "Bank Transfer"
	UPI          PaymentMethod = "UPI"
	Check        PaymentMethod = "Check"
	OtherMethod  PaymentMethod = "Other"
)

const (
	NoRecurrence Recurrence = ""
	Monthly      Recurrence = "monthly"
	Quarterly    Recurrence = "quarterly"
	Yearly       Recurrence = "yearly"
)

const (
	EarlyReminder  ReminderKind = "early"
	UrgentReminder ReminderKind = "urgent"
	FinalReminder  ReminderKind = "final"
)

const (
	Low    UrgencyLevel = "low"
	Medium UrgencyLevel = "medium"
	High   UrgencyLevel = "high"
)

type (
	Category      string
	PaymentMethod string
	Recurrence    string
	ReminderKind  string
	UrgencyLevel  string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Bill struct {
		ID         int64
		Name       string
		Amount     Money
		DueDate    Date
		Category   Category
		Paid       bool
		Recurrence Recurrence
		Version    int64
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Payment struct {
		ID        int64
		BillID    int64
		BillName  string // filled on list queries
		Date      Date
		Amount    Money
		Method    PaymentMethod
		Notes     string
		CreatedAt time.Time
	}

	// ReminderRecord is the persisted sent/unsent log entry for a reminder.
	ReminderRecord struct {
		ID        int64
		BillID    int64
		Kind      ReminderKind
		Date      Date
		Sent      bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
)

var categories = []Category{Utilities, Rent, Subscriptions, EMI, Insurance, Phone, Internet, Other}

var paymentMethods = []PaymentMethod{Cash, CreditCard, DebitCard, BankTransfer, UPI, Check, OtherMethod}

// Categories returns the bill categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, v := range categories {
		if c == v {
			return true
		}
	}
	return false
}

// PaymentMethods returns the accepted payment methods in display order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

func (m PaymentMethod) Valid() bool {
	for _, v := range paymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

func (r Recurrence) Valid() bool {
	switch r {
	case NoRecurrence, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Weight is the ranking multiplier of an urgency level.
func (u UrgencyLevel) Weight() float64 {
	switch u {
	case High:
		return 3
	case Medium:
		return 2
	default:
		return 1
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// AddDays returns the date n calendar days later (earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysBetween returns to - from in whole calendar days.
func DaysBetween(from, to Date) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DaysUntilDue is the signed number of days from today to the due date.
// Negative values mean the bill is overdue.
func (b Bill) DaysUntilDue(today Date) int {
	return DaysBetween(today, b.DueDate)
}

func (b Bill) Recurring() bool {
	return b.Recurrence != NoRecurrence
}

func (b Bill) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.DueDate.Validate(); err != nil {
		return err
	}
	if !b.Category.Valid() {
		return ErrInvalidCategory
	}
	if !b.Recurrence.Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}

func (p Payment) Validate() error {
	if p.BillID <= 0 {
		return errors.New("missing bill id")
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if !p.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}
