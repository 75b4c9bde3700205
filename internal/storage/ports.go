package storage

import (
	"context"
	"errors"

	"billminder/internal/core"
)

// ErrNotFound is returned when a bill, payment or reminder record does not
// exist.
var ErrNotFound = errors.New("not found")

// BillStore persists bills.
type BillStore interface {
	CreateBill(ctx context.Context, b core.Bill) (core.Bill, error)
	UpdateBill(ctx context.Context, b core.Bill) (core.Bill, error)
	GetBill(ctx context.Context, id int64) (core.Bill, error)
	// ListBills returns bills ordered by due date, then id.
	ListBills(ctx context.Context, includePaid bool) ([]core.Bill, error)
	DeleteBill(ctx context.Context, id int64) error
	MarkBillPaid(ctx context.Context, id int64) (core.Bill, error)
}

// PaymentStore persists payments made against bills.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	// ListPayments returns every payment, newest first, with BillName set.
	ListPayments(ctx context.Context) ([]core.Payment, error)
	ListPaymentsByBill(ctx context.Context, billID int64) ([]core.Payment, error)
	TotalPaid(ctx context.Context, billID int64) (core.Money, error)
	DeletePayment(ctx context.Context, id int64) error
}

// ReminderStore persists the sent/unsent reminder log.
type ReminderStore interface {
	// SaveReminder inserts r unless a record for the same bill, kind and
	// date exists; created reports which happened.
	SaveReminder(ctx context.Context, r core.ReminderRecord) (rec core.ReminderRecord, created bool, err error)
	HasReminder(ctx context.Context, billID int64, kind core.ReminderKind, date core.Date) (bool, error)
	ListReminders(ctx context.Context, unsentOnly bool) ([]core.ReminderRecord, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

// PendingSync identifies a bill version not yet exported.
type PendingSync struct {
	ID      int64
	Version int64
}

// SyncTracker records the export state of bills.
type SyncTracker interface {
	PendingSync(ctx context.Context, limit int) ([]PendingSync, error)
	// MarkSynced clears the pending flag only if the bill is still at
	// version, so edits made during an export stay pending.
	MarkSynced(ctx context.Context, id, version int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Repository is the full persistence surface used by services and workers.
type Repository interface {
	BillStore
	PaymentStore
	ReminderStore
	SyncTracker

	Ping(ctx context.Context) error
	// Reset removes all data. Used by the demo seeder.
	Reset(ctx context.Context) error
	Close() error
}
