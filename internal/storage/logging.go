package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/metrics"
)

// loggingRepository decorates a Repository with a debug record and a latency
// observation per call. Failures other than ErrNotFound are logged at error.
type loggingRepository struct {
	next    Repository
	logger  *log.Logger
	metrics *metrics.Metrics
}

// WithLogging wraps repo. logger and m may be nil.
func WithLogging(repo Repository, logger *log.Logger, m *metrics.Metrics) Repository {
	if logger == nil {
		logger = log.Discard()
	}
	return &loggingRepository{
		next:    repo,
		logger:  logger.WithComponent(log.ComponentStorage),
		metrics: m,
	}
}

func (r *loggingRepository) observe(ctx context.Context, op string, start time.Time, err error, args ...any) {
	d := time.Since(start)
	r.metrics.ObserveStore(op, err, d)

	fields := append([]any{log.FieldOperation, op, log.FieldDuration, d.Milliseconds()}, args...)
	switch {
	case err == nil:
		r.logger.DebugContext(ctx, "Repository call", fields...)
	case errors.Is(err, ErrNotFound):
		r.logger.DebugContext(ctx, "Repository call found nothing", append(fields, log.FieldError, err.Error())...)
	default:
		r.logger.Log(ctx, slog.LevelError, "Repository call failed",
			append(fields, log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeDatabase)...)
	}
}

func (r *loggingRepository) CreateBill(ctx context.Context, b core.Bill) (out core.Bill, err error) {
	defer func(start time.Time) { r.observe(ctx, "CreateBill", start, err, log.FieldBillID, out.ID) }(time.Now())
	return r.next.CreateBill(ctx, b)
}

func (r *loggingRepository) UpdateBill(ctx context.Context, b core.Bill) (out core.Bill, err error) {
	defer func(start time.Time) { r.observe(ctx, "UpdateBill", start, err, log.FieldBillID, b.ID) }(time.Now())
	return r.next.UpdateBill(ctx, b)
}

func (r *loggingRepository) GetBill(ctx context.Context, id int64) (out core.Bill, err error) {
	defer func(start time.Time) { r.observe(ctx, "GetBill", start, err, log.FieldBillID, id) }(time.Now())
	return r.next.GetBill(ctx, id)
}

func (r *loggingRepository) ListBills(ctx context.Context, includePaid bool) (out []core.Bill, err error) {
	defer func(start time.Time) { r.observe(ctx, "ListBills", start, err, log.FieldCount, len(out)) }(time.Now())
	return r.next.ListBills(ctx, includePaid)
}

func (r *loggingRepository) DeleteBill(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { r.observe(ctx, "DeleteBill", start, err, log.FieldBillID, id) }(time.Now())
	return r.next.DeleteBill(ctx, id)
}

func (r *loggingRepository) MarkBillPaid(ctx context.Context, id int64) (out core.Bill, err error) {
	defer func(start time.Time) { r.observe(ctx, "MarkBillPaid", start, err, log.FieldBillID, id) }(time.Now())
	return r.next.MarkBillPaid(ctx, id)
}

func (r *loggingRepository) CreatePayment(ctx context.Context, p core.Payment) (out core.Payment, err error) {
	defer func(start time.Time) {
		r.observe(ctx, "CreatePayment", start, err, log.FieldPaymentID, out.ID, log.FieldBillID, p.BillID)
	}(time.Now())
	return r.next.CreatePayment(ctx, p)
}

func (r *loggingRepository) ListPayments(ctx context.Context) (out []core.Payment, err error) {
	defer func(start time.Time) { r.observe(ctx, "ListPayments", start, err, log.FieldCount, len(out)) }(time.Now())
	return r.next.ListPayments(ctx)
}

func (r *loggingRepository) ListPaymentsByBill(ctx context.Context, billID int64) (out []core.Payment, err error) {
	defer func(start time.Time) {
		r.observe(ctx, "ListPaymentsByBill", start, err, log.FieldBillID, billID, log.FieldCount, len(out))
	}(time.Now())
	return r.next.ListPaymentsByBill(ctx, billID)
}

func (r *loggingRepository) TotalPaid(ctx context.Context, billID int64) (out core.Money, err error) {
	defer func(start time.Time) { r.observe(ctx, "TotalPaid", start, err, log.FieldBillID, billID) }(time.Now())
	return r.next.TotalPaid(ctx, billID)
}

func (r *loggingRepository) DeletePayment(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { r.observe(ctx, "DeletePayment", start, err, log.FieldPaymentID, id) }(time.Now())
	return r.next.DeletePayment(ctx, id)
}

func (r *loggingRepository) SaveReminder(ctx context.Context, rec core.ReminderRecord) (out core.ReminderRecord, created bool, err error) {
	defer func(start time.Time) {
		r.observe(ctx, "SaveReminder", start, err, log.FieldBillID, rec.BillID, log.FieldReminderKind, string(rec.Kind))
	}(time.Now())
	return r.next.SaveReminder(ctx, rec)
}

func (r *loggingRepository) HasReminder(ctx context.Context, billID int64, kind core.ReminderKind, date core.Date) (out bool, err error) {
	defer func(start time.Time) { r.observe(ctx, "HasReminder", start, err, log.FieldBillID, billID) }(time.Now())
	return r.next.HasReminder(ctx, billID, kind, date)
}

func (r *loggingRepository) ListReminders(ctx context.Context, unsentOnly bool) (out []core.ReminderRecord, err error) {
	defer func(start time.Time) { r.observe(ctx, "ListReminders", start, err, log.FieldCount, len(out)) }(time.Now())
	return r.next.ListReminders(ctx, unsentOnly)
}

func (r *loggingRepository) MarkReminderSent(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { r.observe(ctx, "MarkReminderSent", start, err) }(time.Now())
	return r.next.MarkReminderSent(ctx, id)
}

func (r *loggingRepository) PendingSync(ctx context.Context, limit int) (out []PendingSync, err error) {
	defer func(start time.Time) { r.observe(ctx, "PendingSync", start, err, log.FieldCount, len(out)) }(time.Now())
	return r.next.PendingSync(ctx, limit)
}

func (r *loggingRepository) MarkSynced(ctx context.Context, id, version int64) (err error) {
	defer func(start time.Time) {
		r.observe(ctx, "MarkSynced", start, err, log.FieldBillID, id, log.FieldVersion, version)
	}(time.Now())
	return r.next.MarkSynced(ctx, id, version)
}

func (r *loggingRepository) MarkSyncError(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { r.observe(ctx, "MarkSyncError", start, err, log.FieldBillID, id) }(time.Now())
	return r.next.MarkSyncError(ctx, id)
}

func (r *loggingRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *loggingRepository) Reset(ctx context.Context) (err error) {
	defer func(start time.Time) { r.observe(ctx, "Reset", start, err) }(time.Now())
	return r.next.Reset(ctx)
}

func (r *loggingRepository) Close() error {
	return r.next.Close()
}
