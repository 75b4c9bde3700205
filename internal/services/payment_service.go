package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billminder/internal/analytics"
	"billminder/internal/cache"
	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/metrics"
	"billminder/internal/storage"
)

const (
	historyCacheSize = 256
	historyCacheTTL  = 5 * time.Minute
	historyCacheName = "payment_history"
)

// PaymentStore is the slice of the repository the payment service needs.
type PaymentStore interface {
	storage.PaymentStore
	GetBill(ctx context.Context, id int64) (core.Bill, error)
}

type PaymentInput struct {
	BillID int64
	Date   core.Date
	Amount core.Money
	Method core.PaymentMethod
	Notes  string
	// MarkPaid also marks the bill paid, rolling recurring bills over.
	MarkPaid bool
}

// BillReport is the per-bill payment view.
type BillReport struct {
	Bill        core.Bill
	Payments    []core.Payment
	History     core.HistoryReport
	Suggestions []string
}

// PaymentService records payments and serves per-bill payment histories
// from an LRU cache that is invalidated on every write.
type PaymentService struct {
	store   PaymentStore
	bills   *BillService
	history *cache.LRU[int64, []core.Payment]
	logger  *log.Logger
	events  *log.StructuredLogger
	today   Clock
}

// NewPaymentService creates a PaymentService. m may be nil.
func NewPaymentService(store PaymentStore, bills *BillService, logger *log.Logger, m *metrics.Metrics, opts ...Option) *PaymentService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentPayment)
	o := buildOptions(opts)

	s := &PaymentService{
		store: store,
		bills: bills,
		history: cache.NewLRU[int64, []core.Payment](historyCacheSize, historyCacheTTL,
			cache.WithLookupHook(func(hit bool) { m.CacheLookup(historyCacheName, hit) })),
		logger: logger,
		events: log.NewStructuredLogger(logger),
		today:  o.today,
	}
	if bills != nil {
		bills.OnDelete(func(_ context.Context, id int64) { s.history.Delete(id) })
	}
	return s
}

// Cache exposes the history cache so it can be registered for sweeping.
func (s *PaymentService) Cache() cache.Cleaner {
	return s.history
}

// Record validates and stores a payment. The returned warnings are
// non-blocking validation findings.
func (s *PaymentService) Record(ctx context.Context, in PaymentInput) (core.Payment, []string, error) {
	var bill *core.Bill
	if in.BillID > 0 {
		b, err := s.store.GetBill(ctx, in.BillID)
		switch {
		case err == nil:
			bill = &b
		case !errors.Is(err, storage.ErrNotFound):
			return core.Payment{}, nil, fmt.Errorf("load bill %d: %w", in.BillID, err)
		}
	}

	p := core.Payment{
		BillID: in.BillID,
		Date:   in.Date,
		Amount: in.Amount,
		Method: in.Method,
		Notes:  strings.TrimSpace(in.Notes),
	}
	v := core.CheckPayment(p, bill, s.today())
	if !v.OK() {
		return core.Payment{}, v.Warnings, newValidationError(v)
	}

	saved, err := s.store.CreatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, nil, fmt.Errorf("record payment: %w", err)
	}
	s.history.Delete(saved.BillID)
	s.events.LogPaymentRecorded(ctx, saved.ID, saved.BillID, saved.Amount.Cents, string(saved.Method))

	if in.MarkPaid && !bill.Paid && s.bills != nil {
		if _, _, err := s.bills.MarkPaid(ctx, bill.ID); err != nil {
			return saved, v.Warnings, fmt.Errorf("payment %d recorded, marking bill paid: %w", saved.ID, err)
		}
	}
	return saved, v.Warnings, nil
}

// List returns all payments, newest first.
func (s *PaymentService) List(ctx context.Context) ([]core.Payment, error) {
	return s.store.ListPayments(ctx)
}

// History returns the payments of one bill, newest first.
func (s *PaymentService) History(ctx context.Context, billID int64) ([]core.Payment, error) {
	if cached, ok := s.history.Get(billID); ok {
		return cached, nil
	}
	payments, err := s.store.ListPaymentsByBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("payment history of bill %d: %w", billID, err)
	}
	s.history.Set(billID, payments)
	return payments, nil
}

// Delete removes a payment.
func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	// The bill id is not known here, drop every cached history.
	s.history.Purge()
	s.logger.InfoContext(ctx, "Payment deleted", log.FieldPaymentID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// Report builds the payment review and suggestions for one bill.
func (s *PaymentService) Report(ctx context.Context, billID int64) (BillReport, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return BillReport{}, fmt.Errorf("bill %d: %w", billID, err)
	}
	payments, err := s.History(ctx, billID)
	if err != nil {
		return BillReport{}, err
	}
	return BillReport{
		Bill:        bill,
		Payments:    payments,
		History:     core.ReviewHistory(bill, payments),
		Suggestions: core.PaymentSuggestions(bill, payments, s.today()),
	}, nil
}

// Analytics aggregates every recorded payment.
func (s *PaymentService) Analytics(ctx context.Context) (analytics.PaymentReport, error) {
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return analytics.PaymentReport{}, fmt.Errorf("payment analytics: %w", err)
	}
	return analytics.Payments(payments), nil
}
