package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/storage"
)

// Publisher announces bill changes to the sync pipeline.
type Publisher interface {
	PublishBillSync(ctx context.Context, id, version int64) error
	PublishBillDelete(ctx context.Context, id int64) error
}

// BillInput is the user editable part of a bill.
type BillInput struct {
	Name       string
	Amount     core.Money
	DueDate    core.Date
	Category   core.Category
	Recurrence core.Recurrence
	Paid       bool
}

// BillService validates and persists bills, then publishes a sync event.
// Publishing never fails a request: the bill stays pending in the store and
// the sync worker picks it up on its next pass.
type BillService struct {
	store     storage.BillStore
	publisher Publisher
	logger    *log.Logger
	events    *log.StructuredLogger
	today     Clock

	mu       sync.RWMutex
	onDelete []func(ctx context.Context, id int64)
}

// NewBillService creates a BillService. publisher and logger may be nil.
func NewBillService(store storage.BillStore, publisher Publisher, logger *log.Logger, opts ...Option) *BillService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentBill)
	o := buildOptions(opts)
	return &BillService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		today:     o.today,
	}
}

// OnDelete registers fn to run after a bill is deleted.
func (s *BillService) OnDelete(fn func(ctx context.Context, id int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = append(s.onDelete, fn)
}

func (s *BillService) check(in BillInput) core.Validation {
	v := core.CheckBill(in.Name, in.Amount, in.DueDate, in.Category, s.today())
	if !in.Recurrence.Valid() {
		v.Errors = append(v.Errors, "Recurrence must be one of: none, monthly, quarterly, yearly")
	}
	return v
}

// Create validates in and stores a new bill. The returned warnings are
// non-blocking validation findings.
func (s *BillService) Create(ctx context.Context, in BillInput) (core.Bill, []string, error) {
	v := s.check(in)
	if !v.OK() {
		return core.Bill{}, v.Warnings, newValidationError(v)
	}

	b, err := s.store.CreateBill(ctx, core.Bill{
		Name:       strings.TrimSpace(in.Name),
		Amount:     in.Amount,
		DueDate:    in.DueDate,
		Category:   in.Category,
		Recurrence: in.Recurrence,
		Paid:       in.Paid,
	})
	if err != nil {
		return core.Bill{}, nil, fmt.Errorf("create bill: %w", err)
	}

	s.saved(ctx, log.OpCreate, b)
	return b, v.Warnings, nil
}

// Update replaces the editable fields of bill id.
func (s *BillService) Update(ctx context.Context, id int64, in BillInput) (core.Bill, []string, error) {
	v := s.check(in)
	if !v.OK() {
		return core.Bill{}, v.Warnings, newValidationError(v)
	}

	b, err := s.store.UpdateBill(ctx, core.Bill{
		ID:         id,
		Name:       strings.TrimSpace(in.Name),
		Amount:     in.Amount,
		DueDate:    in.DueDate,
		Category:   in.Category,
		Recurrence: in.Recurrence,
		Paid:       in.Paid,
	})
	if err != nil {
		return core.Bill{}, nil, fmt.Errorf("update bill %d: %w", id, err)
	}

	s.saved(ctx, log.OpUpdate, b)
	return b, v.Warnings, nil
}

func (s *BillService) Get(ctx context.Context, id int64) (core.Bill, error) {
	return s.store.GetBill(ctx, id)
}

// List returns bills ordered by due date; paid bills only when includePaid.
func (s *BillService) List(ctx context.Context, includePaid bool) ([]core.Bill, error) {
	return s.store.ListBills(ctx, includePaid)
}

// Delete removes a bill together with its payments and reminder records.
func (s *BillService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Bill deleted", log.FieldBillID, id, log.FieldOperation, log.OpDelete)

	s.mu.RLock()
	hooks := slices.Clone(s.onDelete)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, id)
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping delete message", log.FieldBillID, id)
		return nil
	}
	if err := s.publisher.PublishBillDelete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish delete message", log.FieldBillID, id, log.FieldError, err)
	}
	return nil
}

// MarkPaid marks bill id as paid. For a recurring bill the next occurrence
// is created and returned as next; next is nil otherwise. Marking an
// already paid bill is a no-op.
func (s *BillService) MarkPaid(ctx context.Context, id int64) (paid core.Bill, next *core.Bill, err error) {
	current, err := s.store.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, nil, fmt.Errorf("mark bill %d paid: %w", id, err)
	}
	if current.Paid {
		return current, nil, nil
	}

	paid, err = s.store.MarkBillPaid(ctx, id)
	if err != nil {
		return core.Bill{}, nil, fmt.Errorf("mark bill %d paid: %w", id, err)
	}
	s.saved(ctx, log.OpMarkPaid, paid)

	if !paid.Recurring() {
		return paid, nil, nil
	}

	strategy, err := GetRecurrenceStrategy(paid.Recurrence)
	if err != nil {
		return paid, nil, err
	}
	rolled, err := s.store.CreateBill(ctx, core.Bill{
		Name:       paid.Name,
		Amount:     paid.Amount,
		DueDate:    strategy.NextDue(paid.DueDate),
		Category:   paid.Category,
		Recurrence: paid.Recurrence,
	})
	if err != nil {
		return paid, nil, fmt.Errorf("create next occurrence of bill %d: %w", id, err)
	}
	s.saved(ctx, log.OpCreate, rolled)
	return paid, &rolled, nil
}

func (s *BillService) saved(ctx context.Context, op string, b core.Bill) {
	s.events.LogBillSaved(ctx, op, b.ID, b.Name, b.Amount.Cents, string(b.Category), b.DueDate.String())

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping sync message", log.FieldBillID, b.ID)
		return
	}
	if err := s.publisher.PublishBillSync(ctx, b.ID, b.Version); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldBillID, b.ID,
			log.FieldVersion, b.Version,
			log.FieldError, err)
	}
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
