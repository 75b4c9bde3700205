package services

import (
	"context"
	"fmt"

	"billminder/internal/analytics"
	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/metrics"
	"billminder/internal/reminders"
	"billminder/internal/scoring"
	"billminder/internal/storage"
)

// ReminderStore is the slice of the repository the reminder service needs.
type ReminderStore interface {
	storage.BillStore
	storage.ReminderStore
}

// ScoredBill is one bill with its scores and current reminder events.
type ScoredBill struct {
	Bill   core.Bill
	Scores scoring.Bundle
	Events []reminders.Event
}

// ReminderService derives reminders from the stored bills. Every call
// loads a fresh snapshot; nothing derived is cached.
type ReminderService struct {
	store        ReminderStore
	metrics      *metrics.Metrics
	logger       *log.Logger
	events       *log.StructuredLogger
	today        Clock
	limit        int
	upcomingDays int
}

// NewReminderService creates a ReminderService. limit is the default size
// of Top and upcomingDays the default window of Upcoming; values <= 0 fall
// back to the reminders package defaults.
func NewReminderService(store ReminderStore, m *metrics.Metrics, logger *log.Logger, limit, upcomingDays int, opts ...Option) *ReminderService {
	if logger == nil {
		logger = log.Discard()
	}
	if limit <= 0 {
		limit = reminders.DefaultLimit
	}
	if upcomingDays <= 0 {
		upcomingDays = reminders.DefaultWindow
	}
	logger = logger.WithComponent(log.ComponentReminder)
	o := buildOptions(opts)
	return &ReminderService{
		store:        store,
		metrics:      m,
		logger:       logger,
		events:       log.NewStructuredLogger(logger),
		today:        o.today,
		limit:        limit,
		upcomingDays: upcomingDays,
	}
}

// Limit is the default number of top reminders.
func (s *ReminderService) Limit() int { return s.limit }

// UpcomingDays is the default look-ahead of Upcoming.
func (s *ReminderService) UpcomingDays() int { return s.upcomingDays }

func (s *ReminderService) snapshot(ctx context.Context) ([]core.Bill, *reminders.Generator, error) {
	bills, err := s.store.ListBills(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("load bills: %w", err)
	}
	return bills, reminders.NewGenerator(bills, s.today()), nil
}

// All returns the events of every unpaid bill, highest priority first.
func (s *ReminderService) All(ctx context.Context) ([]reminders.Event, error) {
	bills, gen, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return gen.All(bills), nil
}

// Top returns at most limit events ranked by weighted score. A limit <= 0
// yields an empty list.
func (s *ReminderService) Top(ctx context.Context, limit int) ([]reminders.Event, error) {
	bills, gen, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return gen.Top(bills, limit), nil
}

func (s *ReminderService) Stats(ctx context.Context) (reminders.Stats, error) {
	bills, gen, err := s.snapshot(ctx)
	if err != nil {
		return reminders.Stats{}, err
	}
	return gen.Stats(bills), nil
}

// Upcoming summarizes unpaid bills due within days.
func (s *ReminderService) Upcoming(ctx context.Context, days int) (reminders.Summary, error) {
	bills, err := s.store.ListBills(ctx, false)
	if err != nil {
		return reminders.Summary{}, fmt.Errorf("load bills: %w", err)
	}
	return reminders.Upcoming(bills, s.today(), days), nil
}

// Analytics computes the bill side of the dashboard analytics.
func (s *ReminderService) Analytics(ctx context.Context) (analytics.Report, error) {
	bills, err := s.store.ListBills(ctx, true)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("load bills: %w", err)
	}
	return analytics.Build(bills, s.today()), nil
}

// Score scores bill id against every stored bill.
func (s *ReminderService) Score(ctx context.Context, id int64) (ScoredBill, error) {
	bill, err := s.store.GetBill(ctx, id)
	if err != nil {
		return ScoredBill{}, fmt.Errorf("bill %d: %w", id, err)
	}
	_, gen, err := s.snapshot(ctx)
	if err != nil {
		return ScoredBill{}, err
	}
	out := ScoredBill{Bill: bill, Scores: gen.Score(bill)}
	if !bill.Paid {
		out.Events = gen.For(bill)
	}
	return out, nil
}

// Record writes a reminder log entry for every current event not already
// logged today and returns how many were written.
func (s *ReminderService) Record(ctx context.Context) (int, error) {
	events, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	today := s.today()

	recorded := 0
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return recorded, err
		}
		_, created, err := s.store.SaveReminder(ctx, core.ReminderRecord{
			BillID: e.BillID,
			Kind:   e.Kind,
			Date:   today,
		})
		if err != nil {
			return recorded, fmt.Errorf("save reminder for bill %d: %w", e.BillID, err)
		}
		if !created {
			continue
		}
		recorded++
		s.metrics.ReminderRecorded(string(e.Kind))
		s.events.LogReminderRecorded(ctx, e.BillID, string(e.Kind), today.String())
	}

	if recorded > 0 {
		s.logger.InfoContext(ctx, "Reminders recorded", log.FieldCount, recorded, log.FieldOperation, log.OpRecord)
	}
	return recorded, nil
}

func (s *ReminderService) MarkSent(ctx context.Context, id int64) error {
	if err := s.store.MarkReminderSent(ctx, id); err != nil {
		return fmt.Errorf("mark reminder %d sent: %w", id, err)
	}
	return nil
}

// Log lists the recorded reminders, newest first.
func (s *ReminderService) Log(ctx context.Context, unsentOnly bool) ([]core.ReminderRecord, error) {
	return s.store.ListReminders(ctx, unsentOnly)
}
