// Package memory is an in-process storage.Repository used for demos and
// tests. Data lives only as long as the process.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"billminder/internal/core"
	"billminder/internal/storage"
)

var _ storage.Repository = (*Store)(nil)

type billRow struct {
	bill   core.Bill
	synced bool
	failed bool
}

type Store struct {
	mu        sync.RWMutex
	bills     map[int64]*billRow
	payments  map[int64]core.Payment
	reminders map[int64]core.ReminderRecord
	nextID    struct{ bill, payment, reminder int64 }
	now       func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.init()
	return s
}

func (s *Store) init() {
	s.bills = make(map[int64]*billRow)
	s.payments = make(map[int64]core.Payment)
	s.reminders = make(map[int64]core.ReminderRecord)
	s.nextID.bill, s.nextID.payment, s.nextID.reminder = 0, 0, 0
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	return nil
}

func (s *Store) CreateBill(_ context.Context, b core.Bill) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID.bill++
	now := s.now().UTC().Truncate(time.Second)
	b.ID = s.nextID.bill
	b.Version = 1
	b.CreatedAt, b.UpdatedAt = now, now
	s.bills[b.ID] = &billRow{bill: b}
	return b, nil
}

func (s *Store) UpdateBill(_ context.Context, b core.Bill) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.bills[b.ID]
	if !ok {
		return core.Bill{}, fmt.Errorf("update bill %d: %w", b.ID, storage.ErrNotFound)
	}
	b.CreatedAt = row.bill.CreatedAt
	b.Version = row.bill.Version + 1
	b.UpdatedAt = s.now().UTC().Truncate(time.Second)
	*row = billRow{bill: b}
	return b, nil
}

func (s *Store) GetBill(_ context.Context, id int64) (core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.bills[id]
	if !ok {
		return core.Bill{}, fmt.Errorf("bill %d: %w", id, storage.ErrNotFound)
	}
	return row.bill, nil
}

func (s *Store) ListBills(_ context.Context, includePaid bool) ([]core.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Bill
	for _, row := range s.bills {
		if !includePaid && row.bill.Paid {
			continue
		}
		out = append(out, row.bill)
	}
	slices.SortFunc(out, func(a, b core.Bill) int {
		return cmp.Or(a.DueDate.Compare(b.DueDate.Time), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) DeleteBill(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[id]; !ok {
		return fmt.Errorf("delete bill %d: %w", id, storage.ErrNotFound)
	}
	delete(s.bills, id)
	for pid, p := range s.payments {
		if p.BillID == id {
			delete(s.payments, pid)
		}
	}
	for rid, r := range s.reminders {
		if r.BillID == id {
			delete(s.reminders, rid)
		}
	}
	return nil
}

func (s *Store) MarkBillPaid(_ context.Context, id int64) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.bills[id]
	if !ok {
		return core.Bill{}, fmt.Errorf("mark bill %d paid: %w", id, storage.ErrNotFound)
	}
	row.bill.Paid = true
	row.bill.Version++
	row.bill.UpdatedAt = s.now().UTC().Truncate(time.Second)
	row.synced, row.failed = false, false
	return row.bill, nil
}

func (s *Store) CreatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[p.BillID]; !ok {
		return core.Payment{}, fmt.Errorf("insert payment: bill %d: %w", p.BillID, storage.ErrNotFound)
	}
	s.nextID.payment++
	p.ID = s.nextID.payment
	p.BillName = ""
	p.CreatedAt = s.now().UTC().Truncate(time.Second)
	s.payments[p.ID] = p
	return p, nil
}

func (s *Store) ListPayments(context.Context) ([]core.Payment, error) {
	return s.listPayments(func(core.Payment) bool { return true }), nil
}

func (s *Store) ListPaymentsByBill(_ context.Context, billID int64) ([]core.Payment, error) {
	return s.listPayments(func(p core.Payment) bool { return p.BillID == billID }), nil
}

func (s *Store) listPayments(keep func(core.Payment) bool) []core.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Payment
	for _, p := range s.payments {
		if !keep(p) {
			continue
		}
		if row, ok := s.bills[p.BillID]; ok {
			p.BillName = row.bill.Name
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b core.Payment) int {
		return cmp.Or(b.Date.Compare(a.Date.Time), cmp.Compare(b.ID, a.ID))
	})
	return out
}

func (s *Store) TotalPaid(_ context.Context, billID int64) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total core.Money
	for _, p := range s.payments {
		if p.BillID == billID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (s *Store) DeletePayment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[id]; !ok {
		return fmt.Errorf("delete payment %d: %w", id, storage.ErrNotFound)
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) SaveReminder(_ context.Context, r core.ReminderRecord) (core.ReminderRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[r.BillID]; !ok {
		return core.ReminderRecord{}, false, fmt.Errorf("insert reminder: bill %d: %w", r.BillID, storage.ErrNotFound)
	}
	for _, existing := range s.reminders {
		if existing.BillID == r.BillID && existing.Kind == r.Kind && existing.Date == r.Date {
			return core.ReminderRecord{}, false, nil
		}
	}
	s.nextID.reminder++
	r.ID = s.nextID.reminder
	r.CreatedAt = s.now().UTC().Truncate(time.Second)
	s.reminders[r.ID] = r
	return r, true, nil
}

func (s *Store) HasReminder(_ context.Context, billID int64, kind core.ReminderKind, date core.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reminders {
		if r.BillID == billID && r.Kind == kind && r.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListReminders(_ context.Context, unsentOnly bool) ([]core.ReminderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ReminderRecord
	for _, r := range s.reminders {
		if unsentOnly && r.Sent {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b core.ReminderRecord) int {
		return cmp.Or(b.Date.Compare(a.Date.Time), cmp.Compare(b.ID, a.ID))
	})
	return out, nil
}

func (s *Store) MarkReminderSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return fmt.Errorf("mark reminder %d sent: %w", id, storage.ErrNotFound)
	}
	r.Sent = true
	s.reminders[id] = r
	return nil
}

func (s *Store) PendingSync(_ context.Context, limit int) ([]storage.PendingSync, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*billRow
	for _, row := range s.bills {
		if !row.synced {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b *billRow) int {
		return cmp.Or(a.bill.UpdatedAt.Compare(b.bill.UpdatedAt), cmp.Compare(a.bill.ID, b.bill.ID))
	})
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	out := make([]storage.PendingSync, len(rows))
	for i, row := range rows {
		out[i] = storage.PendingSync{ID: row.bill.ID, Version: row.bill.Version}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.bills[id]; ok && row.bill.Version == version {
		row.synced, row.failed = true, false
	}
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.bills[id]; ok {
		row.failed = true
	}
	return nil
}
