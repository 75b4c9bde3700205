// Package storagetest holds the behaviour every storage.Repository must
// share, run against each implementation from its own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"billminder/internal/core"
	"billminder/internal/storage"
)

// Bill returns a valid unpaid bill due on due.
func Bill(name string, cents int64, due core.Date) core.Bill {
	return core.Bill{
		Name:     name,
		Amount:   core.Money{Cents: cents},
		DueDate:  due,
		Category: core.Utilities,
	}
}

// Run exercises repo through the storage.Repository contract. newRepo must
// return an empty repository for each call.
func Run(t *testing.T, newRepo func(t *testing.T) storage.Repository) {
	t.Run("Bills", func(t *testing.T) { testBills(t, newRepo(t)) })
	t.Run("Payments", func(t *testing.T) { testPayments(t, newRepo(t)) })
	t.Run("Reminders", func(t *testing.T) { testReminders(t, newRepo(t)) })
	t.Run("Sync", func(t *testing.T) { testSync(t, newRepo(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newRepo(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newRepo(t)) })
}

func mustCreate(t *testing.T, repo storage.Repository, b core.Bill) core.Bill {
	t.Helper()
	created, err := repo.CreateBill(context.Background(), b)
	if err != nil {
		t.Fatalf("CreateBill() error = %v", err)
	}
	return created
}

func testBills(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	later := mustCreate(t, repo, Bill("Rent", 120000, core.NewDate(2025, 7, 1)))
	sooner := mustCreate(t, repo, Bill("Water", 3000, core.NewDate(2025, 6, 10)))
	if later.ID == 0 || sooner.ID == 0 || later.ID == sooner.ID {
		t.Fatalf("CreateBill() ids = %d, %d", later.ID, sooner.ID)
	}
	if later.Version != 1 {
		t.Errorf("new bill version = %d, want 1", later.Version)
	}

	got, err := repo.GetBill(ctx, later.ID)
	if err != nil {
		t.Fatalf("GetBill() error = %v", err)
	}
	if got.Name != "Rent" || got.Amount.Cents != 120000 || got.DueDate != core.NewDate(2025, 7, 1) || got.Category != core.Utilities {
		t.Errorf("GetBill() = %+v", got)
	}

	if _, err := repo.GetBill(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetBill(missing) error = %v, want ErrNotFound", err)
	}

	got.Amount = core.Money{Cents: 125000}
	got.Recurrence = core.Monthly
	updated, err := repo.UpdateBill(ctx, got)
	if err != nil {
		t.Fatalf("UpdateBill() error = %v", err)
	}
	if updated.Amount.Cents != 125000 || updated.Recurrence != core.Monthly || updated.Version != 2 {
		t.Errorf("UpdateBill() = %+v", updated)
	}
	if _, err := repo.UpdateBill(ctx, core.Bill{ID: 9999, Name: "x", Amount: core.Money{Cents: 1}, DueDate: core.NewDate(2025, 1, 1), Category: core.Other}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateBill(missing) error = %v, want ErrNotFound", err)
	}

	list, err := repo.ListBills(ctx, true)
	if err != nil {
		t.Fatalf("ListBills() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != sooner.ID || list[1].ID != later.ID {
		t.Fatalf("ListBills() not ordered by due date: %+v", list)
	}

	paid, err := repo.MarkBillPaid(ctx, sooner.ID)
	if err != nil {
		t.Fatalf("MarkBillPaid() error = %v", err)
	}
	if !paid.Paid || paid.Version != 2 {
		t.Errorf("MarkBillPaid() = %+v", paid)
	}
	unpaid, err := repo.ListBills(ctx, false)
	if err != nil {
		t.Fatalf("ListBills(unpaid) error = %v", err)
	}
	if len(unpaid) != 1 || unpaid[0].ID != later.ID {
		t.Errorf("ListBills(unpaid) = %+v", unpaid)
	}

	if err := repo.DeleteBill(ctx, later.ID); err != nil {
		t.Fatalf("DeleteBill() error = %v", err)
	}
	if err := repo.DeleteBill(ctx, later.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteBill(twice) error = %v, want ErrNotFound", err)
	}
}

func testPayments(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	rent := mustCreate(t, repo, Bill("Rent", 120000, core.NewDate(2025, 7, 1)))
	water := mustCreate(t, repo, Bill("Water", 3000, core.NewDate(2025, 6, 10)))

	payments := []core.Payment{
		{BillID: rent.ID, Date: core.NewDate(2025, 5, 1), Amount: core.Money{Cents: 60000}, Method: core.BankTransfer},
		{BillID: rent.ID, Date: core.NewDate(2025, 6, 1), Amount: core.Money{Cents: 60000}, Method: core.BankTransfer, Notes: "second half"},
		{BillID: water.ID, Date: core.NewDate(2025, 5, 20), Amount: core.Money{Cents: 3000}, Method: core.UPI},
	}
	var ids []int64
	for _, p := range payments {
		created, err := repo.CreatePayment(ctx, p)
		if err != nil {
			t.Fatalf("CreatePayment() error = %v", err)
		}
		ids = append(ids, created.ID)
	}

	all, err := repo.ListPayments(ctx)
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListPayments() len = %d, want 3", len(all))
	}
	if all[0].ID != ids[1] || all[1].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("ListPayments() not newest first: %+v", all)
	}
	if all[0].BillName != "Rent" || all[0].Notes != "second half" {
		t.Errorf("ListPayments()[0] = %+v", all[0])
	}

	byBill, err := repo.ListPaymentsByBill(ctx, rent.ID)
	if err != nil {
		t.Fatalf("ListPaymentsByBill() error = %v", err)
	}
	if len(byBill) != 2 {
		t.Errorf("ListPaymentsByBill() len = %d, want 2", len(byBill))
	}

	total, err := repo.TotalPaid(ctx, rent.ID)
	if err != nil {
		t.Fatalf("TotalPaid() error = %v", err)
	}
	if total.Cents != 120000 {
		t.Errorf("TotalPaid() = %d, want 120000", total.Cents)
	}
	if none, _ := repo.TotalPaid(ctx, 9999); none.Cents != 0 {
		t.Errorf("TotalPaid(missing) = %d, want 0", none.Cents)
	}

	if err := repo.DeletePayment(ctx, ids[0]); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	if err := repo.DeletePayment(ctx, ids[0]); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeletePayment(twice) error = %v, want ErrNotFound", err)
	}
}

func testReminders(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	bill := mustCreate(t, repo, Bill("Rent", 120000, core.NewDate(2025, 7, 1)))
	day := core.NewDate(2025, 6, 25)

	has, err := repo.HasReminder(ctx, bill.ID, core.UrgentReminder, day)
	if err != nil || has {
		t.Fatalf("HasReminder() before save = %v, %v", has, err)
	}

	rec, created, err := repo.SaveReminder(ctx, core.ReminderRecord{BillID: bill.ID, Kind: core.UrgentReminder, Date: day})
	if err != nil || !created {
		t.Fatalf("SaveReminder() = %v, %v", created, err)
	}
	dup, created, err := repo.SaveReminder(ctx, core.ReminderRecord{BillID: bill.ID, Kind: core.UrgentReminder, Date: day})
	if err != nil {
		t.Fatalf("SaveReminder(duplicate) error = %v", err)
	}
	if created || dup.ID != 0 {
		t.Errorf("SaveReminder(duplicate) = %+v, created %v; want no new record", dup, created)
	}
	if has, _ := repo.HasReminder(ctx, bill.ID, core.UrgentReminder, day); !has {
		t.Error("HasReminder() after save = false")
	}
	if has, _ := repo.HasReminder(ctx, bill.ID, core.FinalReminder, day); has {
		t.Error("HasReminder() matched a different kind")
	}

	unsent, err := repo.ListReminders(ctx, true)
	if err != nil || len(unsent) != 1 || unsent[0].ID != rec.ID || unsent[0].Sent {
		t.Fatalf("ListReminders(unsent) = %+v, %v", unsent, err)
	}

	if err := repo.MarkReminderSent(ctx, rec.ID); err != nil {
		t.Fatalf("MarkReminderSent() error = %v", err)
	}
	if err := repo.MarkReminderSent(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("MarkReminderSent(missing) error = %v, want ErrNotFound", err)
	}
	if unsent, _ := repo.ListReminders(ctx, true); len(unsent) != 0 {
		t.Errorf("ListReminders(unsent) after send = %+v", unsent)
	}
	all, _ := repo.ListReminders(ctx, false)
	if len(all) != 1 || !all[0].Sent || all[0].Kind != core.UrgentReminder || all[0].Date != day {
		t.Errorf("ListReminders(all) = %+v", all)
	}
}

func testSync(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, Bill("Rent", 120000, core.NewDate(2025, 7, 1)))
	b := mustCreate(t, repo, Bill("Water", 3000, core.NewDate(2025, 6, 10)))

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("PendingSync() = %+v, %v", pending, err)
	}
	if limited, _ := repo.PendingSync(ctx, 1); len(limited) != 1 {
		t.Errorf("PendingSync(1) len = %d", len(limited))
	}

	if err := repo.MarkSynced(ctx, a.ID, a.Version); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	// stale version must not clear a newer edit
	updated, _ := repo.MarkBillPaid(ctx, b.ID)
	if err := repo.MarkSynced(ctx, b.ID, b.Version); err != nil {
		t.Fatalf("MarkSynced(stale) error = %v", err)
	}

	pending, _ = repo.PendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].ID != b.ID || pending[0].Version != updated.Version {
		t.Fatalf("PendingSync() after partial sync = %+v", pending)
	}

	if err := repo.MarkSyncError(ctx, b.ID); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}
	if pending, _ = repo.PendingSync(ctx, 10); len(pending) != 1 {
		t.Errorf("failed bill should stay pending, got %+v", pending)
	}
}

func testDeleteCascades(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	bill := mustCreate(t, repo, Bill("Rent", 120000, core.NewDate(2025, 7, 1)))
	if _, err := repo.CreatePayment(ctx, core.Payment{BillID: bill.ID, Date: core.NewDate(2025, 6, 1), Amount: core.Money{Cents: 100}, Method: core.Cash}); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if _, _, err := repo.SaveReminder(ctx, core.ReminderRecord{BillID: bill.ID, Kind: core.EarlyReminder, Date: core.NewDate(2025, 6, 20)}); err != nil {
		t.Fatalf("SaveReminder() error = %v", err)
	}

	if err := repo.DeleteBill(ctx, bill.ID); err != nil {
		t.Fatalf("DeleteBill() error = %v", err)
	}
	if payments, _ := repo.ListPayments(ctx); len(payments) != 0 {
		t.Errorf("payments survived bill deletion: %+v", payments)
	}
	if reminders, _ := repo.ListReminders(ctx, false); len(reminders) != 0 {
		t.Errorf("reminders survived bill deletion: %+v", reminders)
	}
}

func testReset(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	mustCreate(t, repo, Bill("Rent", 120000, core.NewDate(2025, 7, 1)))

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if bills, _ := repo.ListBills(ctx, true); len(bills) != 0 {
		t.Errorf("ListBills() after Reset = %+v", bills)
	}
	again := mustCreate(t, repo, Bill("Water", 3000, core.NewDate(2025, 6, 10)))
	if again.ID != 1 {
		t.Errorf("ids not restarted after Reset, got %d", again.ID)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
