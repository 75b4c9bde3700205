package worker

import (
	"context"
	"errors"
	"testing"

	"billminder/internal/amqp"
	"billminder/internal/core"
	"billminder/internal/metrics"
	sheetsmem "billminder/internal/sheets/memory"
	"billminder/internal/storage/memory"
)

func seedBills(t *testing.T, store *memory.Store, names ...string) []core.Bill {
	t.Helper()
	var out []core.Bill
	for i, name := range names {
		b, err := store.CreateBill(context.Background(), core.Bill{
			Name:     name,
			Amount:   core.Money{Cents: int64(i+1) * 10_00},
			DueDate:  core.NewDate(2025, 3, 10+i),
			Category: core.Utilities,
		})
		if err != nil {
			t.Fatalf("create bill: %v", err)
		}
		out = append(out, b)
	}
	return out
}

func pendingCount(t *testing.T, store *memory.Store) int {
	t.Helper()
	pending, err := store.PendingSync(context.Background(), 100)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	return len(pending)
}

func TestSyncWorker_HandleSync(t *testing.T) {
	store := memory.NewStore()
	exporter := sheetsmem.New()
	w := NewSyncWorker(store, exporter, 10, nil, metrics.New())
	bills := seedBills(t, store, "Power")

	err := w.HandleMessage(context.Background(), amqp.NewBillSyncMessage(bills[0].ID, bills[0].Version))
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	got, ok := exporter.Get(bills[0].ID)
	if !ok {
		t.Fatal("bill was not exported")
	}
	if got.Name != "Power" {
		t.Errorf("exported name = %q, want Power", got.Name)
	}
	if n := pendingCount(t, store); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

func TestSyncWorker_HandleSyncMissingBill(t *testing.T) {
	exporter := sheetsmem.New()
	w := NewSyncWorker(memory.NewStore(), exporter, 10, nil, nil)

	if err := w.HandleMessage(context.Background(), amqp.NewBillSyncMessage(42, 1)); err != nil {
		t.Fatalf("missing bill should be acknowledged, got %v", err)
	}
	if upserts, _ := exporter.Calls(); upserts != 0 {
		t.Errorf("upserts = %d, want 0", upserts)
	}
}

func TestSyncWorker_HandleSyncExportFailure(t *testing.T) {
	store := memory.NewStore()
	exporter := sheetsmem.New()
	exporter.SetFail(errors.New("quota exceeded"))
	w := NewSyncWorker(store, exporter, 10, nil, nil)
	bills := seedBills(t, store, "Power")

	if err := w.HandleMessage(context.Background(), amqp.NewBillSyncMessage(bills[0].ID, 1)); err == nil {
		t.Fatal("expected export error")
	}
	if n := pendingCount(t, store); n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
}

func TestSyncWorker_HandleDelete(t *testing.T) {
	store := memory.NewStore()
	exporter := sheetsmem.New()
	w := NewSyncWorker(store, exporter, 10, nil, nil)
	bills := seedBills(t, store, "Power")
	ctx := context.Background()

	if err := w.HandleMessage(ctx, amqp.NewBillSyncMessage(bills[0].ID, 1)); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleMessage(ctx, amqp.NewBillDeleteMessage(bills[0].ID)); err != nil {
		t.Fatal(err)
	}
	if _, ok := exporter.Get(bills[0].ID); ok {
		t.Error("row still present after delete")
	}
}

func TestSyncWorker_UnknownType(t *testing.T) {
	w := NewSyncWorker(memory.NewStore(), sheetsmem.New(), 10, nil, nil)
	if err := w.HandleMessage(context.Background(), &amqp.BillMessage{Type: "archive", ID: 1}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestSyncWorker_UpdateAfterSyncIsPendingAgain(t *testing.T) {
	store := memory.NewStore()
	exporter := sheetsmem.New()
	w := NewSyncWorker(store, exporter, 10, nil, nil)
	bills := seedBills(t, store, "Power")
	ctx := context.Background()

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatal(err)
	}
	b := bills[0]
	b.Amount = core.Money{Cents: 99_00}
	if _, err := store.UpdateBill(ctx, b); err != nil {
		t.Fatal(err)
	}
	if n := pendingCount(t, store); n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ := exporter.Get(b.ID)
	if got.Amount.Cents != 99_00 || got.Version != 2 {
		t.Errorf("exported %+v, want amount 9900 at version 2", got)
	}
}

func TestSyncWorker_ProcessPendingBatches(t *testing.T) {
	store := memory.NewStore()
	exporter := sheetsmem.New()
	w := NewSyncWorker(store, exporter, 2, nil, nil)
	seedBills(t, store, "A1", "B2", "C3", "D4", "E5")
	ctx := context.Background()

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatal(err)
	}
	if n := pendingCount(t, store); n != 3 {
		t.Errorf("after one batch pending = %d, want 3", n)
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatal(err)
	}
	if n := pendingCount(t, store); n != 0 {
		t.Errorf("after startup check pending = %d, want 0", n)
	}
	if rows := exporter.Rows(); len(rows) != 5 {
		t.Errorf("rows = %d, want 5", len(rows))
	}
}

func TestSyncWorker_ProcessPendingContinuesOnError(t *testing.T) {
	store := memory.NewStore()
	exporter := sheetsmem.New()
	exporter.SetFail(errors.New("unavailable"))
	w := NewSyncWorker(store, exporter, 10, nil, nil)
	seedBills(t, store, "A1", "B2")

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("per-bill failures should not fail the pass: %v", err)
	}
	if n := pendingCount(t, store); n != 2 {
		t.Errorf("pending = %d, want 2", n)
	}
}
