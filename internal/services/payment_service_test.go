package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billminder/internal/core"
	"billminder/internal/metrics"
	"billminder/internal/storage/memory"
)

type paymentFixture struct {
	bills    *BillService
	payments *PaymentService
	metrics  *metrics.Metrics
	bill     core.Bill
}

func newPaymentFixture(t *testing.T) paymentFixture {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New()
	bills := NewBillService(store, nil, nil, fixedClock())
	payments := NewPaymentService(store, bills, nil, m, fixedClock())

	b, _, err := bills.Create(context.Background(), billInput("Internet", 60, testToday.AddDays(3)))
	require.NoError(t, err)
	return paymentFixture{bills: bills, payments: payments, metrics: m, bill: b}
}

func payment(billID int64, dollars int64) PaymentInput {
	return PaymentInput{
		BillID: billID,
		Date:   testToday,
		Amount: core.Money{Cents: dollars * 100},
		Method: core.UPI,
	}
}

func TestPaymentService_Record(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	in := payment(f.bill.ID, 60)
	in.Notes = "  autopay  "
	p, warnings, err := f.payments.Record(ctx, in)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "autopay", p.Notes)

	history, err := f.payments.History(ctx, f.bill.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Internet", history[0].BillName)
}

func TestPaymentService_RecordInvalid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	in := payment(999, 0)
	in.Date = testToday.AddDays(1)
	in.Method = "Barter"
	_, _, err := f.payments.Record(ctx, in)

	verr, ok := AsValidation(err)
	require.True(t, ok)
	assert.Len(t, verr.Errors, 4)
}

func TestPaymentService_RecordMarksPaid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	in := payment(f.bill.ID, 60)
	in.MarkPaid = true
	_, _, err := f.payments.Record(ctx, in)
	require.NoError(t, err)

	b, err := f.bills.Get(ctx, f.bill.ID)
	require.NoError(t, err)
	assert.True(t, b.Paid)

	_, warnings, err := f.payments.Record(ctx, payment(f.bill.ID, 10))
	require.NoError(t, err)
	assert.Contains(t, warnings, "Bill is already marked as paid")
}

func TestPaymentService_HistoryCache(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.payments.History(ctx, f.bill.ID)
	require.NoError(t, err)
	_, err = f.payments.History(ctx, f.bill.ID)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cacheLookups(t, f.metrics, "hit"))
	assert.Equal(t, 1.0, cacheLookups(t, f.metrics, "miss"))

	// A write must invalidate the cached empty history.
	_, _, err = f.payments.Record(ctx, payment(f.bill.ID, 20))
	require.NoError(t, err)
	history, err := f.payments.History(ctx, f.bill.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPaymentService_BillDeleteInvalidatesHistory(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, _, err := f.payments.Record(ctx, payment(f.bill.ID, 20))
	require.NoError(t, err)
	_, err = f.payments.History(ctx, f.bill.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.payments.history.Len())

	require.NoError(t, f.bills.Delete(ctx, f.bill.ID))
	assert.Equal(t, 0, f.payments.history.Len())
}

func TestPaymentService_Delete(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	p, _, err := f.payments.Record(ctx, payment(f.bill.ID, 20))
	require.NoError(t, err)
	_, err = f.payments.History(ctx, f.bill.ID)
	require.NoError(t, err)

	require.NoError(t, f.payments.Delete(ctx, p.ID))
	history, err := f.payments.History(ctx, f.bill.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.True(t, IsNotFound(f.payments.Delete(ctx, p.ID)))
}

func TestPaymentService_Report(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	for _, amount := range []int64{20, 20} {
		_, _, err := f.payments.Record(ctx, payment(f.bill.ID, amount))
		require.NoError(t, err)
	}

	r, err := f.payments.Report(ctx, f.bill.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40_00), r.History.TotalPaid.Cents)
	assert.Equal(t, int64(20_00), r.History.Remaining.Cents)
	assert.Len(t, r.Payments, 2)
	assert.Contains(t, r.History.Warnings[0], "Multiple payments")
	assert.Equal(t, "Remaining amount to pay: $20.00", r.Suggestions[0])

	_, err = f.payments.Report(ctx, 999)
	assert.True(t, IsNotFound(err))
}

func TestPaymentService_Analytics(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, _, err := f.payments.Record(ctx, payment(f.bill.ID, 25))
	require.NoError(t, err)

	r, err := f.payments.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25_00), r.Total.Cents)
	require.Len(t, r.ByBill, 1)
	assert.Equal(t, "Internet", r.ByBill[0].BillName)
}

func cacheLookups(t *testing.T, m *metrics.Metrics, result string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "billminder_cache_lookups_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["cache"] == historyCacheName && labels["result"] == result {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
