package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billminder/internal/core"
	"billminder/internal/storage"
	"billminder/internal/storage/memory"
)

type reminderFixture struct {
	svc   *ReminderService
	store *memory.Store
	ids   map[string]int64
}

// newReminderFixture stores one bill per reminder window plus a far off
// bill and a paid overdue bill.
func newReminderFixture(t *testing.T) reminderFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	bills := NewBillService(store, nil, nil, fixedClock())

	f := reminderFixture{
		svc:   NewReminderService(store, nil, nil, 0, 0, fixedClock()),
		store: store,
		ids:   map[string]int64{},
	}
	for _, in := range []BillInput{
		billInput("Overdue", 150, testToday.AddDays(-3)),
		billInput("Urgent", 80, testToday.AddDays(4)),
		billInput("Early", 60, testToday.AddDays(10)),
		billInput("Later", 90, testToday.AddDays(40)),
		billInput("Settled", 50, testToday.AddDays(-5)),
	} {
		b, _, err := bills.Create(ctx, in)
		require.NoError(t, err)
		f.ids[b.Name] = b.ID
	}
	_, _, err := bills.MarkPaid(ctx, f.ids["Settled"])
	require.NoError(t, err)
	return f
}

func TestReminderService_Defaults(t *testing.T) {
	svc := NewReminderService(memory.NewStore(), nil, nil, 0, -1)
	assert.Equal(t, 5, svc.Limit())
	assert.Equal(t, 30, svc.UpcomingDays())
}

func TestReminderService_All(t *testing.T) {
	f := newReminderFixture(t)

	events, err := f.svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	kinds := map[int64]core.ReminderKind{}
	for _, e := range events {
		kinds[e.BillID] = e.Kind
	}
	assert.Equal(t, map[int64]core.ReminderKind{
		f.ids["Overdue"]: core.FinalReminder,
		f.ids["Urgent"]:  core.UrgentReminder,
		f.ids["Early"]:   core.EarlyReminder,
	}, kinds)
	assert.Equal(t, f.ids["Overdue"], events[0].BillID)
}

func TestReminderService_Top(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	top, err := f.svc.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.GreaterOrEqual(t, top[0].Weighted(), top[1].Weighted())

	none, err := f.svc.Top(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReminderService_Stats(t *testing.T) {
	f := newReminderFixture(t)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByUrgency.High)
	assert.Equal(t, 1, stats.ByUrgency.Medium)
	assert.Equal(t, 1, stats.ByUrgency.Low)
	assert.Equal(t, 1, stats.OverdueCount)
}

func TestReminderService_Upcoming(t *testing.T) {
	f := newReminderFixture(t)

	s, err := f.svc.Upcoming(context.Background(), 14)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalBills)
	assert.Equal(t, int64(290_00), s.TotalAmount.Cents)
}

func TestReminderService_Analytics(t *testing.T) {
	f := newReminderFixture(t)

	r, err := f.svc.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, r.BillCount)
	assert.Equal(t, 4, r.UnpaidCount)
}

func TestReminderService_Score(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	scored, err := f.svc.Score(ctx, f.ids["Urgent"])
	require.NoError(t, err)
	assert.Greater(t, scored.Scores.Composite, 0.0)
	require.Len(t, scored.Events, 1)
	assert.Equal(t, core.UrgentReminder, scored.Events[0].Kind)

	paid, err := f.svc.Score(ctx, f.ids["Settled"])
	require.NoError(t, err)
	assert.Empty(t, paid.Events)

	_, err = f.svc.Score(ctx, 999)
	assert.True(t, IsNotFound(err))
}

func TestReminderService_RecordDedupes(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()

	n, err := f.svc.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.svc.Record(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	log, err := f.svc.Log(ctx, true)
	require.NoError(t, err)
	require.Len(t, log, 3)
	for _, r := range log {
		assert.Equal(t, testToday, r.Date)
	}

	require.NoError(t, f.svc.MarkSent(ctx, log[0].ID))
	unsent, err := f.svc.Log(ctx, true)
	require.NoError(t, err)
	assert.Len(t, unsent, 2)

	all, err := f.svc.Log(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.True(t, IsNotFound(f.svc.MarkSent(ctx, 999)))
}

func TestReminderService_RecordCancelled(t *testing.T) {
	f := newReminderFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := f.svc.Record(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

// Two processes sharing one database may run the record pass at the same
// time; each (bill, kind, day) must still be written exactly once.
func TestReminderService_RecordConcurrentHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "billminder.db")

	open := func() *storage.SQLiteRepository {
		repo, err := storage.NewSQLiteRepository(path)
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	}
	first, second := open(), open()

	bills := NewBillService(first, nil, nil, fixedClock())
	const billCount = 60
	for i := range billCount {
		_, _, err := bills.Create(ctx, billInput(fmt.Sprintf("Bill %d", i), int64(10+i), testToday.AddDays(i%14)))
		require.NoError(t, err)
	}

	passes := []*ReminderService{
		NewReminderService(first, nil, nil, 0, 0, fixedClock()),
		NewReminderService(second, nil, nil, 0, 0, fixedClock()),
	}

	var (
		mu    sync.Mutex
		total int
		wg    sync.WaitGroup
		errs  []error
	)
	for range 5 {
		for _, svc := range passes {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := svc.Record(ctx)
				mu.Lock()
				defer mu.Unlock()
				total += n
				if err != nil {
					errs = append(errs, err)
				}
			}()
		}
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, billCount, total)

	logged, err := passes[0].Log(ctx, false)
	require.NoError(t, err)
	assert.Len(t, logged, billCount)
}
