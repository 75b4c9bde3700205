package reminders

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billminder/internal/core"
)

func TestUpcoming(t *testing.T) {
	paid := bill(9, "Paid", 99999, 3)
	paid.Paid = true

	bills := []core.Bill{
		bill(1, "Rent", 120000, 0),
		bill(2, "Water", 3000, 7),
		bill(3, "Gym", 4000, 8),
		bill(4, "Insurance", 25000, 20),
		bill(5, "Electricity", 8000, -2),
		bill(6, "Far away", 10000, 31),
		paid,
	}

	s := Upcoming(bills, today, 30)
	assert.Equal(t, 5, s.TotalBills)
	assert.Equal(t, core.Money{Cents: 160000}, s.TotalAmount)
	assert.InDelta(t, 320.0, s.AverageAmount, 1e-9)
	assert.Equal(t, []WeekBucket{
		{Label: ThisWeek, Count: 2},
		{Label: NextWeek, Count: 1},
		{Label: FollowingWeeks, Count: 1},
		{Label: Overdue, Count: 1},
	}, s.ByWeek)
}

func TestUpcomingWindow(t *testing.T) {
	bills := []core.Bill{bill(1, "Rent", 120000, 10)}

	assert.Equal(t, 1, Upcoming(bills, today, 10).TotalBills)
	assert.Equal(t, Summary{ByWeek: []WeekBucket{}}, Upcoming(bills, today, 9))

	empty := Upcoming(nil, today, DefaultWindow)
	assert.Equal(t, 0, empty.TotalBills)
	assert.NotNil(t, empty.ByWeek)
	assert.Empty(t, empty.ByWeek)

	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"bills_by_week":[]`)
}
