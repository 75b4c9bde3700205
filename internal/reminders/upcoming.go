package reminders

import (
	"gonum.org/v1/gonum/floats"

	"billminder/internal/core"
)

const (
	ThisWeek       = "This Week (0-7 days)"
	NextWeek       = "Next Week (8-14 days)"
	FollowingWeeks = "Following Weeks (15+ days)"
	Overdue        = "Overdue"
)

// WeekBucket is the number of upcoming bills falling in one time window.
type WeekBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary describes the unpaid bills due within a look-ahead window,
// overdue ones included.
type Summary struct {
	TotalBills    int          `json:"total_bills"`
	TotalAmount   core.Money   `json:"-"`
	AverageAmount float64      `json:"average_amount"`
	ByWeek        []WeekBucket `json:"bills_by_week"`
}

// Upcoming summarizes unpaid bills whose days until due is at most
// daysAhead. Buckets are returned in a fixed order; an empty window yields a
// zero Summary with an empty bucket list.
func Upcoming(bills []core.Bill, today core.Date, daysAhead int) Summary {
	var (
		s       Summary
		amounts []float64
		counts  [4]int
	)
	for _, b := range bills {
		if b.Paid {
			continue
		}
		d := b.DaysUntilDue(today)
		if d > daysAhead {
			continue
		}
		s.TotalAmount = s.TotalAmount.Add(b.Amount)
		amounts = append(amounts, b.Amount.Dollars())
		switch {
		case d < 0:
			counts[3]++
		case d <= 7:
			counts[0]++
		case d <= 14:
			counts[1]++
		default:
			counts[2]++
		}
	}
	if len(amounts) == 0 {
		s.ByWeek = []WeekBucket{}
		return s
	}

	s.TotalBills = len(amounts)
	s.AverageAmount = floats.Sum(amounts) / float64(len(amounts))
	s.ByWeek = []WeekBucket{
		{Label: ThisWeek, Count: counts[0]},
		{Label: NextWeek, Count: counts[1]},
		{Label: FollowingWeeks, Count: counts[2]},
		{Label: Overdue, Count: counts[3]},
	}
	return s
}
