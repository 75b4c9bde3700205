// Package reminders turns scored bills into ranked reminder events.
package reminders

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"billminder/internal/core"
	"billminder/internal/scoring"
)

const (
	earlyWindow  = 14
	urgentWindow = 7

	dayPenalty   = 0.1
	overdueBoost = 0.5
)

const (
	// DefaultLimit is the number of events shown as top reminders.
	DefaultLimit = 5
	// DefaultWindow is the look-ahead of Upcoming, in days.
	DefaultWindow = 30
)

// Event is one reminder derived for one bill. It is rebuilt on every call and
// never stored; see core.ReminderRecord for the persisted log entry.
type Event struct {
	BillID       int64             `json:"bill_id"`
	BillName     string            `json:"bill_name"`
	Amount       core.Money        `json:"-"`
	DueDate      core.Date         `json:"-"`
	Kind         core.ReminderKind `json:"type"`
	Level        core.UrgencyLevel `json:"urgency_level"`
	Message      string            `json:"message"`
	DaysUntilDue int               `json:"days_until_due"`
	Score        float64           `json:"composite_score"`
}

// Weighted is the event score scaled by its urgency level weight.
func (e Event) Weighted() float64 {
	return e.Score * e.Level.Weight()
}

// Priority is the ordering key used by Generator.All: the weighted score,
// lowered for every day left before the due date and raised for every day
// past it.
func (e Event) Priority() float64 {
	p := e.Weighted() - math.Max(float64(e.DaysUntilDue), 0)*dayPenalty
	if e.DaysUntilDue < 0 {
		p += math.Abs(float64(e.DaysUntilDue)) * overdueBoost
	}
	return p
}

// For returns the reminder events for bill, zero or one of them. The bundle
// supplies the composite score attached to the event.
func For(bill core.Bill, today core.Date, bundle scoring.Bundle) []Event {
	d := bill.DaysUntilDue(today)

	var (
		kind  core.ReminderKind
		level core.UrgencyLevel
		msg   string
	)
	switch {
	case d > urgentWindow && d <= earlyWindow:
		kind, level = core.EarlyReminder, core.Low
		msg = fmt.Sprintf("📅 Upcoming Bill: %s is due in %d days ($%s)", bill.Name, d, bill.Amount)
	case d > 0 && d <= urgentWindow:
		kind, level = core.UrgentReminder, core.Medium
		msg = fmt.Sprintf("⚠️ URGENT: %s is due in %d days! Amount: $%s", bill.Name, d, bill.Amount)
	case d <= 0:
		kind, level = core.FinalReminder, core.High
		when := "TODAY"
		if d < 0 {
			when = fmt.Sprintf("%d days OVERDUE", -d)
		}
		msg = fmt.Sprintf("🚨 FINAL ALERT: %s is %s! Amount: $%s", bill.Name, when, bill.Amount)
	default:
		return nil
	}

	return []Event{{
		BillID:       bill.ID,
		BillName:     bill.Name,
		Amount:       bill.Amount,
		DueDate:      bill.DueDate,
		Kind:         kind,
		Level:        level,
		Message:      msg,
		DaysUntilDue: d,
		Score:        bundle.Composite,
	}}
}

// Generator scores bills against a fixed population and date.
type Generator struct {
	population []core.Bill
	today      core.Date
}

// NewGenerator returns a Generator scoring against population, which should
// hold every known bill, paid or not.
func NewGenerator(population []core.Bill, today core.Date) *Generator {
	return &Generator{population: population, today: today}
}

// Today is the reference date of the generator.
func (g *Generator) Today() core.Date {
	return g.today
}

// Score returns the score bundle of bill against the generator population.
func (g *Generator) Score(bill core.Bill) scoring.Bundle {
	return scoring.Score(bill, g.population, g.today)
}

// For returns the events for a single bill.
func (g *Generator) For(bill core.Bill) []Event {
	return For(bill, g.today, g.Score(bill))
}

// All returns the events of every unpaid bill, highest Priority first. Ties
// keep the input order.
func (g *Generator) All(bills []core.Bill) []Event {
	events := make([]Event, 0, len(bills))
	for _, b := range bills {
		if b.Paid {
			continue
		}
		events = append(events, g.For(b)...)
	}
	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Compare(b.Priority(), a.Priority())
	})
	return events
}

// Top re-ranks the output of All by weighted score alone and keeps at most
// limit events.
func (g *Generator) Top(bills []core.Bill, limit int) []Event {
	if limit <= 0 {
		return []Event{}
	}
	events := g.All(bills)
	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Compare(b.Weighted(), a.Weighted())
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events
}

// UrgencyCounts counts events per urgency level.
type UrgencyCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Stats summarizes the events produced by All.
type Stats struct {
	Total        int           `json:"total_reminders"`
	ByUrgency    UrgencyCounts `json:"by_urgency"`
	AverageScore float64       `json:"average_score"`
	OverdueCount int           `json:"overdue_count"`
}

func (g *Generator) Stats(bills []core.Bill) Stats {
	return Summarize(g.All(bills))
}

// Summarize computes Stats for an already generated event list.
func Summarize(events []Event) Stats {
	var s Stats
	if len(events) == 0 {
		return s
	}
	scores := make([]float64, len(events))
	for i, e := range events {
		scores[i] = e.Score
		switch e.Level {
		case core.High:
			s.ByUrgency.High++
		case core.Medium:
			s.ByUrgency.Medium++
		case core.Low:
			s.ByUrgency.Low++
		}
		if e.DaysUntilDue < 0 {
			s.OverdueCount++
		}
	}
	s.Total = len(events)
	s.AverageScore = stat.Mean(scores, nil)
	return s
}
