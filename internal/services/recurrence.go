// Package services orchestrates validation, persistence, publishing and the
// scoring pipeline for the web server and the workers.
//
// This file implements the strategy registry that computes the next due
// date of a recurring bill. Each recurrence has its own strategy.
package services

import (
	"fmt"
	"time"

	"billminder/internal/core"
)

// NextDueStrategy computes the due date following due.
type NextDueStrategy interface {
	NextDue(due core.Date) core.Date
}

// MonthsStrategy advances by a fixed number of calendar months. When the
// target month is shorter the day is clamped to its last day.
type MonthsStrategy struct {
	Months int
}

func (s MonthsStrategy) NextDue(due core.Date) core.Date {
	return addMonthsClamped(due, s.Months)
}

var recurrenceStrategies = map[core.Recurrence]NextDueStrategy{
	core.Monthly:   MonthsStrategy{Months: 1},
	core.Quarterly: MonthsStrategy{Months: 3},
	core.Yearly:    MonthsStrategy{Months: 12},
}

// GetRecurrenceStrategy returns the strategy for r, or an error for one-off
// bills and unknown recurrences.
func GetRecurrenceStrategy(r core.Recurrence) (NextDueStrategy, error) {
	s, ok := recurrenceStrategies[r]
	if !ok {
		return nil, fmt.Errorf("no next due date for recurrence %q", r)
	}
	return s, nil
}

// RegisterRecurrenceStrategy adds or replaces the strategy for r. Call it
// during initialisation only.
func RegisterRecurrenceStrategy(r core.Recurrence, s NextDueStrategy) {
	recurrenceStrategies[r] = s
}

func addMonthsClamped(d core.Date, months int) core.Date {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return core.NewDate(first.Year(), int(first.Month()), min(day, last))
}
