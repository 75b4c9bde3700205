// Package analytics computes population level statistics over bills,
// their scores and their payments for the dashboard.
package analytics

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"billminder/internal/core"
	"billminder/internal/scoring"
)

// Distribution is a descriptive summary of a sample.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
}

// Describe summarizes values. Std is the population standard deviation and
// quartiles interpolate linearly between the closest ranks. An empty sample
// yields the zero Distribution.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Distribution{
		Count:  len(sorted),
		Mean:   mean,
		Median: Percentile(sorted, 0.5),
		Std:    std,
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q1:     Percentile(sorted, 0.25),
		Q3:     Percentile(sorted, 0.75),
	}
}

// Percentile returns the p-quantile (0 <= p <= 1) of an ascending sample,
// interpolating between the two ranks around p*(n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	rank := p * float64(n-1)
	lo := int(rank)
	if lo+1 >= n {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// DueBuckets counts bills by how far away their due date is.
type DueBuckets struct {
	Overdue  int `json:"overdue"`
	ThisWeek int `json:"this_week"`
	NextWeek int `json:"next_week"`
	Later    int `json:"later"`
}

func BucketDueDates(bills []core.Bill, today core.Date) DueBuckets {
	var b DueBuckets
	for _, bill := range bills {
		switch d := bill.DaysUntilDue(today); {
		case d < 0:
			b.Overdue++
		case d <= 7:
			b.ThisWeek++
		case d <= 14:
			b.NextWeek++
		default:
			b.Later++
		}
	}
	return b
}

// ScoreBuckets counts scores as high (above 7), medium (4 to 7) or low
// (below 4).
type ScoreBuckets struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func BucketScores(scores []float64) ScoreBuckets {
	var b ScoreBuckets
	for _, s := range scores {
		switch {
		case s > 7:
			b.High++
		case s >= 4:
			b.Medium++
		default:
			b.Low++
		}
	}
	return b
}

// Report is the bill side of the dashboard analytics.
type Report struct {
	BillCount   int                   `json:"bill_count"`
	UnpaidCount int                   `json:"unpaid_count"`
	UnpaidTotal core.Money            `json:"-"`
	Amounts     Distribution          `json:"amounts"`
	Scores      Distribution          `json:"scores"`
	DueDates    DueBuckets            `json:"due_dates"`
	ScoreLevels ScoreBuckets          `json:"score_levels"`
	Categories  []core.CategoryAmount `json:"-"`
}

// Build computes the bill analytics. Amounts cover every bill; due dates
// and scores cover unpaid bills, each scored against the full population.
func Build(all []core.Bill, today core.Date) Report {
	r := Report{BillCount: len(all)}

	amounts := make([]float64, 0, len(all))
	var (
		unpaid []core.Bill
		scores []float64
	)
	for _, b := range all {
		amounts = append(amounts, b.Amount.Dollars())
		if b.Paid {
			continue
		}
		unpaid = append(unpaid, b)
		r.UnpaidTotal = r.UnpaidTotal.Add(b.Amount)
		scores = append(scores, scoring.Score(b, all, today).Composite)
	}

	r.UnpaidCount = len(unpaid)
	r.Amounts = Describe(amounts)
	r.Scores = Describe(scores)
	r.DueDates = BucketDueDates(unpaid, today)
	r.ScoreLevels = BucketScores(scores)
	r.Categories = ByCategory(all)
	return r
}

// ByCategory totals bills per category in the fixed category order,
// omitting empty categories.
func ByCategory(bills []core.Bill) []core.CategoryAmount {
	totals := make(map[core.Category]*core.CategoryAmount)
	for _, b := range bills {
		ca, ok := totals[b.Category]
		if !ok {
			ca = &core.CategoryAmount{Category: b.Category}
			totals[b.Category] = ca
		}
		ca.Count++
		ca.Amount = ca.Amount.Add(b.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for _, c := range core.Categories() {
		if ca, ok := totals[c]; ok {
			out = append(out, *ca)
		}
	}
	return out
}
