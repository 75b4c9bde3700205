// Package scoring ranks bills by how soon they need attention.
//
// Every function here is pure: it sees plain bill values and a fixed
// "today", never a store or a clock.
package scoring

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"billminder/internal/core"
)

// NeutralImpact is the amount-impact score used when there is no population
// to compare against.
const NeutralImpact = 5.0

// stdEpsilon keeps the z-score finite when every amount is identical.
const stdEpsilon = 1e-6

var (
	urgencyWeights   = []float64{0.6, 0.3, 0.1}
	riskWeights      = []float64{0.4, 0.3, 0.2, 0.1}
	impactWeights    = []float64{0.3, 0.3, 0.25, 0.15}
	compositeWeights = []float64{0.5, 0.3, 0.2}
)

// Bundle holds every score derived for one bill.
type Bundle struct {
	Urgency      float64 `json:"urgency"`
	PenaltyRisk  float64 `json:"penalty_risk"`
	AmountImpact float64 `json:"amount_impact"`
	Composite    float64 `json:"composite"`
	Confidence   float64 `json:"confidence"`
	Variance     float64 `json:"variance"`
}

// Score computes the bundle for bill. all is the full bill population, paid
// and unpaid; the bill itself is always part of the amount population even
// when all does not contain it.
func Score(bill core.Bill, all []core.Bill, today core.Date) Bundle {
	d := bill.DaysUntilDue(today)
	amount := bill.Amount.Dollars()

	urgency := Urgency(d)
	risk := PenaltyRisk(d, amount)
	impact := AmountImpact(amount, populationAmounts(bill, all))
	composite, confidence, variance := Composite(urgency, risk, impact)

	return Bundle{
		Urgency:      urgency,
		PenaltyRisk:  risk,
		AmountImpact: impact,
		Composite:    composite,
		Confidence:   confidence,
		Variance:     variance,
	}
}

// Urgency rises as the due date approaches and jumps once the bill is
// overdue. d is days until due. The result is in [0, 10].
func Urgency(d int) float64 {
	days := float64(d)
	factors := []float64{
		math.Max(0, 10-days),
		indicator(d < 0),
		0,
	}
	if d < 0 {
		factors[2] = math.Min(5, math.Abs(days))
	}
	return clamp(floats.Dot(factors, urgencyWeights), 0, 10)
}

// PenaltyRisk combines deadline pressure with bill size. The result is in
// [0, 1].
func PenaltyRisk(d int, amount float64) float64 {
	week := 0.0
	if d <= 7 {
		week = 0.5
	}
	factors := []float64{
		indicator(d < 0),
		indicator(d <= 3),
		week,
		amount / 1000,
	}
	return clamp(floats.Dot(factors, riskWeights), 0, 1)
}

// AmountImpact rates amount against the population of bill amounts using its
// z-score and its ratios to the maximum and the median. An empty population
// yields NeutralImpact.
func AmountImpact(amount float64, population []float64) float64 {
	if len(population) == 0 {
		return NeutralImpact
	}

	mean, std := stat.PopMeanStdDev(population, nil)
	z := (amount - mean) / (std + stdEpsilon)
	maxAmount := floats.Max(population)
	median := Median(population)

	factors := []float64{
		clamp((z+3)/6, 0, 1) * 3,
		safeRatio(amount, maxAmount, 1) * 4,
		clamp(safeRatio(amount, median, 1), 0, 2),
		math.Min(amount/1000, 1),
	}
	return clamp(floats.Dot(factors, impactWeights), 0, 10)
}

// Composite squashes urgency, risk*10 and impact with Squash before weighting
// them, so no single extreme term dominates. Confidence is 1/(1+variance) of
// the raw terms and is higher when they agree.
func Composite(urgency, risk, impact float64) (composite, confidence, variance float64) {
	raw := []float64{urgency, risk * 10, impact}
	squashed := make([]float64, len(raw))
	for i, v := range raw {
		squashed[i] = Squash(v)
	}
	composite = floats.Dot(squashed, compositeWeights)
	variance = stat.PopVariance(raw, nil)
	confidence = 1 / (1 + variance)
	return composite, confidence, variance
}

// Squash compresses a score toward (-5, 5) with a hyperbolic tangent.
func Squash(x float64) float64 {
	return math.Tanh(x/5) * 5
}

// Median returns the middle value of values, averaging the two central values
// for even counts. values is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func populationAmounts(bill core.Bill, all []core.Bill) []float64 {
	amounts := make([]float64, 0, len(all)+1)
	found := false
	for _, b := range all {
		if sameBill(b, bill) {
			found = true
		}
		amounts = append(amounts, b.Amount.Dollars())
	}
	if !found {
		amounts = append(amounts, bill.Amount.Dollars())
	}
	return amounts
}

func sameBill(a, b core.Bill) bool {
	if a.ID != 0 || b.ID != 0 {
		return a.ID == b.ID
	}
	return a == b
}

func indicator(cond bool) float64 {
	if cond {
		return 1
	}
	return 0
}

func safeRatio(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return num / den
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
