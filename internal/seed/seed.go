// Package seed fills a repository with demo bills and payments.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/storage"
)

type sample struct {
	name     string
	amount   string
	category core.Category
}

var samples = []sample{
	{"WiFi Internet", "45.99", core.Utilities},
	{"Mobile Phone", "65.00", core.Phone},
	{"Netflix Subscription", "15.99", core.Subscriptions},
	{"Electricity Bill", "120.50", core.Utilities},
	{"Rent Payment", "1200.00", core.Rent},
	{"Car Insurance", "89.99", core.Insurance},
	{"Spotify Premium", "9.99", core.Subscriptions},
	{"Gas Bill", "75.25", core.Utilities},
	{"Credit Card EMI", "250.00", core.EMI},
	{"Home Loan EMI", "850.00", core.EMI},
	{"Amazon Prime", "12.99", core.Subscriptions},
	{"Water Bill", "35.00", core.Utilities},
	{"Life Insurance", "125.00", core.Insurance},
	{"Gym Membership", "49.99", core.Other},
	{"Cable TV", "55.00", core.Utilities},
}

var methods = []core.PaymentMethod{core.Cash, core.CreditCard, core.DebitCard, core.BankTransfer, core.UPI, core.Check}

var minAmount = decimal.NewFromInt(5)

const (
	DefaultBills    = 12
	DefaultPayments = 8
)

// Options controls how much demo data is generated.
type Options struct {
	// Bills and Payments fall back to DefaultBills and DefaultPayments when
	// zero. A negative Payments adds no extra sample payments.
	Bills    int
	Payments int
	Today    core.Date
	// Rand drives every random choice; nil uses a time seeded source.
	Rand *rand.Rand
}

// Result reports what was written.
type Result struct {
	Bills    []core.Bill
	Payments []core.Payment
}

// Run clears repo and writes the demo data set.
func Run(ctx context.Context, repo storage.Repository, opts Options, logger *log.Logger) (Result, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSeed)

	if err := repo.Reset(ctx); err != nil {
		return Result{}, fmt.Errorf("clear data: %w", err)
	}
	res, err := Generate(ctx, repo, opts)
	if err != nil {
		return res, err
	}
	logger.InfoContext(ctx, "Demo data ready", "bills", len(res.Bills), "payments", len(res.Payments))
	return res, nil
}

// Generate adds demo data to repo without clearing it. Bills are drawn
// without replacement from the sample list; overdue bills may already be
// paid, some with a matching payment. Extra payments are spread over the
// generated bills during the last 30 days.
func Generate(ctx context.Context, repo storage.Repository, opts Options) (Result, error) {
	if opts.Bills <= 0 {
		opts.Bills = DefaultBills
	}
	switch {
	case opts.Payments == 0:
		opts.Payments = DefaultPayments
	case opts.Payments < 0:
		opts.Payments = 0
	}
	if opts.Today.IsZero() {
		opts.Today = core.Today()
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var res Result
	picked := r.Perm(len(samples))[:min(opts.Bills, len(samples))]
	for _, i := range picked {
		s := samples[i]
		offset := r.IntN(61) - 15
		due := opts.Today.AddDays(offset)
		paid := offset < 0 && r.IntN(2) == 0

		b, err := repo.CreateBill(ctx, core.Bill{
			Name:     s.name,
			Amount:   jitter(r, s.amount),
			DueDate:  due,
			Category: s.category,
			Paid:     paid,
		})
		if err != nil {
			return res, fmt.Errorf("create bill %q: %w", s.name, err)
		}
		res.Bills = append(res.Bills, b)

		if paid && r.IntN(2) == 0 {
			p, err := repo.CreatePayment(ctx, core.Payment{
				BillID: b.ID,
				Date:   due.AddDays(-r.IntN(6)),
				Amount: b.Amount,
				Method: methods[r.IntN(len(methods))],
				Notes:  "Auto-generated payment for testing",
			})
			if err != nil {
				return res, fmt.Errorf("create payment for %q: %w", s.name, err)
			}
			res.Payments = append(res.Payments, p)
		}
	}

	for range min(opts.Payments, len(res.Bills)) {
		b := res.Bills[r.IntN(len(res.Bills))]
		p, err := repo.CreatePayment(ctx, core.Payment{
			BillID: b.ID,
			Date:   opts.Today.AddDays(-r.IntN(31)),
			Amount: between(r, 25, 500),
			Method: methods[r.IntN(len(methods))],
			Notes:  fmt.Sprintf("Sample payment #%d", 1000+r.IntN(9000)),
		})
		if err != nil {
			return res, fmt.Errorf("create sample payment: %w", err)
		}
		res.Payments = append(res.Payments, p)
	}
	return res, nil
}

// jitter moves base by a random amount in [-10, 20) and floors it at $5.
func jitter(r *rand.Rand, base string) core.Money {
	d := decimal.RequireFromString(base).Add(decimal.NewFromFloat(r.Float64()*30 - 10))
	if d.LessThan(minAmount) {
		d = minAmount
	}
	return core.Money{Cents: d.Shift(2).Round(0).IntPart()}
}

func between(r *rand.Rand, lo, hi float64) core.Money {
	return core.NewMoneyFromFloat(lo + r.Float64()*(hi-lo))
}
