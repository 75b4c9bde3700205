package analytics

import (
	"cmp"
	"slices"

	"billminder/internal/core"
)

// RecentLimit is the number of payments listed as recent activity.
const RecentLimit = 5

// MonthTotal is the sum of the payments made in one calendar month.
type MonthTotal struct {
	Month string     `json:"month"` // YYYY-MM
	Total core.Money `json:"-"`
	Count int        `json:"count"`
}

// BillPayments aggregates the payments recorded against one bill.
type BillPayments struct {
	BillID   int64      `json:"bill_id"`
	BillName string     `json:"bill_name"`
	Total    core.Money `json:"-"`
	Count    int        `json:"count"`
	Average  core.Money `json:"-"`
	First    core.Date  `json:"-"`
	Last     core.Date  `json:"-"`
}

// PaymentReport is the payment side of the dashboard analytics.
type PaymentReport struct {
	Total    core.Money          `json:"-"`
	Amounts  Distribution        `json:"amounts"`
	ByMethod []core.MethodAmount `json:"-"`
	ByMonth  []MonthTotal        `json:"by_month"`
	ByBill   []BillPayments      `json:"by_bill"`
	Recent   []core.Payment      `json:"-"`
}

// Payments computes payment analytics. Methods keep the fixed method order,
// months are ascending, bills are ordered by name and recent payments are
// newest first.
func Payments(payments []core.Payment) PaymentReport {
	var r PaymentReport
	if len(payments) == 0 {
		return r
	}

	amounts := make([]float64, len(payments))
	methods := make(map[core.PaymentMethod]*core.MethodAmount)
	months := make(map[string]*MonthTotal)
	bills := make(map[int64]*BillPayments)

	for i, p := range payments {
		amounts[i] = p.Amount.Dollars()
		r.Total = r.Total.Add(p.Amount)

		m, ok := methods[p.Method]
		if !ok {
			m = &core.MethodAmount{Method: p.Method}
			methods[p.Method] = m
		}
		m.Count++
		m.Amount = m.Amount.Add(p.Amount)

		key := p.Date.Format("2006-01")
		mt, ok := months[key]
		if !ok {
			mt = &MonthTotal{Month: key}
			months[key] = mt
		}
		mt.Count++
		mt.Total = mt.Total.Add(p.Amount)

		bp, ok := bills[p.BillID]
		if !ok {
			bp = &BillPayments{BillID: p.BillID, BillName: p.BillName, First: p.Date, Last: p.Date}
			bills[p.BillID] = bp
		}
		bp.Count++
		bp.Total = bp.Total.Add(p.Amount)
		if p.Date.Before(bp.First.Time) {
			bp.First = p.Date
		}
		if p.Date.After(bp.Last.Time) {
			bp.Last = p.Date
		}
	}

	r.Amounts = Describe(amounts)

	for _, method := range core.PaymentMethods() {
		if m, ok := methods[method]; ok {
			r.ByMethod = append(r.ByMethod, *m)
		}
	}

	for _, mt := range months {
		r.ByMonth = append(r.ByMonth, *mt)
	}
	slices.SortFunc(r.ByMonth, func(a, b MonthTotal) int {
		return cmp.Compare(a.Month, b.Month)
	})

	for _, bp := range bills {
		bp.Average = core.Money{Cents: bp.Total.Cents / int64(bp.Count)}
		r.ByBill = append(r.ByBill, *bp)
	}
	slices.SortFunc(r.ByBill, func(a, b BillPayments) int {
		return cmp.Or(cmp.Compare(a.BillName, b.BillName), cmp.Compare(a.BillID, b.BillID))
	})

	r.Recent = slices.Clone(payments)
	slices.SortStableFunc(r.Recent, func(a, b core.Payment) int {
		return cmp.Or(b.Date.Compare(a.Date.Time), cmp.Compare(b.ID, a.ID))
	})
	if len(r.Recent) > RecentLimit {
		r.Recent = r.Recent[:RecentLimit]
	}
	return r
}
