// Package memory is an in-process BillExporter used when no spreadsheet is
// configured, and as a test double.
package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"billminder/internal/core"
	"billminder/internal/sheets"
)

var _ sheets.BillExporter = (*Exporter)(nil)

type Exporter struct {
	mu      sync.Mutex
	rows    map[int64]core.Bill
	upserts int
	deletes int
	fail    error
}

func New() *Exporter {
	return &Exporter{rows: make(map[int64]core.Bill)}
}

func (e *Exporter) UpsertBill(_ context.Context, b core.Bill) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fail != nil {
		return e.fail
	}
	if b.ID <= 0 {
		return errors.New("upsert bill: missing id")
	}
	e.rows[b.ID] = b
	e.upserts++
	return nil
}

func (e *Exporter) DeleteBill(_ context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fail != nil {
		return e.fail
	}
	delete(e.rows, id)
	e.deletes++
	return nil
}

// SetFail makes subsequent calls return err; nil restores normal behaviour.
func (e *Exporter) SetFail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = err
}

// Get returns the exported copy of bill id.
func (e *Exporter) Get(id int64) (core.Bill, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.rows[id]
	return b, ok
}

// Rows returns the exported bills ordered by id.
func (e *Exporter) Rows() []core.Bill {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]core.Bill, 0, len(e.rows))
	for _, b := range e.rows {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b core.Bill) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Calls returns the number of successful upserts and deletes.
func (e *Exporter) Calls() (upserts, deletes int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upserts, e.deletes
}
