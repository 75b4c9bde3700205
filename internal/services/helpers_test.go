package services

import (
	"context"
	"sync"

	"billminder/internal/core"
)

var testToday = core.NewDate(2025, 3, 10)

func fixedClock() Option {
	return WithClock(func() core.Date { return testToday })
}

type published struct {
	kind    string
	id      int64
	version int64
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) PublishBillSync(_ context.Context, id, version int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{"sync", id, version})
	return p.err
}

func (p *fakePublisher) PublishBillDelete(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{"delete", id, 0})
	return p.err
}

func (p *fakePublisher) sent() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func billInput(name string, dollars int64, due core.Date) BillInput {
	return BillInput{
		Name:     name,
		Amount:   core.Money{Cents: dollars * 100},
		DueDate:  due,
		Category: core.Utilities,
	}
}
