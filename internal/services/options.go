package services

import "billminder/internal/core"

// Clock returns the current calendar date.
type Clock func() core.Date

type options struct {
	today Clock
}

// Option configures a service.
type Option func(*options)

// WithClock fixes "today" for a service, mainly for tests.
func WithClock(c Clock) Option {
	return func(o *options) { o.today = c }
}

func buildOptions(opts []Option) options {
	o := options{today: core.Today}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
