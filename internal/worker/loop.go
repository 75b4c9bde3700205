package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"billminder/internal/log"
)

// Job is one pass of a periodic task.
type Job func(ctx context.Context) error

// Loop runs a Job immediately and then on every tick of interval until it
// is stopped or its context ends. A failing pass is logged and the loop
// keeps going.
type Loop struct {
	name     string
	interval time.Duration
	job      Job
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLoop(name string, interval time.Duration, job Job, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Discard()
	}
	return &Loop{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger.WithComponent(log.ComponentWorker).With("loop", name),
	}
}

// Start runs the loop in the background. It fails if already running.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New(l.name + " loop is already running")
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	stop, done := l.stopCh, l.doneCh
	l.mu.Unlock()

	go func() {
		defer close(done)
		l.run(ctx, stop)
	}()

	l.logger.InfoContext(ctx, "Loop started", "interval", l.interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish or ctx to
// end.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	close(l.stopCh)
	l.running = false
	done := l.doneCh
	l.mu.Unlock()

	select {
	case <-done:
		l.logger.InfoContext(ctx, "Loop stopped gracefully")
		return nil
	case <-ctx.Done():
		l.logger.WarnContext(ctx, "Loop stop timed out")
		return ctx.Err()
	}
}

func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Run blocks until ctx ends. It always returns nil so it can be used
// directly as an errgroup function.
func (l *Loop) Run(ctx context.Context) error {
	l.run(ctx, nil)
	return nil
}

func (l *Loop) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.pass(ctx)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.pass(ctx)
		}
	}
}

func (l *Loop) pass(ctx context.Context) {
	start := time.Now()
	if err := l.job(ctx); err != nil && ctx.Err() == nil {
		l.logger.ErrorContext(ctx, "Loop pass failed", log.FieldError, err)
		return
	}
	l.logger.DebugContext(ctx, "Loop pass complete", log.FieldDurationHuman, time.Since(start).String())
}
