package worker

import (
	"context"
	"time"

	"billminder/internal/log"
)

// ReminderRecorder persists reminder records for the current events.
type ReminderRecorder interface {
	Record(ctx context.Context) (int, error)
}

// NewReminderLoop returns a Loop that records reminders every interval.
func NewReminderLoop(recorder ReminderRecorder, interval time.Duration, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Discard()
	}
	return NewLoop("reminders", interval, func(ctx context.Context) error {
		n, err := recorder.Record(ctx)
		if err != nil {
			return err
		}
		logger.DebugContext(ctx, "Reminder pass complete", log.FieldCount, n)
		return nil
	}, logger)
}

// NewSyncLoop returns a Loop that exports pending bills every interval.
func NewSyncLoop(w *SyncWorker, interval time.Duration, logger *log.Logger) *Loop {
	return NewLoop("sync", interval, w.ProcessPending, logger)
}
