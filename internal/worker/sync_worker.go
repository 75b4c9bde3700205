// Package worker holds the background jobs: mirroring bills into the export
// sheet and recording reminders.
package worker

import (
	"context"
	"errors"
	"fmt"

	"billminder/internal/amqp"
	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/metrics"
	"billminder/internal/sheets"
	"billminder/internal/storage"
)

// startupBatchFactor widens the first pending scan after a restart.
const startupBatchFactor = 5

// SyncStore is the slice of the repository the sync worker needs.
type SyncStore interface {
	GetBill(ctx context.Context, id int64) (core.Bill, error)
	storage.SyncTracker
}

// SyncWorker mirrors bills from the store into the export sheet.
type SyncWorker struct {
	store     SyncStore
	exporter  sheets.BillExporter
	batchSize int
	logger    *log.Logger
	events    *log.StructuredLogger
	metrics   *metrics.Metrics
}

func NewSyncWorker(store SyncStore, exporter sheets.BillExporter, batchSize int, logger *log.Logger, m *metrics.Metrics) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if batchSize < 1 {
		batchSize = 1
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		metrics:   m,
	}
}

// HandleMessage processes one message from the sync queue. It matches
// amqp.Handler.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.BillMessage) error {
	var err error
	switch msg.Type {
	case amqp.TypeSync:
		err = w.handleSync(ctx, msg)
	case amqp.TypeDelete:
		err = w.handleDelete(ctx, msg)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	w.metrics.SyncHandled(string(msg.Type), err)
	return err
}

func (w *SyncWorker) handleSync(ctx context.Context, msg *amqp.BillMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldBillID, msg.ID,
		log.FieldVersion, msg.Version)

	err := w.export(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted after the message was published; the delete message
		// takes care of the sheet.
		w.logger.InfoContext(ctx, "Bill no longer exists, skipping sync", log.FieldBillID, msg.ID)
		return nil
	}
	return err
}

func (w *SyncWorker) handleDelete(ctx context.Context, msg *amqp.BillMessage) error {
	w.logger.InfoContext(ctx, "Processing delete message", log.FieldBillID, msg.ID)

	if err := w.exporter.DeleteBill(ctx, msg.ID); err != nil {
		w.events.LogError(ctx, "Failed to delete bill from sheet", err,
			log.OpDelete, log.ErrorTypeNetwork, log.FieldBillID, msg.ID)
		return fmt.Errorf("delete bill %d from sheet: %w", msg.ID, err)
	}

	w.logger.InfoContext(ctx, "Deleted bill from sheet", log.FieldBillID, msg.ID)
	return nil
}

// ProcessPending exports up to one batch of bills that have not been
// synced yet. It is the fallback for lost queue messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if synced+failed > 0 {
		w.logger.InfoContext(ctx, "Processed pending bills", "synced", synced, "errors", failed)
	}
	return nil
}

// StartupSyncCheck exports a wider batch of pending bills at startup to
// recover from worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*startupBatchFactor)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		w.logger.InfoContext(ctx, "No pending bills found on startup")
		return nil
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending bills: %w", err)
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := w.export(ctx, p.ID); err != nil {
			w.events.LogError(ctx, "Failed to sync bill", err, log.OpSync, log.ErrorTypeNetwork, log.FieldBillID, p.ID)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// export writes the current state of bill id to the sheet and clears its
// pending flag for the exported version.
func (w *SyncWorker) export(ctx context.Context, id int64) error {
	bill, err := w.store.GetBill(ctx, id)
	if err != nil {
		return fmt.Errorf("get bill %d: %w", id, err)
	}

	if err := w.exporter.UpsertBill(ctx, bill); err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldBillID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("upsert bill %d: %w", id, err)
	}

	if err := w.store.MarkSynced(ctx, id, bill.Version); err != nil {
		// The row is written; the next pass rewrites it harmlessly.
		w.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldBillID, id, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Synced bill",
		log.FieldBillID, id,
		log.FieldVersion, bill.Version,
		log.FieldAmountCents, bill.Amount.Cents)
	return nil
}
