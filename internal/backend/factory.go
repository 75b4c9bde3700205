package backend

import (
	"context"
	"errors"
	"fmt"

	"billminder/internal/amqp"
	"billminder/internal/log"
	"billminder/internal/metrics"
	"billminder/internal/seed"
	"billminder/internal/sheets"
	"billminder/internal/sheets/google"
	sheetsmem "billminder/internal/sheets/memory"
	"billminder/internal/storage"
	"billminder/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new backend factory. m may be nil.
func NewFactory(logger *log.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo storage.Repository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = f.createSQLite(config)
	case MemoryBackend:
		repo, err = f.createMemory(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{Repo: storage.WithLogging(repo, f.logger, f.metrics)}
	cleanups := []func() error{repo.Close}

	// A nil *amqp.Client must not end up in the Publisher interface.
	if client := f.createPublisher(config); client != nil {
		res.Publisher = client
		cleanups = append([]func() error{client.Close}, cleanups...)
	}

	res.Cleanup = func() error {
		var errs []error
		for _, fn := range cleanups {
			errs = append(errs, fn())
		}
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *DefaultFactory) createSQLite(config Config) (storage.Repository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createMemory(ctx context.Context, config Config) (storage.Repository, error) {
	store := memory.NewStore()
	if config.SeedDemo {
		if _, err := seed.Run(ctx, store, seed.Options{}, f.logger); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	f.logger.Info("Initialized memory backend", "seeded", config.SeedDemo)
	return store, nil
}

func (f *DefaultFactory) createPublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP disabled, bills stay pending until the sync worker polls")
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

// NewExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory exporter otherwise.
func NewExporter(ctx context.Context, cfg google.Config, logger *log.Logger) (sheets.BillExporter, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.SpreadsheetID == "" {
		logger.Info("Google Sheets disabled, exporting to memory")
		return sheetsmem.New(), nil
	}
	client, err := google.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.SpreadsheetID)
	return client, nil
}
