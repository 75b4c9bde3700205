// Package backend builds the repository, publisher and exporter selected
// by configuration.
package backend

import (
	"context"

	"billminder/internal/services"
	"billminder/internal/sheets/google"
	"billminder/internal/storage"
)

// CleanupFunc releases the resources held by a Result.
type CleanupFunc func() error

// Result holds the wired backend. Publisher is nil when AMQP is disabled.
type Result struct {
	Repo      storage.Repository
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific; seeding is refused for sqlite so real data is never
	// wiped at startup.
	SeedDemo bool

	// AMQP publishing, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sheet export, disabled when Sheets.SpreadsheetID is empty
	Sheets google.Config
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
