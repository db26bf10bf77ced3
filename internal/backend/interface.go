package backend

import (
	"context"

	"gastos/internal/ports"
)

type CleanupFunc func() error

// BackendResult contains the store and the function releasing it.
type BackendResult struct {
	Store   ports.Store
	Cleanup CleanupFunc
	// Ping is nil for backends without a connection to check.
	Ping func(ctx context.Context) error
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
