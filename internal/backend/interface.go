// Package backend selects and wires the persistence gateway from
// configuration: local JSON files, SQLite, or the remote document store.
package backend

import (
	"context"

	"budgetbook/internal/persist"
	"budgetbook/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the gateway and whatever extras the chosen backend
// provides. Storage is non-nil only for the sqlite backend; the sync worker
// needs it for pending-month bookkeeping.
type Result struct {
	Gateway persist.Gateway
	Storage *storage.Repository
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// Sheets backend
	UserID string
}

// Type names a persistence backend.
type Type string

const (
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case FileBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
