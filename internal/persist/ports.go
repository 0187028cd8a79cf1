// Package persist defines the ports the ledger core uses to reach durable
// storage. Implementations live in internal/persist/file, internal/storage
// (SQLite) and internal/sheets (remote per-user document store).
package persist

import (
	"context"

	"budgetbook/internal/core"
)

type (
	// Gateway loads and saves the full month-keyed ledger mapping. Load
	// returns an empty ledger when nothing has been saved yet. Save persists
	// the entire mapping; callers treat failures as non-fatal and keep the
	// in-memory ledger authoritative.
	Gateway interface {
		Load(ctx context.Context) (core.Ledger, error)
		Save(ctx context.Context, ledger core.Ledger) error
	}

	// UserGateway is the remote variant, scoped by an opaque user identifier.
	UserGateway interface {
		LoadUser(ctx context.Context, userID string) (core.Ledger, error)
		SaveUser(ctx context.Context, userID string, ledger core.Ledger) error
	}

	// Migrator performs the explicit one-time transfer of a locally stored
	// ledger into the remote store for a user.
	Migrator interface {
		MigrateLocalToRemote(ctx context.Context, userID string, ledger core.Ledger) error
	}
)
