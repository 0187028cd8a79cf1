// Package worker moves locally saved months into the remote document store.
// It consumes month sync messages from AMQP and periodically re-drives any
// months still marked pending, so a lost message never strands a month.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

// Remote is the slice of the remote store the worker needs. A nil record
// deletes the month remotely.
type Remote interface {
	UpsertMonth(ctx context.Context, userID string, key core.MonthKey, record *core.MonthRecord) error
}

type SyncWorker struct {
	storage   *storage.Repository
	remote    Remote
	userID    string
	batchSize int
}

func NewSyncWorker(repo *storage.Repository, remote Remote, userID string, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		remote:    remote,
		userID:    userID,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single month sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MonthSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"month", msg.Key,
		"version", msg.Version)
	return w.syncMonth(ctx, msg.Key)
}

// ProcessPendingMonths pushes a batch of months still marked pending. This is
// the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPendingMonths(ctx context.Context) error {
	pending, err := w.storage.PendingSyncMonths(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending months: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending months", "count", len(pending))
	for _, key := range pending {
		if err := w.syncMonth(ctx, key); err != nil {
			slog.ErrorContext(ctx, "Failed to sync month", "month", key, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains pending months at worker startup to recover from
// downtime, using a larger batch than the periodic pass.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSyncMonths(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending months for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending months found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending months on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, key := range pending {
		if err := w.syncMonth(ctx, key); err != nil {
			slog.ErrorContext(ctx, "Failed to sync month during startup",
				"month", key, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) syncMonth(ctx context.Context, key core.MonthKey) error {
	record, err := w.storage.GetMonth(ctx, key)
	if err != nil {
		return fmt.Errorf("get month from storage: %w", err)
	}

	// record == nil means the month was deleted locally after the message
	// was published; propagate the deletion.
	if err := w.remote.UpsertMonth(ctx, w.userID, key, record); err != nil {
		if markErr := w.storage.MarkMonthSyncError(ctx, key); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "month", key, "error", markErr)
		}
		return fmt.Errorf("upsert month to remote: %w", err)
	}

	if record == nil {
		slog.InfoContext(ctx, "Propagated month deletion to remote", "month", key)
		return nil
	}
	if err := w.storage.MarkMonthSynced(ctx, key); err != nil {
		// The remote write worked; do not fail the message over bookkeeping.
		slog.ErrorContext(ctx, "Failed to mark month as synced", "month", key, "error", err)
	}
	return nil
}
