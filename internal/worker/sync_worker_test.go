package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/sheets/memory"
	"budgetbook/internal/storage"
)

type failingRemote struct {
	err   error
	calls int
}

func (f *failingRemote) UpsertMonth(context.Context, string, core.MonthKey, *core.MonthRecord) error {
	f.calls++
	return f.err
}

func newTestStorage(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedMonth(t *testing.T, repo *storage.Repository, key core.MonthKey, incomeCents int64) {
	t.Helper()
	ledger := core.Ledger{key: &core.MonthRecord{Income: core.Money{Cents: incomeCents}}}
	if err := repo.Save(context.Background(), ledger); err != nil {
		t.Fatalf("seed save: %v", err)
	}
}

func TestHandleSyncMessagePushesMonth(t *testing.T) {
	repo := newTestStorage(t)
	remote := memory.NewStore()
	w := NewSyncWorker(repo, remote, "alice", 10)
	ctx := context.Background()

	seedMonth(t, repo, "2025-05", 180000)

	msg := amqp.NewMonthSyncMessage("2025-05", 1)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	pushed, err := remote.LoadUser(ctx, "alice")
	if err != nil {
		t.Fatalf("load remote: %v", err)
	}
	if pushed["2025-05"] == nil || pushed["2025-05"].Income.Cents != 180000 {
		t.Fatalf("remote = %+v", pushed)
	}

	pending, err := repo.PendingSyncMonths(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("month must be marked synced, pending = %v", pending)
	}
}

func TestHandleSyncMessageDeletedMonth(t *testing.T) {
	repo := newTestStorage(t)
	remote := memory.NewStore()
	w := NewSyncWorker(repo, remote, "alice", 10)
	ctx := context.Background()

	// Seed the remote, then sync a month that no longer exists locally.
	if err := remote.UpsertMonth(ctx, "alice", "2025-05", &core.MonthRecord{Income: core.Money{Cents: 1}}); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewMonthSyncMessage("2025-05", 2)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	pushed, _ := remote.LoadUser(ctx, "alice")
	if len(pushed) != 0 {
		t.Fatalf("local deletion must propagate, remote = %+v", pushed)
	}
}

func TestRemoteFailureMarksSyncError(t *testing.T) {
	repo := newTestStorage(t)
	remote := &failingRemote{err: errors.New("quota exceeded")}
	w := NewSyncWorker(repo, remote, "alice", 10)
	ctx := context.Background()

	seedMonth(t, repo, "2025-05", 1000)

	if err := w.HandleSyncMessage(ctx, amqp.NewMonthSyncMessage("2025-05", 1)); err == nil {
		t.Fatal("remote failure must surface")
	}

	// Marked error, so the periodic pass must not pick it up again.
	pending, err := repo.PendingSyncMonths(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed month must leave pending state, got %v", pending)
	}
}

func TestStartupSyncCheckDrainsPending(t *testing.T) {
	repo := newTestStorage(t)
	remote := memory.NewStore()
	w := NewSyncWorker(repo, remote, "alice", 2)
	ctx := context.Background()

	ledger := core.Ledger{
		"2025-01": &core.MonthRecord{Income: core.Money{Cents: 100}},
		"2025-02": &core.MonthRecord{Income: core.Money{Cents: 200}},
		"2025-03": &core.MonthRecord{Income: core.Money{Cents: 300}},
	}
	if err := repo.Save(ctx, ledger); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup check: %v", err)
	}

	pushed, _ := remote.LoadUser(ctx, "alice")
	if len(pushed) != 3 {
		t.Fatalf("all pending months must be pushed, remote = %+v", pushed)
	}
	pending, _ := repo.PendingSyncMonths(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after startup = %v", pending)
	}
}

func TestProcessPendingMonthsNoWork(t *testing.T) {
	repo := newTestStorage(t)
	remote := &failingRemote{err: errors.New("must not be called")}
	w := NewSyncWorker(repo, remote, "alice", 10)

	if err := w.ProcessPendingMonths(context.Background()); err != nil {
		t.Fatalf("empty pass: %v", err)
	}
	if remote.calls != 0 {
		t.Fatalf("remote called %d times with no pending months", remote.calls)
	}
}
