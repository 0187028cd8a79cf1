package memory

import (
	"context"
	"testing"

	"budgetbook/internal/core"
)

func TestUsersAreIsolated(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	ledger := core.Ledger{"2025-01": &core.MonthRecord{Income: core.Money{Cents: 100}}}
	if err := s.SaveUser(ctx, "alice", ledger); err != nil {
		t.Fatalf("save: %v", err)
	}

	other, err := s.LoadUser(ctx, "bob")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("bob must start empty, got %+v", other)
	}

	mine, err := s.LoadUser(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if mine["2025-01"].Income.Cents != 100 {
		t.Fatalf("alice ledger = %+v", mine)
	}

	// Mutating the loaded copy must not leak into the store.
	mine["2025-01"].Income = core.Money{Cents: 999}
	again, _ := s.LoadUser(ctx, "alice")
	if again["2025-01"].Income.Cents != 100 {
		t.Fatal("LoadUser must return a clone")
	}
}

func TestUpsertMonth(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	record := &core.MonthRecord{Income: core.Money{Cents: 5000}}
	if err := s.UpsertMonth(ctx, "alice", "2025-04", record); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ledger, _ := s.LoadUser(ctx, "alice")
	if ledger["2025-04"].Income.Cents != 5000 {
		t.Fatalf("ledger = %+v", ledger)
	}

	if err := s.UpsertMonth(ctx, "alice", "2025-04", nil); err != nil {
		t.Fatalf("delete upsert: %v", err)
	}
	ledger, _ = s.LoadUser(ctx, "alice")
	if len(ledger) != 0 {
		t.Fatalf("nil record must delete the month: %+v", ledger)
	}
}

func TestMigrateMergesLocalWins(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	remote := core.Ledger{
		"2025-01": &core.MonthRecord{Income: core.Money{Cents: 1}},
		"2025-02": &core.MonthRecord{Income: core.Money{Cents: 2}},
	}
	if err := s.SaveUser(ctx, "alice", remote); err != nil {
		t.Fatalf("seed: %v", err)
	}

	local := core.Ledger{"2025-02": &core.MonthRecord{Income: core.Money{Cents: 200}}}
	if err := s.MigrateLocalToRemote(ctx, "alice", local); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	merged, _ := s.LoadUser(ctx, "alice")
	if merged["2025-01"].Income.Cents != 1 {
		t.Fatalf("remote-only month must survive: %+v", merged)
	}
	if merged["2025-02"].Income.Cents != 200 {
		t.Fatalf("local record must win on conflict: %+v", merged)
	}
}
