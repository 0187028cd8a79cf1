// Package memory is an in-memory stand-in for the remote document store.
// It is used in tests and when running without Google credentials.
package memory

import (
	"context"
	"sync"

	"budgetbook/internal/core"
	"budgetbook/internal/persist"
)

type Store struct {
	mu      sync.Mutex
	ledgers map[string]core.Ledger
}

var (
	_ persist.UserGateway = (*Store)(nil)
	_ persist.Migrator    = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{ledgers: make(map[string]core.Ledger)}
}

func (s *Store) LoadUser(_ context.Context, userID string) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.ledgers[userID]
	if !ok {
		return make(core.Ledger), nil
	}
	return ledger.Clone(), nil
}

func (s *Store) SaveUser(_ context.Context, userID string, ledger core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[userID] = ledger.Clone()
	return nil
}

func (s *Store) UpsertMonth(ctx context.Context, userID string, key core.MonthKey, record *core.MonthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.ledgers[userID]
	if !ok {
		ledger = make(core.Ledger)
		s.ledgers[userID] = ledger
	}
	if record == nil {
		delete(ledger, key)
		return nil
	}
	ledger[key] = record.Clone()
	return nil
}

func (s *Store) MigrateLocalToRemote(ctx context.Context, userID string, ledger core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, ok := s.ledgers[userID]
	if !ok {
		merged = make(core.Ledger)
		s.ledgers[userID] = merged
	}
	for key, record := range ledger {
		merged[key] = record.Clone()
	}
	return nil
}
