package memstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/labels"
	"github.com/cognicore/triage/pkg/triage/store"
	"github.com/cognicore/triage/pkg/triage/table"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	tables map[string]table.Table
	runs   map[string]store.Run

	// Writes counts successful ReplaceTable calls.
	Writes int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID: 1,
		tables: make(map[string]table.Table),
		runs:   make(map[string]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ReplaceTable implements store.Store.
func (s *Store) ReplaceTable(ctx context.Context, name string, t table.Table) (store.Run, error) {
	if err := store.ValidateName(name); err != nil {
		return store.Run{}, err
	}
	if err := t.Validate(); err != nil {
		return store.Run{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[name] = copyTable(t)
	run := store.NewRun(strconv.FormatInt(s.nextID, 10), name, t, time.Now())
	s.nextID++
	s.runs[name] = run
	s.Writes++
	return run, nil
}

// LoadTable implements store.Store.
func (s *Store) LoadTable(ctx context.Context, name string) (table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return table.Table{}, fmt.Errorf("table %q: %w", name, internalerr.ErrNotFound)
	}
	return copyTable(t), nil
}

// LatestRun implements store.Store.
func (s *Store) LatestRun(ctx context.Context, name string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[name]
	return run, ok, nil
}

func copyTable(t table.Table) table.Table {
	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		r.Labels = append([]labels.Label(nil), r.Labels...)
		rows[i] = r
	}
	return table.Table{Schema: t.Schema, Rows: rows}
}
