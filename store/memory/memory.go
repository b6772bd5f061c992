// Package memory provides an in-memory payroll store for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store implements payroll.EntrySource and runner.Store. Rows are kept
// sorted by entry date; rows with the same date keep insertion order.
type Store struct {
	mu       sync.RWMutex
	rows     []payroll.EntryRow
	paid     map[string]generic.RunID
	settings string
	runs     []payroll.Run
	checks   map[generic.RunID][]payroll.Check

	// FailList, when set, is returned by ListPayableEntries.
	FailList error
}

func New() *Store {
	return &Store{
		paid:   make(map[string]generic.RunID),
		checks: make(map[generic.RunID][]payroll.Check),
	}
}

// AddRows inserts payable rows.
func (m *Store) AddRows(rows ...payroll.EntryRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.insertLocked(row)
	}
}

func (m *Store) insertLocked(row payroll.EntryRow) {
	i := sort.Search(len(m.rows), func(i int) bool {
		return m.rows[i].Entry.EntryDate.After(row.Entry.EntryDate)
	})
	m.rows = append(m.rows, payroll.EntryRow{})
	copy(m.rows[i+1:], m.rows[i:])
	m.rows[i] = row
}

// SetPayrollSettings stores raw overtime JSON.
func (m *Store) SetPayrollSettings(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = raw
}

// =============================================================================
// payroll.EntrySource
// =============================================================================

func (m *Store) ListPayableEntries(_ context.Context, period generic.Period, exclude []generic.EmployeeID) ([]payroll.EntryRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailList != nil {
		return nil, m.FailList
	}

	skip := make(map[generic.EmployeeID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var out []payroll.EntryRow
	for _, row := range m.rows {
		if skip[row.Entry.EmployeeID] {
			continue
		}
		if _, done := m.paid[row.Entry.ID]; done {
			continue
		}
		if !period.Contains(row.Entry.EntryDate) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// =============================================================================
// runner.Store
// =============================================================================

func (m *Store) PayrollSettings(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *Store) FindCompletedRunByBatchKey(_ context.Context, key string) (*payroll.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.runs) - 1; i >= 0; i-- {
		run := m.runs[i]
		if run.BatchKey == key && run.Status == payroll.RunCompleted {
			return &run, nil
		}
	}
	return nil, nil
}

// RecordRun is atomic: the run, its checks, and the paid markers are
// written under one lock.
func (m *Store) RecordRun(_ context.Context, run payroll.Run, checks []payroll.Check, paidEntryIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, run)
	m.checks[run.ID] = append([]payroll.Check(nil), checks...)
	for _, id := range paidEntryIDs {
		m.paid[id] = run.ID
	}
	return nil
}

// =============================================================================
// INSPECTION
// =============================================================================

func (m *Store) Runs() []payroll.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]payroll.Run(nil), m.runs...)
}

func (m *Store) Checks(runID generic.RunID) []payroll.Check {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]payroll.Check(nil), m.checks[runID]...)
}

// PaidBy returns the run that paid an entry, or "".
func (m *Store) PaidBy(entryID string) generic.RunID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paid[entryID]
}
