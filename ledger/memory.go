package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// IN-MEMORY LEDGER
// =============================================================================

// MemoryLedger is an in-process Client and Connector. It backs tests and
// the CLI's --sandbox mode. Checks with a repeated idempotency key return
// the original transaction ID, as real ledgers do.
type MemoryLedger struct {
	mu sync.Mutex

	accounts map[string]string
	classes  map[string]string
	payees   map[string]Payee
	checks   []Check
	byKey    map[string]string

	disconnected bool
	failChecks   map[string]error // by payee ID
	failUpdates  error

	calls map[string]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		accounts:   make(map[string]string),
		classes:    make(map[string]string),
		payees:     make(map[string]Payee),
		byKey:      make(map[string]string),
		failChecks: make(map[string]error),
		calls:      make(map[string]int),
	}
}

// Setup

func (m *MemoryLedger) AddAccount(name, id string) *MemoryLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[name] = id
	return m
}

func (m *MemoryLedger) AddClass(name, id string) *MemoryLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[name] = id
	return m
}

func (m *MemoryLedger) AddPayee(p Payee) *MemoryLedger {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.SyncToken == "" {
		p.SyncToken = "0"
	}
	m.payees[p.Ref.String()] = p
	return m
}

// Disconnect makes Connect return ErrNotConnected.
func (m *MemoryLedger) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = true
}

// FailCheckFor makes CreateCheck fail with err for the given payee ID.
func (m *MemoryLedger) FailCheckFor(payeeID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failChecks[payeeID] = err
}

// FailPayeeUpdates makes every UpdatePayeeName call fail with err.
func (m *MemoryLedger) FailPayeeUpdates(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUpdates = err
}

// Inspection

func (m *MemoryLedger) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemoryLedger) Checks() []Check {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Check, len(m.checks))
	copy(out, m.checks)
	return out
}

func (m *MemoryLedger) Payee(ref payroll.PayeeRef) (Payee, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payees[ref.String()]
	return p, ok
}

// =============================================================================
// CONNECTOR + CLIENT
// =============================================================================

func (m *MemoryLedger) Connect(ctx context.Context) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return nil, ErrNotConnected
	}
	return m, nil
}

func (m *MemoryLedger) FindAccountID(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindAccountID"]++
	return m.accounts[name], nil
}

func (m *MemoryLedger) FindClassID(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindClassID"]++
	return m.classes[name], nil
}

func (m *MemoryLedger) GetPayee(ctx context.Context, ref payroll.PayeeRef) (Payee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetPayee"]++
	p, ok := m.payees[ref.String()]
	if !ok {
		return Payee{}, &Error{StatusCode: 404, Message: "payee not found", Err: ErrPayeeNotFound}
	}
	return p, nil
}

func (m *MemoryLedger) UpdatePayeeName(ctx context.Context, payee Payee, printName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["UpdatePayeeName"]++
	if m.failUpdates != nil {
		return m.failUpdates
	}
	stored, ok := m.payees[payee.Ref.String()]
	if !ok {
		return &Error{StatusCode: 404, Message: "payee not found", Err: ErrPayeeNotFound}
	}
	if stored.SyncToken != payee.SyncToken {
		return &Error{StatusCode: 400, Message: "stale sync token"}
	}
	stored.PrintOnCheckName = printName
	version, _ := strconv.Atoi(stored.SyncToken)
	stored.SyncToken = strconv.Itoa(version + 1)
	m.payees[payee.Ref.String()] = stored
	return nil
}

func (m *MemoryLedger) CreateCheck(ctx context.Context, check Check) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CreateCheck"]++
	if err := m.failChecks[check.Payee.ID]; err != nil {
		return "", err
	}
	if check.IdempotencyKey != "" {
		if id, ok := m.byKey[check.IdempotencyKey]; ok {
			return id, nil
		}
	}
	id := fmt.Sprintf("chk-%d", len(m.checks)+1)
	m.checks = append(m.checks, check)
	if check.IdempotencyKey != "" {
		m.byKey[check.IdempotencyKey] = id
	}
	return id, nil
}
