/*
Package ledger submits payroll check drafts to an external accounting ledger.

PURPOSE:
  The ledger is the system of record that actually issues checks. This
  package resolves names (expense accounts, classes, the bank account) to
  ledger IDs, keeps each payee's printed name in sync, and writes one check
  per employee draft. Submissions report per employee: a partial batch has
  already moved money for some employees, so nothing is all-or-nothing.

KEY CONCEPTS:
  Client:     The operations this package needs from a ledger API
  Connector:  Yields a Client, or ErrNotConnected when no credential exists
  Submitter:  Runs one batch, sequentially, with a fatal-error short circuit
  resolver:   Per-batch name -> ID cache, discarded when Submit returns

ERROR SPLIT:
  Fatal (stop sending):  no HTTP response, 5xx, 401, 403, 429
  Per-employee:          every other 4xx, unresolved names, unlinked payee

SEE ALSO:
  - submitter.go: Batch state machine
  - errors.go: Error type and IsFatal
  - httpclient/: REST implementation of Client and Connector
  - payroll/drafts.go: Where drafts come from
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// LEDGER CLIENT
// =============================================================================

// Client is the subset of an accounting API used for payroll checks.
//
// FindAccountID and FindClassID return "" with a nil error when no record
// has that name.
type Client interface {
	FindAccountID(ctx context.Context, name string) (string, error)
	FindClassID(ctx context.Context, name string) (string, error)
	GetPayee(ctx context.Context, ref payroll.PayeeRef) (Payee, error)
	UpdatePayeeName(ctx context.Context, payee Payee, printName string) error
	CreateCheck(ctx context.Context, check Check) (string, error)
}

// Connector yields a Client for the current credential.
type Connector interface {
	Connect(ctx context.Context) (Client, error)
}

// Payee is a vendor or employee record on the ledger.
type Payee struct {
	Ref              payroll.PayeeRef
	DisplayName      string
	PrintOnCheckName string
	SyncToken        string // optimistic-lock token required for updates
}

// Check is one check purchase: one payee, one bank account, N expense lines.
type Check struct {
	Payee          payroll.PayeeRef
	BankAccountID  string
	TxnDate        generic.TimePoint
	Memo           string
	Lines          []CheckLine
	IdempotencyKey string
}

type CheckLine struct {
	AccountID   string
	ClassID     string
	Description string
	Amount      decimal.Decimal
}

// Total is the sum of the line amounts.
func (c Check) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Amount)
	}
	return total
}
