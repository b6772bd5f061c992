package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// RUN RECORDS
// =============================================================================

// RunStatus summarizes how a submission went.
type RunStatus string

const (
	RunCompleted RunStatus = "completed" // every check was created
	RunPartial   RunStatus = "partial"   // some checks were created
	RunFailed    RunStatus = "failed"    // no check was created
)

// Run is the persisted record of one submission to the ledger.
type Run struct {
	ID               generic.RunID
	Period           generic.Period
	SnapshotHash     string
	BatchKey         string
	CheckCount       int
	Status           RunStatus
	FatalError       string
	AdjustmentReason string
	IdempotencyKey   string
	CreatedAt        time.Time
}

// Check is the persisted outcome for one employee within a run.
type Check struct {
	RunID         generic.RunID
	EmployeeID    generic.EmployeeID
	DisplayName   string
	TotalHours    decimal.Decimal
	TotalPay      decimal.Decimal
	OK            bool
	TransactionID string
	Error         string
	Warnings      []string
}

// StatusFor derives a run status from per-check outcomes.
func StatusFor(checks []Check) RunStatus {
	ok := 0
	for _, c := range checks {
		if c.OK {
			ok++
		}
	}
	switch {
	case len(checks) > 0 && ok == len(checks):
		return RunCompleted
	case ok > 0:
		return RunPartial
	default:
		return RunFailed
	}
}
