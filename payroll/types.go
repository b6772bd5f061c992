/*
Package payroll turns raw time entries into per-employee check drafts.

PURPOSE:
  This package owns the computational core of a payroll run. Time entries
  come in from a store, hours are split into regular, overtime and
  double-time buckets, the results are grouped into one draft check per
  employee, and a snapshot hash fingerprints the draft set so a caller can
  tell whether a retried run would produce the same payroll.

KEY CONCEPTS:
  RawTimeEntry:   One unit of worked time for one employee/project/day
  AllocatedEntry: A RawTimeEntry with its hours split into pay buckets
  CheckDraft:     One prospective check for one employee, with project lines
  RuleSet:        Typed overtime configuration (see factory.RuleFactory)

PIPELINE:
  EntrySource -> Allocate (per employee) -> DraftBuilder -> Snapshot
                                                        \-> ledger.Submitter

SEE ALSO:
  - allocation.go: Overtime allocator
  - drafts.go: Draft builder
  - snapshot.go: Snapshot hasher
  - factory/rules.go: Raw settings -> RuleSet
  - ledger/submitter.go: Sends drafts to the accounting ledger
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// TIME ENTRIES
// =============================================================================

// RawTimeEntry is read-only input to the allocator.
type RawTimeEntry struct {
	ID               string
	EmployeeID       generic.EmployeeID
	ProjectID        generic.ProjectID // generic.NoProject when unassigned
	EntryDate        generic.TimePoint // zero when missing
	Hours            decimal.Decimal
	TotalPay         decimal.Decimal // pre-allocation base pay
	EmployeeBaseRate decimal.Decimal // fallback hourly rate
}

// AllocatedEntry is a RawTimeEntry with its hours split into pay buckets.
// RegularHours + DailyOvertimeHours + WeeklyOvertimeHours + DoubleTimeHours
// equals Hours.
type AllocatedEntry struct {
	RawTimeEntry

	BaseRate            decimal.Decimal
	RegularHours        decimal.Decimal
	DailyOvertimeHours  decimal.Decimal
	WeeklyOvertimeHours decimal.Decimal
	DoubleTimeHours     decimal.Decimal
	AdjustedPay         decimal.Decimal
}

// OvertimeHours is daily plus weekly overtime.
func (e AllocatedEntry) OvertimeHours() decimal.Decimal {
	return e.DailyOvertimeHours.Add(e.WeeklyOvertimeHours)
}

// =============================================================================
// PAYEES
// =============================================================================

// PayeeType is the kind of ledger record a check is written to.
type PayeeType string

const (
	PayeeVendor   PayeeType = "vendor"
	PayeeEmployee PayeeType = "employee"
)

// PayeeRef points at a vendor or employee record in the external ledger.
type PayeeRef struct {
	Type PayeeType
	ID   string
}

func (p PayeeRef) IsZero() bool { return p.ID == "" }

func (p PayeeRef) String() string {
	if p.IsZero() {
		return ""
	}
	return string(p.Type) + ":" + p.ID
}

// ParsePayeeType defaults to vendor, which is how contractors are paid.
func ParsePayeeType(s string) PayeeType {
	if PayeeType(s) == PayeeEmployee {
		return PayeeEmployee
	}
	return PayeeVendor
}

// =============================================================================
// CHECK DRAFTS
// =============================================================================

// CheckDraftLine is one project's contribution to an employee's check.
type CheckDraftLine struct {
	ProjectID    generic.ProjectID
	ProjectName  string
	ProjectHours decimal.Decimal
	ProjectPay   decimal.Decimal

	// Set on manually injected lines and by overrides.
	IsCustom           bool
	ExpenseAccountName string
	Description        string
	ClassName          string
}

// CheckDraft is one prospective payroll check. Drafts are rebuilt on every
// preview or submission and never persisted directly.
type CheckDraft struct {
	EmployeeID  generic.EmployeeID
	DisplayName string
	Payee       PayeeRef
	TotalHours  decimal.Decimal
	TotalPay    decimal.Decimal
	Lines       []CheckDraftLine

	// EntryIDs are the source time entries, so a caller can mark them paid.
	EntryIDs []string
}

// =============================================================================
// SOURCE
// =============================================================================

// EntryRow is a payable time entry joined with employee and project metadata.
type EntryRow struct {
	Entry            RawTimeEntry
	EmployeeName     string
	PrintOnCheckName string
	Payee            PayeeRef
	ProjectName      string
}

// DisplayName prefers the print-on-check name.
func (r EntryRow) DisplayName() string {
	if r.PrintOnCheckName != "" {
		return r.PrintOnCheckName
	}
	return r.EmployeeName
}

// EntrySource returns unpaid entries with no unresolved exceptions for a
// period. Exception filtering is the source's job.
type EntrySource interface {
	ListPayableEntries(ctx context.Context, period generic.Period, exclude []generic.EmployeeID) ([]EntryRow, error)
}
