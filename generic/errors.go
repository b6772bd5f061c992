/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All shared error types in one place for consistency and discoverability.
  Packages wrap these errors with additional context; the API layer maps
  them onto HTTP status codes with the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Input errors - Malformed periods, unknown employees
  2. Run errors - Duplicate submissions, missing runs
  3. Store errors - Database-level failures

USAGE:
    if errors.Is(err, generic.ErrDuplicateRun) {
        var dup *generic.DuplicateRunError
        errors.As(err, &dup)
        ...
    }

SEE ALSO:
  - runner/runner.go: Returns DuplicateRunError
  - ledger/errors.go: Ledger transport errors and fatal classification
  - api/handlers.go: Maps these errors to HTTP responses
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRunNotFound is returned when a payroll run ID is unknown.
	ErrRunNotFound = errors.New("payroll run not found")

	// ErrDuplicateRun is returned when a batch with the same snapshot hash
	// has already been submitted successfully.
	ErrDuplicateRun = errors.New("payroll batch already submitted")

	// ErrNothingToSubmit is returned when a period has no payable entries.
	ErrNothingToSubmit = errors.New("no payable time entries in period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateRunError identifies the earlier run a batch collides with.
type DuplicateRunError struct {
	Hash  string
	RunID RunID
}

func (e *DuplicateRunError) Error() string {
	return fmt.Sprintf("payroll batch %s already submitted as run %s", e.Hash, e.RunID)
}

func (e *DuplicateRunError) Unwrap() error {
	return ErrDuplicateRun
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrNothingToSubmit)
}

// IsConflict returns true if the request collides with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRun)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRunNotFound)
}
