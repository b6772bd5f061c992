package ledger

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotConnected is returned by a Connector when no ledger credential
	// is stored. Submit turns it into a whole-batch preview.
	ErrNotConnected = errors.New("ledger not connected")

	// ErrPayeeNotFound is returned when the ledger has no record for a payee.
	ErrPayeeNotFound = errors.New("payee not found on ledger")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// Error is a failed ledger call. StatusCode is 0 when no HTTP response was
// received (DNS, connection reset, timeout).
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("ledger unreachable: %v", e.Err)
	case e.StatusCode == 0:
		return "ledger unreachable: " + e.Message
	case e.Message != "":
		return fmt.Sprintf("ledger returned %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("ledger returned %d", e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatal reports whether err should stop every later submission in a batch.
// Anything that is not a business-level 4xx counts, including errors that
// never reached the ledger.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var le *Error
	if !errors.As(err, &le) {
		return true
	}
	switch {
	case le.StatusCode == 0:
		return true
	case le.StatusCode >= http.StatusInternalServerError:
		return true
	case le.StatusCode == http.StatusUnauthorized,
		le.StatusCode == http.StatusForbidden,
		le.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
