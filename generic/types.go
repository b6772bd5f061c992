/*
Package generic provides the domain-agnostic primitives of the payroll engine.

PURPOSE:
  This package contains the small building blocks every other package leans
  on: identifiers, decimal helpers for hours and currency, calendar days,
  pay weeks, and date-range periods. Nothing here knows about overtime rules
  or ledgers.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID / ProjectID / RunID: Type-safe identifiers
  - RoundCurrency: 2-decimal, half-up rounding used for every pay amount
  - FixedString: fixed-precision rendering used for hashing
  - DecimalFromAny: lenient numeric parse used by the rule normalizer

DESIGN PRINCIPLES:
  1. Precision: Hours and money use decimal.Decimal, never float64 math
  2. Type Safety: Strong typing for IDs prevents mixing employees/projects
  3. Leniency at the edges: parsing helpers never panic, they report ok=false

SEE ALSO:
  - time.go: TimePoint and pay-week math
  - period.go: Inclusive date ranges
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ProjectID string
type RunID string

// NoProject is the line key used for time logged without a project.
const NoProject ProjectID = ""

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// CurrencyPlaces is the precision of every persisted or submitted amount.
const CurrencyPlaces = 2

// HashPlaces is the precision numeric fields are rendered with before hashing.
const HashPlaces = 4

// RoundCurrency rounds half-up to cents. Amounts in this system are never
// negative, so decimal's half-away-from-zero matches half-up.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// FixedString renders d with exactly places decimals ("12.5000").
func FixedString(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalFromAny parses a JSON-ish value into a decimal.
// Accepts numbers, numeric strings and json.Number. NaN, infinities, empty
// strings, booleans and nil report ok=false.
func DecimalFromAny(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		return decimalFromFloat(t)
	case float32:
		return decimalFromFloat(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case int32:
		return decimal.NewFromInt(int64(t)), true
	case json.Number:
		return decimalFromString(t.String())
	case string:
		return decimalFromString(t)
	case decimal.Decimal:
		return t, true
	default:
		return decimal.Zero, false
	}
}

func decimalFromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func decimalFromString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	// ParseFloat understands "NaN"/"Inf" so they can be rejected explicitly.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal.Zero, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NewFromFloat(f), true
	}
	return d, true
}

func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
