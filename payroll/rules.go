package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RULE SET
// =============================================================================

// RuleSet is the typed payroll configuration for an organization. It is
// produced by factory.RuleFactory; nothing else reads raw settings.
//
// A nil threshold means "no cap" for that kind of overtime.
type RuleSet struct {
	PayPeriodStartWeekday time.Weekday

	OvertimeEnabled         bool
	OvertimeDailyThreshold  *decimal.Decimal
	OvertimeWeeklyThreshold *decimal.Decimal
	OvertimeMultiplier      decimal.Decimal

	// DoubleTimeEnabled only takes effect when OvertimeEnabled is true.
	DoubleTimeEnabled        bool
	DoubleTimeDailyThreshold *decimal.Decimal
	DoubleTimeMultiplier     decimal.Decimal
}

// Defaults
var (
	DefaultStartWeekday         = time.Monday
	DefaultDailyThreshold       = decimal.NewFromInt(8)
	DefaultWeeklyThreshold      = decimal.NewFromInt(40)
	DefaultDoubleTimeThreshold  = decimal.NewFromInt(12)
	DefaultOvertimeMultiplier   = decimal.NewFromFloat(1.5)
	DefaultDoubleTimeMultiplier = decimal.NewFromInt(2)
)

// DefaultRuleSet has overtime switched off and the usual US thresholds
// filled in, so enabling overtime alone gives 8h/40h at 1.5x.
func DefaultRuleSet() RuleSet {
	daily := DefaultDailyThreshold
	weekly := DefaultWeeklyThreshold
	dt := DefaultDoubleTimeThreshold
	return RuleSet{
		PayPeriodStartWeekday:    DefaultStartWeekday,
		OvertimeEnabled:          false,
		OvertimeDailyThreshold:   &daily,
		OvertimeWeeklyThreshold:  &weekly,
		OvertimeMultiplier:       DefaultOvertimeMultiplier,
		DoubleTimeEnabled:        false,
		DoubleTimeDailyThreshold: &dt,
		DoubleTimeMultiplier:     DefaultDoubleTimeMultiplier,
	}
}

// DoubleTimeActive reports whether double-time is computed at all.
func (r RuleSet) DoubleTimeActive() bool {
	return r.OvertimeEnabled && r.DoubleTimeEnabled && r.DoubleTimeDailyThreshold != nil
}

// Threshold is a small helper for building rule sets in code and tests.
func Threshold(hours float64) *decimal.Decimal {
	d := decimal.NewFromFloat(hours)
	return &d
}
