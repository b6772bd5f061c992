/*
Package factory converts stored payroll settings into a typed RuleSet.

PURPOSE:
  Organization settings are stored as loosely typed JSON that admins edit
  through a settings screen. Values arrive as booleans, numbers, numeric
  strings, nulls or garbage. The factory is the only place that reads that
  raw form: it turns whatever is stored into a payroll.RuleSet and never
  fails. Invalid values fall back to defaults.

JSON SCHEMA:
  {
    "pay_period_start_weekday": 1,
    "overtime_enabled": true,
    "overtime_daily_threshold_hours": 8,
    "overtime_weekly_threshold_hours": 40,
    "overtime_multiplier": 1.5,
    "double_time_enabled": false,
    "double_time_daily_threshold_hours": 12,
    "double_time_multiplier": 2
  }

NORMALIZATION RULES:
  - Booleans: true, "true", 1 and "1" are true; everything else is false
  - Weekday: floored, must land in [0,6], otherwise Monday
  - Thresholds: missing or unparseable -> default; null or <= 0 -> no cap
  - Multipliers: missing, unparseable, non-finite or <= 0 -> default
  - Double-time: the flag passes through; the allocator only applies it
    when overtime is enabled

USAGE:
  rules := factory.NewRuleFactory().ParseRules(settingsJSON)
  drafts, err := builder.BuildDrafts(ctx, period, rules, opts)

SEE ALSO:
  - payroll/rules.go: RuleSet and defaults
  - payroll/allocation.go: Consumer of the normalized rules
*/
package factory

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Setting keys.
const (
	KeyStartWeekday         = "pay_period_start_weekday"
	KeyOvertimeEnabled      = "overtime_enabled"
	KeyDailyThreshold       = "overtime_daily_threshold_hours"
	KeyWeeklyThreshold      = "overtime_weekly_threshold_hours"
	KeyOvertimeMultiplier   = "overtime_multiplier"
	KeyDoubleTimeEnabled    = "double_time_enabled"
	KeyDoubleTimeThreshold  = "double_time_daily_threshold_hours"
	KeyDoubleTimeMultiplier = "double_time_multiplier"
)

// RulesJSON is the canonical JSON representation of a RuleSet, used when
// settings are written back or returned to clients.
type RulesJSON struct {
	PayPeriodStartWeekday         int      `json:"pay_period_start_weekday"`
	OvertimeEnabled               bool     `json:"overtime_enabled"`
	OvertimeDailyThresholdHours   *float64 `json:"overtime_daily_threshold_hours"`
	OvertimeWeeklyThresholdHours  *float64 `json:"overtime_weekly_threshold_hours"`
	OvertimeMultiplier            float64  `json:"overtime_multiplier"`
	DoubleTimeEnabled             bool     `json:"double_time_enabled"`
	DoubleTimeDailyThresholdHours *float64 `json:"double_time_daily_threshold_hours"`
	DoubleTimeMultiplier          float64  `json:"double_time_multiplier"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts raw settings to payroll.RuleSet.
type RuleFactory struct {
	defaults payroll.RuleSet
}

// NewRuleFactory creates a factory using payroll.DefaultRuleSet for fallbacks.
func NewRuleFactory() *RuleFactory {
	return &RuleFactory{defaults: payroll.DefaultRuleSet()}
}

// ParseRules decodes stored settings JSON. Empty or malformed JSON yields
// the defaults.
func (f *RuleFactory) ParseRules(jsonStr string) payroll.RuleSet {
	if strings.TrimSpace(jsonStr) == "" {
		return f.Normalize(nil)
	}
	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return f.Normalize(nil)
	}
	return f.Normalize(raw)
}

// Normalize turns a raw settings map into a RuleSet. It never fails.
func (f *RuleFactory) Normalize(raw map[string]any) payroll.RuleSet {
	d := f.defaults
	return payroll.RuleSet{
		PayPeriodStartWeekday:    parseWeekday(raw[KeyStartWeekday], d.PayPeriodStartWeekday),
		OvertimeEnabled:          parseBool(raw[KeyOvertimeEnabled]),
		OvertimeDailyThreshold:   parseThreshold(raw, KeyDailyThreshold, d.OvertimeDailyThreshold),
		OvertimeWeeklyThreshold:  parseThreshold(raw, KeyWeeklyThreshold, d.OvertimeWeeklyThreshold),
		OvertimeMultiplier:       parseMultiplier(raw[KeyOvertimeMultiplier], d.OvertimeMultiplier),
		DoubleTimeEnabled:        parseBool(raw[KeyDoubleTimeEnabled]),
		DoubleTimeDailyThreshold: parseThreshold(raw, KeyDoubleTimeThreshold, d.DoubleTimeDailyThreshold),
		DoubleTimeMultiplier:     parseMultiplier(raw[KeyDoubleTimeMultiplier], d.DoubleTimeMultiplier),
	}
}

// ToJSON converts a RuleSet back to its canonical JSON form.
func (f *RuleFactory) ToJSON(rules payroll.RuleSet) RulesJSON {
	return RulesJSON{
		PayPeriodStartWeekday:         int(rules.PayPeriodStartWeekday),
		OvertimeEnabled:               rules.OvertimeEnabled,
		OvertimeDailyThresholdHours:   thresholdFloat(rules.OvertimeDailyThreshold),
		OvertimeWeeklyThresholdHours:  thresholdFloat(rules.OvertimeWeeklyThreshold),
		OvertimeMultiplier:            rules.OvertimeMultiplier.InexactFloat64(),
		DoubleTimeEnabled:             rules.DoubleTimeEnabled,
		DoubleTimeDailyThresholdHours: thresholdFloat(rules.DoubleTimeDailyThreshold),
		DoubleTimeMultiplier:          rules.DoubleTimeMultiplier.InexactFloat64(),
	}
}

// Canonicalize normalizes raw settings JSON and re-encodes it, so stored
// settings are always in canonical form.
func (f *RuleFactory) Canonicalize(jsonStr string) (string, payroll.RuleSet) {
	rules := f.ParseRules(jsonStr)
	out, _ := json.Marshal(f.ToJSON(rules))
	return string(out), rules
}

// =============================================================================
// PARSE HELPERS
// =============================================================================

func parseBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case json.Number:
		return t.String() == "1"
	case float64:
		return t == 1
	case int:
		return t == 1
	default:
		return false
	}
}

func parseWeekday(v any, fallback time.Weekday) time.Weekday {
	d, ok := generic.DecimalFromAny(v)
	if !ok {
		return fallback
	}
	day := d.Floor()
	if day.IsNegative() || day.GreaterThan(decimal.NewFromInt(6)) {
		return fallback
	}
	return time.Weekday(day.IntPart())
}

// parseThreshold distinguishes a missing key (default) from an explicit
// null (no cap).
func parseThreshold(raw map[string]any, key string, fallback *decimal.Decimal) *decimal.Decimal {
	v, present := raw[key]
	if !present {
		return copyDecimal(fallback)
	}
	if v == nil {
		return nil
	}
	d, ok := generic.DecimalFromAny(v)
	if !ok {
		return copyDecimal(fallback)
	}
	if !d.IsPositive() {
		return nil
	}
	return &d
}

func parseMultiplier(v any, fallback decimal.Decimal) decimal.Decimal {
	d, ok := generic.DecimalFromAny(v)
	if !ok || !d.IsPositive() {
		return fallback
	}
	return d
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func thresholdFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
