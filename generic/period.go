package generic

import "fmt"

// =============================================================================
// PERIOD - An inclusive range of calendar days
// =============================================================================

// Period is the date range a payroll run covers, [Start, End] inclusive.
//
// Examples:
//   - Weekly payroll: Mon 2025-03-03 .. Sun 2025-03-09
//   - Semi-monthly: 2025-03-01 .. 2025-03-15
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, fmt.Errorf("%w: start and end are required", ErrInvalidPeriod)
	}
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// ParsePeriod parses two YYYY-MM-DD strings into a validated Period.
func ParsePeriod(start, end string) (Period, error) {
	s, err := ParseDay(start)
	if err != nil {
		return Period{}, fmt.Errorf("%w: start %q", ErrInvalidPeriod, start)
	}
	e, err := ParseDay(end)
	if err != nil {
		return Period{}, fmt.Errorf("%w: end %q", ErrInvalidPeriod, end)
	}
	return NewPeriod(s, e)
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Length is the number of days in the period.
func (p Period) Length() int {
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
