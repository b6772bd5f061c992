package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - A calendar day (payroll works in whole days)
// =============================================================================

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// TimePoint is a calendar day. The zero value means "no date", which the
// overtime allocator treats as an entry that cannot be grouped.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates t to its calendar day in its own location, then pins it to UTC.
func DayOf(t time.Time) TimePoint {
	if t.IsZero() {
		return TimePoint{}
	}
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDay parses YYYY-MM-DD. Empty or malformed input yields the zero TimePoint.
func ParseDay(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DayOf(t), nil
}

func Today() TimePoint {
	return DayOf(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.normalize().Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

// Key is a stable map key for grouping entries by day.
func (tp TimePoint) Key() string { return tp.String() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.normalize().Format(DateLayout)
}

// =============================================================================
// PAY WEEK
// =============================================================================

// WeekStart returns the first day of the pay week containing tp, where pay
// weeks begin on startWeekday. Each date is anchored independently: there is
// no pay-period anchor date, so a period that does not line up with
// startWeekday may contain a week boundary mid-period.
func (tp TimePoint) WeekStart(startWeekday time.Weekday) TimePoint {
	offset := (int(tp.Weekday()) - int(startWeekday) + 7) % 7
	return tp.AddDays(-offset)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return int(to.normalize().Sub(from.normalize()).Hours() / 24) }
