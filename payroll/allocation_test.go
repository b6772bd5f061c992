package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func entry(id, project string, day generic.TimePoint, hours, pay string) payroll.RawTimeEntry {
	return payroll.RawTimeEntry{
		ID:         id,
		EmployeeID: "emp-1",
		ProjectID:  generic.ProjectID(project),
		EntryDate:  day,
		Hours:      dec(hours),
		TotalPay:   dec(pay),
	}
}

func overtimeRules() payroll.RuleSet {
	rules := payroll.DefaultRuleSet()
	rules.OvertimeEnabled = true
	return rules
}

func bucketSum(a payroll.AllocatedEntry) decimal.Decimal {
	return a.RegularHours.Add(a.DailyOvertimeHours).Add(a.WeeklyOvertimeHours).Add(a.DoubleTimeHours)
}

var monday = generic.NewTimePoint(2025, time.March, 3)

// =============================================================================
// BASELINE
// =============================================================================

func TestAllocate_OvertimeDisabled_AllRegular(t *testing.T) {
	// GIVEN: Overtime is disabled and a 12h day
	// WHEN: Allocating
	// THEN: Every hour is regular and pay is unchanged

	entries := []payroll.RawTimeEntry{
		entry("e1", "A", monday, "12", "240"),
		{ID: "e2", EmployeeID: "emp-1", EntryDate: monday, Hours: dec("3"), EmployeeBaseRate: dec("15")},
	}

	out := payroll.Allocate(entries, payroll.DefaultRuleSet(), true)

	require.Len(t, out, 2)
	assertDecimal(t, "12", out[0].RegularHours)
	assertDecimal(t, "0", out[0].DailyOvertimeHours)
	assertDecimal(t, "20", out[0].BaseRate)
	assertDecimal(t, "240", out[0].AdjustedPay)

	assertDecimal(t, "3", out[1].RegularHours)
	// Falls back to the employee rate when the entry carries no pay.
	assertDecimal(t, "15", out[1].BaseRate)
	assertDecimal(t, "45", out[1].AdjustedPay)
}

func TestAllocate_IncludeOvertimeFalse_AllRegular(t *testing.T) {
	entries := []payroll.RawTimeEntry{entry("e1", "A", monday, "10", "200")}

	out := payroll.Allocate(entries, overtimeRules(), false)

	assertDecimal(t, "10", out[0].RegularHours)
	assertDecimal(t, "200", out[0].AdjustedPay)
}

func TestAllocate_MissingRate_ZeroPay(t *testing.T) {
	entries := []payroll.RawTimeEntry{{EmployeeID: "emp-1", EntryDate: monday, Hours: dec("4")}}

	out := payroll.Allocate(entries, overtimeRules(), true)

	assertDecimal(t, "0", out[0].BaseRate)
	assertDecimal(t, "0", out[0].AdjustedPay)
	assertDecimal(t, "4", out[0].RegularHours)
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	entries := []payroll.RawTimeEntry{
		entry("e1", "A", monday, "6", "120"),
		entry("e2", "B", monday, "6", "120"),
	}
	before := make([]payroll.RawTimeEntry, len(entries))
	copy(before, entries)

	_ = payroll.Allocate(entries, overtimeRules(), true)

	assert.Equal(t, before, entries)
}

// =============================================================================
// DAILY PASS
// =============================================================================

func TestAllocate_DailyOvertime_SplitAcrossProjects(t *testing.T) {
	// GIVEN: Daily threshold 8h at 1.5x, two 5h entries on one day, $20/h
	// WHEN: Allocating
	// THEN: 2h of overtime is split 1h/1h and each entry pays 20*(4+1*1.5)

	rules := overtimeRules()
	rules.OvertimeWeeklyThreshold = nil

	entries := []payroll.RawTimeEntry{
		entry("e1", "A", monday, "5", "100"),
		entry("e2", "B", monday, "5", "100"),
	}

	out := payroll.Allocate(entries, rules, true)

	for _, a := range out {
		assertDecimal(t, "4", a.RegularHours)
		assertDecimal(t, "1", a.DailyOvertimeHours)
		assertDecimal(t, "0", a.WeeklyOvertimeHours)
		assertDecimal(t, "110", a.AdjustedPay)
	}
}

func TestAllocate_DoubleTime(t *testing.T) {
	// GIVEN: Daily OT over 8h, double-time over 12h, a 14h day at $10/h
	// WHEN: Allocating
	// THEN: 8 regular, 4 overtime, 2 double-time

	rules := overtimeRules()
	rules.DoubleTimeEnabled = true
	rules.OvertimeWeeklyThreshold = nil

	out := payroll.Allocate([]payroll.RawTimeEntry{entry("e1", "A", monday, "14", "140")}, rules, true)

	assertDecimal(t, "8", out[0].RegularHours)
	assertDecimal(t, "4", out[0].DailyOvertimeHours)
	assertDecimal(t, "2", out[0].DoubleTimeHours)
	// 10 * (8 + 4*1.5 + 2*2)
	assertDecimal(t, "180", out[0].AdjustedPay)
}

func TestAllocate_DoubleTimeWithoutOvertime_NotComputed(t *testing.T) {
	rules := payroll.DefaultRuleSet()
	rules.DoubleTimeEnabled = true

	out := payroll.Allocate([]payroll.RawTimeEntry{entry("e1", "A", monday, "14", "140")}, rules, true)

	assertDecimal(t, "14", out[0].RegularHours)
	assertDecimal(t, "0", out[0].DoubleTimeHours)
	assertDecimal(t, "140", out[0].AdjustedPay)
}

func TestAllocate_MissingDate_StaysRegular(t *testing.T) {
	rules := overtimeRules()

	out := payroll.Allocate([]payroll.RawTimeEntry{entry("e1", "A", generic.TimePoint{}, "13", "130")}, rules, true)

	assertDecimal(t, "13", out[0].RegularHours)
	assertDecimal(t, "0", out[0].DailyOvertimeHours)
	assertDecimal(t, "130", out[0].AdjustedPay)
}

func TestAllocate_ZeroHourEntry_ReceivesNothing(t *testing.T) {
	rules := overtimeRules()
	rules.OvertimeWeeklyThreshold = nil

	entries := []payroll.RawTimeEntry{
		entry("e1", "A", monday, "10", "100"),
		entry("e2", "B", monday, "0", "0"),
	}

	out := payroll.Allocate(entries, rules, true)

	assertDecimal(t, "2", out[0].DailyOvertimeHours)
	assertDecimal(t, "0", out[1].DailyOvertimeHours)
	assertDecimal(t, "0", out[1].RegularHours)
}

// =============================================================================
// WEEKLY PASS
// =============================================================================

func TestAllocate_WeeklyOvertime_FiveNineHourDays(t *testing.T) {
	// GIVEN: Daily threshold 10h (never hit), weekly 40h, 5 x 9h
	// WHEN: Allocating
	// THEN: 5h weekly overtime, 1h moved from each day

	rules := overtimeRules()
	rules.OvertimeDailyThreshold = payroll.Threshold(10)

	var entries []payroll.RawTimeEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, entry("e", "A", monday.AddDays(i), "9", "180"))
	}

	out := payroll.Allocate(entries, rules, true)

	total := decimal.Zero
	for _, a := range out {
		assertDecimal(t, "8", a.RegularHours)
		assertDecimal(t, "0", a.DailyOvertimeHours)
		assertDecimal(t, "1", a.WeeklyOvertimeHours)
		assertDecimal(t, "190", a.AdjustedPay)
		total = total.Add(a.WeeklyOvertimeHours)
	}
	assertDecimal(t, "5", total)
}

func TestAllocate_WeeklyUsesRegularAfterDailyPass(t *testing.T) {
	// GIVEN: Daily 8h, weekly 40h, four 12h days and one 4h day
	// WHEN: Allocating
	// THEN: Daily OT takes 16h; remaining 36h regular is under 40h, no weekly OT

	rules := overtimeRules()

	entries := []payroll.RawTimeEntry{
		entry("e1", "A", monday, "12", "120"),
		entry("e2", "A", monday.AddDays(1), "12", "120"),
		entry("e3", "A", monday.AddDays(2), "12", "120"),
		entry("e4", "A", monday.AddDays(3), "12", "120"),
		entry("e5", "A", monday.AddDays(4), "4", "40"),
	}

	out := payroll.Allocate(entries, rules, true)

	for _, a := range out[:4] {
		assertDecimal(t, "8", a.RegularHours)
		assertDecimal(t, "4", a.DailyOvertimeHours)
	}
	for _, a := range out {
		assertDecimal(t, "0", a.WeeklyOvertimeHours)
	}
}

func TestAllocate_WeekBoundaryFollowsStartWeekday(t *testing.T) {
	// GIVEN: Weeks start Monday; 30h on Sunday and 30h on the next Monday
	// WHEN: Allocating with a 40h weekly threshold and no daily cap
	// THEN: The hours fall in different weeks and nothing is overtime

	rules := overtimeRules()
	rules.OvertimeDailyThreshold = nil

	sunday := monday.AddDays(6)
	entries := []payroll.RawTimeEntry{
		entry("e1", "A", sunday, "30", "300"),
		entry("e2", "A", sunday.AddDays(1), "30", "300"),
	}

	out := payroll.Allocate(entries, rules, true)
	assertDecimal(t, "0", out[0].WeeklyOvertimeHours)
	assertDecimal(t, "0", out[1].WeeklyOvertimeHours)

	// With Sunday-start weeks, both days share a week: 60 - 40 = 20h.
	rules.PayPeriodStartWeekday = time.Sunday
	out = payroll.Allocate(entries, rules, true)
	assertDecimal(t, "20", out[0].WeeklyOvertimeHours.Add(out[1].WeeklyOvertimeHours))
	assertDecimal(t, "10", out[0].WeeklyOvertimeHours)
}

// =============================================================================
// CONSERVATION
// =============================================================================

func TestAllocate_BucketsSumToHours(t *testing.T) {
	// GIVEN: Uneven hours that do not divide cleanly
	// WHEN: Allocating with daily, weekly and double-time rules
	// THEN: Every entry's buckets add back up to its hours

	rules := overtimeRules()
	rules.DoubleTimeEnabled = true
	rules.OvertimeWeeklyThreshold = payroll.Threshold(20)

	entries := []payroll.RawTimeEntry{
		entry("e1", "A", monday, "3.3", "33"),
		entry("e2", "B", monday, "4.7", "47"),
		entry("e3", "C", monday, "5.1", "51"),
		entry("e4", "A", monday.AddDays(1), "7.77", "77.7"),
		entry("e5", "B", monday.AddDays(1), "2.9", "29"),
		entry("e6", "A", monday.AddDays(2), "1", "10"),
	}

	out := payroll.Allocate(entries, rules, true)

	tolerance := dec("0.000001")
	for i, a := range out {
		diff := bucketSum(a).Sub(entries[i].Hours).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance), "entry %d: buckets %s vs hours %s", i, bucketSum(a), entries[i].Hours)
		assert.False(t, a.RegularHours.IsNegative())
	}
}

func TestDistribute_ConservesPool(t *testing.T) {
	pool := dec("1")
	basis := []decimal.Decimal{dec("3"), dec("3"), dec("3")}

	shares := payroll.Distribute(pool, basis)

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	assert.True(t, sum.Equal(pool), "shares must add up to the pool exactly, got %s", sum)
}

func TestDistribute_SkipsZeroBasis(t *testing.T) {
	shares := payroll.Distribute(dec("6"), []decimal.Decimal{dec("0"), dec("2"), dec("4"), dec("0")})

	assertDecimal(t, "0", shares[0])
	assertDecimal(t, "2", shares[1])
	assertDecimal(t, "4", shares[2])
	assertDecimal(t, "0", shares[3])
}

func TestDistribute_NothingToDistribute(t *testing.T) {
	for _, tc := range []struct {
		name  string
		pool  string
		basis []decimal.Decimal
	}{
		{"zero pool", "0", []decimal.Decimal{dec("1")}},
		{"negative pool", "-1", []decimal.Decimal{dec("1")}},
		{"zero basis", "5", []decimal.Decimal{dec("0"), dec("0")}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, s := range payroll.Distribute(dec(tc.pool), tc.basis) {
				assert.True(t, s.IsZero())
			}
		})
	}
}
