package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// OVERTIME ALLOCATOR
// =============================================================================

// Allocate splits each entry's hours into regular, daily overtime, weekly
// overtime and double-time buckets and recomputes pay. Entries are expected
// to belong to one employee. The input slice is not modified.
//
// Passes:
//  1. Baseline: everything regular, pay = BaseRate x Hours.
//  2. Daily: per entry date, hours over the double-time threshold become
//     double-time, then hours over the daily threshold become overtime.
//  3. Weekly: per pay week, regular hours over the weekly threshold become
//     weekly overtime.
//  4. Final: pay is recomputed from the buckets and multipliers.
//
// Passes 2-4 only run when overtime is enabled and includeOvertime is true.
// Entries without a date stay fully regular.
func Allocate(entries []RawTimeEntry, rules RuleSet, includeOvertime bool) []AllocatedEntry {
	out := make([]AllocatedEntry, len(entries))
	for i, e := range entries {
		out[i] = baseline(e)
	}

	if !rules.OvertimeEnabled || !includeOvertime {
		return out
	}

	allocateDaily(out, rules)
	if rules.OvertimeWeeklyThreshold != nil {
		allocateWeekly(out, rules)
	}

	for i := range out {
		out[i].AdjustedPay = adjustedPay(out[i], rules)
	}
	return out
}

func baseline(e RawTimeEntry) AllocatedEntry {
	if e.Hours.IsNegative() {
		e.Hours = decimal.Zero
	}
	a := AllocatedEntry{
		RawTimeEntry: e,
		BaseRate:     baseRate(e),
		RegularHours: e.Hours,
	}
	a.AdjustedPay = generic.RoundCurrency(a.BaseRate.Mul(e.Hours))
	return a
}

// baseRate is TotalPay/Hours when that is positive, else the employee's rate.
func baseRate(e RawTimeEntry) decimal.Decimal {
	if e.Hours.IsPositive() {
		rate := e.TotalPay.Div(e.Hours)
		if rate.IsPositive() {
			return rate
		}
	}
	if e.EmployeeBaseRate.IsPositive() {
		return e.EmployeeBaseRate
	}
	return decimal.Zero
}

func adjustedPay(a AllocatedEntry, rules RuleSet) decimal.Decimal {
	units := a.RegularHours.
		Add(a.OvertimeHours().Mul(rules.OvertimeMultiplier)).
		Add(a.DoubleTimeHours.Mul(rules.DoubleTimeMultiplier))
	return generic.RoundCurrency(a.BaseRate.Mul(units))
}

// =============================================================================
// DAILY PASS
// =============================================================================

func allocateDaily(out []AllocatedEntry, rules RuleSet) {
	for _, idx := range groupIndexes(out, func(e AllocatedEntry) string { return e.EntryDate.Key() }) {
		total := decimal.Zero
		basis := make([]decimal.Decimal, len(idx))
		for j, i := range idx {
			basis[j] = out[i].Hours
			total = total.Add(out[i].Hours)
		}

		dayBase := total
		doubleTime := decimal.Zero
		if rules.DoubleTimeActive() {
			doubleTime = decimal.Max(decimal.Zero, total.Sub(*rules.DoubleTimeDailyThreshold))
			dayBase = generic.MinDecimal(total, *rules.DoubleTimeDailyThreshold)
		}

		dailyOT := decimal.Zero
		if rules.OvertimeDailyThreshold != nil {
			dailyOT = decimal.Max(decimal.Zero, dayBase.Sub(*rules.OvertimeDailyThreshold))
		}

		for j, share := range Distribute(doubleTime, basis) {
			out[idx[j]].DoubleTimeHours = out[idx[j]].DoubleTimeHours.Add(share)
		}
		for j, share := range Distribute(dailyOT, basis) {
			out[idx[j]].DailyOvertimeHours = out[idx[j]].DailyOvertimeHours.Add(share)
		}

		for _, i := range idx {
			regular := out[i].Hours.Sub(out[i].DoubleTimeHours).Sub(out[i].DailyOvertimeHours)
			out[i].RegularHours = decimal.Max(decimal.Zero, regular)
		}
	}
}

// =============================================================================
// WEEKLY PASS
// =============================================================================

func allocateWeekly(out []AllocatedEntry, rules RuleSet) {
	weekKey := func(e AllocatedEntry) string {
		if e.EntryDate.IsZero() {
			return ""
		}
		return e.EntryDate.WeekStart(rules.PayPeriodStartWeekday).Key()
	}

	for _, idx := range groupIndexes(out, weekKey) {
		regularTotal := decimal.Zero
		basis := make([]decimal.Decimal, len(idx))
		for j, i := range idx {
			basis[j] = out[i].RegularHours
			regularTotal = regularTotal.Add(out[i].RegularHours)
		}

		weeklyOT := decimal.Max(decimal.Zero, regularTotal.Sub(*rules.OvertimeWeeklyThreshold))
		for j, share := range Distribute(weeklyOT, basis) {
			i := idx[j]
			out[i].RegularHours = out[i].RegularHours.Sub(share)
			out[i].WeeklyOvertimeHours = out[i].WeeklyOvertimeHours.Add(share)
		}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Distribute splits pool across entries in proportion to basis. Every
// positive-basis entry but the last gets pool*b/sum(b); the last one gets
// the remainder, so the shares always add up to pool exactly. Entries with
// a zero or negative basis get nothing. Nothing is distributed when pool or
// the basis total is not positive.
func Distribute(pool decimal.Decimal, basis []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(basis))
	if !pool.IsPositive() {
		return shares
	}

	total := decimal.Zero
	last := -1
	for i, b := range basis {
		if b.IsPositive() {
			total = total.Add(b)
			last = i
		}
	}
	if !total.IsPositive() {
		return shares
	}

	assigned := decimal.Zero
	for i, b := range basis {
		if !b.IsPositive() {
			continue
		}
		if i == last {
			shares[i] = pool.Sub(assigned)
			break
		}
		shares[i] = pool.Mul(b).Div(total)
		assigned = assigned.Add(shares[i])
	}
	return shares
}

// groupIndexes groups entry positions by key in first-seen order. Entries
// with an empty key are left out.
func groupIndexes(entries []AllocatedEntry, key func(AllocatedEntry) string) [][]int {
	var order []string
	groups := make(map[string][]int)
	for i, e := range entries {
		k := key(e)
		if k == "" {
			continue
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	out := make([][]int, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}
