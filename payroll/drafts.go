package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// BUILD OPTIONS
// =============================================================================

// CustomLine is a manually added line for one employee's check
// (a bonus, a reimbursement). It is appended after the project lines.
type CustomLine struct {
	EmployeeID         generic.EmployeeID
	Description        string
	Amount             decimal.Decimal
	Hours              decimal.Decimal
	ExpenseAccountName string
	ClassName          string
}

// LineOverride replaces the ledger coding of one project line.
// Empty fields leave the line unchanged.
type LineOverride struct {
	EmployeeID         generic.EmployeeID
	ProjectID          generic.ProjectID
	ExpenseAccountName string
	Description        string
	ClassName          string
}

type BuildOptions struct {
	ExcludeEmployeeIDs []generic.EmployeeID
	IncludeOvertime    bool
	CustomLines        []CustomLine
	Overrides          []LineOverride
}

// =============================================================================
// DRAFT BUILDER
// =============================================================================

// DraftBuilder groups payable time entries into one check draft per employee.
type DraftBuilder struct {
	source EntrySource
	log    *zap.Logger
}

func NewDraftBuilder(source EntrySource, log *zap.Logger) *DraftBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &DraftBuilder{source: source, log: log.Named("payroll.drafts")}
}

// draftAccumulator collects one employee's rows before allocation.
type draftAccumulator struct {
	draft    CheckDraft
	entries  []RawTimeEntry
	lines    map[generic.ProjectID]int
	projects map[generic.ProjectID]string
}

// BuildDrafts fetches payable entries for the period and returns one draft
// per employee, in the order employees first appear in the source. An empty
// period yields an empty, non-nil slice.
func (b *DraftBuilder) BuildDrafts(ctx context.Context, period generic.Period, rules RuleSet, opts BuildOptions) ([]CheckDraft, error) {
	rows, err := b.source.ListPayableEntries(ctx, period, opts.ExcludeEmployeeIDs)
	if err != nil {
		return nil, fmt.Errorf("list payable entries: %w", err)
	}

	excluded := make(map[generic.EmployeeID]bool, len(opts.ExcludeEmployeeIDs))
	for _, id := range opts.ExcludeEmployeeIDs {
		excluded[id] = true
	}

	var order []generic.EmployeeID
	byEmployee := make(map[generic.EmployeeID]*draftAccumulator)
	for _, row := range rows {
		id := row.Entry.EmployeeID
		if id == "" || excluded[id] {
			continue
		}
		acc, ok := byEmployee[id]
		if !ok {
			acc = &draftAccumulator{
				draft: CheckDraft{
					EmployeeID:  id,
					DisplayName: row.DisplayName(),
					Payee:       row.Payee,
				},
				lines:    make(map[generic.ProjectID]int),
				projects: make(map[generic.ProjectID]string),
			}
			byEmployee[id] = acc
			order = append(order, id)
		}
		acc.entries = append(acc.entries, sanitize(row.Entry))
		if _, seen := acc.projects[row.Entry.ProjectID]; !seen {
			acc.projects[row.Entry.ProjectID] = row.ProjectName
		}
	}

	drafts := make([]CheckDraft, 0, len(order))
	for _, id := range order {
		drafts = append(drafts, b.emit(byEmployee[id], rules, opts.IncludeOvertime))
	}

	drafts = b.applyCustomLines(drafts, opts.CustomLines)
	applyOverrides(drafts, opts.Overrides)

	b.log.Debug("built drafts",
		zap.String("period", period.String()),
		zap.Int("rows", len(rows)),
		zap.Int("drafts", len(drafts)))
	return drafts, nil
}

// emit allocates one employee's entries and folds them into project lines.
func (b *DraftBuilder) emit(acc *draftAccumulator, rules RuleSet, includeOvertime bool) CheckDraft {
	d := acc.draft
	totalHours := decimal.Zero
	totalPay := decimal.Zero

	for _, a := range Allocate(acc.entries, rules, includeOvertime) {
		totalHours = totalHours.Add(a.Hours)
		totalPay = totalPay.Add(a.AdjustedPay)
		if a.ID != "" {
			d.EntryIDs = append(d.EntryIDs, a.ID)
		}

		pos, ok := acc.lines[a.ProjectID]
		if !ok {
			pos = len(d.Lines)
			acc.lines[a.ProjectID] = pos
			d.Lines = append(d.Lines, CheckDraftLine{
				ProjectID:   a.ProjectID,
				ProjectName: acc.projects[a.ProjectID],
			})
		}
		d.Lines[pos].ProjectHours = d.Lines[pos].ProjectHours.Add(a.Hours)
		d.Lines[pos].ProjectPay = d.Lines[pos].ProjectPay.Add(a.AdjustedPay)
	}

	for i := range d.Lines {
		d.Lines[i].ProjectHours = generic.RoundCurrency(d.Lines[i].ProjectHours)
		d.Lines[i].ProjectPay = generic.RoundCurrency(d.Lines[i].ProjectPay)
	}
	d.TotalHours = generic.RoundCurrency(totalHours)
	d.TotalPay = generic.RoundCurrency(totalPay)
	return d
}

// sanitize absorbs data errors: negative values are treated as zero.
func sanitize(e RawTimeEntry) RawTimeEntry {
	if e.Hours.IsNegative() {
		e.Hours = decimal.Zero
	}
	if e.TotalPay.IsNegative() {
		e.TotalPay = decimal.Zero
	}
	if e.EmployeeBaseRate.IsNegative() {
		e.EmployeeBaseRate = decimal.Zero
	}
	return e
}

// =============================================================================
// AUGMENTATION
// =============================================================================

func (b *DraftBuilder) applyCustomLines(drafts []CheckDraft, custom []CustomLine) []CheckDraft {
	if len(custom) == 0 {
		return drafts
	}
	index := make(map[generic.EmployeeID]int, len(drafts))
	for i, d := range drafts {
		index[d.EmployeeID] = i
	}

	for _, c := range custom {
		i, ok := index[c.EmployeeID]
		if !ok {
			b.log.Warn("custom line for employee without payable time",
				zap.String("employee_id", string(c.EmployeeID)),
				zap.String("description", c.Description))
			continue
		}
		amount := generic.RoundCurrency(c.Amount)
		drafts[i].Lines = append(drafts[i].Lines, CheckDraftLine{
			ProjectID:          generic.NoProject,
			ProjectName:        c.Description,
			ProjectHours:       generic.RoundCurrency(c.Hours),
			ProjectPay:         amount,
			IsCustom:           true,
			ExpenseAccountName: c.ExpenseAccountName,
			Description:        c.Description,
			ClassName:          c.ClassName,
		})
		drafts[i].TotalPay = drafts[i].TotalPay.Add(amount)
	}
	return drafts
}

func applyOverrides(drafts []CheckDraft, overrides []LineOverride) {
	for _, o := range overrides {
		for i := range drafts {
			if drafts[i].EmployeeID != o.EmployeeID {
				continue
			}
			for j := range drafts[i].Lines {
				line := &drafts[i].Lines[j]
				if line.IsCustom || line.ProjectID != o.ProjectID {
					continue
				}
				if o.ExpenseAccountName != "" {
					line.ExpenseAccountName = o.ExpenseAccountName
				}
				if o.Description != "" {
					line.Description = o.Description
				}
				if o.ClassName != "" {
					line.ClassName = o.ClassName
				}
			}
		}
	}
}

// FilterDrafts keeps only the listed employees. An empty list keeps all.
func FilterDrafts(drafts []CheckDraft, only []generic.EmployeeID) []CheckDraft {
	if len(only) == 0 {
		return drafts
	}
	keep := make(map[generic.EmployeeID]bool, len(only))
	for _, id := range only {
		keep[id] = true
	}
	out := make([]CheckDraft, 0, len(only))
	for _, d := range drafts {
		if keep[d.EmployeeID] {
			out = append(out, d)
		}
	}
	return out
}
