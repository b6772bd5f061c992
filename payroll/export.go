package payroll

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// RegisterRow is one line of the payroll register CSV.
type RegisterRow struct {
	EmployeeID  string `csv:"employee_id"`
	DisplayName string `csv:"display_name"`
	Payee       string `csv:"payee"`
	ProjectID   string `csv:"project_id"`
	ProjectName string `csv:"project"`
	Description string `csv:"description"`
	Account     string `csv:"expense_account"`
	Class       string `csv:"class"`
	Custom      bool   `csv:"custom"`
	Hours       string `csv:"hours"`
	Amount      string `csv:"amount"`
	CheckTotal  string `csv:"check_total"`
}

// RegisterRows flattens drafts into one row per check line.
func RegisterRows(drafts []CheckDraft) []*RegisterRow {
	var rows []*RegisterRow
	for _, d := range drafts {
		for _, l := range d.Lines {
			rows = append(rows, &RegisterRow{
				EmployeeID:  string(d.EmployeeID),
				DisplayName: d.DisplayName,
				Payee:       d.Payee.String(),
				ProjectID:   string(l.ProjectID),
				ProjectName: l.ProjectName,
				Description: l.Description,
				Account:     l.ExpenseAccountName,
				Class:       l.ClassName,
				Custom:      l.IsCustom,
				Hours:       l.ProjectHours.StringFixed(2),
				Amount:      l.ProjectPay.StringFixed(2),
				CheckTotal:  d.TotalPay.StringFixed(2),
			})
		}
	}
	return rows
}

// WriteRegisterCSV writes the payroll register for drafts to w. The header
// row is written even when there are no drafts.
func WriteRegisterCSV(w io.Writer, drafts []CheckDraft) error {
	rows := RegisterRows(drafts)
	if rows == nil {
		rows = []*RegisterRow{}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write register: %w", err)
	}
	return nil
}
