/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll domain model from the external API contract. Money and hours
  are rendered as fixed two-decimal strings so clients never see float
  rounding artefacts.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Payroll:
    PayrollRequest, CustomLineRequest, OverrideRequest
    DraftDTO, DraftLineDTO, PreviewResponse, SnapshotDTO

  Submission:
    SubmitResponse, CheckResultDTO, PreviewDraftDTO

  Runs:
    RunDTO, RunDetailDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: RulesJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/runner"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// PayrollRequest is the body of preview, snapshot and submit.
type PayrollRequest struct {
	PeriodStart        string              `json:"period_start"`
	PeriodEnd          string              `json:"period_end"`
	ExcludeEmployeeIDs []string            `json:"exclude_employee_ids,omitempty"`
	OnlyEmployeeIDs    []string            `json:"only_employee_ids,omitempty"`
	IncludeOvertime    *bool               `json:"include_overtime,omitempty"` // default true
	CustomLines        []CustomLineRequest `json:"custom_lines,omitempty"`
	Overrides          []OverrideRequest   `json:"overrides,omitempty"`
	AdjustmentReason   string              `json:"adjustment_reason,omitempty"`
	TxnDate            string              `json:"txn_date,omitempty"`
	Force              bool                `json:"force,omitempty"`
}

type CustomLineRequest struct {
	EmployeeID         string          `json:"employee_id"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Hours              decimal.Decimal `json:"hours"`
	ExpenseAccountName string          `json:"expense_account,omitempty"`
	ClassName          string          `json:"class,omitempty"`
}

type OverrideRequest struct {
	EmployeeID         string `json:"employee_id"`
	ProjectID          string `json:"project_id"`
	ExpenseAccountName string `json:"expense_account,omitempty"`
	Description        string `json:"description,omitempty"`
	ClassName          string `json:"class,omitempty"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type DraftLineDTO struct {
	ProjectID      string `json:"project_id"`
	ProjectName    string `json:"project_name"`
	Hours          string `json:"hours"`
	Amount         string `json:"amount"`
	Custom         bool   `json:"custom,omitempty"`
	ExpenseAccount string `json:"expense_account,omitempty"`
	Description    string `json:"description,omitempty"`
	Class          string `json:"class,omitempty"`
}

type DraftDTO struct {
	EmployeeID  string         `json:"employee_id"`
	DisplayName string         `json:"display_name"`
	Payee       string         `json:"payee,omitempty"`
	TotalHours  string         `json:"total_hours"`
	TotalPay    string         `json:"total_pay"`
	Lines       []DraftLineDTO `json:"lines"`
}

type SnapshotDTO struct {
	Hash  string `json:"hash"`
	Count int    `json:"count"`
}

// CheckResultDTO is one employee's ledger outcome.
type CheckResultDTO struct {
	EmployeeID    string   `json:"employee_id"`
	DisplayName   string   `json:"display_name"`
	Amount        string   `json:"amount"`
	OK            bool     `json:"ok"`
	Previewed     bool     `json:"previewed,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
	Memo          string   `json:"memo,omitempty"`
	Error         string   `json:"error,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// PreviewDraftDTO is a draft annotated for display when the ledger is not
// connected.
type PreviewDraftDTO struct {
	Draft          DraftDTO `json:"draft"`
	ExpenseAccount string   `json:"expense_account"`
	BankAccount    string   `json:"bank_account"`
	Memo           string   `json:"memo"`
}

// LedgerDTO mirrors ledger.Outcome.
type LedgerDTO struct {
	OK         bool              `json:"ok"`
	Connected  bool              `json:"connected"`
	Reason     string            `json:"reason,omitempty"`
	Preview    []PreviewDraftDTO `json:"preview,omitempty"`
	Results    []CheckResultDTO  `json:"results"`
	FatalError string            `json:"fatal_error,omitempty"`
}

type PreviewResponse struct {
	Rules    any         `json:"rules"`
	Drafts   []DraftDTO  `json:"drafts"`
	Snapshot SnapshotDTO `json:"snapshot"`
	Ledger   LedgerDTO   `json:"ledger"`
}

type SubmitResponse struct {
	Run      *RunDTO     `json:"run,omitempty"`
	Snapshot SnapshotDTO `json:"snapshot"`
	Ledger   LedgerDTO   `json:"ledger"`
}

type RunDTO struct {
	ID               string `json:"id"`
	PeriodStart      string `json:"period_start"`
	PeriodEnd        string `json:"period_end"`
	SnapshotHash     string `json:"snapshot_hash"`
	BatchKey         string `json:"batch_key,omitempty"`
	CheckCount       int    `json:"check_count"`
	Status           string `json:"status"`
	FatalError       string `json:"fatal_error,omitempty"`
	AdjustmentReason string `json:"adjustment_reason,omitempty"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`
	CreatedAt        string `json:"created_at"`
}

type RunCheckDTO struct {
	EmployeeID    string   `json:"employee_id"`
	DisplayName   string   `json:"display_name"`
	TotalHours    string   `json:"total_hours"`
	TotalPay      string   `json:"total_pay"`
	OK            bool     `json:"ok"`
	TransactionID string   `json:"transaction_id,omitempty"`
	Error         string   `json:"error,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

type RunDetailDTO struct {
	RunDTO
	Checks []RunCheckDTO `json:"checks"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) string { return d.StringFixed(generic.CurrencyPlaces) }

func (req PayrollRequest) toRunner() (runner.Request, error) {
	period, err := generic.ParsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return runner.Request{}, err
	}

	out := runner.Request{
		Period:             period,
		ExcludeEmployeeIDs: employeeIDs(req.ExcludeEmployeeIDs),
		OnlyEmployeeIDs:    employeeIDs(req.OnlyEmployeeIDs),
		IncludeOvertime:    req.IncludeOvertime == nil || *req.IncludeOvertime,
		AdjustmentReason:   req.AdjustmentReason,
		Force:              req.Force,
	}
	if req.TxnDate != "" {
		out.TxnDate, err = generic.ParseDay(req.TxnDate)
		if err != nil {
			return runner.Request{}, err
		}
	}
	for _, c := range req.CustomLines {
		out.CustomLines = append(out.CustomLines, payroll.CustomLine{
			EmployeeID:         generic.EmployeeID(c.EmployeeID),
			Description:        c.Description,
			Amount:             c.Amount,
			Hours:              c.Hours,
			ExpenseAccountName: c.ExpenseAccountName,
			ClassName:          c.ClassName,
		})
	}
	for _, o := range req.Overrides {
		out.Overrides = append(out.Overrides, payroll.LineOverride{
			EmployeeID:         generic.EmployeeID(o.EmployeeID),
			ProjectID:          generic.ProjectID(o.ProjectID),
			ExpenseAccountName: o.ExpenseAccountName,
			Description:        o.Description,
			ClassName:          o.ClassName,
		})
	}
	return out, nil
}

func employeeIDs(ids []string) []generic.EmployeeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]generic.EmployeeID, len(ids))
	for i, id := range ids {
		out[i] = generic.EmployeeID(id)
	}
	return out
}

func toDraftDTO(d payroll.CheckDraft) DraftDTO {
	dto := DraftDTO{
		EmployeeID:  string(d.EmployeeID),
		DisplayName: d.DisplayName,
		Payee:       d.Payee.String(),
		TotalHours:  money(d.TotalHours),
		TotalPay:    money(d.TotalPay),
		Lines:       make([]DraftLineDTO, len(d.Lines)),
	}
	for i, l := range d.Lines {
		dto.Lines[i] = DraftLineDTO{
			ProjectID:      string(l.ProjectID),
			ProjectName:    l.ProjectName,
			Hours:          money(l.ProjectHours),
			Amount:         money(l.ProjectPay),
			Custom:         l.IsCustom,
			ExpenseAccount: l.ExpenseAccountName,
			Description:    l.Description,
			Class:          l.ClassName,
		}
	}
	return dto
}

func toDraftDTOs(drafts []payroll.CheckDraft) []DraftDTO {
	dtos := make([]DraftDTO, len(drafts))
	for i, d := range drafts {
		dtos[i] = toDraftDTO(d)
	}
	return dtos
}

func toLedgerDTO(o ledger.Outcome) LedgerDTO {
	dto := LedgerDTO{
		OK:         o.OK,
		Connected:  o.Connected(),
		Reason:     o.Reason,
		Results:    make([]CheckResultDTO, len(o.Results)),
		FatalError: o.FatalError,
	}
	for i, r := range o.Results {
		dto.Results[i] = CheckResultDTO{
			EmployeeID:    string(r.EmployeeID),
			DisplayName:   r.DisplayName,
			Amount:        money(r.Amount),
			OK:            r.OK,
			Previewed:     r.Previewed,
			TransactionID: r.TransactionID,
			Memo:          r.Memo,
			Error:         r.Error,
			Warnings:      r.Warnings,
		}
	}
	for _, p := range o.Preview {
		dto.Preview = append(dto.Preview, PreviewDraftDTO{
			Draft:          toDraftDTO(p.Draft),
			ExpenseAccount: p.ExpenseAccountName,
			BankAccount:    p.BankAccountName,
			Memo:           p.Memo,
		})
	}
	return dto
}

func toSnapshotDTO(s payroll.SnapshotResult) SnapshotDTO {
	return SnapshotDTO{Hash: s.Hash, Count: s.Count}
}

func toRunDTO(r payroll.Run) RunDTO {
	return RunDTO{
		ID:               string(r.ID),
		PeriodStart:      r.Period.Start.String(),
		PeriodEnd:        r.Period.End.String(),
		SnapshotHash:     r.SnapshotHash,
		BatchKey:         r.BatchKey,
		CheckCount:       r.CheckCount,
		Status:           string(r.Status),
		FatalError:       r.FatalError,
		AdjustmentReason: r.AdjustmentReason,
		IdempotencyKey:   r.IdempotencyKey,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}

func toRunCheckDTOs(checks []payroll.Check) []RunCheckDTO {
	dtos := make([]RunCheckDTO, len(checks))
	for i, c := range checks {
		dtos[i] = RunCheckDTO{
			EmployeeID:    string(c.EmployeeID),
			DisplayName:   c.DisplayName,
			TotalHours:    money(c.TotalHours),
			TotalPay:      money(c.TotalPay),
			OK:            c.OK,
			TransactionID: c.TransactionID,
			Error:         c.Error,
			Warnings:      c.Warnings,
		}
	}
	return dtos
}
