package ledger

import (
	"strings"

	"github.com/warp/payroll-engine/payroll"
)

// DefaultMemoTemplate is used when the batch config has no template.
const DefaultMemoTemplate = "Payroll {period_start} to {period_end} - {employee}"

// RenderMemo fills the memo template for one draft. Supported placeholders:
// {employee}, {employee_id}, {period_start}, {period_end}, {hours}, {amount}.
func RenderMemo(template string, draft payroll.CheckDraft, cfg SubmitConfig) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultMemoTemplate
	}
	r := strings.NewReplacer(
		"{employee}", draft.DisplayName,
		"{employee_id}", string(draft.EmployeeID),
		"{period_start}", cfg.Period.Start.String(),
		"{period_end}", cfg.Period.End.String(),
		"{hours}", draft.TotalHours.StringFixed(2),
		"{amount}", draft.TotalPay.StringFixed(2),
	)
	return strings.TrimSpace(r.Replace(template))
}

// AuditTag is appended to every memo so a check on the ledger can be traced
// back to the run that created it.
func AuditTag(cfg SubmitConfig, key string) string {
	parts := []string{"run:" + string(cfg.RunID)}
	if reason := strings.TrimSpace(cfg.AdjustmentReason); reason != "" {
		parts = append(parts, "reason:"+reason)
	}
	parts = append(parts, "key:"+key)
	return "[" + strings.Join(parts, " ") + "]"
}

func memoFor(draft payroll.CheckDraft, cfg SubmitConfig, key string) string {
	return RenderMemo(cfg.MemoTemplate, draft, cfg) + " " + AuditTag(cfg, key)
}
