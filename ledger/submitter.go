package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"go.uber.org/zap"
)

// =============================================================================
// BATCH CONFIG AND RESULTS
// =============================================================================

// SubmitConfig holds the batch-level settings for one Submit call.
type SubmitConfig struct {
	// Preview resolves everything but stops before any ledger write.
	Preview bool

	RunID            generic.RunID
	AdjustmentReason string
	IdempotencyKey   string

	// CheckKeys overrides the per-check idempotency key by employee.
	CheckKeys map[generic.EmployeeID]string

	DefaultExpenseAccount string
	BankAccountName       string
	DefaultClassName      string
	MemoTemplate          string

	Period  generic.Period
	TxnDate generic.TimePoint
}

// Result is the outcome for one draft.
type Result struct {
	EmployeeID    generic.EmployeeID
	DisplayName   string
	Amount        decimal.Decimal
	OK            bool
	Previewed     bool
	TransactionID string
	Memo          string
	Error         string
	Warnings      []string
}

// PreviewDraft is a draft annotated for display when the ledger is not
// connected.
type PreviewDraft struct {
	Draft              payroll.CheckDraft
	ExpenseAccountName string
	BankAccountName    string
	Memo               string
}

// Outcome is the result of one Submit call.
//
// When the ledger is not connected, Reason is set, Preview holds every
// draft and Results is empty. Otherwise Results has one entry per draft in
// input order, and FatalError is set if a fatal error stopped the batch.
type Outcome struct {
	OK         bool
	Reason     string
	Preview    []PreviewDraft
	Results    []Result
	FatalError string
}

// Connected reports whether the batch reached the ledger at all.
func (o Outcome) Connected() bool { return o.Reason == "" }

// Recorder receives per-check outcomes, for metrics.
type Recorder interface {
	CheckOutcome(outcome string)
	CheckLatency(elapsed time.Duration)
}

// Check outcomes reported to the Recorder.
const (
	OutcomeCreated    = "created"
	OutcomeRejected   = "rejected"
	OutcomeFatal      = "fatal"
	OutcomeSkipped    = "skipped"
	OutcomeUnresolved = "unresolved"
	OutcomePreviewed  = "previewed"
)

// =============================================================================
// SUBMITTER
// =============================================================================

type Submitter struct {
	connector Connector
	log       *zap.Logger
	recorder  Recorder
}

type Option func(*Submitter)

func WithRecorder(r Recorder) Option {
	return func(s *Submitter) { s.recorder = r }
}

func NewSubmitter(connector Connector, log *zap.Logger, opts ...Option) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Submitter{connector: connector, log: log.Named("ledger.submitter")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit sends one check per draft, in order. It never retries. After a
// fatal error every remaining draft is reported as not sent without calling
// the ledger. The context is only passed to ledger calls; the loop itself
// does not stop early on cancellation.
func (s *Submitter) Submit(ctx context.Context, drafts []payroll.CheckDraft, cfg SubmitConfig) Outcome {
	client, err := s.connector.Connect(ctx)
	if err != nil {
		reason := ErrNotConnected.Error()
		if !errors.Is(err, ErrNotConnected) {
			reason = fmt.Sprintf("%s: %v", reason, err)
		}
		s.log.Warn("ledger unavailable, returning preview", zap.String("reason", reason), zap.Int("drafts", len(drafts)))
		return Outcome{OK: false, Reason: reason, Preview: s.preview(drafts, cfg)}
	}

	res := newResolver(client)
	out := Outcome{Results: make([]Result, 0, len(drafts))}
	allOK := true

	for _, d := range drafts {
		var r Result
		if out.FatalError != "" {
			r = Result{
				EmployeeID:  d.EmployeeID,
				DisplayName: d.DisplayName,
				Amount:      d.TotalPay,
				Error:       "not sent because of previous error: " + out.FatalError,
			}
			s.record(OutcomeSkipped)
		} else {
			var fatal string
			r, fatal = s.submitOne(ctx, client, res, d, cfg)
			if fatal != "" {
				out.FatalError = fatal
			}
		}
		if !r.OK {
			allOK = false
		}
		out.Results = append(out.Results, r)
	}

	out.OK = allOK && out.FatalError == ""
	s.log.Info("batch finished",
		zap.String("run_id", string(cfg.RunID)),
		zap.Bool("preview", cfg.Preview),
		zap.Int("drafts", len(drafts)),
		zap.Int("lookups", res.lookups),
		zap.String("fatal_error", out.FatalError))
	return out
}

// submitOne handles one draft. The second return value is non-empty when the
// failure is fatal for the batch.
func (s *Submitter) submitOne(ctx context.Context, client Client, res *resolver, d payroll.CheckDraft, cfg SubmitConfig) (Result, string) {
	r := Result{EmployeeID: d.EmployeeID, DisplayName: d.DisplayName, Amount: d.TotalPay}
	log := s.log.With(zap.String("employee_id", string(d.EmployeeID)))

	if d.Payee.IsZero() {
		r.Error = "no payee linked to employee"
		s.record(OutcomeUnresolved)
		return r, ""
	}

	key := checkKey(cfg, d.EmployeeID)
	r.Memo = memoFor(d, cfg, key)

	check, unresolved, err := s.buildCheck(ctx, res, d, cfg)
	if err != nil {
		r.Error = "resolve ledger references: " + err.Error()
		if IsFatal(err) {
			s.record(OutcomeFatal)
			log.Error("fatal error resolving references", zap.Error(err))
			return r, err.Error()
		}
		s.record(OutcomeUnresolved)
		return r, ""
	}
	if len(unresolved) > 0 {
		r.Error = "unresolved ledger references: " + strings.Join(unresolved, ", ")
		s.record(OutcomeUnresolved)
		return r, ""
	}
	if len(check.Lines) == 0 {
		r.Error = "no payable lines"
		s.record(OutcomeUnresolved)
		return r, ""
	}

	if cfg.Preview {
		r.OK = true
		r.Previewed = true
		s.record(OutcomePreviewed)
		return r, ""
	}

	r.Warnings = s.syncPayeeName(ctx, client, d)

	check.Memo = r.Memo
	check.IdempotencyKey = key
	check.TxnDate = cfg.TxnDate

	start := time.Now()
	txID, err := client.CreateCheck(ctx, check)
	if s.recorder != nil {
		s.recorder.CheckLatency(time.Since(start))
	}
	if err != nil {
		r.Error = err.Error()
		if IsFatal(err) {
			s.record(OutcomeFatal)
			log.Error("fatal ledger error, stopping batch", zap.Error(err))
			return r, err.Error()
		}
		s.record(OutcomeRejected)
		log.Warn("check rejected", zap.Error(err))
		return r, ""
	}

	r.OK = true
	r.TransactionID = txID
	s.record(OutcomeCreated)
	log.Info("check created",
		zap.String("transaction_id", txID),
		zap.String("amount", check.Total().StringFixed(2)))
	return r, ""
}

// buildCheck resolves every name the check needs. Names the ledger does not
// know are collected rather than failing on the first one.
func (s *Submitter) buildCheck(ctx context.Context, res *resolver, d payroll.CheckDraft, cfg SubmitConfig) (Check, []string, error) {
	var unresolved []string
	seen := make(map[string]bool)
	miss := func(label string) {
		if !seen[label] {
			seen[label] = true
			unresolved = append(unresolved, label)
		}
	}

	check := Check{Payee: d.Payee}

	bankID, err := res.account(ctx, cfg.BankAccountName)
	if err != nil {
		return Check{}, nil, err
	}
	switch {
	case strings.TrimSpace(cfg.BankAccountName) == "":
		miss("bank account (none configured)")
	case bankID == "":
		miss(fmt.Sprintf("bank account %q", cfg.BankAccountName))
	}
	check.BankAccountID = bankID

	for _, line := range d.Lines {
		if !line.ProjectPay.IsPositive() {
			continue
		}

		accountName := firstNonEmpty(line.ExpenseAccountName, cfg.DefaultExpenseAccount)
		accountID, err := res.account(ctx, accountName)
		if err != nil {
			return Check{}, nil, err
		}
		switch {
		case accountName == "":
			miss("expense account (none configured)")
		case accountID == "":
			miss(fmt.Sprintf("account %q", accountName))
		}

		className := firstNonEmpty(line.ClassName, cfg.DefaultClassName)
		classID, err := res.class(ctx, className)
		if err != nil {
			return Check{}, nil, err
		}
		if className != "" && classID == "" {
			miss(fmt.Sprintf("class %q", className))
		}

		check.Lines = append(check.Lines, CheckLine{
			AccountID:   accountID,
			ClassID:     classID,
			Description: firstNonEmpty(line.Description, line.ProjectName, "Payroll"),
			Amount:      generic.RoundCurrency(line.ProjectPay),
		})
	}
	return check, unresolved, nil
}

// syncPayeeName makes the payee's print-on-check name match the draft.
// Failures are warnings; the check is still sent.
func (s *Submitter) syncPayeeName(ctx context.Context, client Client, d payroll.CheckDraft) []string {
	if d.DisplayName == "" {
		return nil
	}
	payee, err := client.GetPayee(ctx, d.Payee)
	if err != nil {
		s.log.Warn("payee lookup failed", zap.String("payee", d.Payee.String()), zap.Error(err))
		return []string{"could not read payee to sync name: " + err.Error()}
	}
	if payee.PrintOnCheckName == d.DisplayName {
		return nil
	}
	if err := client.UpdatePayeeName(ctx, payee, d.DisplayName); err != nil {
		s.log.Warn("payee name sync failed", zap.String("payee", d.Payee.String()), zap.Error(err))
		return []string{"could not sync payee name: " + err.Error()}
	}
	return nil
}

// preview annotates drafts for display without touching the ledger.
func (s *Submitter) preview(drafts []payroll.CheckDraft, cfg SubmitConfig) []PreviewDraft {
	out := make([]PreviewDraft, 0, len(drafts))
	for _, d := range drafts {
		account := cfg.DefaultExpenseAccount
		for _, l := range d.Lines {
			if l.ExpenseAccountName != "" {
				account = l.ExpenseAccountName
				break
			}
		}
		out = append(out, PreviewDraft{
			Draft:              d,
			ExpenseAccountName: account,
			BankAccountName:    cfg.BankAccountName,
			Memo:               memoFor(d, cfg, checkKey(cfg, d.EmployeeID)),
		})
	}
	return out
}

func (s *Submitter) record(outcome string) {
	if s.recorder != nil {
		s.recorder.CheckOutcome(outcome)
	}
}

// checkKey is the per-check idempotency key sent to the ledger.
func checkKey(cfg SubmitConfig, employee generic.EmployeeID) string {
	if key, ok := cfg.CheckKeys[employee]; ok && key != "" {
		return key
	}
	base := cfg.IdempotencyKey
	if base == "" {
		base = string(cfg.RunID)
	}
	return base + "-" + string(employee)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
