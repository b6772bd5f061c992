/*
Package runner orchestrates a payroll run end to end.

PURPOSE:
  Ties the pipeline together for callers (HTTP API, CLI):

    org settings -> RuleFactory -> DraftBuilder -> Snapshot -> Submitter
                                                            -> RecordRun

  Preview and Snapshot stop before any ledger write. Submit sends checks,
  then persists the run, one check record per employee, and marks the
  source entries of every successful check as paid.

DUPLICATE PROTECTION:
  A batch whose batch key (period, source entries, snapshot hash) matches
  an earlier completed run is refused with a *generic.DuplicateRunError
  unless Force is set. Each check's ledger idempotency key is derived from
  the period and that employee's source entries, so resubmitting the same
  entries yields the same keys while the next period gets new ones. Forced
  runs use the run ID instead.

NOT CONNECTED:
  When the ledger is not connected, Submit returns the preview drafts and
  persists nothing.

SEE ALSO:
  - payroll/drafts.go: Draft builder
  - ledger/submitter.go: Ledger submission
  - store/sqlite/sqlite.go: Store implementation
*/
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/payroll"
	"go.uber.org/zap"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Store is the persistence a runner needs.
type Store interface {
	payroll.EntrySource

	// PayrollSettings returns raw overtime JSON, or "" when never saved.
	PayrollSettings(ctx context.Context) (string, error)

	// FindCompletedRunByBatchKey returns nil when no completed run matches.
	FindCompletedRunByBatchKey(ctx context.Context, key string) (*payroll.Run, error)

	// RecordRun persists the run, its checks, and the paid markers atomically.
	RecordRun(ctx context.Context, run payroll.Run, checks []payroll.Check, paidEntryIDs []string) error
}

// ErrRecordFailed wraps store errors raised after checks were sent.
var ErrRecordFailed = errors.New("checks submitted but run could not be recorded")

// Observer receives run-level events, for metrics.
type Observer interface {
	RunFinished(status string)
	DraftsBuilt(n int)
}

// LedgerDefaults are the batch-level ledger names applied to every run.
type LedgerDefaults struct {
	DefaultExpenseAccount string
	BankAccountName       string
	DefaultClassName      string
	MemoTemplate          string
}

// =============================================================================
// REQUESTS AND RESULTS
// =============================================================================

// Request selects what a preview, snapshot, or submission covers.
type Request struct {
	Period             generic.Period
	ExcludeEmployeeIDs []generic.EmployeeID
	OnlyEmployeeIDs    []generic.EmployeeID
	IncludeOvertime    bool
	CustomLines        []payroll.CustomLine
	Overrides          []payroll.LineOverride

	AdjustmentReason string
	TxnDate          generic.TimePoint // defaults to today

	// Force submits even when a completed run has the same snapshot hash.
	Force bool
}

// PreviewResult is what a run would send, without sending it.
type PreviewResult struct {
	Rules    payroll.RuleSet
	Drafts   []payroll.CheckDraft
	Snapshot payroll.SnapshotResult

	// Ledger is the dry-run outcome: per-employee reference resolution when
	// connected, annotated preview drafts when not.
	Ledger ledger.Outcome
}

// SubmitResult is the outcome of Submit. Run is nil when the ledger was not
// connected and nothing was persisted.
type SubmitResult struct {
	Run      *payroll.Run
	Checks   []payroll.Check
	Snapshot payroll.SnapshotResult
	Outcome  ledger.Outcome
}

// =============================================================================
// RUNNER
// =============================================================================

type Runner struct {
	store     Store
	builder   *payroll.DraftBuilder
	submitter *ledger.Submitter
	rules     *factory.RuleFactory
	defaults  LedgerDefaults
	observer  Observer
	log       *zap.Logger

	now   func() time.Time
	newID func() generic.RunID
}

type Option func(*Runner)

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRunIDs replaces the uuid run ID generator, for tests.
func WithRunIDs(next func() generic.RunID) Option {
	return func(r *Runner) { r.newID = next }
}

func New(store Store, submitter *ledger.Submitter, defaults LedgerDefaults, log *zap.Logger, opts ...Option) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		store:     store,
		builder:   payroll.NewDraftBuilder(store, log),
		submitter: submitter,
		rules:     factory.NewRuleFactory(),
		defaults:  defaults,
		log:       log.Named("runner"),
		now:       time.Now,
		newID:     func() generic.RunID { return generic.RunID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules reads the org's raw settings and normalizes them. Bad settings fall
// back to defaults; only a store failure is an error.
func (r *Runner) Rules(ctx context.Context) (payroll.RuleSet, error) {
	raw, err := r.store.PayrollSettings(ctx)
	if err != nil {
		return payroll.RuleSet{}, err
	}
	return r.rules.ParseRules(raw), nil
}

// Drafts builds the drafts a request covers.
func (r *Runner) Drafts(ctx context.Context, req Request) ([]payroll.CheckDraft, payroll.RuleSet, error) {
	rules, err := r.Rules(ctx)
	if err != nil {
		return nil, payroll.RuleSet{}, err
	}

	drafts, err := r.builder.BuildDrafts(ctx, req.Period, rules, payroll.BuildOptions{
		ExcludeEmployeeIDs: req.ExcludeEmployeeIDs,
		IncludeOvertime:    req.IncludeOvertime,
		CustomLines:        req.CustomLines,
		Overrides:          req.Overrides,
	})
	if err != nil {
		return nil, rules, err
	}
	drafts = payroll.FilterDrafts(drafts, req.OnlyEmployeeIDs)

	if r.observer != nil {
		r.observer.DraftsBuilt(len(drafts))
	}
	return drafts, rules, nil
}

// Snapshot fingerprints the drafts a request covers.
func (r *Runner) Snapshot(ctx context.Context, req Request) (payroll.SnapshotResult, error) {
	drafts, _, err := r.Drafts(ctx, req)
	if err != nil {
		return payroll.SnapshotResult{}, err
	}
	return payroll.Snapshot(drafts, nil), nil
}

// Preview builds drafts and dry-runs them against the ledger. It never
// writes to the ledger or the store.
func (r *Runner) Preview(ctx context.Context, req Request) (*PreviewResult, error) {
	drafts, rules, err := r.Drafts(ctx, req)
	if err != nil {
		return nil, err
	}
	snap := payroll.Snapshot(drafts, nil)

	cfg := r.submitConfig(req, "", idempotencyKey(payroll.BatchKey(req.Period, drafts)))
	cfg.CheckKeys = checkKeys(req.Period, drafts)
	cfg.Preview = true

	return &PreviewResult{
		Rules:    rules,
		Drafts:   drafts,
		Snapshot: snap,
		Ledger:   r.submitter.Submit(ctx, drafts, cfg),
	}, nil
}

// Submit sends the request's drafts to the ledger and records the run.
func (r *Runner) Submit(ctx context.Context, req Request) (*SubmitResult, error) {
	drafts, _, err := r.Drafts(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, generic.ErrNothingToSubmit
	}

	snap := payroll.Snapshot(drafts, nil)
	batchKey := payroll.BatchKey(req.Period, drafts)
	if !req.Force {
		prior, err := r.store.FindCompletedRunByBatchKey(ctx, batchKey)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			return nil, &generic.DuplicateRunError{Hash: snap.Hash, RunID: prior.ID}
		}
	}

	runID := r.newID()
	key := idempotencyKey(batchKey)
	cfg := r.submitConfig(req, runID, key)
	if req.Force {
		key = string(runID)
		cfg.IdempotencyKey = key
	} else {
		cfg.CheckKeys = checkKeys(req.Period, drafts)
	}

	log := r.log.With(zap.String("run_id", string(runID)), zap.String("period", req.Period.String()))
	log.Info("submitting payroll",
		zap.Int("drafts", len(drafts)),
		zap.String("snapshot", snap.Hash),
		zap.Bool("forced", req.Force))

	outcome := r.submitter.Submit(ctx, drafts, cfg)
	result := &SubmitResult{Snapshot: snap, Outcome: outcome}
	if !outcome.Connected() {
		log.Warn("ledger not connected, nothing recorded", zap.String("reason", outcome.Reason))
		return result, nil
	}

	checks, paid := r.checksFor(runID, drafts, outcome.Results)
	run := payroll.Run{
		ID:               runID,
		Period:           req.Period,
		SnapshotHash:     snap.Hash,
		BatchKey:         batchKey,
		CheckCount:       snap.Count,
		Status:           payroll.StatusFor(checks),
		FatalError:       outcome.FatalError,
		AdjustmentReason: req.AdjustmentReason,
		IdempotencyKey:   key,
		CreatedAt:        r.now().UTC(),
	}

	// Checks already exist in the ledger; the result goes back with the error.
	if err := r.store.RecordRun(ctx, run, checks, paid); err != nil {
		log.Error("failed to record run", zap.Error(err))
		result.Checks = checks
		return result, errors.Join(ErrRecordFailed, err)
	}

	if r.observer != nil {
		r.observer.RunFinished(string(run.Status))
	}
	log.Info("payroll run recorded",
		zap.String("status", string(run.Status)),
		zap.Int("paid_entries", len(paid)))

	result.Run = &run
	result.Checks = checks
	return result, nil
}

func (r *Runner) submitConfig(req Request, runID generic.RunID, key string) ledger.SubmitConfig {
	txnDate := req.TxnDate
	if txnDate.IsZero() {
		txnDate = generic.DayOf(r.now())
	}
	return ledger.SubmitConfig{
		RunID:                 runID,
		AdjustmentReason:      req.AdjustmentReason,
		IdempotencyKey:        key,
		DefaultExpenseAccount: r.defaults.DefaultExpenseAccount,
		BankAccountName:       r.defaults.BankAccountName,
		DefaultClassName:      r.defaults.DefaultClassName,
		MemoTemplate:          r.defaults.MemoTemplate,
		Period:                req.Period,
		TxnDate:               txnDate,
	}
}

// checksFor pairs results with their drafts; results are in draft order.
func (r *Runner) checksFor(runID generic.RunID, drafts []payroll.CheckDraft, results []ledger.Result) ([]payroll.Check, []string) {
	checks := make([]payroll.Check, 0, len(results))
	var paid []string
	for i, res := range results {
		d := drafts[i]
		checks = append(checks, payroll.Check{
			RunID:         runID,
			EmployeeID:    res.EmployeeID,
			DisplayName:   res.DisplayName,
			TotalHours:    d.TotalHours,
			TotalPay:      res.Amount,
			OK:            res.OK,
			TransactionID: res.TransactionID,
			Error:         res.Error,
			Warnings:      res.Warnings,
		})
		if res.OK {
			paid = append(paid, d.EntryIDs...)
		}
	}
	return checks, paid
}

func idempotencyKey(hash string) string {
	if len(hash) > 24 {
		hash = hash[:24]
	}
	return "payroll-" + hash
}

// checkKeys maps each employee to a ledger key for exactly the entries
// their check pays in this period.
func checkKeys(period generic.Period, drafts []payroll.CheckDraft) map[generic.EmployeeID]string {
	keys := make(map[generic.EmployeeID]string, len(drafts))
	for _, d := range drafts {
		keys[d.EmployeeID] = idempotencyKey(payroll.EntryKey(period, d))
	}
	return keys
}
