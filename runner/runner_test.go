package runner_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/runner"
	"github.com/warp/payroll-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var monday = generic.NewTimePoint(2025, time.March, 3)

type observer struct {
	runs   []string
	drafts int
}

func (o *observer) RunFinished(status string) { o.runs = append(o.runs, status) }
func (o *observer) DraftsBuilt(n int)         { o.drafts += n }

func row(id, employee, project string, day generic.TimePoint, hours, pay string) payroll.EntryRow {
	return payroll.EntryRow{
		Entry: payroll.RawTimeEntry{
			ID:         id,
			EmployeeID: generic.EmployeeID(employee),
			ProjectID:  generic.ProjectID(project),
			EntryDate:  day,
			Hours:      decimal.RequireFromString(hours),
			TotalPay:   decimal.RequireFromString(pay),
		},
		EmployeeName: employee,
		Payee:        payroll.PayeeRef{Type: payroll.PayeeVendor, ID: "v-" + employee},
		ProjectName:  project,
	}
}

type fixture struct {
	store    *memory.Store
	ledger   *ledger.MemoryLedger
	observer *observer
	runner   *runner.Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	store.SetPayrollSettings(`{"overtime_enabled": true}`)
	store.AddRows(
		row("a1", "ada", "Roof", monday, "5", "100"),
		row("a2", "ada", "Deck", monday, "5", "100"),
		row("b1", "bob", "Roof", monday.AddDays(1), "8", "120"),
	)

	l := ledger.NewMemoryLedger().
		AddAccount("Operating Checking", "bank-1").
		AddAccount("Wages", "acct-wages")
	for _, name := range []string{"ada", "bob"} {
		l.AddPayee(ledger.Payee{
			Ref:              payroll.PayeeRef{Type: payroll.PayeeVendor, ID: "v-" + name},
			DisplayName:      name,
			PrintOnCheckName: name,
		})
	}

	obs := &observer{}
	seq := 0
	r := runner.New(store, ledger.NewSubmitter(l, nil), runner.LedgerDefaults{
		DefaultExpenseAccount: "Wages",
		BankAccountName:       "Operating Checking",
	}, nil,
		runner.WithObserver(obs),
		runner.WithClock(func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }),
		runner.WithRunIDs(func() generic.RunID {
			seq++
			return generic.RunID("run-" + string(rune('0'+seq)))
		}),
	)
	return &fixture{store: store, ledger: l, observer: obs, runner: r}
}

func weekRequest() runner.Request {
	return runner.Request{
		Period:          generic.Period{Start: monday, End: monday.AddDays(6)},
		IncludeOvertime: true,
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_RecordsRunAndMarksPaid(t *testing.T) {
	// GIVEN: Ada worked 5h+5h on Monday (daily OT over 8h), Bob 8h on Tuesday
	// WHEN: Submitting the week
	// THEN: Both checks are created, the run is completed, and entries are paid

	f := newFixture(t)
	ctx := context.Background()

	res, err := f.runner.Submit(ctx, weekRequest())
	require.NoError(t, err)
	require.NotNil(t, res.Run)

	assert.Equal(t, payroll.RunCompleted, res.Run.Status)
	assert.Equal(t, 2, res.Run.CheckCount)
	assert.Equal(t, res.Snapshot.Hash, res.Run.SnapshotHash)
	assert.True(t, strings.HasPrefix(res.Run.IdempotencyKey, "payroll-"))

	require.Len(t, res.Checks, 2)
	assert.Equal(t, generic.EmployeeID("ada"), res.Checks[0].EmployeeID)
	assert.Equal(t, "220", res.Checks[0].TotalPay.String())
	assert.Equal(t, "120", res.Checks[1].TotalPay.String())

	checks := f.ledger.Checks()
	require.Len(t, checks, 2)
	week := weekRequest().Period
	adaKey := payroll.EntryKey(week, payroll.CheckDraft{EmployeeID: "ada", EntryIDs: []string{"a2", "a1"}})
	assert.Equal(t, "payroll-"+adaKey[:24], checks[0].IdempotencyKey)
	assert.NotEqual(t, checks[0].IdempotencyKey, checks[1].IdempotencyKey)
	assert.Equal(t, "2025-03-10", checks[0].TxnDate.String())

	for _, id := range []string{"a1", "a2", "b1"} {
		assert.Equal(t, res.Run.ID, f.store.PaidBy(id), id)
	}
	assert.Equal(t, []string{"completed"}, f.observer.runs)

	_, err = f.runner.Submit(ctx, weekRequest())
	assert.ErrorIs(t, err, generic.ErrNothingToSubmit, "paid entries are not payable again")
}

func TestSubmit_DuplicateBatchRefusedUnlessForced(t *testing.T) {
	// GIVEN: A completed run already carries this batch's key
	// WHEN: Submitting the same batch
	// THEN: It is refused; forcing it submits with a run-scoped key

	f := newFixture(t)
	ctx := context.Background()

	preview, err := f.runner.Preview(ctx, weekRequest())
	require.NoError(t, err)
	batchKey := payroll.BatchKey(weekRequest().Period, preview.Drafts)
	require.NoError(t, f.store.RecordRun(ctx, payroll.Run{ID: "old", BatchKey: batchKey, Status: payroll.RunCompleted}, nil, nil))

	_, err = f.runner.Submit(ctx, weekRequest())
	var dup *generic.DuplicateRunError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, generic.RunID("old"), dup.RunID)
	assert.True(t, generic.IsConflict(err))
	assert.Empty(t, f.ledger.Checks())

	req := weekRequest()
	req.Force = true
	res, err := f.runner.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(res.Run.ID), res.Run.IdempotencyKey)
	assert.Equal(t, batchKey, res.Run.BatchKey)
	require.Len(t, f.ledger.Checks(), 2)
	assert.Equal(t, string(res.Run.ID)+"-ada", f.ledger.Checks()[0].IdempotencyKey)
}

// nextWeek adds the same hours as the fixture's week, one week later.
func (f *fixture) nextWeek() runner.Request {
	next := monday.AddDays(7)
	f.store.AddRows(
		row("a3", "ada", "Roof", next, "5", "100"),
		row("a4", "ada", "Deck", next, "5", "100"),
		row("b2", "bob", "Roof", next.AddDays(1), "8", "120"),
	)
	return runner.Request{
		Period:          generic.Period{Start: next, End: next.AddDays(6)},
		IncludeOvertime: true,
	}
}

func TestSubmit_CompletedThenNextWeekSameHours(t *testing.T) {
	// GIVEN: A completed run for week 1, and identical hours logged in week 2
	// WHEN: Submitting week 2
	// THEN: It is not a duplicate, and new checks pay the new entries

	f := newFixture(t)
	ctx := context.Background()

	first, err := f.runner.Submit(ctx, weekRequest())
	require.NoError(t, err)
	require.Equal(t, payroll.RunCompleted, first.Run.Status)

	second, err := f.runner.Submit(ctx, f.nextWeek())
	var dup *generic.DuplicateRunError
	require.False(t, errors.As(err, &dup), "identical hours in a new week are not a duplicate")
	require.NoError(t, err)

	assert.Equal(t, first.Snapshot.Hash, second.Snapshot.Hash)
	assert.NotEqual(t, first.Run.BatchKey, second.Run.BatchKey)
	assert.NotEqual(t, first.Run.IdempotencyKey, second.Run.IdempotencyKey)
	assert.Equal(t, payroll.RunCompleted, second.Run.Status)

	require.Len(t, second.Checks, 2)
	for i := range second.Checks {
		assert.NotEqual(t, first.Checks[i].TransactionID, second.Checks[i].TransactionID)
	}
	assert.Len(t, f.ledger.Checks(), 4)
	for _, id := range []string{"a3", "a4", "b2"} {
		assert.Equal(t, second.Run.ID, f.store.PaidBy(id), id)
	}
}

func TestSubmit_PartialThenNextWeekSameHours(t *testing.T) {
	// GIVEN: Week 1 was partial (Bob rejected), and identical hours are logged in week 2
	// WHEN: Submitting week 2 after Bob's payee is fixed
	// THEN: Ada gets a new check instead of week 1's transaction

	f := newFixture(t)
	ctx := context.Background()
	f.ledger.FailCheckFor("v-bob", &ledger.Error{StatusCode: 400, Message: "Business Validation Error"})

	first, err := f.runner.Submit(ctx, weekRequest())
	require.NoError(t, err)
	require.Equal(t, payroll.RunPartial, first.Run.Status)
	require.Len(t, f.ledger.Checks(), 1)

	f.ledger.FailCheckFor("v-bob", nil)
	second, err := f.runner.Submit(ctx, f.nextWeek())
	require.NoError(t, err)
	assert.Equal(t, payroll.RunCompleted, second.Run.Status)

	require.Len(t, second.Checks, 2)
	assert.True(t, second.Checks[0].OK)
	assert.NotEqual(t, first.Checks[0].TransactionID, second.Checks[0].TransactionID)
	assert.Len(t, f.ledger.Checks(), 3)
	assert.Equal(t, second.Run.ID, f.store.PaidBy("a3"))
	assert.Empty(t, f.store.PaidBy("b1"), "week 1's rejected entries stay unpaid")
}

func TestSubmit_PartialThenRetryOnlyFailed(t *testing.T) {
	// GIVEN: The ledger rejects Bob's check with a validation error
	// WHEN: Submitting, then retrying only Bob after the fix
	// THEN: The first run is partial and leaves Bob unpaid; the retry completes

	f := newFixture(t)
	ctx := context.Background()
	f.ledger.FailCheckFor("v-bob", &ledger.Error{StatusCode: 400, Message: "Business Validation Error"})

	first, err := f.runner.Submit(ctx, weekRequest())
	require.NoError(t, err)
	assert.Equal(t, payroll.RunPartial, first.Run.Status)
	assert.Empty(t, first.Run.FatalError)
	assert.False(t, first.Checks[1].OK)
	assert.Contains(t, first.Checks[1].Error, "ledger returned 400")
	assert.Equal(t, first.Run.ID, f.store.PaidBy("a1"))
	assert.Empty(t, f.store.PaidBy("b1"))

	f.ledger.FailCheckFor("v-bob", nil)
	req := weekRequest()
	req.OnlyEmployeeIDs = []generic.EmployeeID{"bob"}
	req.AdjustmentReason = "bank details fixed"

	retry, err := f.runner.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunCompleted, retry.Run.Status)
	assert.Equal(t, 1, retry.Run.CheckCount)
	assert.Equal(t, retry.Run.ID, f.store.PaidBy("b1"))

	checks := f.ledger.Checks()
	assert.Contains(t, checks[len(checks)-1].Memo, "reason:bank details fixed")
}

func TestSubmit_FatalErrorStopsBatch(t *testing.T) {
	f := newFixture(t)
	f.ledger.FailCheckFor("v-ada", &ledger.Error{StatusCode: 503, Message: "Service Unavailable"})

	res, err := f.runner.Submit(context.Background(), weekRequest())
	require.NoError(t, err)

	assert.Equal(t, payroll.RunFailed, res.Run.Status)
	assert.Contains(t, res.Run.FatalError, "503")
	assert.True(t, strings.HasPrefix(res.Checks[1].Error, "not sent because of previous error: "))
	assert.Equal(t, 1, f.ledger.Calls("CreateCheck"))
	assert.Empty(t, f.store.PaidBy("a1"))
	assert.Empty(t, f.store.PaidBy("b1"))
}

func TestSubmit_NotConnected_NothingRecorded(t *testing.T) {
	f := newFixture(t)
	f.ledger.Disconnect()

	res, err := f.runner.Submit(context.Background(), weekRequest())
	require.NoError(t, err)

	assert.Nil(t, res.Run)
	assert.False(t, res.Outcome.Connected())
	assert.Equal(t, "ledger not connected", res.Outcome.Reason)
	assert.Len(t, res.Outcome.Preview, 2)
	assert.Empty(t, f.store.Runs())
	assert.Empty(t, f.store.PaidBy("a1"))
}

func TestSubmit_EmptyPeriod(t *testing.T) {
	f := newFixture(t)
	req := weekRequest()
	req.Period = generic.Period{Start: monday.AddDays(-30), End: monday.AddDays(-24)}

	_, err := f.runner.Submit(context.Background(), req)
	assert.ErrorIs(t, err, generic.ErrNothingToSubmit)
	assert.True(t, generic.IsClientError(err))
}

func TestSubmit_StoreErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.store.FailList = errors.New("db down")

	_, err := f.runner.Submit(context.Background(), weekRequest())
	assert.ErrorContains(t, err, "db down")
}

// =============================================================================
// PREVIEW / SNAPSHOT
// =============================================================================

func TestPreview_DryRunsWithoutWrites(t *testing.T) {
	f := newFixture(t)

	res, err := f.runner.Preview(context.Background(), weekRequest())
	require.NoError(t, err)

	assert.True(t, res.Rules.OvertimeEnabled)
	require.Len(t, res.Drafts, 2)
	assert.Equal(t, 2, res.Snapshot.Count)
	require.Len(t, res.Ledger.Results, 2)
	for _, r := range res.Ledger.Results {
		assert.True(t, r.OK)
		assert.True(t, r.Previewed)
	}
	assert.Zero(t, f.ledger.Calls("CreateCheck"))
	assert.Empty(t, f.store.Runs())
}

func TestPreview_OvertimeSwitchedOff(t *testing.T) {
	f := newFixture(t)
	req := weekRequest()
	req.IncludeOvertime = false

	res, err := f.runner.Preview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "200", res.Drafts[0].TotalPay.String())
}

func TestSnapshot_StableAcrossCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.runner.Snapshot(ctx, weekRequest())
	require.NoError(t, err)
	b, err := f.runner.Snapshot(ctx, weekRequest())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	req := weekRequest()
	req.OnlyEmployeeIDs = []generic.EmployeeID{"ada"}
	only, err := f.runner.Snapshot(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, only.Count)
	assert.NotEqual(t, a.Hash, only.Hash)
}

func TestRules_BadSettingsFallBackToDefaults(t *testing.T) {
	f := newFixture(t)
	f.store.SetPayrollSettings(`{not json`)

	rules, err := f.runner.Rules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payroll.DefaultRuleSet().OvertimeEnabled, rules.OvertimeEnabled)
}
