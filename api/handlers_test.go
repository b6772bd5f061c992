/*
handlers_test.go - HTTP tests for the payroll API

Tests for:
- Settings normalization on write
- Preview (JSON and CSV register)
- Submit, run history, and duplicate/not-found mapping
- Ledger connection and not-connected submissions
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/metrics"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/runner"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	handler *Handler
	router  http.Handler
	ledger  *ledger.MemoryLedger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l := ledger.NewMemoryLedger().
		AddAccount("Checking", "bank-1").
		AddAccount("Payroll Expenses", "acct-payroll")
	for _, id := range []string{"emp-ada", "emp-bob", "emp-cleo", "emp-dee"} {
		l.AddPayee(ledger.Payee{
			Ref:         payroll.PayeeRef{Type: payroll.PayeeVendor, ID: "v-" + id},
			DisplayName: id,
		})
	}

	m := metrics.New()
	sub := ledger.NewSubmitter(l, nil, ledger.WithRecorder(m))
	r := runner.New(store, sub, runner.LedgerDefaults{
		DefaultExpenseAccount: "Payroll Expenses",
		BankAccountName:       "Checking",
	}, nil, runner.WithObserver(m))

	h := NewHandler(store, r, m, nil)
	return &testServer{handler: h, router: NewRouter(h), ledger: l}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// load seeds a scenario and returns the period it covers.
func (s *testServer) load(t *testing.T, id string) PayrollRequest {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return PayrollRequest{PeriodStart: resp["period_start"], PeriodEnd: resp["period_end"]}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_NormalizedOnWrite(t *testing.T) {
	// GIVEN: Settings with a string flag and a negative threshold
	// WHEN: Saving them
	// THEN: The stored form is canonical and the threshold is disabled

	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/payroll/settings",
		`{"overtime_enabled": "1", "overtime_daily_threshold_hours": -3, "overtime_multiplier": "abc"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rules := decode[factory.RulesJSON](t, rec)
	assert.True(t, rules.OvertimeEnabled)
	assert.Nil(t, rules.OvertimeDailyThresholdHours)
	require.NotNil(t, rules.OvertimeWeeklyThresholdHours)
	assert.Equal(t, 40.0, *rules.OvertimeWeeklyThresholdHours)
	assert.Equal(t, 1.5, rules.OvertimeMultiplier)

	got := decode[factory.RulesJSON](t, s.do(t, http.MethodGet, "/api/payroll/settings", nil))
	assert.Equal(t, rules, got)

	raw, err := s.handler.Store.PayrollSettings(context.Background())
	require.NoError(t, err)
	assert.Contains(t, raw, `"overtime_daily_threshold_hours":null`)
}

func TestSettings_RejectsNonObject(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/payroll/settings", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings_DefaultsWhenNeverSaved(t *testing.T) {
	s := newTestServer(t)

	rules := decode[factory.RulesJSON](t, s.do(t, http.MethodGet, "/api/payroll/settings", nil))
	assert.False(t, rules.OvertimeEnabled)
	assert.Equal(t, 1, rules.PayPeriodStartWeekday)
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreview_SplitsDailyOvertime(t *testing.T) {
	// GIVEN: Ada logged 5h on two projects on the same day at $20/h
	// WHEN: Previewing the week
	// THEN: 2h of daily overtime add $20 and nothing reaches the ledger

	s := newTestServer(t)
	req := s.load(t, "multi-project-day")

	rec := s.do(t, http.MethodPost, "/api/payroll/preview", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[PreviewResponse](t, rec)
	require.Len(t, resp.Drafts, 1)
	assert.Equal(t, "emp-ada", resp.Drafts[0].EmployeeID)
	assert.Equal(t, "10.00", resp.Drafts[0].TotalHours)
	assert.Equal(t, "220.00", resp.Drafts[0].TotalPay)
	assert.Len(t, resp.Drafts[0].Lines, 2)

	assert.Equal(t, 1, resp.Snapshot.Count)
	assert.Len(t, resp.Snapshot.Hash, 64)

	assert.True(t, resp.Ledger.Connected)
	require.Len(t, resp.Ledger.Results, 1)
	assert.True(t, resp.Ledger.Results[0].Previewed)
	assert.Zero(t, s.ledger.Calls("CreateCheck"))
}

func TestPreview_OvertimeCanBeSwitchedOff(t *testing.T) {
	s := newTestServer(t)
	req := s.load(t, "multi-project-day")
	off := false
	req.IncludeOvertime = &off

	resp := decode[PreviewResponse](t, s.do(t, http.MethodPost, "/api/payroll/preview", req))
	require.Len(t, resp.Drafts, 1)
	assert.Equal(t, "200.00", resp.Drafts[0].TotalPay)
}

func TestPreview_SkipsPaidAndExceptedEntries(t *testing.T) {
	// GIVEN: Dee has one clean entry, one paid entry, one unresolved exception
	// WHEN: Previewing the week
	// THEN: Only the clean 8h are on the check

	s := newTestServer(t)
	req := s.load(t, "exceptions")

	resp := decode[PreviewResponse](t, s.do(t, http.MethodPost, "/api/payroll/preview", req))
	require.Len(t, resp.Drafts, 1)
	assert.Equal(t, "8.00", resp.Drafts[0].TotalHours)
	assert.Equal(t, "144.00", resp.Drafts[0].TotalPay)
}

func TestPreview_CSVRegister(t *testing.T) {
	s := newTestServer(t)
	req := s.load(t, "multi-project-day")

	rec := s.do(t, http.MethodPost, "/api/payroll/preview?format=csv", req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "employee_id,display_name,payee"))
	assert.Contains(t, lines[1], "emp-ada")
	assert.Contains(t, lines[1], "220.00")
}

func TestPreview_InvalidPeriod(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/payroll/preview", PayrollRequest{PeriodStart: "2025-03-09", PeriodEnd: "2025-03-03"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/payroll/preview", PayrollRequest{PeriodStart: "March", PeriodEnd: "2025-03-03"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshot_MatchesPreview(t *testing.T) {
	s := newTestServer(t)
	req := s.load(t, "overtime-week")

	preview := decode[PreviewResponse](t, s.do(t, http.MethodPost, "/api/payroll/preview", req))
	snap := decode[SnapshotDTO](t, s.do(t, http.MethodPost, "/api/payroll/snapshot", req))
	assert.Equal(t, preview.Snapshot, snap)
}

// =============================================================================
// SUBMIT AND RUNS
// =============================================================================

func TestSubmit_RecordsRunAndEntriesBecomePaid(t *testing.T) {
	// GIVEN: The multi-project-day scenario and a connected ledger
	// WHEN: Submitting, then listing and reading runs
	// THEN: One completed run with one check; a second submit finds nothing

	s := newTestServer(t)
	req := s.load(t, "multi-project-day")

	rec := s.do(t, http.MethodPost, "/api/payroll/submit", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[SubmitResponse](t, rec)
	require.NotNil(t, resp.Run)
	assert.Equal(t, string(payroll.RunCompleted), resp.Run.Status)
	assert.Equal(t, 1, resp.Run.CheckCount)
	assert.Equal(t, resp.Snapshot.Hash, resp.Run.SnapshotHash)
	assert.True(t, resp.Ledger.OK)
	require.Len(t, resp.Ledger.Results, 1)
	assert.Equal(t, "chk-1", resp.Ledger.Results[0].TransactionID)

	runs := decode[[]RunDTO](t, s.do(t, http.MethodGet, "/api/payroll/runs", nil))
	require.Len(t, runs, 1)
	assert.Equal(t, resp.Run.ID, runs[0].ID)

	detail := decode[RunDetailDTO](t, s.do(t, http.MethodGet, "/api/payroll/runs/"+resp.Run.ID, nil))
	require.Len(t, detail.Checks, 1)
	assert.Equal(t, "220.00", detail.Checks[0].TotalPay)
	assert.True(t, detail.Checks[0].OK)

	again := s.do(t, http.MethodPost, "/api/payroll/submit", req)
	assert.Equal(t, http.StatusBadRequest, again.Code)
	assert.Equal(t, 1, s.ledger.Calls("CreateCheck"))
}

func TestSubmit_NotConnectedReturnsPreview(t *testing.T) {
	s := newTestServer(t)
	req := s.load(t, "overtime-week")
	s.ledger.Disconnect()

	rec := s.do(t, http.MethodPost, "/api/payroll/submit", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[SubmitResponse](t, rec)
	assert.Nil(t, resp.Run)
	assert.False(t, resp.Ledger.Connected)
	assert.Equal(t, "ledger not connected", resp.Ledger.Reason)
	require.Len(t, resp.Ledger.Preview, 1)
	assert.Equal(t, "Payroll Expenses", resp.Ledger.Preview[0].ExpenseAccount)
	assert.Equal(t, "Checking", resp.Ledger.Preview[0].BankAccount)

	runs := decode[[]RunDTO](t, s.do(t, http.MethodGet, "/api/payroll/runs", nil))
	assert.Empty(t, runs)
}

func TestSubmit_RejectedCheckKeepsEntriesPayable(t *testing.T) {
	s := newTestServer(t)
	req := s.load(t, "exceptions")
	s.ledger.FailCheckFor("v-emp-dee", &ledger.Error{StatusCode: 400, Message: "Business Validation Error"})

	resp := decode[SubmitResponse](t, s.do(t, http.MethodPost, "/api/payroll/submit", req))
	require.NotNil(t, resp.Run)
	assert.Equal(t, string(payroll.RunFailed), resp.Run.Status)
	assert.False(t, resp.Ledger.OK)

	preview := decode[PreviewResponse](t, s.do(t, http.MethodPost, "/api/payroll/preview", req))
	assert.Len(t, preview.Drafts, 1, "failed employee is still payable")
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/payroll/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRuns_InvalidLimit(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/payroll/runs?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteDomainError_DuplicateRunIsConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, "Failed to submit payroll", &generic.DuplicateRunError{RunID: "run-1", Hash: "abc"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "duplicate_run", resp.Code)
}

// =============================================================================
// LEDGER CONNECTION, HEALTH, METRICS
// =============================================================================

func TestPutLedgerConnection(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec := s.do(t, http.MethodPut, "/api/ledger/connection", map[string]string{"access_token": "tok-123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"connected": true}, decode[map[string]bool](t, rec))

	token, err := s.handler.Store.LedgerToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	rec = s.do(t, http.MethodPut, "/api/ledger/connection", map[string]string{"access_token": ""})
	assert.Equal(t, map[string]bool{"connected": false}, decode[map[string]bool](t, rec))

	token, err = s.handler.Store.LedgerToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	req := s.load(t, "multi-project-day")
	s.do(t, http.MethodPost, "/api/payroll/submit", req)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `payroll_checks_total{outcome="created"} 1`)
	assert.Contains(t, rec.Body.String(), `payroll_runs_total{status="completed"} 1`)
}
