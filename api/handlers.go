/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll pipeline via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the runner.

ENDPOINTS:
  Settings:
    GET    /api/payroll/settings       Normalized overtime rules
    PUT    /api/payroll/settings       Store raw rules (normalized on write)

  Payroll:
    POST   /api/payroll/preview        Drafts + dry run (?format=csv for register)
    POST   /api/payroll/snapshot       {hash, count} for a batch
    POST   /api/payroll/submit         Send checks and record the run

  Runs:
    GET    /api/payroll/runs           Recent runs
    GET    /api/payroll/runs/{id}      Run with per-employee checks

  Ledger:
    PUT    /api/ledger/connection      Store or clear the ledger access token

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid period, nothing to submit
  - 404: Run not found
  - 409: Batch already submitted (snapshot hash collision)
  - 500: Internal errors

  Per-employee ledger failures are not HTTP errors: submit answers 200 with
  the results, and the run status says whether every check went through.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/metrics"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/runner"
	"github.com/warp/payroll-engine/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Runner  *runner.Runner
	Rules   *factory.RuleFactory
	Metrics *metrics.Metrics

	log *zap.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler. m may be nil.
func NewHandler(store *sqlite.Store, r *runner.Runner, m *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:   store,
		Runner:  r,
		Rules:   factory.NewRuleFactory(),
		Metrics: m,
		log:     log.Named("api"),
	}
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the normalized overtime rules.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Runner.Rules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read payroll settings", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Rules.ToJSON(rules))
}

// PutSettings stores settings in canonical form. Invalid values are
// normalized rather than rejected, but the body must be a JSON object.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	var probe map[string]any
	if err := json.Unmarshal(body, &probe); err != nil {
		writeError(w, http.StatusBadRequest, "Settings must be a JSON object", err)
		return
	}

	canonical, rules := h.Rules.Canonicalize(string(body))
	if err := h.Store.SavePayrollSettings(r.Context(), canonical); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save payroll settings", err)
		return
	}

	h.log.Info("payroll settings updated", zap.String("settings", canonical))
	writeJSON(w, http.StatusOK, h.Rules.ToJSON(rules))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// Preview returns drafts, their snapshot, and a ledger dry run. With
// ?format=csv it returns the payroll register instead.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePayrollRequest(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		drafts, _, err := h.Runner.Drafts(r.Context(), req)
		if err != nil {
			writeDomainError(w, "Failed to build drafts", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="payroll-register.csv"`)
		if err := payroll.WriteRegisterCSV(w, drafts); err != nil {
			h.log.Error("failed to write register", zap.Error(err))
		}
		return
	}

	res, err := h.Runner.Preview(r.Context(), req)
	if err != nil {
		writeDomainError(w, "Failed to preview payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, PreviewResponse{
		Rules:    h.Rules.ToJSON(res.Rules),
		Drafts:   toDraftDTOs(res.Drafts),
		Snapshot: toSnapshotDTO(res.Snapshot),
		Ledger:   toLedgerDTO(res.Ledger),
	})
}

// Snapshot returns the hash and count for a batch.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePayrollRequest(w, r)
	if !ok {
		return
	}

	snap, err := h.Runner.Snapshot(r.Context(), req)
	if err != nil {
		writeDomainError(w, "Failed to snapshot payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// Submit sends checks to the ledger and records the run.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePayrollRequest(w, r)
	if !ok {
		return
	}

	res, err := h.Runner.Submit(r.Context(), req)
	if err != nil && (res == nil || !errors.Is(err, runner.ErrRecordFailed)) {
		writeDomainError(w, "Failed to submit payroll", err)
		return
	}

	resp := SubmitResponse{
		Snapshot: toSnapshotDTO(res.Snapshot),
		Ledger:   toLedgerDTO(res.Outcome),
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Checks were submitted but the run could not be recorded",
			Details: resp,
		})
		return
	}

	status := http.StatusOK
	if res.Run != nil {
		dto := toRunDTO(*res.Run)
		resp.Run = &dto
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns recent runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns a run with its per-employee checks.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := generic.RunID(chi.URLParam(r, "id"))

	run, checks, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get run", err)
		return
	}

	writeJSON(w, http.StatusOK, RunDetailDTO{
		RunDTO: toRunDTO(*run),
		Checks: toRunCheckDTOs(checks),
	})
}

// =============================================================================
// LEDGER CONNECTION
// =============================================================================

// PutLedgerConnection stores the ledger access token. An empty token
// disconnects, after which submissions come back as previews.
func (h *Handler) PutLedgerConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SaveLedgerToken(r.Context(), req.AccessToken); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save ledger credential", err)
		return
	}

	connected := req.AccessToken != ""
	h.log.Info("ledger connection updated", zap.Bool("connected", connected))
	writeJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func decodePayrollRequest(w http.ResponseWriter, r *http.Request) (runner.Request, bool) {
	var body PayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return runner.Request{}, false
	}
	req, err := body.toRunner()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM-DD, end not before start)", err)
		return runner.Request{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps generic errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var dup *generic.DuplicateRunError
	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Payroll batch already submitted",
			Code:    "duplicate_run",
			Details: map[string]string{"run_id": string(dup.RunID), "snapshot_hash": dup.Hash},
		})
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
