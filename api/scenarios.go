/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates employees, projects,
	overtime settings, and one week of time entries that exercise a
	specific part of the payroll pipeline.

AVAILABLE SCENARIOS:

	multi-project-day:  Two 5h entries on one day -> daily overtime split
	overtime-week:      Five 9h days -> weekly overtime on top of daily
	double-time:        A 14h day with double-time enabled
	exceptions:         Paid and excepted entries that must not be paid again

HOW SCENARIOS WORK:
 1. Reset database (clear all data, keep the ledger credential)
 2. Save overtime settings
 3. Create employees and projects
 4. Add time entries for the previous Monday-to-Sunday week

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overtime-week"}

	The response carries the period to pass to /api/payroll/preview.

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - cmd/payrollctl: seed command
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "multi-project-day",
		Name:        "Multi-Project Day",
		Description: "Two 5h entries on different projects on one day; daily overtime is split between them",
	},
	{
		ID:          "overtime-week",
		Name:        "Overtime Week",
		Description: "Five 9h days; daily and weekly overtime with a 40h weekly cap",
	},
	{
		ID:          "double-time",
		Name:        "Double Time",
		Description: "A 14h day with double-time after 12h",
	},
	{
		ID:          "exceptions",
		Name:        "Exceptions and Paid Entries",
		Description: "Unresolved exceptions and already-paid entries are left out of the batch",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	week := ScenarioWeek(time.Now())
	if err := LoadScenario(r.Context(), h.Store, req.ScenarioID, week.Start); err != nil {
		if err == errUnknownScenario {
			writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "loaded",
		"scenario":     req.ScenarioID,
		"period_start": week.Start.String(),
		"period_end":   week.End.String(),
	})
}

// ScenarioWeek is the Monday-to-Sunday week before the one containing now.
func ScenarioWeek(now time.Time) generic.Period {
	start := generic.DayOf(now).WeekStart(time.Monday).AddDays(-7)
	return generic.Period{Start: start, End: start.AddDays(6)}
}

var errUnknownScenario = fmt.Errorf("unknown scenario")

// LoadScenario resets the store and seeds one scenario for the week
// starting at monday.
func LoadScenario(ctx context.Context, store *sqlite.Store, id string, monday generic.TimePoint) error {
	loader, ok := map[string]func(context.Context, *seeder) error{
		"multi-project-day": loadMultiProjectDay,
		"overtime-week":     loadOvertimeWeek,
		"double-time":       loadDoubleTime,
		"exceptions":        loadExceptions,
	}[id]
	if !ok {
		return errUnknownScenario
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s := &seeder{store: store, monday: monday}
	if err := s.projects(ctx); err != nil {
		return err
	}
	return loader(ctx, s)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadMultiProjectDay(ctx context.Context, s *seeder) error {
	if err := s.settings(ctx, `{"overtime_enabled": true, "overtime_weekly_threshold_hours": null}`); err != nil {
		return err
	}
	if err := s.employee(ctx, "emp-ada", "Ada Lovelace", "", "20"); err != nil {
		return err
	}
	if err := s.entry(ctx, "emp-ada", "roof", 0, "5", false, false); err != nil {
		return err
	}
	return s.entry(ctx, "emp-ada", "deck", 0, "5", false, false)
}

func loadOvertimeWeek(ctx context.Context, s *seeder) error {
	if err := s.settings(ctx, `{"overtime_enabled": true}`); err != nil {
		return err
	}
	if err := s.employee(ctx, "emp-bob", "Robert Tables", "Bob Tables", "22.50"); err != nil {
		return err
	}
	for day := 0; day < 5; day++ {
		if err := s.entry(ctx, "emp-bob", "roof", day, "9", false, false); err != nil {
			return err
		}
	}
	return nil
}

func loadDoubleTime(ctx context.Context, s *seeder) error {
	if err := s.settings(ctx, `{"overtime_enabled": true, "double_time_enabled": true}`); err != nil {
		return err
	}
	if err := s.employee(ctx, "emp-cleo", "Cleo Park", "", "10"); err != nil {
		return err
	}
	return s.entry(ctx, "emp-cleo", "deck", 2, "14", false, false)
}

func loadExceptions(ctx context.Context, s *seeder) error {
	if err := s.settings(ctx, `{"overtime_enabled": false}`); err != nil {
		return err
	}
	if err := s.employee(ctx, "emp-dee", "Dee Nguyen", "", "18"); err != nil {
		return err
	}
	if err := s.entry(ctx, "emp-dee", "roof", 0, "8", false, false); err != nil {
		return err
	}
	// Already paid by an earlier run.
	if err := s.entry(ctx, "emp-dee", "roof", 1, "8", true, false); err != nil {
		return err
	}
	// Flagged and not resolved.
	return s.entry(ctx, "emp-dee", "deck", 2, "8", false, true)
}

// =============================================================================
// SEEDER
// =============================================================================

type seeder struct {
	store  *sqlite.Store
	monday generic.TimePoint
}

func (s *seeder) settings(ctx context.Context, raw string) error {
	return s.store.SavePayrollSettings(ctx, raw)
}

func (s *seeder) projects(ctx context.Context) error {
	for _, p := range []sqlite.Project{
		{ID: "roof", Name: "Roof Repair"},
		{ID: "deck", Name: "Deck Build"},
	} {
		if err := s.store.SaveProject(ctx, p); err != nil {
			return fmt.Errorf("create project %s: %w", p.ID, err)
		}
	}
	return nil
}

func (s *seeder) employee(ctx context.Context, id, name, printName, rate string) error {
	err := s.store.SaveEmployee(ctx, sqlite.Employee{
		ID:               generic.EmployeeID(id),
		Name:             name,
		PrintOnCheckName: printName,
		Payee:            payroll.PayeeRef{Type: payroll.PayeeVendor, ID: "v-" + id},
		BaseRate:         decimal.RequireFromString(rate),
	})
	if err != nil {
		return fmt.Errorf("create employee %s: %w", id, err)
	}
	return nil
}

func (s *seeder) entry(ctx context.Context, employee, project string, day int, hours string, paid, exception bool) error {
	err := s.store.SaveTimeEntry(ctx, sqlite.TimeEntry{
		ID:           uuid.NewString(),
		EmployeeID:   generic.EmployeeID(employee),
		ProjectID:    generic.ProjectID(project),
		Date:         s.monday.AddDays(day),
		Hours:        decimal.RequireFromString(hours),
		Paid:         paid,
		HasException: exception,
	})
	if err != nil {
		return fmt.Errorf("create entry for %s: %w", employee, err)
	}
	return nil
}
