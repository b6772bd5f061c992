package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/ledger/httpclient"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/runner"
	"github.com/warp/payroll-engine/store/sqlite"
)

// Flags shared by preview, snapshot, and submit.
var (
	periodStart string
	periodEnd   string
	only        []string
	exclude     []string
	noOvertime  bool

	asCSV   bool
	force   bool
	reason  string
	txnDate string
	sandbox bool

	seedMonday string
	runsLimit  int
)

func init() {
	rootCmd.AddCommand(seedCmd, previewCmd, snapshotCmd, submitCmd, runsCmd)

	for _, cmd := range []*cobra.Command{previewCmd, snapshotCmd, submitCmd} {
		cmd.Flags().StringVar(&periodStart, "start", "", "Period start (YYYY-MM-DD)")
		cmd.Flags().StringVar(&periodEnd, "end", "", "Period end (YYYY-MM-DD)")
		cmd.Flags().StringSliceVar(&only, "only", nil, "Only these employee IDs")
		cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Leave these employee IDs out")
		cmd.Flags().BoolVar(&noOvertime, "no-overtime", false, "Pay every hour at the base rate")
		cmd.MarkFlagRequired("start")
		cmd.MarkFlagRequired("end")
	}
	for _, cmd := range []*cobra.Command{previewCmd, submitCmd} {
		cmd.Flags().BoolVar(&sandbox, "sandbox", false, "Use an in-process ledger instead of LEDGER_BASE_URL")
	}

	previewCmd.Flags().BoolVar(&asCSV, "csv", false, "Write the payroll register as CSV")

	submitCmd.Flags().BoolVar(&force, "force", false, "Submit even if this batch was already submitted")
	submitCmd.Flags().StringVar(&reason, "reason", "", "Adjustment reason added to every memo")
	submitCmd.Flags().StringVar(&txnDate, "txn-date", "", "Check date (YYYY-MM-DD, default today)")

	seedCmd.Flags().StringVar(&seedMonday, "monday", "", "First day of the seeded week (default: last week's Monday)")

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to list")
}

// =============================================================================
// seed
// =============================================================================

var seedCmd = &cobra.Command{
	Use:   "seed SCENARIO",
	Short: "Reset the database and load a demo scenario",
	Long: `Reset the database and load a demo scenario. Available scenarios:
multi-project-day, overtime-week, double-time, exceptions.
The ledger access token survives the reset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.New(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		week := api.ScenarioWeek(time.Now())
		if seedMonday != "" {
			monday, err := generic.ParseDay(seedMonday)
			if err != nil {
				return fmt.Errorf("invalid --monday: %w", err)
			}
			week = generic.Period{Start: monday, End: monday.AddDays(6)}
		}

		if err := api.LoadScenario(cmd.Context(), store, args[0], week.Start); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %s for %s\n", args[0], week)
		fmt.Fprintf(cmd.OutOrStdout(), "next: payrollctl preview --start %s --end %s\n", week.Start, week.End)
		return nil
	},
}

// =============================================================================
// preview / snapshot
// =============================================================================

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Build drafts for a period without sending anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := newRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		req, err := buildRequest()
		if err != nil {
			return err
		}

		if asCSV {
			drafts, _, err := r.Drafts(cmd.Context(), req)
			if err != nil {
				return err
			}
			return payroll.WriteRegisterCSV(cmd.OutOrStdout(), drafts)
		}

		res, err := r.Preview(cmd.Context(), req)
		if err != nil {
			return err
		}
		printDrafts(cmd, res.Drafts)
		fmt.Fprintf(cmd.OutOrStdout(), "\nsnapshot %s (%d checks)\n", res.Snapshot.Hash, res.Snapshot.Count)
		printOutcome(cmd, res.Ledger)
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the fingerprint of the batch a period would submit",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := newRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		req, err := buildRequest()
		if err != nil {
			return err
		}
		snap, err := r.Snapshot(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", snap.Hash, snap.Count)
		return nil
	},
}

// =============================================================================
// submit
// =============================================================================

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send checks to the ledger and record the run",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := newRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		req, err := buildRequest()
		if err != nil {
			return err
		}
		req.Force = force
		req.AdjustmentReason = reason
		if txnDate != "" {
			if req.TxnDate, err = generic.ParseDay(txnDate); err != nil {
				return fmt.Errorf("invalid --txn-date: %w", err)
			}
		}

		res, err := r.Submit(cmd.Context(), req)
		var dup *generic.DuplicateRunError
		if errors.As(err, &dup) {
			return fmt.Errorf("%w (run %s); use --force to submit again", err, dup.RunID)
		}
		if res == nil {
			return err
		}

		printOutcome(cmd, res.Outcome)
		if res.Run != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s: %s (%d checks)\n", res.Run.ID, res.Run.Status, res.Run.CheckCount)
		}
		return err
	},
}

// =============================================================================
// runs
// =============================================================================

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent payroll runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.New(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tPERIOD\tSTATUS\tCHECKS\tCREATED")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				run.ID, run.Period, run.Status, run.CheckCount, run.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

// =============================================================================
// WIRING
// =============================================================================

// newRunner opens the database and wires the runner to the configured
// ledger, or to a sandbox ledger built from the database.
func newRunner(ctx context.Context) (*runner.Runner, *sqlite.Store, error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, err
	}

	var connector ledger.Connector = &httpclient.Connector{
		BaseURL: cfg.Ledger.BaseURL,
		Tokens:  store,
		HTTP:    &http.Client{Timeout: cfg.Ledger.Timeout},
		Log:     logger,
	}
	if sandbox {
		connector, err = sandboxLedger(ctx, store)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
	}

	r := runner.New(store, ledger.NewSubmitter(connector, logger), runner.LedgerDefaults{
		DefaultExpenseAccount: cfg.Ledger.DefaultExpenseAccount,
		BankAccountName:       cfg.Ledger.BankAccountName,
		DefaultClassName:      cfg.Ledger.DefaultClassName,
		MemoTemplate:          cfg.Ledger.MemoTemplate,
	}, logger)
	return r, store, nil
}

func sandboxLedger(ctx context.Context, store *sqlite.Store) (*ledger.MemoryLedger, error) {
	l := ledger.NewMemoryLedger().
		AddAccount(cfg.Ledger.BankAccountName, "sandbox-bank").
		AddAccount(cfg.Ledger.DefaultExpenseAccount, "sandbox-expense")
	if cfg.Ledger.DefaultClassName != "" {
		l.AddClass(cfg.Ledger.DefaultClassName, "sandbox-class")
	}

	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range employees {
		if e.Payee.IsZero() {
			continue
		}
		l.AddPayee(ledger.Payee{Ref: e.Payee, DisplayName: e.Name, PrintOnCheckName: e.PrintOnCheckName})
	}
	return l, nil
}

func buildRequest() (runner.Request, error) {
	period, err := generic.ParsePeriod(periodStart, periodEnd)
	if err != nil {
		return runner.Request{}, fmt.Errorf("invalid period: %w", err)
	}
	return runner.Request{
		Period:             period,
		OnlyEmployeeIDs:    toEmployeeIDs(only),
		ExcludeEmployeeIDs: toEmployeeIDs(exclude),
		IncludeOvertime:    !noOvertime,
	}, nil
}

func toEmployeeIDs(ids []string) []generic.EmployeeID {
	var out []generic.EmployeeID
	for _, id := range ids {
		out = append(out, generic.EmployeeID(id))
	}
	return out
}

// =============================================================================
// OUTPUT
// =============================================================================

func printDrafts(cmd *cobra.Command, drafts []payroll.CheckDraft) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMPLOYEE\tNAME\tLINE\tHOURS\tAMOUNT")
	for _, d := range drafts {
		for _, l := range d.Lines {
			label := l.ProjectName
			if l.IsCustom {
				label = l.Description + " (custom)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				d.EmployeeID, d.DisplayName, label, l.ProjectHours.StringFixed(2), l.ProjectPay.StringFixed(2))
		}
		fmt.Fprintf(w, "\t\tTOTAL\t%s\t%s\n", d.TotalHours.StringFixed(2), d.TotalPay.StringFixed(2))
	}
	w.Flush()
}

func printOutcome(cmd *cobra.Command, o ledger.Outcome) {
	out := cmd.OutOrStdout()
	if !o.Connected() {
		fmt.Fprintf(out, "\nledger: %s (nothing sent)\n", o.Reason)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nEMPLOYEE\tAMOUNT\tRESULT")
	for _, r := range o.Results {
		result := "ok"
		switch {
		case r.Previewed:
			result = "ready"
		case r.TransactionID != "":
			result = "created " + r.TransactionID
		case r.Error != "":
			result = r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.EmployeeID, r.Amount.StringFixed(2), result)
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "\t\twarning: %s\n", warning)
		}
	}
	w.Flush()
	if o.FatalError != "" {
		fmt.Fprintf(os.Stderr, "batch stopped: %s\n", o.FatalError)
	}
}
