/*
payrollctl - Command-line front end for the payroll engine

PURPOSE:
  Runs the same pipeline as the HTTP API against a local SQLite database:
  seed a demo week, preview drafts, fingerprint a batch, submit it, and
  list past runs.

COMMANDS:
  seed SCENARIO                 Reset the database and load a demo scenario
  preview --start --end         Print drafts (or the CSV register with --csv)
  snapshot --start --end        Print the batch hash and check count
  submit --start --end          Send checks and record the run
  runs                          List recent runs

LEDGER:
  By default checks go to LEDGER_BASE_URL with the stored access token.
  --sandbox submits to an in-process ledger that knows the configured
  accounts and every employee's payee instead.

SEE ALSO:
  - cmd/server: HTTP server
  - config/config.go: Environment variables
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/logging"
	"go.uber.org/zap"
)

var (
	cfg    config.Config
	logger *zap.Logger

	dbPath string
)

var rootCmd = &cobra.Command{
	Use:           "payrollctl",
	Short:         "Preview and submit payroll from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = log
		return nil
	},
}

func init() {
	cfg = config.Load()
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "SQLite database path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
