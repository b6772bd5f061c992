/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment, optional .env file)
  2. Parse command-line flags (override the environment)
  3. Initialize logger, SQLite store, and metrics
  4. Wire ledger connector -> submitter -> runner -> API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: $PORT or 8080)
  -db      SQLite database path (default: $DB_PATH or payroll.db)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run against a ledger
  LEDGER_BASE_URL=https://ledger.example.com/v1 ./server

ENVIRONMENT:
  See config/config.go for the full list.

SEE ALSO:
  - api/server.go: Router configuration
  - runner/runner.go: Payroll run orchestration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/ledger/httpclient"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/metrics"
	"github.com/warp/payroll-engine/runner"
	"github.com/warp/payroll-engine/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("db", *dbPath), zap.Error(err))
	}
	defer store.Close()

	m := metrics.New()

	connector := &httpclient.Connector{
		BaseURL: cfg.Ledger.BaseURL,
		Tokens:  store,
		HTTP:    &http.Client{Timeout: cfg.Ledger.Timeout},
		Log:     logger,
	}
	if cfg.Ledger.BaseURL == "" {
		logger.Warn("LEDGER_BASE_URL not set, submissions will return previews")
	}

	submitter := ledger.NewSubmitter(connector, logger, ledger.WithRecorder(m))
	payrollRunner := runner.New(store, submitter, runner.LedgerDefaults{
		DefaultExpenseAccount: cfg.Ledger.DefaultExpenseAccount,
		BankAccountName:       cfg.Ledger.BankAccountName,
		DefaultClassName:      cfg.Ledger.DefaultClassName,
		MemoTemplate:          cfg.Ledger.MemoTemplate,
	}, logger, runner.WithObserver(m))

	handler := api.NewHandler(store, payrollRunner, m, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
			zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
