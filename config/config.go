// Package config loads service configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/payroll-engine/logging"
)

type Config struct {
	Environment string
	Port        int
	DBPath      string
	Log         logging.Config
	Ledger      LedgerConfig
}

// LedgerConfig holds the batch defaults used when submitting checks.
type LedgerConfig struct {
	BaseURL               string
	Timeout               time.Duration
	DefaultExpenseAccount string
	BankAccountName       string
	DefaultClassName      string
	MemoTemplate          string
}

func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	return Config{
		Environment: environment,
		Port:        getenvInt("PORT", 8080),
		DBPath:      getenv("DB_PATH", "payroll.db"),
		Log: logging.Config{
			ServiceName: getenv("APP_SERVICE", "payroll-engine"),
			Environment: environment,
			Level:       getenv("LOG_LEVEL", "info"),
			Format:      getenv("LOG_FORMAT", defaultLogFormat(environment)),
		},
		Ledger: LedgerConfig{
			BaseURL:               strings.TrimSpace(getenv("LEDGER_BASE_URL", "")),
			Timeout:               getenvDuration("LEDGER_TIMEOUT", 15*time.Second),
			DefaultExpenseAccount: getenv("LEDGER_EXPENSE_ACCOUNT", "Payroll Expenses"),
			BankAccountName:       getenv("LEDGER_BANK_ACCOUNT", "Checking"),
			DefaultClassName:      getenv("LEDGER_CLASS", ""),
			MemoTemplate:          getenv("LEDGER_MEMO_TEMPLATE", ""),
		},
	}
}

func defaultLogFormat(environment string) string {
	if environment == "development" {
		return "console"
	}
	return "json"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
