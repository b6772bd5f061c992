package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "LEDGER_BASE_URL", "LEDGER_TIMEOUT", "LEDGER_BANK_ACCOUNT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "payroll.db", cfg.DBPath)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Ledger.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Ledger.Timeout)
	assert.Equal(t, "Checking", cfg.Ledger.BankAccountName)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LEDGER_BASE_URL", " https://ledger.example.com/v3 ")
	t.Setenv("LEDGER_TIMEOUT", "30s")
	t.Setenv("LEDGER_CLASS", "Field Crew")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://ledger.example.com/v3", cfg.Ledger.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Ledger.Timeout)
	assert.Equal(t, "Field Crew", cfg.Ledger.DefaultClassName)
}

func TestGetenvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "eight")
	t.Setenv("X_DUR", "-5s")

	assert.Equal(t, 7, getenvInt("X_INT", 7))
	assert.Equal(t, time.Minute, getenvDuration("X_DUR", time.Minute))
}
