package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.Policy.LockoutThreshold)
	assert.Equal(t, time.Hour, cfg.Policy.LockoutWindow)
	assert.Equal(t, 30*time.Minute, cfg.Policy.SessionTimeout)

	assert.True(t, cfg.Products.LoanInterestRate.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, cfg.Products.FixedDepositInterestRate.Equal(decimal.RequireFromString("0.07")))
	assert.Equal(t, 90*24*time.Hour, cfg.Products.LoanMinAccountAge)
	assert.Equal(t, 30, cfg.Products.FixedDepositMonthDays)
	assert.Equal(t, 1200, cfg.Products.MaxTermMonths)
	assert.Equal(t, 10*time.Minute, cfg.Products.PendingTransferTTL)

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "bank_data.json", cfg.Storage.FilePath)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, uint32(64*1024), cfg.Argon2.Memory)
	assert.Equal(t, uint8(4), cfg.Argon2.Threads)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("policy.lockout_threshold", 3)
	v.Set("loan.interest_rate", "0.10")
	v.Set("storage.driver", "postgres")

	cfg := FromViper(v)
	assert.Equal(t, 3, cfg.Policy.LockoutThreshold)
	assert.True(t, cfg.Products.LoanInterestRate.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "postgres", cfg.Storage.Driver)
}

func TestInvalidDecimalKeepsDefault(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("fixed_deposit.interest_rate", "seven percent")
	v.Set("loan.interest_rate", "0,05")

	cfg := FromViper(v)
	assert.True(t, cfg.Products.FixedDepositInterestRate.Equal(decimal.RequireFromString("0.07")))
	assert.True(t, cfg.Products.LoanInterestRate.Equal(decimal.RequireFromString("0.05")))
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("LOCKOUT_THRESHOLD", "7")
	t.Setenv("DATA_FILE", "/tmp/ledger.json")

	cfg := Load(viper.New())
	assert.Equal(t, 7, cfg.Policy.LockoutThreshold)
	assert.Equal(t, "/tmp/ledger.json", cfg.Storage.FilePath)
}
