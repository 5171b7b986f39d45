package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"BILLING_APP_NAME":                os.Getenv("BILLING_APP_NAME"),
		"BILLING_APP_ENV":                 os.Getenv("BILLING_APP_ENV"),
		"BILLING_APP_PORT":                os.Getenv("BILLING_APP_PORT"),
		"BILLING_DATABASE_HOST":           os.Getenv("BILLING_DATABASE_HOST"),
		"BILLING_DATABASE_PORT":           os.Getenv("BILLING_DATABASE_PORT"),
		"BILLING_DATABASE_USER":           os.Getenv("BILLING_DATABASE_USER"),
		"BILLING_DATABASE_PASSWORD":       os.Getenv("BILLING_DATABASE_PASSWORD"),
		"BILLING_DATABASE_DBNAME":         os.Getenv("BILLING_DATABASE_DBNAME"),
		"BILLING_DATABASE_SSLMODE":        os.Getenv("BILLING_DATABASE_SSLMODE"),
		"BILLING_DATABASE_MAX_OPEN_CONNS": os.Getenv("BILLING_DATABASE_MAX_OPEN_CONNS"),
		"BILLING_DATABASE_MAX_IDLE_CONNS": os.Getenv("BILLING_DATABASE_MAX_IDLE_CONNS"),
		"BILLING_BILLING_TAX_RATE":        os.Getenv("BILLING_BILLING_TAX_RATE"),
		"BILLING_BILLING_DUE_DAYS":        os.Getenv("BILLING_BILLING_DUE_DAYS"),
		"BILLING_RATES_SMS_OUTBOUND":      os.Getenv("BILLING_RATES_SMS_OUTBOUND"),
		"BILLING_STRIPE_ENABLED":          os.Getenv("BILLING_STRIPE_ENABLED"),
		"BILLING_STRIPE_WEBHOOK_SECRET":   os.Getenv("BILLING_STRIPE_WEBHOOK_SECRET"),
		"BILLING_SCHEDULER_SWEEP_HOUR":    os.Getenv("BILLING_SCHEDULER_SWEEP_HOUR"),
		"BILLING_SCHEDULER_SWEEP_MINUTE":  os.Getenv("BILLING_SCHEDULER_SWEEP_MINUTE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "telephony-billing", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "billing", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.True(t, cfg.Billing.TaxRate.Equal(decimal.RequireFromString("8.875")))
		assert.Equal(t, 30, cfg.Billing.DueDays)
		assert.True(t, cfg.Billing.LowBalanceAlert.Equal(decimal.NewFromInt(50)))
		assert.True(t, cfg.Billing.HighUsageAlert.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 5*time.Second, cfg.Billing.MirrorTimeout)
		assert.True(t, cfg.Rates.CallOutboundPerMinute.Equal(decimal.RequireFromString("0.013")))
		assert.Equal(t, 2, cfg.Scheduler.SweepHour)
		assert.Equal(t, 30, cfg.Scheduler.SweepMinute)
		assert.Equal(t, 395, cfg.Retention.UsageRecordDays)
	})

	t.Run("loads values from environment variables with BILLING prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_APP_NAME", "test-app")
		os.Setenv("BILLING_APP_PORT", "9000")
		os.Setenv("BILLING_DATABASE_HOST", "testdb.local")
		os.Setenv("BILLING_DATABASE_PORT", "5433")
		os.Setenv("BILLING_BILLING_TAX_RATE", "6.25")
		os.Setenv("BILLING_BILLING_DUE_DAYS", "14")
		os.Setenv("BILLING_RATES_SMS_OUTBOUND", "0.0095")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Billing.TaxRate.Equal(decimal.RequireFromString("6.25")))
		assert.Equal(t, 14, cfg.Billing.DueDays)
		assert.True(t, cfg.Rates.SMSOutbound.Equal(decimal.RequireFromString("0.0095")))
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("BILLING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates sweep hour range", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_SCHEDULER_SWEEP_HOUR", "24")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sweep_hour")
	})

	t.Run("rejects negative tax rate", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_BILLING_TAX_RATE", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tax_rate")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"BILLING_APP_ENV":               os.Getenv("BILLING_APP_ENV"),
		"BILLING_DATABASE_PASSWORD":     os.Getenv("BILLING_DATABASE_PASSWORD"),
		"BILLING_DATABASE_SSLMODE":      os.Getenv("BILLING_DATABASE_SSLMODE"),
		"BILLING_STRIPE_ENABLED":        os.Getenv("BILLING_STRIPE_ENABLED"),
		"BILLING_STRIPE_WEBHOOK_SECRET": os.Getenv("BILLING_STRIPE_WEBHOOK_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("BILLING_APP_ENV", "production")
		os.Setenv("BILLING_DATABASE_PASSWORD", "secure-password")
		os.Setenv("BILLING_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_APP_ENV", "production")
		os.Setenv("BILLING_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLING_APP_ENV", "production")
		os.Setenv("BILLING_DATABASE_PASSWORD", "secure-password")
		os.Setenv("BILLING_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires webhook secret when stripe enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("BILLING_STRIPE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stripe.webhook_secret")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("BILLING_STRIPE_ENABLED", "true")
		os.Setenv("BILLING_STRIPE_WEBHOOK_SECRET", "whsec_test")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
		assert.True(t, cfg.Stripe.Enabled)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
