package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Kalshi.ApiKey = "key-id"
	cfg.Kalshi.RsaPrivateKeyPath = "/tmp/key.pem"
	cfg.Evaluator.Tickers = []string{"KXTEST"}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.Evaluator.Contracts)
	assert.Equal(t, 10.0, cfg.Evaluator.MinProfitCents)
	assert.Equal(t, "maker", cfg.Evaluator.Role)
	assert.Equal(t, time.Second, cfg.Evaluator.PollInterval.Duration)
	assert.True(t, cfg.Evaluator.TopOfBookFallback)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.False(t, cfg.Archive.Enabled)
	assert.Contains(t, cfg.Notify.Events, "quote_opportunity")
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "turbo"
	cfg.Evaluator.Contracts = 0
	cfg.Evaluator.Role = "broker"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
	assert.Contains(t, err.Error(), "contracts")
	assert.Contains(t, err.Error(), "role")
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Kalshi.ApiKey = ""
	cfg.Kalshi.RsaPrivateKeyPath = ""
	cfg.Kalshi.EncryptedKeyPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
	assert.Contains(t, err.Error(), "rsa_private_key_path")
}

func TestValidateRejectsNoTickers(t *testing.T) {
	cfg := validConfig()
	cfg.Evaluator.Tickers = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tickers")
}

func TestValidateRejectsTightPollInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Evaluator.PollInterval = duration{50 * time.Millisecond}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestDurationUnmarshalText(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("5s")))
	assert.Equal(t, 5*time.Second, d.Duration)

	assert.Error(t, d.UnmarshalText([]byte("eventually")))

	text, err := duration{2 * time.Minute}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2m0s", string(text))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KALSHIBOT_MODE", "scan")
	t.Setenv("KALSHIBOT_KALSHI_API_KEY", "env-key")
	t.Setenv("KALSHIBOT_EVALUATOR_TICKERS", "KXA, KXB ,KXC")
	t.Setenv("KALSHIBOT_EVALUATOR_CONTRACTS", "250")
	t.Setenv("KALSHIBOT_EVALUATOR_MIN_PROFIT_CENTS", "7.5")
	t.Setenv("KALSHIBOT_EVALUATOR_POLL_INTERVAL", "30s")
	t.Setenv("KALSHIBOT_POSTGRES_RUN_MIGRATIONS", "false")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, "env-key", cfg.Kalshi.ApiKey)
	assert.Equal(t, []string{"KXA", "KXB", "KXC"}, cfg.Evaluator.Tickers)
	assert.Equal(t, 250, cfg.Evaluator.Contracts)
	assert.Equal(t, 7.5, cfg.Evaluator.MinProfitCents)
	assert.Equal(t, 30*time.Second, cfg.Evaluator.PollInterval.Duration)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestEnvOverridesIgnoreMalformedValues(t *testing.T) {
	t.Setenv("KALSHIBOT_EVALUATOR_CONTRACTS", "many")
	t.Setenv("KALSHIBOT_EVALUATOR_POLL_INTERVAL", "whenever")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, 100, cfg.Evaluator.Contracts)
	assert.Equal(t, time.Second, cfg.Evaluator.PollInterval.Duration)
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Kalshi.ApiKey = "secret-key"
	cfg.Postgres.Password = "pg-pass"
	cfg.Redis.Password = "redis-pass"
	cfg.S3.SecretKey = "s3-secret"
	cfg.Server.APIKey = "api-key"
	cfg.Notify.TelegramToken = "tg-token"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Kalshi.ApiKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	// Original is untouched.
	assert.Equal(t, "secret-key", cfg.Kalshi.ApiKey)

	// Empty secrets stay empty rather than becoming placeholders.
	assert.Empty(t, red.Kalshi.KeyPassword)

	// Slices are copies.
	red.Evaluator.Tickers[0] = "MUTATED"
	assert.Equal(t, "KXTEST", cfg.Evaluator.Tickers[0])
}
