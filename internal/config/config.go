// Package config defines the top-level configuration for the Kalshi quote
// evaluator and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by KALSHIBOT_* environment
// variables.
type Config struct {
	Kalshi    KalshiConfig    `toml:"kalshi"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Evaluator EvaluatorConfig `toml:"evaluator"`
	Fees      FeesConfig      `toml:"fees"`
	Archive   ArchiveConfig   `toml:"archive"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// KalshiConfig holds Kalshi exchange API credentials and endpoints.
type KalshiConfig struct {
	ApiKey            string `toml:"api_key"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	EncryptedKeyPath  string `toml:"encrypted_key_path"`
	KeyPassword       string `toml:"key_password"`
	BaseURL           string `toml:"base_url"`
	WsURL             string `toml:"ws_url"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// EvaluatorConfig holds the quoting-evaluation parameters.
type EvaluatorConfig struct {
	// Tickers is the list of markets to evaluate.
	Tickers []string `toml:"tickers"`

	// Contracts is the position size every evaluation is priced for.
	Contracts int `toml:"contracts"`

	// MinProfitCents is the minimum acceptable net profit per round trip.
	MinProfitCents float64 `toml:"min_profit_cents"`

	// Role is "maker" or "taker"; both legs of a round trip use it.
	Role string `toml:"role"`

	// PollInterval is the period of the snapshot polling loop.
	PollInterval duration `toml:"poll_interval"`

	// Depth is the number of levels per side requested from the orderbook
	// endpoint (0 uses the API default).
	Depth int `toml:"depth"`

	// TopOfBookFallback synthesizes a one-level book from the market's
	// yes_bid/no_bid when the orderbook endpoint returns an empty book.
	TopOfBookFallback bool `toml:"top_of_book_fallback"`
}

// FeesConfig optionally overrides the production fee schedule. Zero values
// mean "use the Kalshi default rate".
type FeesConfig struct {
	MakerRate float64 `toml:"maker_rate"`
	TakerRate float64 `toml:"taker_rate"`
}

// ArchiveConfig holds cold-storage archival parameters.
type ArchiveConfig struct {
	Enabled       bool   `toml:"enabled"`
	RetentionDays int    `toml:"retention_days"`
	Cron          string `toml:"cron"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"` // if empty, authentication is disabled
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "1m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
			WsURL:   "wss://api.elections.kalshi.com/trade-api/ws/v2",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "kalshibot-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Evaluator: EvaluatorConfig{
			Contracts:         100,
			MinProfitCents:    10.0,
			Role:              "maker",
			PollInterval:      duration{time.Second},
			Depth:             10,
			TopOfBookFallback: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Cron:          "0 3 * * *",
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8000,
		},
		Notify: NotifyConfig{
			Events: []string{"quote_opportunity", "crossed_market", "error"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":    true,
	"monitor": true,
	"stream":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validRoles enumerates the accepted values for Evaluator.Role.
var validRoles = map[string]bool{
	"maker": true,
	"taker": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var problems []string

	if !validModes[strings.ToLower(c.Mode)] {
		problems = append(problems, fmt.Sprintf("mode %q is not one of scan|monitor|stream|full", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug|info|warn|error", c.LogLevel))
	}
	if c.Kalshi.BaseURL == "" {
		problems = append(problems, "kalshi.base_url must not be empty")
	}
	if c.Kalshi.ApiKey == "" {
		problems = append(problems, "kalshi.api_key must not be empty")
	}
	if c.Kalshi.RsaPrivateKeyPath == "" && c.Kalshi.EncryptedKeyPath == "" {
		problems = append(problems, "one of kalshi.rsa_private_key_path or kalshi.encrypted_key_path must be set")
	}
	if len(c.Evaluator.Tickers) == 0 {
		problems = append(problems, "evaluator.tickers must list at least one market")
	}
	if c.Evaluator.Contracts <= 0 {
		problems = append(problems, fmt.Sprintf("evaluator.contracts must be positive, got %d", c.Evaluator.Contracts))
	}
	if c.Evaluator.MinProfitCents < 0 {
		problems = append(problems, fmt.Sprintf("evaluator.min_profit_cents must not be negative, got %.2f", c.Evaluator.MinProfitCents))
	}
	if !validRoles[strings.ToLower(c.Evaluator.Role)] {
		problems = append(problems, fmt.Sprintf("evaluator.role %q is not one of maker|taker", c.Evaluator.Role))
	}
	if c.Evaluator.PollInterval.Duration < 100*time.Millisecond {
		problems = append(problems, fmt.Sprintf("evaluator.poll_interval %s is below the 100ms floor", c.Evaluator.PollInterval))
	}
	if c.Fees.MakerRate < 0 || c.Fees.TakerRate < 0 {
		problems = append(problems, "fees rates must not be negative")
	}
	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Archive.Enabled && c.Archive.RetentionDays <= 0 {
		problems = append(problems, fmt.Sprintf("archive.retention_days must be positive, got %d", c.Archive.RetentionDays))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
