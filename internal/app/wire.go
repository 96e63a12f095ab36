package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/kalshibot/internal/blob/s3"
	"github.com/alanyoungcy/kalshibot/internal/cache/redis"
	"github.com/alanyoungcy/kalshibot/internal/config"
	"github.com/alanyoungcy/kalshibot/internal/crypto"
	"github.com/alanyoungcy/kalshibot/internal/domain"
	"github.com/alanyoungcy/kalshibot/internal/notify"
	"github.com/alanyoungcy/kalshibot/internal/platform/kalshi"
	"github.com/alanyoungcy/kalshibot/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. Backend-specific fields stay nil when their backend is not wired for
// the active mode; the evaluator and handlers tolerate that.
type Dependencies struct {
	// Exchange
	KalshiClient *kalshi.Client

	// Stores
	Snapshots domain.SnapshotStore
	Decisions domain.DecisionStore

	// Caches
	Books         domain.BookCache
	DecisionCache domain.DecisionCache
	Bus           domain.DecisionBus

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsPostgres returns true for modes that persist history.
func needsPostgres(mode string) bool {
	switch mode {
	case "monitor", "stream", "full":
		return true
	default:
		return false
	}
}

// needsRedis returns true for modes that serve live state or fan out
// decisions.
func needsRedis(mode string) bool {
	switch mode {
	case "monitor", "stream", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Kalshi client (every mode talks to the exchange) ---
	keyPEM, err := crypto.LoadKey(crypto.KeyConfig{
		KeyPath:          cfg.Kalshi.RsaPrivateKeyPath,
		EncryptedKeyPath: cfg.Kalshi.EncryptedKeyPath,
		KeyPassword:      cfg.Kalshi.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
	}

	kc := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey)
	if err := kc.SetRSAPrivateKey(keyPEM); err != nil {
		return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
	}
	deps.KalshiClient = kc

	// --- PostgreSQL (only for modes that persist history) ---
	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Snapshots = postgres.NewSnapshotStore(pool)
		deps.Decisions = postgres.NewDecisionStore(pool)
	}

	// --- Redis ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Books = redis.NewBookCache(redisClient)
		deps.DecisionCache = redis.NewDecisionCache(redisClient)
		deps.Bus = redis.NewDecisionBus(redisClient)
	}

	// --- S3 blob storage (only when archival is on) ---
	if cfg.Archive.Enabled && needsPostgres(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.Snapshots, deps.Decisions)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
