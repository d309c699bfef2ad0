package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/arisanhub/arisand/internal/blob/s3"
	"github.com/arisanhub/arisand/internal/cache/redis"
	"github.com/arisanhub/arisand/internal/chain"
	"github.com/arisanhub/arisand/internal/config"
	"github.com/arisanhub/arisand/internal/crypto"
	"github.com/arisanhub/arisand/internal/domain"
	"github.com/arisanhub/arisand/internal/notify"
	"github.com/arisanhub/arisand/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Chain access
	ChainClient  *chain.Client
	Reader       *chain.Reader
	History      *chain.History
	Orchestrator *chain.Orchestrator // nil when no wallet key is configured

	// Stores
	GroupStore  domain.GroupStore
	JoinStore   domain.JoinStore
	WinnerStore domain.WinnerStore
	UserStore   domain.UserStore

	// Caches
	GroupCache   domain.GroupCache
	BalanceCache domain.BalanceCache
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager
	SignalBus    domain.SignalBus

	// Blob storage (nil unless an S3 bucket is configured)
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Chain client ---
	chainClient, err := chain.NewClient(ctx, chain.ClientConfig{
		RPCURL:         cfg.Chain.RPCURL,
		FactoryAddress: cfg.Chain.FactoryAddress,
		TokenAddress:   cfg.Chain.TokenAddress,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	closers = append(closers, chainClient.Close)

	deps.ChainClient = chainClient
	deps.Reader = chain.NewReader(chainClient, logger)
	deps.History = chain.NewHistory(chainClient, logger)

	// --- Service wallet (optional; read-only without it) ---
	key, err := crypto.LoadSigningKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
	}
	if key != nil {
		submitter, err := chain.NewTxSubmitter(chainClient, key, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: tx submitter: %w", err)
		}
		deps.Orchestrator = chain.NewOrchestrator(
			deps.Reader, submitter,
			chainClient.FactoryAddress(), chainClient.TokenAddress(),
			logger,
		)
		logger.Info("wire: service wallet loaded",
			slog.String("address", crypto.WalletAddress(key)),
		)
	} else {
		logger.Warn("wire: no wallet key configured, write operations disabled")
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	winnerStore := postgres.NewWinnerStore(pool)
	deps.GroupStore = postgres.NewGroupStore(pool)
	deps.JoinStore = postgres.NewJoinStore(pool)
	deps.WinnerStore = winnerStore
	deps.UserStore = postgres.NewUserStore(pool)

	// --- Redis ---
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

	deps.GroupCache = redis.NewGroupCache(redisClient)
	deps.BalanceCache = redis.NewBalanceCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage (archiving is optional) ---
	if cfg.S3.Bucket != "" {
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
		reader := s3blob.NewReader(s3Client)
		deps.BlobReader = reader
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, reader, winnerStore)
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
