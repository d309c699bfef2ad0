package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARISAND_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARISAND_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "ARISAND_CHAIN_RPC_URL")
	setStr(&cfg.Chain.FactoryAddress, "ARISAND_CHAIN_FACTORY_ADDRESS")
	setStr(&cfg.Chain.TokenAddress, "ARISAND_CHAIN_TOKEN_ADDRESS")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "ARISAND_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "ARISAND_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "ARISAND_WALLET_KEY_PASSWORD")

	// ── Database ──
	setStr(&cfg.Database.DSN, "ARISAND_DATABASE_DSN")
	setStr(&cfg.Database.Host, "ARISAND_DATABASE_HOST")
	setInt(&cfg.Database.Port, "ARISAND_DATABASE_PORT")
	setStr(&cfg.Database.Database, "ARISAND_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "ARISAND_DATABASE_USER")
	setStr(&cfg.Database.Password, "ARISAND_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "ARISAND_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "ARISAND_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "ARISAND_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "ARISAND_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARISAND_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARISAND_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARISAND_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARISAND_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARISAND_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARISAND_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARISAND_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARISAND_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARISAND_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARISAND_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARISAND_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARISAND_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARISAND_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARISAND_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARISAND_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARISAND_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARISAND_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ARISAND_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ARISAND_SERVER_RATE_WINDOW")

	// ── Poll ──
	setDuration(&cfg.Poll.SyncInterval, "ARISAND_POLL_SYNC_INTERVAL")
	setDuration(&cfg.Poll.ArchiveInterval, "ARISAND_POLL_ARCHIVE_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARISAND_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARISAND_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARISAND_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARISAND_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARISAND_MODE")
	setStr(&cfg.LogLevel, "ARISAND_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
