package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Chain.FactoryAddress = "0x1111111111111111111111111111111111111111"
	cfg.Chain.TokenAddress = "0x2222222222222222222222222222222222222222"
	return cfg
}

func TestDefaultsValidateWithAddresses(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "dance"
	cfg.LogLevel = "loud"
	cfg.Chain.RPCURL = ""
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown log_level")
	assert.Contains(t, err.Error(), "rpc_url")
	assert.Contains(t, err.Error(), "redis: addr")
}

func TestValidateEncryptedKeyNeedsPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.EncryptedKeyPath = "/tmp/key.json"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_password")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "serve"

[chain]
rpc_url = "https://rpc.example.org"
factory_address = "0x1111111111111111111111111111111111111111"
token_address = "0x2222222222222222222222222222222222222222"

[poll]
sync_interval = "45s"
`), 0o600))

	t.Setenv("ARISAND_SERVER_PORT", "9090")
	t.Setenv("ARISAND_WALLET_PRIVATE_KEY", "deadbeef")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, "https://rpc.example.org", cfg.Chain.RPCURL)
	assert.Equal(t, 45*time.Second, cfg.Poll.SyncInterval.Duration)
	assert.Equal(t, 9090, cfg.Server.Port, "env override wins")
	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.PrivateKey = "deadbeef"
	cfg.Database.Password = "hunter2"
	cfg.S3.SecretKey = "sssh"
	cfg.Server.APIKey = "token"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.Database.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Server.APIKey)
	// The original is untouched.
	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey)
}
