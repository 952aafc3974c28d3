package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("SKILLCHAIN_CONFIG", "")
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Storage.TxTimeout)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.True(t, cfg.UsesDevSigningKey())
}

func TestFromEnv_FileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skillchain.yaml")
	err := os.WriteFile(path, []byte(`
server:
  addr: ":9090"
storage:
  driver: postgres
  dsn: postgres://registry@localhost/registry
  tx_timeout: 2s
kafka:
  brokers: ["localhost:9092"]
logging:
  format: text
`), 0o600)
	require.NoError(t, err)

	t.Setenv("SKILLCHAIN_CONFIG", path)
	t.Setenv("SKILLCHAIN_ADDR", ":7070")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CALLER_TOKEN_TTL", "15m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Storage.TxTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "skillchain.registry.events", cfg.Kafka.Topic, "unset file keys keep defaults")
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("SKILLCHAIN_CONFIG", "")
	t.Setenv("SKILLCHAIN_TX_TIMEOUT", "soon")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "SKILLCHAIN_TX_TIMEOUT")
}

func TestValidate(t *testing.T) {
	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Driver = StoragePostgres
		assert.ErrorContains(t, cfg.Validate(), "storage.dsn")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Driver = "sqlite"
		assert.ErrorContains(t, cfg.Validate(), "storage.driver")
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Addr = ""
		cfg.Auth.SigningKey = ""
		err := cfg.Validate()
		assert.ErrorContains(t, err, "server.addr")
		assert.ErrorContains(t, err, "auth.signing_key")
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}

func TestFromEnv_RateLimit(t *testing.T) {
	t.Setenv("SKILLCHAIN_CONFIG", "")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Limits.Enabled)
	assert.Equal(t, 5, cfg.Limits.Requests)
	assert.Equal(t, 10*time.Second, cfg.Limits.Window)

	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "rate_limit")

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	_, err = FromEnv()
	assert.NoError(t, err, "limits are not checked when disabled")
}
