package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, logLevelEnv, logFormatEnv, siteEnv, cachePolicyEnv,
		storeBackendEnv, databaseDSNEnv, redisURLEnv, serverAddrEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load("")
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "network-first", cfg.Cache.Policy)
}

func TestLoadMergesFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
logging:
  level: debug
  format: json
wiki:
  defaultSite: de.wikipedia.org
  timeout: 5s
cache:
  policy: cache-first
store:
  backend: redis
  redis:
    ttl: 1h
relay:
  enabled: true
`)

	cfg := Load(path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "de.wikipedia.org", cfg.Wiki.DefaultSite)
	assert.Equal(t, 5*time.Second, cfg.Wiki.Timeout)
	assert.Equal(t, 20, cfg.Wiki.SearchLimit, "unset fields keep defaults")
	assert.Equal(t, "cache-first", cfg.Cache.Policy)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "wikifetch:article:", cfg.Store.Redis.Prefix)
	assert.True(t, cfg.Relay.Enabled)
	assert.Equal(t, "wikifetch:article-fetched", cfg.Relay.Channel)
}

func TestLoadUsesEnvPath(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, writeConfig(t, "server:\n  addr: \":9000\"\n"))

	assert.Equal(t, ":9000", Load("").Server.Addr)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "store:\n  backend: sqlite\n")
	t.Setenv(storeBackendEnv, "postgres")
	t.Setenv(databaseDSNEnv, "postgres://env")
	t.Setenv(redisURLEnv, "redis://env:6379")
	t.Setenv(siteEnv, "fr")
	t.Setenv(logLevelEnv, "warn")
	t.Setenv(cachePolicyEnv, "cache-first")

	cfg := Load(path)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://env", cfg.Store.Postgres.DSN)
	assert.Equal(t, "redis://env:6379", cfg.Store.Redis.URL)
	assert.Equal(t, "fr", cfg.Wiki.DefaultSite)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "cache-first", cfg.Cache.Policy)
}

func TestLoadFallsBackOnBadInput(t *testing.T) {
	clearEnv(t)

	assert.Equal(t, defaultConfig(), Load(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Equal(t, defaultConfig(), Load(writeConfig(t, "logging: [unclosed")))

	cfg := Load(writeConfig(t, "store:\n  backend: cassandra\nwiki:\n  timeout: -1s\n"))
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 20*time.Second, cfg.Wiki.Timeout)
}
