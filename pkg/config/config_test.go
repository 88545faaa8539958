package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 3, c.Fetcher.MaxAttempts)
	assert.Equal(t, time.Second, c.Fetcher.Backoff)
	assert.Equal(t, 24*time.Hour, c.Periods.Day)
	assert.Equal(t, 720*time.Hour, c.Periods.Month)
	assert.Equal(t, 45*time.Minute, c.Status.StaleWithRemote)
	assert.Equal(t, 5*time.Minute, c.Status.Remote.TTL)
	assert.Equal(t, 1080, c.Status.Schedule.WeekOpenMinute)
	assert.Equal(t, 240, c.Display.ChartMaxPoints)
	assert.Equal(t, "memory", c.Cache.Backend)
	require.NoError(t, c.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
refresh:
  interval: 30s
fetcher:
  currency: usd
`))
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 30*time.Second, c.Refresh.Interval)
	assert.Equal(t, "usd", c.Fetcher.Currency)
	assert.Equal(t, "grams", c.Fetcher.Unit)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("cache:\n  backend: memcached\n"))
	assert.ErrorContains(t, err, "cache.backend")

	_, err = Parse([]byte("status:\n  remote:\n    enabled: true\n"))
	assert.ErrorContains(t, err, "api_key")

	_, err = Parse([]byte("refresh:\n  interval: 10ms\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	env := map[string]string{
		"HTTP_PORT":             "7000",
		"MARKET_STATUS_API_KEY": "secret",
		"KAFKA_BROKERS":         "k1:9092,k2:9092",
		"REDIS_ADDR":            "redis:6379",
	}

	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, 7000, c.Server.Port)
	assert.True(t, c.Status.Remote.Enabled)
	assert.Equal(t, "secret", c.Status.Remote.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "redis", c.Cache.Backend)
}

func TestApplyEnvBadPort(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(func(k string) string {
		if k == "HTTP_PORT" {
			return "eighty"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestLoadWithEnvReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))
	t.Setenv("PRICE_ENDPOINT", "http://localhost:1/price")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, "http://localhost:1/price", c.Fetcher.PriceEndpoint)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}
