package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradingiq/gmocoin-client/types"
	"github.com/tradingiq/gmocoin-client/websocket"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, websocket.GMOCoinPublicWebSocketURL, cfg.Stream.Endpoint)
	assert.Equal(t, []types.Symbol{types.BTC}, cfg.Symbols())
	assert.Equal(t, []types.Channel{types.ChannelTicker}, cfg.Channels())
	assert.Equal(t, websocket.DefaultBufferSize, cfg.Stream.BufferSize)
	assert.Equal(t, time.Second, cfg.Stream.CommandInterval)
	assert.Equal(t, 2*time.Minute, cfg.Supervisor.IdleTimeout)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.Sinks.Log)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gmocoin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stream:
  symbols: [ETH, XRP]
  channels: [ticker, orderbooks]
  buffer_size: 65536
supervisor:
  idle_timeout: 30s
sinks:
  redis:
    enabled: true
    addr: redis:6379
`), 0o600))

	t.Setenv("GMOCOIN_STREAM_COMMAND_INTERVAL", "1500ms")
	t.Setenv("GMOCOIN_SINKS_KAFKA_ENABLED", "true")
	t.Setenv("GMOCOIN_SINKS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("GMOCOIN_STREAM_BUFFER_SIZE", "131072")

	cfg, err := Load(newFlags(t, "--config", path, "--symbols", "BTC_JPY", "--log-level", "debug"))
	require.NoError(t, err)

	assert.Equal(t, []types.Symbol{types.BTC_JPY}, cfg.Symbols())
	assert.Equal(t, []types.Channel{types.ChannelTicker, types.ChannelOrderBooks}, cfg.Channels())
	assert.Equal(t, 131072, cfg.Stream.BufferSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Stream.CommandInterval)
	assert.Equal(t, 30*time.Second, cfg.Supervisor.IdleTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Sinks.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Sinks.Redis.Addr)
	assert.True(t, cfg.Sinks.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Sinks.Kafka.Brokers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(newFlags(t))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown symbol", func(c *Config) { c.Stream.Symbols = []string{"DOGECOIN"} }},
		{"no symbols", func(c *Config) { c.Stream.Symbols = nil }},
		{"unknown channel", func(c *Config) { c.Stream.Channels = []string{"trades"} }},
		{"zero buffer", func(c *Config) { c.Stream.BufferSize = 0 }},
		{"no sinks", func(c *Config) { c.Sinks.Log = false }},
		{"kafka without brokers", func(c *Config) { c.Sinks.Kafka.Enabled = true; c.Sinks.Kafka.Brokers = nil }},
		{"redis without addr", func(c *Config) { c.Sinks.Redis.Enabled = true; c.Sinks.Redis.Addr = "" }},
		{"empty http addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"telemetry ratio", func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.SamplerRatio = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
