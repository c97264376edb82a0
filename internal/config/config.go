package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tradingiq/gmocoin-client/internal/httpserver"
	"github.com/tradingiq/gmocoin-client/internal/logger"
	"github.com/tradingiq/gmocoin-client/internal/sink"
	"github.com/tradingiq/gmocoin-client/internal/supervisor"
	"github.com/tradingiq/gmocoin-client/internal/telemetry"
	"github.com/tradingiq/gmocoin-client/types"
	"github.com/tradingiq/gmocoin-client/websocket"
)

const EnvPrefix = "GMOCOIN"

type Config struct {
	Log        logger.Config     `mapstructure:"log"`
	Stream     StreamConfig      `mapstructure:"stream"`
	Supervisor supervisor.Config `mapstructure:"supervisor"`
	HTTP       httpserver.Config `mapstructure:"http"`
	Telemetry  telemetry.Config  `mapstructure:"telemetry"`
	Sinks      SinksConfig       `mapstructure:"sinks"`
}

type StreamConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Symbols         []string      `mapstructure:"symbols"`
	Channels        []string      `mapstructure:"channels"`
	BufferSize      int           `mapstructure:"buffer_size"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	CloseTimeout    time.Duration `mapstructure:"close_timeout"`
	CommandInterval time.Duration `mapstructure:"command_interval"`
}

type SinksConfig struct {
	Log   bool             `mapstructure:"log"`
	Kafka sink.KafkaConfig `mapstructure:"kafka"`
	Redis sink.RedisConfig `mapstructure:"redis"`
}

var defaults = map[string]any{
	"log.level":    "info",
	"log.dev_mode": false,

	"stream.endpoint":         websocket.GMOCoinPublicWebSocketURL,
	"stream.symbols":          []string{string(types.BTC)},
	"stream.channels":         []string{string(types.ChannelTicker)},
	"stream.buffer_size":      websocket.DefaultBufferSize,
	"stream.dial_timeout":     websocket.DefaultDialTimeout,
	"stream.close_timeout":    websocket.DefaultCloseTimeout,
	"stream.command_interval": time.Second,

	"supervisor.initial_interval": time.Second,
	"supervisor.max_interval":     time.Minute,
	"supervisor.multiplier":       2.0,
	"supervisor.max_elapsed_time": time.Duration(0),
	"supervisor.idle_timeout":     2 * time.Minute,

	"http.addr":             ":9090",
	"http.read_timeout":     10 * time.Second,
	"http.write_timeout":    15 * time.Second,
	"http.shutdown_timeout": 5 * time.Second,

	"telemetry.enabled":         false,
	"telemetry.endpoint":        "localhost:4317",
	"telemetry.service_name":    "gmocoin-stream",
	"telemetry.service_version": "dev",
	"telemetry.insecure":        true,
	"telemetry.sampler_ratio":   1.0,
	"telemetry.timeout":         5 * time.Second,

	"sinks.log": true,

	"sinks.kafka.enabled":         false,
	"sinks.kafka.brokers":         []string{"localhost:9092"},
	"sinks.kafka.ticker_topic":    "gmocoin.ticker",
	"sinks.kafka.orderbook_topic": "gmocoin.orderbooks",
	"sinks.kafka.required_acks":   "all",
	"sinks.kafka.compression":     "none",
	"sinks.kafka.timeout":         5 * time.Second,

	"sinks.redis.enabled":    false,
	"sinks.redis.addr":       "localhost:6379",
	"sinks.redis.password":   "",
	"sinks.redis.db":         0,
	"sinks.redis.key_prefix": "gmocoin",
	"sinks.redis.ttl":        time.Duration(0),
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"log-level": "log.level",
	"dev":       "log.dev_mode",
	"symbols":   "stream.symbols",
	"channels":  "stream.channels",
	"http-addr": "http.addr",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Bool("dev", false, "human readable console logs")
	fs.StringSlice("symbols", nil, "symbols to stream, e.g. BTC,ETH_JPY")
	fs.StringSlice("channels", nil, "channels to stream: ticker, orderbooks")
	fs.String("http-addr", ":9090", "address for /metrics, /healthz and /readyz")
}

// Load resolves the configuration from, in increasing priority: defaults, the config file,
// GMOCOIN_* environment variables (a .env file in the working directory is loaded first)
// and flags set on fs.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %q: %w", f.Value.String(), err)
			}
		}
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := decode(v.AllSettings(), &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func decode(input map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			stringToBoolHook,
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func stringToBoolHook(f, t reflect.Kind, data any) (any, error) {
	if f == reflect.String && t == reflect.Bool {
		return strconv.ParseBool(data.(string))
	}
	return data, nil
}

func (c *Config) Validate() error {
	if len(c.Stream.Symbols) == 0 {
		return errors.New("stream.symbols must not be empty")
	}
	for _, s := range c.Stream.Symbols {
		if _, err := types.ParseSymbol(strings.TrimSpace(s)); err != nil {
			return fmt.Errorf("stream.symbols: %w", err)
		}
	}

	if len(c.Stream.Channels) == 0 {
		return errors.New("stream.channels must not be empty")
	}
	for _, ch := range c.Stream.Channels {
		switch types.Channel(strings.TrimSpace(ch)) {
		case types.ChannelTicker, types.ChannelOrderBooks:
		default:
			return fmt.Errorf("stream.channels: unknown channel %q", ch)
		}
	}

	if c.Stream.BufferSize <= 0 {
		return fmt.Errorf("stream.buffer_size must be positive, got %d", c.Stream.BufferSize)
	}
	if !c.Sinks.Log && !c.Sinks.Kafka.Enabled && !c.Sinks.Redis.Enabled {
		return errors.New("at least one sink must be enabled")
	}

	for _, v := range []interface{ Validate() error }{c.HTTP, c.Telemetry, c.Sinks.Kafka, c.Sinks.Redis} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Symbols returns the parsed stream symbols. Call after Validate.
func (c *Config) Symbols() []types.Symbol {
	symbols := make([]types.Symbol, 0, len(c.Stream.Symbols))
	for _, s := range c.Stream.Symbols {
		symbol, _ := types.ParseSymbol(strings.TrimSpace(s))
		symbols = append(symbols, symbol)
	}
	return symbols
}

func (c *Config) Channels() []types.Channel {
	channels := make([]types.Channel, 0, len(c.Stream.Channels))
	for _, ch := range c.Stream.Channels {
		channels = append(channels, types.Channel(strings.TrimSpace(ch)))
	}
	return channels
}
