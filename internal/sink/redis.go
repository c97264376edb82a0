package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tradingiq/gmocoin-client/interfaces"
)

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func (c *RedisConfig) applyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "gmocoin"
	}
}

func (c RedisConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("redis sink: addr required")
	}
	return nil
}

// RedisSink stores the latest record per channel and symbol under {prefix}:{channel}:{symbol}
// and publishes it on a pub/sub channel of the same name.
type RedisSink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisSink(ctx context.Context, cfg RedisConfig, log *zap.Logger) (*RedisSink, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis sink: ping %s: %w", cfg.Addr, err)
	}

	log.Info("Redis sink ready", zap.String("addr", cfg.Addr))
	return &RedisSink{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL, log: log.Named("redis-sink")}, nil
}

func (s *RedisSink) Key(msg interfaces.ChannelMessage) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, channelOf(msg), msg.GetSymbol())
}

func (s *RedisSink) Publish(ctx context.Context, msg interfaces.ChannelMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis sink: marshal: %w", err)
	}

	key := s.Key(msg)
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, value, s.ttl)
		p.Publish(ctx, key, value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: write %s: %w", key, err)
	}
	return nil
}

func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
