package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/dnwe/otelsarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/types"
)

type KafkaConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Brokers        []string      `mapstructure:"brokers"`
	TickerTopic    string        `mapstructure:"ticker_topic"`
	OrderBookTopic string        `mapstructure:"orderbook_topic"`
	RequiredAcks   string        `mapstructure:"required_acks"`
	Compression    string        `mapstructure:"compression"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func (c *KafkaConfig) applyDefaults() {
	if c.TickerTopic == "" {
		c.TickerTopic = "gmocoin.ticker"
	}
	if c.OrderBookTopic == "" {
		c.OrderBookTopic = "gmocoin.orderbooks"
	}
	if c.RequiredAcks == "" {
		c.RequiredAcks = "all"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

func (c KafkaConfig) Validate() error {
	if c.Enabled && len(c.Brokers) == 0 {
		return fmt.Errorf("kafka sink: brokers required")
	}
	return nil
}

func buildSaramaConfig(c KafkaConfig) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = "gmocoin-stream"

	switch strings.ToLower(c.RequiredAcks) {
	case "all":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "leader":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("kafka sink: invalid required_acks %q", c.RequiredAcks)
	}

	switch strings.ToLower(c.Compression) {
	case "none":
		sc.Producer.Compression = sarama.CompressionNone
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		sc.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, fmt.Errorf("kafka sink: invalid compression %q", c.Compression)
	}

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Timeout = c.Timeout
	return sc, nil
}

// KafkaSink publishes each record as JSON keyed by symbol, one topic per channel.
type KafkaSink struct {
	producer sarama.SyncProducer
	topics   map[types.Channel]string
	log      *zap.Logger
}

func NewKafkaSink(cfg KafkaConfig, log *zap.Logger) (*KafkaSink, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sc, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka sink: new producer: %w", err)
	}

	log.Info("Kafka sink ready", zap.Strings("brokers", cfg.Brokers))
	return newKafkaSink(otelsarama.WrapSyncProducer(sc, producer), cfg, log), nil
}

func newKafkaSink(producer sarama.SyncProducer, cfg KafkaConfig, log *zap.Logger) *KafkaSink {
	cfg.applyDefaults()
	return &KafkaSink{
		producer: producer,
		topics: map[types.Channel]string{
			types.ChannelTicker:     cfg.TickerTopic,
			types.ChannelOrderBooks: cfg.OrderBookTopic,
		},
		log: log.Named("kafka-sink"),
	}
}

func (s *KafkaSink) Publish(ctx context.Context, msg interfaces.ChannelMessage) error {
	channel := channelOf(msg)
	topic, ok := s.topics[channel]
	if !ok {
		return fmt.Errorf("kafka sink: no topic for channel %q", channel)
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka sink: marshal: %w", err)
	}

	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(msg.GetSymbol()),
		Value:     sarama.ByteEncoder(value),
		Timestamp: msg.GetTimestamp(),
		Headers: []sarama.RecordHeader{
			{Key: []byte("message-id"), Value: []byte(uuid.NewString())},
			{Key: []byte("channel"), Value: []byte(channel)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka sink: send to %s: %w", topic, err)
	}

	s.log.Debug("Published",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
