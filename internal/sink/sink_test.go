package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/types"
)

var (
	ts = time.Date(2018, 3, 30, 12, 34, 56, 789000000, time.UTC)

	ticker = types.TickerUpdate{
		Channel:   types.ChannelTicker,
		Ask:       decimal.RequireFromString("750760"),
		Bid:       decimal.RequireFromString("750600"),
		High:      decimal.RequireFromString("762302"),
		Last:      decimal.RequireFromString("756662"),
		Low:       decimal.RequireFromString("704874"),
		Symbol:    types.BTC,
		Timestamp: ts,
		Volume:    decimal.RequireFromString("194785.8484"),
	}

	book = types.OrderBookUpdate{
		Asks:      []types.OrderBookLevel{{Price: decimal.RequireFromString("31000"), Size: decimal.RequireFromString("2")}},
		Bids:      []types.OrderBookLevel{{Price: decimal.RequireFromString("30990"), Size: decimal.RequireFromString("1.5")}},
		Symbol:    types.ETH,
		Timestamp: ts,
	}
)

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, interfaces.ChannelMessage) error { return f.err }
func (f failingSink) Close() error                                            { return f.err }

func TestChannelOf(t *testing.T) {
	assert.Equal(t, types.ChannelTicker, channelOf(ticker))
	assert.Equal(t, types.ChannelOrderBooks, channelOf(book))
	assert.Equal(t, types.ChannelTicker, channelOf(types.TickerUpdate{}))
}

func TestFanout(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	first := errors.New("first")
	second := errors.New("second")

	f := Fanout{failingSink{first}, NewLogSink(zap.New(core)), failingSink{second}}
	err := f.Publish(context.Background(), ticker)

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, 1, logs.Len())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(zap.New(core))

	require.NoError(t, s.Publish(context.Background(), ticker))
	require.NoError(t, s.Publish(context.Background(), book))

	entries := logs.All()
	require.Len(t, entries, 2)

	tf := entries[0].ContextMap()
	assert.Equal(t, "ticker", tf["channel"])
	assert.Equal(t, "160", tf["spread"])

	bf := entries[1].ContextMap()
	assert.Equal(t, "orderbooks", bf["channel"])
	assert.Equal(t, "31000", bf["best_ask"])
	assert.Equal(t, int64(2), bf["depth"])
}

func TestKafkaSink_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "gmocoin.ticker" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "BTC" {
			return errors.New("unexpected key " + string(key))
		}
		value, _ := msg.Value.Encode()
		var got types.TickerUpdate
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if !got.Last.Equal(ticker.Last) {
			return errors.New("last price changed in transit")
		}
		return nil
	})
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "books" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		return nil
	})

	s := newKafkaSink(producer, KafkaConfig{OrderBookTopic: "books"}, zaptest.NewLogger(t))
	require.NoError(t, s.Publish(context.Background(), ticker))
	require.NoError(t, s.Publish(context.Background(), book))
	require.NoError(t, s.Close())
}

func TestKafkaSink_PublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	s := newKafkaSink(producer, KafkaConfig{}, zaptest.NewLogger(t))
	err := s.Publish(context.Background(), ticker)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, s.Close())
}

func TestBuildSaramaConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     KafkaConfig
		wantErr bool
	}{
		{"defaults", KafkaConfig{RequiredAcks: "all", Compression: "none"}, false},
		{"mixed case", KafkaConfig{RequiredAcks: "Leader", Compression: "ZSTD"}, false},
		{"bad acks", KafkaConfig{RequiredAcks: "most", Compression: "none"}, true},
		{"bad compression", KafkaConfig{RequiredAcks: "all", Compression: "brotli"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := buildSaramaConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, sc.Producer.Return.Successes)
		})
	}
}

func TestNewKafkaSink_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{Enabled: true}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRedisSink(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisSink(ctx, RedisConfig{Enabled: true, Addr: mr.Addr(), TTL: time.Minute}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("gmocoin:ticker:BTC")

	require.NoError(t, s.Publish(ctx, ticker))
	require.NoError(t, s.Publish(ctx, book))

	raw, err := mr.Get("gmocoin:ticker:BTC")
	require.NoError(t, err)
	var got types.TickerUpdate
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.True(t, got.Ask.Equal(ticker.Ask))
	assert.Equal(t, time.Minute, mr.TTL("gmocoin:ticker:BTC"))

	assert.True(t, mr.Exists("gmocoin:orderbooks:ETH"))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, raw, msg.Message)
	case <-time.After(time.Second):
		t.Fatal("no pub/sub message")
	}

	assert.NoError(t, s.Ping(ctx))
}

func TestNewRedisSink_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisSink(context.Background(), RedisConfig{Addr: addr}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
