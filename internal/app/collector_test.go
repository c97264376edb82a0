package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tradingiq/gmocoin-client/internal/config"
	"github.com/tradingiq/gmocoin-client/internal/httpserver"
	"github.com/tradingiq/gmocoin-client/internal/sink"
	"github.com/tradingiq/gmocoin-client/internal/supervisor"
)

const tickerFrame = `{"channel":"ticker","ask":"750760","bid":"750600","high":"762302","last":"756662","low":"704874","symbol":"BTC","timestamp":"2018-03-30T12:34:56.789Z","volume":"194785.8484"}`

func newExchange(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.Write(ctx, websocket.MessageText, []byte(tickerFrame)); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRun_StreamsIntoRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Stream: config.StreamConfig{
			Endpoint:   newExchange(t),
			Symbols:    []string{"BTC"},
			Channels:   []string{"ticker"},
			BufferSize: 4096,
		},
		Supervisor: supervisor.Config{InitialInterval: 10 * time.Millisecond},
		HTTP:       httpserver.Config{Addr: "127.0.0.1:0"},
		Sinks: config.SinksConfig{
			Redis: sink.RedisConfig{Enabled: true, Addr: mr.Addr()},
		},
	}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, zaptest.NewLogger(t)) }()

	require.Eventually(t, func() bool {
		return mr.Exists("gmocoin:ticker:BTC")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestRun_SinkFailure(t *testing.T) {
	cfg := &config.Config{
		Stream: config.StreamConfig{Endpoint: "ws://127.0.0.1:1", Symbols: []string{"BTC"}, Channels: []string{"ticker"}, BufferSize: 4096},
		HTTP:   httpserver.Config{Addr: "127.0.0.1:0"},
		Sinks:  config.SinksConfig{Redis: sink.RedisConfig{Enabled: true, Addr: "127.0.0.1:1"}},
	}

	err := Run(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestReadiness(t *testing.T) {
	s := supervisor.New("ticker:BTC", supervisor.Config{}, nil)

	err := readiness([]*supervisor.Supervisor{s})()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticker:BTC")

	assert.NoError(t, readiness(nil)())
}
