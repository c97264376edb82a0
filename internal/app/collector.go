package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/internal/config"
	"github.com/tradingiq/gmocoin-client/internal/httpserver"
	"github.com/tradingiq/gmocoin-client/internal/sink"
	"github.com/tradingiq/gmocoin-client/internal/supervisor"
	"github.com/tradingiq/gmocoin-client/internal/telemetry"
	"github.com/tradingiq/gmocoin-client/types"
	"github.com/tradingiq/gmocoin-client/websocket"
)

// Run streams every configured channel and symbol into the configured sinks until ctx is
// cancelled or a subscription gives up.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			log.Error("Tracer shutdown failed", zap.Error(err))
		}
	}()

	websocket.RegisterMetrics(prometheus.DefaultRegisterer)

	sinks, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Error("Sink close failed", zap.Error(err))
		}
	}()

	client := websocket.NewClient(log.Named("websocket"),
		websocket.WithEndpoint(cfg.Stream.Endpoint),
		websocket.WithBufferSize(cfg.Stream.BufferSize),
		websocket.WithDialTimeout(cfg.Stream.DialTimeout),
		websocket.WithCloseTimeout(cfg.Stream.CloseTimeout),
		websocket.WithCommandInterval(cfg.Stream.CommandInterval),
		websocket.WithDecodeFailureHandler(func(f websocket.DecodeFailure) {
			log.Warn("Dropped frame",
				zap.String("channel", string(f.Channel)),
				zap.String("symbol", string(f.Symbol)),
				zap.ByteString("frame", f.Frame),
				zap.Error(f.Err),
			)
		}),
	)

	g, gctx := errgroup.WithContext(ctx)

	var supervisors []*supervisor.Supervisor
	for _, channel := range cfg.Channels() {
		for _, symbol := range cfg.Symbols() {
			s := supervisor.New(string(channel)+":"+string(symbol), cfg.Supervisor, log)
			supervisors = append(supervisors, s)

			switch channel {
			case types.ChannelTicker:
				g.Go(func() error {
					return supervisor.Run(gctx, s, func(ctx context.Context) iter.Seq2[types.TickerUpdate, error] {
						return client.SubscribeTicker(ctx, symbol)
					}, publisher[types.TickerUpdate](sinks, log))
				})
			case types.ChannelOrderBooks:
				g.Go(func() error {
					return supervisor.Run(gctx, s, func(ctx context.Context) iter.Seq2[types.OrderBookUpdate, error] {
						return client.SubscribeOrderBook(ctx, symbol)
					}, publisher[types.OrderBookUpdate](sinks, log))
				})
			}
		}
	}

	srv, err := httpserver.New(cfg.HTTP, prometheus.DefaultGatherer, readiness(supervisors), log)
	if err != nil {
		return err
	}
	g.Go(func() error { return srv.Start(gctx) })

	log.Info("Collector started",
		zap.Strings("symbols", cfg.Stream.Symbols),
		zap.Strings("channels", cfg.Stream.Channels),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("Collector stopped")
	return nil
}

func buildSinks(ctx context.Context, cfg *config.Config, log *zap.Logger) (sink.Fanout, error) {
	var sinks sink.Fanout
	if cfg.Sinks.Log {
		sinks = append(sinks, sink.NewLogSink(log))
	}
	if cfg.Sinks.Kafka.Enabled {
		k, err := sink.NewKafkaSink(cfg.Sinks.Kafka, log)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, k)
	}
	if cfg.Sinks.Redis.Enabled {
		r, err := sink.NewRedisSink(ctx, cfg.Sinks.Redis, log)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, r)
	}
	return sinks, nil
}

func publisher[T interfaces.ChannelMessage](sinks sink.Sink, log *zap.Logger) func(context.Context, T) {
	return func(ctx context.Context, record T) {
		if err := sinks.Publish(ctx, record); err != nil {
			log.Warn("Publish failed",
				zap.String("symbol", string(record.GetSymbol())),
				zap.Error(err),
			)
		}
	}
}

// readiness fails until every subscription is delivering records.
func readiness(supervisors []*supervisor.Supervisor) httpserver.ReadyChecker {
	return func() error {
		var waiting []string
		for _, s := range supervisors {
			if !s.Live() {
				waiting = append(waiting, s.Name())
			}
		}
		if len(waiting) > 0 {
			return fmt.Errorf("waiting for %s", strings.Join(waiting, ", "))
		}
		return nil
	}
}
