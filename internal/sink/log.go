package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/types"
)

type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("sink")}
}

func (s *LogSink) Publish(_ context.Context, msg interfaces.ChannelMessage) error {
	fields := []zap.Field{
		zap.String("channel", string(channelOf(msg))),
		zap.String("symbol", string(msg.GetSymbol())),
		zap.Time("timestamp", msg.GetTimestamp()),
	}

	switch m := msg.(type) {
	case types.TickerUpdate:
		fields = append(fields,
			zap.Stringer("last", m.Last),
			zap.Stringer("bid", m.Bid),
			zap.Stringer("ask", m.Ask),
			zap.Stringer("spread", m.Spread()),
		)
	case types.OrderBookUpdate:
		if ask, ok := m.BestAsk(); ok {
			fields = append(fields, zap.Stringer("best_ask", ask.Price))
		}
		if bid, ok := m.BestBid(); ok {
			fields = append(fields, zap.Stringer("best_bid", bid.Price))
		}
		fields = append(fields, zap.Int("depth", len(m.Asks)+len(m.Bids)))
	}

	s.log.Info("Market data", fields...)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
