package sink

import (
	"context"
	"errors"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/types"
)

// Sink receives every record a collector subscription yields.
type Sink interface {
	Publish(ctx context.Context, msg interfaces.ChannelMessage) error
	Close() error
}

// Fanout publishes to every sink in order and reports all failures.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, msg interfaces.ChannelMessage) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// channelOf falls back to the record type when a frame carried no channel field.
func channelOf(msg interfaces.ChannelMessage) types.Channel {
	if ch := msg.GetChannel(); ch != "" {
		return ch
	}
	switch msg.(type) {
	case types.TickerUpdate, *types.TickerUpdate:
		return types.ChannelTicker
	case types.OrderBookUpdate, *types.OrderBookUpdate:
		return types.ChannelOrderBooks
	}
	return ""
}
