package websocket

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/types"
)

// SubscribeTicker streams ticker updates for symbol until ctx is cancelled, the server closes the
// connection, or the consumer stops ranging. A non-nil error is always the last element.
// Cancellation ends the sequence without an error.
func (c *Client) SubscribeTicker(ctx context.Context, symbol types.Symbol) iter.Seq2[types.TickerUpdate, error] {
	return subscribe[types.TickerUpdate](c, ctx, types.ChannelTicker, symbol)
}

// SubscribeOrderBook streams order book snapshots for symbol with the same termination rules
// as SubscribeTicker.
func (c *Client) SubscribeOrderBook(ctx context.Context, symbol types.Symbol) iter.Seq2[types.OrderBookUpdate, error] {
	return subscribe[types.OrderBookUpdate](c, ctx, types.ChannelOrderBooks, symbol)
}

func (c *Client) SubscribeTickerWithSubscriber(ctx context.Context, subscriber interfaces.TickerSubscriber) error {
	for update, err := range c.SubscribeTicker(ctx, subscriber.SubscribeSymbol()) {
		if err != nil {
			return err
		}
		subscriber.SubscribeTicker(update)
	}
	return nil
}

func (c *Client) SubscribeOrderBookWithSubscriber(ctx context.Context, subscriber interfaces.OrderBookSubscriber) error {
	for update, err := range c.SubscribeOrderBook(ctx, subscriber.SubscribeSymbol()) {
		if err != nil {
			return err
		}
		subscriber.SubscribeOrderBook(update)
	}
	return nil
}

func subscribe[T any](c *Client, ctx context.Context, channel types.Channel, symbol types.Symbol) iter.Seq2[T, error] {
	var consumed atomic.Bool

	return func(yield func(T, error) bool) {
		var zero T
		if consumed.Swap(true) {
			yield(zero, ErrSequenceReused)
			return
		}

		// stream has finished its cleanup by the time it returns, so the terminal error is
		// delivered after the connection is closed.
		if err := stream(c, ctx, channel, symbol, yield); err != nil {
			incError(string(channel), errorType(err))
			yield(zero, err)
		}
	}
}

// stream runs one subscription: open, subscribe, receive until done, then unsubscribe and close.
// Only one receive is in flight and nothing is read ahead of the consumer.
func stream[T any](c *Client, ctx context.Context, channel types.Channel, symbol types.Symbol, yield func(T, error) bool) (err error) {
	log := c.logger.With(zap.String("channel", string(channel)), zap.String("symbol", string(symbol)))

	ctx, span := c.tracer.Start(ctx, "gmocoin.websocket.subscribe", trace.WithAttributes(
		attribute.String("gmocoin.channel", string(channel)),
		attribute.String("gmocoin.symbol", string(symbol)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	conn, err := c.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer c.close(ctx, conn, channel, symbol, log)

	if err := c.sendCommand(ctx, conn, types.CommandSubscribe, channel, symbol); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	span.AddEvent("subscribed")

	buf := make([]byte, c.bufferSize)
	for ctx.Err() == nil && conn.IsOpen() {
		kind, n, err := conn.Receive(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrFrameTooLarge) {
				return fmt.Errorf("%s %s: %w", channel, symbol, err)
			}
			return fmt.Errorf("%w: %w", ErrReceive, err)
		}

		if kind == MessageClose {
			log.Info("Server closed the connection")
			return nil
		}
		incFrame(string(channel))

		record, err := decodeFrame[T](buf[:n])
		if err != nil {
			c.dropFrame(channel, symbol, buf[:n], err, log)
			continue
		}

		if ctx.Err() != nil {
			return nil
		}
		if !yield(record, nil) {
			return nil
		}
	}
	return nil
}

func (c *Client) dropFrame(channel types.Channel, symbol types.Symbol, frame []byte, err error, log *zap.Logger) {
	incDecodeDrop(string(channel))
	log.Debug("Dropped frame that does not match the channel record", zap.ByteString("frame", frame), zap.Error(err))

	if c.onDecodeFailure != nil {
		c.onDecodeFailure(DecodeFailure{
			Channel: channel,
			Symbol:  symbol,
			Frame:   append([]byte(nil), frame...),
			Err:     err,
		})
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrConnect):
		return "connect"
	case errors.Is(err, ErrSend):
		return "send"
	case errors.Is(err, ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, ErrReceive):
		return "receive"
	default:
		return "unknown"
	}
}
