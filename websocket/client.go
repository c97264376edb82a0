package websocket

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/types"
)

const (
	GMOCoinPublicWebSocketURL = "wss://api.coin.z.com/ws/public/v1"

	// DefaultBufferSize holds a full order book snapshot in one receive.
	DefaultBufferSize = 256 * 1024

	DefaultDialTimeout  = 5 * time.Second
	DefaultCloseTimeout = 5 * time.Second

	tracerName = "github.com/tradingiq/gmocoin-client/websocket"
)

// DecodeFailure describes a frame that was dropped because it did not decode into the
// subscription's record type.
type DecodeFailure struct {
	Channel types.Channel
	Symbol  types.Symbol
	Frame   []byte
	Err     error
}

type DecodeFailureHandler func(DecodeFailure)

// Client opens one websocket connection per subscription. It holds no per-subscription state,
// so concurrent subscriptions from the same Client are independent.
type Client struct {
	endpoint     string
	bufferSize   int
	dialTimeout  time.Duration
	closeTimeout time.Duration
	dialer       Dialer

	limiter         *rate.Limiter
	onDecodeFailure DecodeFailureHandler

	tracer trace.Tracer
	logger *zap.Logger
}

var _ interfaces.PublicWebsocketClient = (*Client)(nil)

type ClientOption func(*Client)

func NewClient(logger *zap.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		endpoint:     GMOCoinPublicWebSocketURL,
		bufferSize:   DefaultBufferSize,
		dialTimeout:  DefaultDialTimeout,
		closeTimeout: DefaultCloseTimeout,
		tracer:       otel.Tracer(tracerName),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.dialer == nil {
		client.dialer = client.dialWebsocket
	}
	return client
}

func NewWebSocketClient(logger *zap.Logger, opts ...ClientOption) interfaces.PublicWebsocketClient {
	return NewClient(logger, opts...)
}

func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithBufferSize sets the receive buffer. Messages larger than size end the stream with
// ErrFrameTooLarge. Non-positive values are ignored.
func WithBufferSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// WithDialer replaces the coder/websocket transport, mainly for tests.
func WithDialer(dialer Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// WithDialTimeout bounds the opening handshake. Zero disables the bound.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.dialTimeout = d
	}
}

// WithCloseTimeout bounds the unsubscribe and close handshake run when a stream ends.
func WithCloseTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.closeTimeout = d
		}
	}
}

// WithCommandInterval spaces subscribe and unsubscribe commands sent through this Client at
// least d apart. GMO Coin rejects more than one command per second from the same IP.
func WithCommandInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

func WithDecodeFailureHandler(handler DecodeFailureHandler) ClientOption {
	return func(c *Client) {
		c.onDecodeFailure = handler
	}
}

func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

func (c *Client) open(ctx context.Context) (Transport, error) {
	dialCtx := ctx
	if c.dialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.dialTimeout)
		defer cancel()
	}

	conn, err := c.dialer(dialCtx, c.endpoint)
	if err != nil {
		incConnect("failure")
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, c.endpoint, err)
	}

	incConnect("success")
	c.logger.Info("Connected to GMO Coin WebSocket", zap.String("url", c.endpoint))
	return conn, nil
}

func (c *Client) sendCommand(ctx context.Context, conn Transport, command types.Command, channel types.Channel, symbol types.Symbol) error {
	if !conn.IsOpen() {
		return fmt.Errorf("%w: %s %s: %w", ErrSend, command, channel, ErrNotOpen)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrSend, command, channel, err)
		}
	}
	return c.writeCommand(ctx, conn, command, channel, symbol)
}

func (c *Client) writeCommand(ctx context.Context, conn Transport, command types.Command, channel types.Channel, symbol types.Symbol) error {
	data, err := encodeCommand(command, channel, symbol)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}

	if err := conn.Send(ctx, data); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrSend, command, channel, err)
	}

	c.logger.Info("Sent "+string(command)+" request",
		zap.String("channel", string(channel)),
		zap.String("symbol", string(symbol)),
	)
	return nil
}

// awaitCommandSlot blocks until the limiter admits one more command. It ignores cancellation,
// so the terminal unsubscribe keeps its slot however long the queue is.
func (c *Client) awaitCommandSlot() {
	if c.limiter == nil {
		return
	}
	if d := c.limiter.Reserve().Delay(); d > 0 {
		time.Sleep(d)
	}
}

// close unsubscribes if the connection is still open and then closes it. It runs on every
// exit path of a stream; its own failures are logged and never returned. The close timeout
// starts after the limiter admits the unsubscribe.
func (c *Client) close(ctx context.Context, conn Transport, channel types.Channel, symbol types.Symbol, log *zap.Logger) {
	if conn.IsOpen() {
		c.awaitCommandSlot()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.closeTimeout)
	defer cancel()

	if conn.IsOpen() {
		if err := c.writeCommand(ctx, conn, types.CommandUnsubscribe, channel, symbol); err != nil {
			log.Warn("Failed to send unsubscribe request", zap.Error(err))
		}
	}

	if err := conn.Close("subscription ended"); err != nil {
		log.Debug("Close handshake did not complete", zap.Error(err))
	}
	log.Info("Disconnected from GMO Coin WebSocket")
}
