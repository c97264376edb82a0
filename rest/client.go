package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tradingiq/gmocoin-client/interfaces"
	"github.com/tradingiq/gmocoin-client/types"
)

const (
	GMOCoinPublicURL  = "https://api.coin.z.com/public"
	GMOCoinPrivateURL = "https://api.coin.z.com/private"

	DefaultTimeout = 10 * time.Second
)

type Client struct {
	publicURL  string
	privateURL string
	httpClient *http.Client
	apiKey     string
	apiSecret  string
	now        func() time.Time
	logger     *zap.Logger
}

var (
	_ interfaces.PublicRESTClient  = (*Client)(nil)
	_ interfaces.PrivateRESTClient = (*Client)(nil)
)

type ClientOption func(*Client)

func NewClient(logger *zap.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		publicURL:  GMOCoinPublicURL,
		privateURL: GMOCoinPrivateURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func NewPublicClient(logger *zap.Logger, opts ...ClientOption) interfaces.PublicRESTClient {
	return NewClient(logger, opts...)
}

func NewPrivateClient(apiKey, apiSecret string, logger *zap.Logger, opts ...ClientOption) interfaces.PrivateRESTClient {
	return NewClient(logger, append(opts, WithCredentials(apiKey, apiSecret))...)
}

// WithBaseURL overrides the public endpoint root.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.publicURL = baseURL
	}
}

func WithPrivateBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.privateURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithCredentials(apiKey, apiSecret string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
		c.apiSecret = apiSecret
	}
}

// WithClock replaces the time source used for request signing.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	return getPublic[types.StatusResponse](ctx, c, "/v1/status", nil)
}

// Ticker returns the latest rates for symbol, or for every symbol when symbol is empty.
func (c *Client) Ticker(ctx context.Context, symbol types.Symbol) ([]types.Ticker, error) {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", string(symbol))
	}
	return getPublic[[]types.Ticker](ctx, c, "/v1/ticker", query)
}

func (c *Client) OrderBook(ctx context.Context, symbol types.Symbol) (types.OrderBook, error) {
	query := url.Values{"symbol": {string(symbol)}}
	return getPublic[types.OrderBook](ctx, c, "/v1/orderbooks", query)
}

// Trades returns one page of executed trades. Zero page or count leaves the server default.
func (c *Client) Trades(ctx context.Context, symbol types.Symbol, page, count int) (types.TradesResponse, error) {
	query := url.Values{"symbol": {string(symbol)}}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}
	return getPublic[types.TradesResponse](ctx, c, "/v1/trades", query)
}

// KLines returns candles for one day (intraday intervals) or one year (4hour and longer) containing date.
// Days roll over at 06:00 JST, so callers should pass dates in Asia/Tokyo.
func (c *Client) KLines(ctx context.Context, symbol types.Symbol, interval types.KLineInterval, date time.Time) ([]types.KLine, error) {
	layout := "20060102"
	if interval.Daily() {
		layout = "2006"
	}
	query := url.Values{
		"symbol":   {string(symbol)},
		"interval": {string(interval)},
		"date":     {date.Format(layout)},
	}
	return getPublic[[]types.KLine](ctx, c, "/v1/klines", query)
}

func (c *Client) TradeRules(ctx context.Context) ([]types.TradeRule, error) {
	return getPublic[[]types.TradeRule](ctx, c, "/v1/symbols", nil)
}

func getPublic[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	endpoint := c.publicURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("gmocoin: build request %s: %w", path, err)
	}
	return do[T](c, req)
}

func do[T any](c *Client, req *http.Request) (T, error) {
	var zero T

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("gmocoin: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("gmocoin: read %s: %w", req.URL.Path, err)
	}

	c.logger.Debug("GMO Coin REST request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return zero, &HTTPError{Method: req.Method, Path: req.URL.Path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope types.APIResponse[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSerialization, req.URL.Path, err)
	}
	if envelope.Status != 0 {
		return zero, &APIError{Status: envelope.Status, Messages: envelope.Messages}
	}
	return envelope.Data, nil
}
