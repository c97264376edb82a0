package interfaces

import (
	"context"
	"iter"
	"time"

	"github.com/tradingiq/gmocoin-client/types"
)

// PublicWebsocketClient streams public market data. Every subscription owns its own connection.
type PublicWebsocketClient interface {
	SubscribeTicker(ctx context.Context, symbol types.Symbol) iter.Seq2[types.TickerUpdate, error]

	SubscribeOrderBook(ctx context.Context, symbol types.Symbol) iter.Seq2[types.OrderBookUpdate, error]

	// Handler variants block until the stream ends and return its terminal error.
	SubscribeTickerWithSubscriber(ctx context.Context, subscriber TickerSubscriber) error
	SubscribeOrderBookWithSubscriber(ctx context.Context, subscriber OrderBookSubscriber) error
}

type PublicRESTClient interface {
	Status(ctx context.Context) (types.StatusResponse, error)

	Ticker(ctx context.Context, symbol types.Symbol) ([]types.Ticker, error)

	OrderBook(ctx context.Context, symbol types.Symbol) (types.OrderBook, error)

	Trades(ctx context.Context, symbol types.Symbol, page, count int) (types.TradesResponse, error)

	KLines(ctx context.Context, symbol types.Symbol, interval types.KLineInterval, date time.Time) ([]types.KLine, error)

	TradeRules(ctx context.Context) ([]types.TradeRule, error)
}

type PrivateRESTClient interface {
	AccountMargin(ctx context.Context) (types.AccountMargin, error)
}
