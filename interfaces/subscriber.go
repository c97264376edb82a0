package interfaces

import (
	"time"

	"github.com/tradingiq/gmocoin-client/types"
)

// ChannelMessage is the shape shared by every streamed update.
type ChannelMessage interface {
	GetChannel() types.Channel

	GetSymbol() types.Symbol

	GetTimestamp() time.Time
}

// TickerSubscriber receives ticker updates for one symbol
type TickerSubscriber interface {
	SubscribeTicker(types.TickerUpdate)

	SubscribeSymbol() types.Symbol
}

// OrderBookSubscriber receives order book updates for one symbol
type OrderBookSubscriber interface {
	SubscribeOrderBook(types.OrderBookUpdate)

	SubscribeSymbol() types.Symbol
}
