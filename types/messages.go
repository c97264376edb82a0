package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Channel is the server-side topic a subscription command targets.
type Channel string

const (
	ChannelTicker     Channel = "ticker"
	ChannelOrderBooks Channel = "orderbooks"
)

// Command is the verb of an outbound control frame.
type Command string

const (
	CommandSubscribe   Command = "subscribe"
	CommandUnsubscribe Command = "unsubscribe"
)

// ErrMissingField is returned when an inbound frame lacks a field the record requires.
var ErrMissingField = errors.New("missing required field")

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}

type SubscribeRequest struct {
	Command Command `json:"command"`
	Channel Channel `json:"channel"`
	Symbol  Symbol  `json:"symbol"`
}

// TickerUpdate is one frame of the ticker channel.
type TickerUpdate struct {
	Channel   Channel         `json:"channel"`
	Ask       decimal.Decimal `json:"ask"`
	Bid       decimal.Decimal `json:"bid"`
	High      decimal.Decimal `json:"high"`
	Last      decimal.Decimal `json:"last"`
	Low       decimal.Decimal `json:"low"`
	Symbol    Symbol          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Volume    decimal.Decimal `json:"volume"`
}

type tickerWire struct {
	Channel   Channel          `json:"channel"`
	Ask       *decimal.Decimal `json:"ask"`
	Bid       *decimal.Decimal `json:"bid"`
	High      *decimal.Decimal `json:"high"`
	Last      *decimal.Decimal `json:"last"`
	Low       *decimal.Decimal `json:"low"`
	Symbol    Symbol           `json:"symbol"`
	Timestamp *time.Time       `json:"timestamp"`
	Volume    *decimal.Decimal `json:"volume"`
}

func (t *TickerUpdate) UnmarshalJSON(data []byte) error {
	var w tickerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch {
	case w.Ask == nil:
		return missingField("ask")
	case w.Bid == nil:
		return missingField("bid")
	case w.High == nil:
		return missingField("high")
	case w.Last == nil:
		return missingField("last")
	case w.Low == nil:
		return missingField("low")
	case w.Volume == nil:
		return missingField("volume")
	case w.Symbol == "":
		return missingField("symbol")
	case w.Timestamp == nil:
		return missingField("timestamp")
	}

	*t = TickerUpdate{
		Channel:   w.Channel,
		Ask:       *w.Ask,
		Bid:       *w.Bid,
		High:      *w.High,
		Last:      *w.Last,
		Low:       *w.Low,
		Symbol:    w.Symbol,
		Timestamp: *w.Timestamp,
		Volume:    *w.Volume,
	}
	return nil
}

func (t TickerUpdate) GetChannel() Channel {
	return t.Channel
}

func (t TickerUpdate) GetSymbol() Symbol {
	return t.Symbol
}

func (t TickerUpdate) GetTimestamp() time.Time {
	return t.Timestamp
}

// Spread is Ask minus Bid.
func (t TickerUpdate) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid)
}

// OrderBookLevel is a single price level of an order book side.
type OrderBookLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

func (l *OrderBookLevel) UnmarshalJSON(data []byte) error {
	var w struct {
		Price *decimal.Decimal `json:"price"`
		Size  *decimal.Decimal `json:"size"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Price == nil {
		return missingField("price")
	}
	if w.Size == nil {
		return missingField("size")
	}

	l.Price = *w.Price
	l.Size = *w.Size
	return nil
}

// OrderBookUpdate is one frame of the orderbooks channel. Asks are ordered from the best
// (lowest) price upward, bids from the best (highest) price downward, as sent by the server.
type OrderBookUpdate struct {
	Channel   Channel          `json:"channel"`
	Asks      []OrderBookLevel `json:"asks"`
	Bids      []OrderBookLevel `json:"bids"`
	Symbol    Symbol           `json:"symbol"`
	Timestamp time.Time        `json:"timestamp"`
}

type orderBookWire struct {
	Channel   Channel           `json:"channel"`
	Asks      *[]OrderBookLevel `json:"asks"`
	Bids      *[]OrderBookLevel `json:"bids"`
	Symbol    Symbol            `json:"symbol"`
	Timestamp *time.Time        `json:"timestamp"`
}

func (o *OrderBookUpdate) UnmarshalJSON(data []byte) error {
	var w orderBookWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch {
	case w.Asks == nil:
		return missingField("asks")
	case w.Bids == nil:
		return missingField("bids")
	case w.Symbol == "":
		return missingField("symbol")
	case w.Timestamp == nil:
		return missingField("timestamp")
	}

	*o = OrderBookUpdate{
		Channel:   w.Channel,
		Asks:      *w.Asks,
		Bids:      *w.Bids,
		Symbol:    w.Symbol,
		Timestamp: *w.Timestamp,
	}
	return nil
}

func (o OrderBookUpdate) GetChannel() Channel {
	return o.Channel
}

func (o OrderBookUpdate) GetSymbol() Symbol {
	return o.Symbol
}

func (o OrderBookUpdate) GetTimestamp() time.Time {
	return o.Timestamp
}

func (o OrderBookUpdate) BestAsk() (OrderBookLevel, bool) {
	if len(o.Asks) == 0 {
		return OrderBookLevel{}, false
	}
	return o.Asks[0], true
}

func (o OrderBookUpdate) BestBid() (OrderBookLevel, bool) {
	if len(o.Bids) == 0 {
		return OrderBookLevel{}, false
	}
	return o.Bids[0], true
}
