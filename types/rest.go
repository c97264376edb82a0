package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// APIResponse is the envelope every GMO Coin REST endpoint answers with.
type APIResponse[T any] struct {
	Status       int          `json:"status"`
	Data         T            `json:"data"`
	Messages     []APIMessage `json:"messages,omitempty"`
	ResponseTime time.Time    `json:"responsetime"`
}

type APIMessage struct {
	Code    string `json:"message_code"`
	Message string `json:"message_string"`
}

type ExchangeStatus string

const (
	StatusMaintenance ExchangeStatus = "MAINTENANCE"
	StatusPreOpen     ExchangeStatus = "PREOPEN"
	StatusOpen        ExchangeStatus = "OPEN"
)

type StatusResponse struct {
	Status ExchangeStatus `json:"status"`
}

// Ticker is the REST ticker snapshot; it carries the same prices as TickerUpdate without the channel.
type Ticker struct {
	Ask       decimal.Decimal `json:"ask"`
	Bid       decimal.Decimal `json:"bid"`
	High      decimal.Decimal `json:"high"`
	Last      decimal.Decimal `json:"last"`
	Low       decimal.Decimal `json:"low"`
	Symbol    Symbol          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Volume    decimal.Decimal `json:"volume"`
}

type OrderBook struct {
	Asks   []OrderBookLevel `json:"asks"`
	Bids   []OrderBookLevel `json:"bids"`
	Symbol Symbol           `json:"symbol"`
}

type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

type Trade struct {
	Price     decimal.Decimal `json:"price"`
	Side      TradeSide       `json:"side"`
	Size      decimal.Decimal `json:"size"`
	Timestamp time.Time       `json:"timestamp"`
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	Count       int `json:"count"`
}

type TradesResponse struct {
	Pagination Pagination `json:"pagination"`
	List       []Trade    `json:"list"`
}

type KLineInterval string

const (
	Interval1Min   KLineInterval = "1min"
	Interval5Min   KLineInterval = "5min"
	Interval10Min  KLineInterval = "10min"
	Interval15Min  KLineInterval = "15min"
	Interval30Min  KLineInterval = "30min"
	Interval1Hour  KLineInterval = "1hour"
	Interval4Hour  KLineInterval = "4hour"
	Interval8Hour  KLineInterval = "8hour"
	Interval12Hour KLineInterval = "12hour"
	Interval1Day   KLineInterval = "1day"
	Interval1Week  KLineInterval = "1week"
	Interval1Month KLineInterval = "1month"
)

// Daily reports whether the interval is queried by year (YYYY) rather than by day (YYYYMMDD).
func (i KLineInterval) Daily() bool {
	switch i {
	case Interval4Hour, Interval8Hour, Interval12Hour, Interval1Day, Interval1Week, Interval1Month:
		return true
	}
	return false
}

// UnixMillis decodes the millisecond epoch strings the klines endpoint uses for openTime.
type UnixMillis time.Time

func (u *UnixMillis) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unix millis %q: %w", s, err)
	}
	*u = UnixMillis(time.UnixMilli(ms).UTC())
	return nil
}

func (u UnixMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(time.Time(u).UnixMilli(), 10))
}

func (u UnixMillis) Time() time.Time {
	return time.Time(u)
}

type KLine struct {
	OpenTime UnixMillis      `json:"openTime"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
}

type TradeRule struct {
	Symbol       Symbol          `json:"symbol"`
	MinOrderSize decimal.Decimal `json:"minOrderSize"`
	MaxOrderSize decimal.Decimal `json:"maxOrderSize"`
	SizeStep     decimal.Decimal `json:"sizeStep"`
	TickSize     decimal.Decimal `json:"tickSize"`
	TakerFee     decimal.Decimal `json:"takerFee"`
	MakerFee     decimal.Decimal `json:"makerFee"`
}

type MarginCallStatus string

const (
	MarginNormal  MarginCallStatus = "NORMAL"
	MarginCall    MarginCallStatus = "MARGIN_CALL"
	MarginLossCut MarginCallStatus = "LOSSCUT"
)

type AccountMargin struct {
	ActualProfitLoss   decimal.Decimal     `json:"actualProfitLoss"`
	AvailableAmount    decimal.Decimal     `json:"availableAmount"`
	Margin             decimal.Decimal     `json:"margin"`
	MarginCallStatus   MarginCallStatus    `json:"marginCallStatus"`
	MarginRatio        decimal.NullDecimal `json:"marginRatio"`
	ProfitLoss         decimal.Decimal     `json:"profitLoss"`
	TransferableAmount decimal.Decimal     `json:"transferableAmount"`
}
