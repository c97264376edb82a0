package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradingiq/gmocoin-client/types"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		command types.Command
		channel types.Channel
		symbol  types.Symbol
		want    string
	}{
		{"subscribe ticker", types.CommandSubscribe, types.ChannelTicker, types.BTC, `{"command":"subscribe","channel":"ticker","symbol":"BTC"}`},
		{"unsubscribe order book", types.CommandUnsubscribe, types.ChannelOrderBooks, types.ETH_JPY, `{"command":"unsubscribe","channel":"orderbooks","symbol":"ETH_JPY"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := encodeCommand(tt.command, tt.channel, tt.symbol)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestDecodeFrame_Mismatch(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"missing ask", noAskTicker},
		{"order book frame", btcOrderBook},
		{"error frame", `{"error":"ERR-5003 Request too many."}`},
		{"not json", `ping`},
		{"array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeFrame[types.TickerUpdate]([]byte(tt.frame))
			assert.ErrorIs(t, err, ErrDecodeMismatch)
		})
	}
}

func TestDecodeThenEncode_RoundTripsFieldValues(t *testing.T) {
	frames := []struct {
		channel types.Channel
		frame   string
	}{
		{types.ChannelTicker, btcTicker},
		{types.ChannelOrderBooks, ethOrderBook},
	}

	for _, f := range frames {
		t.Run(string(f.channel), func(t *testing.T) {
			var symbol types.Symbol
			switch f.channel {
			case types.ChannelTicker:
				upd, err := decodeFrame[types.TickerUpdate]([]byte(f.frame))
				require.NoError(t, err)
				symbol = upd.Symbol

				again, err := json.Marshal(upd)
				require.NoError(t, err)
				back, err := decodeFrame[types.TickerUpdate](again)
				require.NoError(t, err)
				assert.True(t, upd.Last.Equal(back.Last))
				assert.True(t, upd.Timestamp.Equal(back.Timestamp))
			case types.ChannelOrderBooks:
				upd, err := decodeFrame[types.OrderBookUpdate]([]byte(f.frame))
				require.NoError(t, err)
				symbol = upd.Symbol
			}

			data, err := encodeCommand(types.CommandSubscribe, f.channel, symbol)
			require.NoError(t, err)

			var req types.SubscribeRequest
			require.NoError(t, json.Unmarshal(data, &req))
			assert.Equal(t, f.channel, req.Channel)
			assert.Equal(t, symbol, req.Symbol)
		})
	}
}
