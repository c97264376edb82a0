package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/tradingiq/gmocoin-client/types"
)

func encodeCommand(command types.Command, channel types.Channel, symbol types.Symbol) ([]byte, error) {
	req := types.SubscribeRequest{
		Command: command,
		Channel: channel,
		Symbol:  symbol,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", command, err)
	}
	return data, nil
}

// decodeFrame matches data against T by field name. Unknown fields are ignored; required
// fields are enforced by T's UnmarshalJSON.
func decodeFrame[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrDecodeMismatch, err)
	}
	return v, nil
}
