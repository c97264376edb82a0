package websocket

import "errors"

var (
	// ErrConnect means the websocket handshake with the endpoint did not complete.
	ErrConnect = errors.New("failed to connect to websocket")

	// ErrSend means a subscribe or unsubscribe command could not be written.
	ErrSend = errors.New("failed to send command")

	ErrNotOpen = errors.New("websocket not connected")

	ErrReceive = errors.New("failed to read message")

	// ErrFrameTooLarge means an inbound message did not fit the receive buffer. The stream ends
	// rather than decoding a truncated frame.
	ErrFrameTooLarge = errors.New("frame exceeds receive buffer")

	// ErrDecodeMismatch marks a frame whose shape does not match the subscribed record type.
	// It never ends a stream; see DecodeFailureHandler.
	ErrDecodeMismatch = errors.New("frame does not match record type")

	// ErrSequenceReused is yielded when a subscription sequence is ranged over a second time.
	ErrSequenceReused = errors.New("subscription sequence already consumed")
)
