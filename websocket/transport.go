package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/coder/websocket"
)

type MessageKind int

const (
	MessageText MessageKind = iota + 1
	MessageBinary
	// MessageClose is reported when the peer sent a close frame; no payload accompanies it.
	MessageClose
)

// Transport is one duplex message connection owned by a single subscription.
type Transport interface {
	// Send writes data as one complete text message.
	Send(ctx context.Context, data []byte) error

	// Receive blocks until one message arrives and copies it into buf. It returns
	// ErrFrameTooLarge when the message does not fit. Cancelling ctx aborts the pending read.
	Receive(ctx context.Context, buf []byte) (MessageKind, int, error)

	IsOpen() bool

	// Close performs a normal-closure handshake.
	Close(reason string) error
}

// Dialer opens a Transport to endpoint.
type Dialer func(ctx context.Context, endpoint string) (Transport, error)

// oversizedReadLimit bounds how much of an oversized message is discarded before the
// library gives up on the connection.
const oversizedReadLimit = 16

type conn struct {
	ws   *websocket.Conn
	open atomic.Bool
}

func newConn(ws *websocket.Conn, bufferSize int) *conn {
	ws.SetReadLimit(int64(bufferSize) * oversizedReadLimit)

	c := &conn{ws: ws}
	c.open.Store(true)
	return c
}

func (c *Client) dialWebsocket(ctx context.Context, endpoint string) (Transport, error) {
	ws, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return newConn(ws, c.bufferSize), nil
}

func (c *conn) IsOpen() bool {
	return c.open.Load()
}

func (c *conn) Send(ctx context.Context, data []byte) error {
	if !c.open.Load() {
		return ErrNotOpen
	}

	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		c.open.Store(false)
		return err
	}
	return nil
}

func (c *conn) Receive(ctx context.Context, buf []byte) (MessageKind, int, error) {
	typ, r, err := c.ws.Reader(ctx)
	if err != nil {
		c.open.Store(false)
		if websocket.CloseStatus(err) != -1 {
			return MessageClose, 0, nil
		}
		return 0, 0, err
	}

	kind := MessageText
	if typ == websocket.MessageBinary {
		kind = MessageBinary
	}

	n, err := io.ReadFull(r, buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return kind, n, nil
	case err != nil:
		c.open.Store(false)
		return 0, n, err
	}

	// buf is full; the message fits only if nothing follows.
	more, err := hasMore(r)
	if err != nil {
		c.open.Store(false)
		return 0, n, err
	}
	if !more {
		return kind, n, nil
	}

	if _, err := io.Copy(io.Discard, r); err != nil {
		c.open.Store(false)
	}
	return 0, n, fmt.Errorf("%w: more than %d bytes", ErrFrameTooLarge, len(buf))
}

func hasMore(r io.Reader) (bool, error) {
	var probe [1]byte
	for {
		n, err := r.Read(probe[:])
		if n > 0 {
			return true, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}

func (c *conn) Close(reason string) error {
	c.open.Store(false)
	return c.ws.Close(websocket.StatusNormalClosure, reason)
}
