package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a WebSocket connection the manager uses.
// Satisfied by *websocket.Conn; tests substitute an in-memory fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer establishes connections. The default implementation wraps
// gorilla's dialer; tests inject a fake to run without a network.
type Dialer interface {
	DialContext(ctx context.Context, url string, headers http.Header) (Conn, error)
}

// wsDialer adapts websocket.Dialer to the Dialer interface.
type wsDialer struct {
	dialer *websocket.Dialer
}

func newWSDialer(handshakeTimeout time.Duration) *wsDialer {
	return &wsDialer{
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (d *wsDialer) DialContext(ctx context.Context, url string, headers http.Header) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, headers)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
