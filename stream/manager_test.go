package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
)

// timeoutError mimics a read deadline expiry.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// fakeConn is an in-memory Conn. Frames pushed to inbound are returned
// by ReadMessage; written text frames and pings are recorded.
type fakeConn struct {
	mu        sync.Mutex
	inbound   chan []byte
	written   [][]byte
	pings     int
	deadline  time.Time
	failWrite bool
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timeout = time.After(time.Until(deadline))
	}

	select {
	case data := <-c.inbound:
		return websocket.TextMessage, data, nil
	case <-c.closed:
		return 0, nil, io.EOF
	case <-timeout:
		return 0, nil, timeoutError{}
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failWrite {
		return fmt.Errorf("write on broken connection")
	}
	if messageType == websocket.PingMessage {
		c.pings++
		return nil
	}
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *fakeConn) SetWriteDeadline(_ time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// fail severs the connection from the server side.
func (c *fakeConn) fail() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *fakeConn) writtenFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames := make([]string, len(c.written))
	for i, f := range c.written {
		frames[i] = string(f)
	}
	return frames
}

func (c *fakeConn) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

// fakeDialer hands out queued connections, optionally failing some
// dials first.
type fakeDialer struct {
	mu       sync.Mutex
	conns    []*fakeConn
	failNext int
	dials    int
}

func (d *fakeDialer) DialContext(_ context.Context, _ string, _ http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.failNext > 0 {
		d.failNext--
		return nil, fmt.Errorf("connection refused")
	}
	if len(d.conns) == 0 {
		return nil, fmt.Errorf("connection refused")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func fastReconnect(maxAttempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: 2 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func newTestManager(t *testing.T, dialer *fakeDialer, opts ...Option) *Manager {
	t.Helper()

	opts = append([]Option{
		WithDialer(dialer),
		WithReconnectPolicy(fastReconnect(3)),
	}, opts...)

	m, err := NewManager("wss://rpc.example.test/ws", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Disconnect() })
	return m
}

func TestManager_ConnectAndDisconnect(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer)

	assert.Equal(t, StateDisconnected, m.State())

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, StateConnected, m.State())

	// Connect while connected is a no-op.
	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 1, dialer.dialCount())

	require.NoError(t, m.Disconnect())
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManager_ConnectDialFailure(t *testing.T) {
	dialer := &fakeDialer{failNext: 1}
	m := newTestManager(t, dialer)

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManager_SubscribeRequiresConnected(t *testing.T) {
	dialer := &fakeDialer{}
	m := newTestManager(t, dialer)

	sub, err := m.Subscribe(context.Background(), "blockUpdates", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotConnected)
	assert.Nil(t, sub)
	assert.Empty(t, m.Subscriptions())
}

func TestManager_SubscribeUniqueIDs(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer)
	require.NoError(t, m.Connect(context.Background()))

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		sub, err := m.Subscribe(context.Background(), "trades", map[string]any{"pair": "ETH-USD"})
		require.NoError(t, err)
		assert.False(t, seen[sub.ID], "duplicate subscription id %s", sub.ID)
		seen[sub.ID] = true
	}

	assert.Len(t, m.Subscriptions(), 5)
	assert.GreaterOrEqual(t, len(conn.writtenFrames()), 5)
}

func TestManager_Unsubscribe(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer)
	require.NoError(t, m.Connect(context.Background()))

	sub, err := m.Subscribe(context.Background(), "trades", nil)
	require.NoError(t, err)

	require.NoError(t, m.Unsubscribe(context.Background(), sub.ID))
	assert.Empty(t, m.Subscriptions())

	err = m.Unsubscribe(context.Background(), sub.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSubscriptionUnknown)
}

func TestManager_UnsubscribeUnknown(t *testing.T) {
	dialer := &fakeDialer{conns: []*fakeConn{newFakeConn()}}
	m := newTestManager(t, dialer)
	require.NoError(t, m.Connect(context.Background()))

	err := m.Unsubscribe(context.Background(), "sub-0-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSubscriptionUnknown)
}

func TestManager_DisconnectClearsSubscriptions(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer)
	require.NoError(t, m.Connect(context.Background()))

	_, err := m.Subscribe(context.Background(), "trades", nil)
	require.NoError(t, err)
	_, err = m.Subscribe(context.Background(), "blockUpdates", nil)
	require.NoError(t, err)
	require.Len(t, m.Subscriptions(), 2)

	require.NoError(t, m.Disconnect())
	assert.Empty(t, m.Subscriptions())
}

func TestManager_DispatchByMethod(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer)

	received := make(chan *Envelope, 1)
	m.OnEvent("blockUpdate", func(env *Envelope) {
		received <- env
	})

	require.NoError(t, m.Connect(context.Background()))

	frame, err := json.Marshal(Envelope{Method: "blockUpdate", Timestamp: time.Now().UnixMilli()})
	require.NoError(t, err)
	conn.inbound <- frame

	select {
	case env := <-received:
		assert.Equal(t, "blockUpdate", env.Method)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestManager_DispatchBySubscriptionID(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer)

	received := make(chan *Envelope, 1)
	m.OnEvent("trades", func(env *Envelope) {
		received <- env
	})

	require.NoError(t, m.Connect(context.Background()))
	sub, err := m.Subscribe(context.Background(), "trades", nil)
	require.NoError(t, err)

	frame, err := json.Marshal(Envelope{ID: sub.ID, Method: "event", Timestamp: time.Now().UnixMilli()})
	require.NoError(t, err)
	conn.inbound <- frame

	select {
	case env := <-received:
		assert.Equal(t, sub.ID, env.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestManager_Heartbeat(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer, WithHeartbeatInterval(5*time.Millisecond))

	require.NoError(t, m.Connect(context.Background()))

	assert.Eventually(t, func() bool {
		return conn.pingCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	// Pings cause no state change.
	assert.Equal(t, StateConnected, m.State())
}

func TestManager_ReconnectResubscribes(t *testing.T) {
	conn1 := newFakeConn()
	conn2 := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn1, conn2}}
	m := newTestManager(t, dialer)

	require.NoError(t, m.Connect(context.Background()))
	sub, err := m.Subscribe(context.Background(), "trades", map[string]any{"pair": "ETH-USD"})
	require.NoError(t, err)

	conn1.fail()

	assert.Eventually(t, func() bool {
		return m.State() == StateConnected && dialer.dialCount() == 2
	}, 2*time.Second, 2*time.Millisecond)

	// The surviving subscription is replayed on the new connection
	// with its original id.
	assert.Eventually(t, func() bool {
		for _, frame := range conn2.writtenFrames() {
			if strings.Contains(frame, sub.ID) {
				return true
			}
		}
		return false
	}, 2*time.Second, 2*time.Millisecond)

	assert.Len(t, m.Subscriptions(), 1)
}

func TestManager_ReconnectExhaustionIsTerminal(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	fatal := make(chan error, 1)
	m := newTestManager(t, dialer, WithFatalHandler(func(err error) {
		fatal <- err
	}))

	require.NoError(t, m.Connect(context.Background()))
	conn.fail()

	assert.Eventually(t, func() bool {
		return m.State() == StateError
	}, 2*time.Second, 2*time.Millisecond)

	// One initial dial plus exactly three reconnect attempts.
	assert.Equal(t, 4, dialer.dialCount())

	require.Error(t, m.Err())
	assert.ErrorIs(t, m.Err(), errors.ErrReconnectExhausted)
	assert.True(t, errors.IsFatal(m.Err()))

	select {
	case err := <-fatal:
		assert.ErrorIs(t, err, errors.ErrReconnectExhausted)
	case <-time.After(2 * time.Second):
		t.Fatal("fatal handler was not invoked")
	}

	// Terminal state refuses new connects.
	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConnectionTerminal)

	// No further dial attempts after entering Error.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 4, dialer.dialCount())
}

func TestManager_HealthSnapshot(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	m := newTestManager(t, dialer)

	snap := m.Health()
	assert.False(t, snap.Healthy)

	require.NoError(t, m.Connect(context.Background()))
	snap = m.Health()
	assert.True(t, snap.Healthy)
	assert.Empty(t, snap.LastError)
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager("")
	require.Error(t, err)

	_, err = NewManager("wss://rpc.example.test/ws", WithHeartbeatInterval(0))
	require.Error(t, err)

	_, err = NewManager("wss://rpc.example.test/ws", WithDialer(nil))
	require.Error(t, err)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateReconnecting, "reconnecting"},
		{StateError, "error"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestParseEnvelope(t *testing.T) {
	env, err := parseEnvelope([]byte(`{"method":"blockUpdate","timestamp":1700000000000}`))
	require.NoError(t, err)
	assert.Equal(t, "blockUpdate", env.Method)

	_, err = parseEnvelope([]byte(`not json`))
	require.Error(t, err)

	_, err = parseEnvelope([]byte(`{"timestamp":1700000000000}`))
	require.Error(t, err)
}
