package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/health"
	"github.com/rajgottipati/HyperSim-SDK/metric"
	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
)

// Defaults for manager timing knobs.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second

	// readPollInterval bounds each blocking read so loops stay
	// responsive to shutdown.
	readPollInterval = 1 * time.Second
)

// DefaultReconnectPolicy is the backoff applied between automatic
// reconnection attempts.
func DefaultReconnectPolicy() retry.Config {
	return retry.Config{
		MaxAttempts:  10,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Manager owns a persistent WebSocket connection: connection state,
// subscription tracking, heartbeat, and bounded-backoff reconnection.
//
// Lock discipline: mu guards connection state, subMu guards the
// subscription registry, writeMu serializes frame writes. No method
// holds more than one of mu/subMu at a time.
type Manager struct {
	url string

	dialer            Dialer
	logger            *slog.Logger
	metrics           *metric.Metrics
	heartbeatInterval time.Duration
	writeTimeout      time.Duration
	reconnect         retry.Config
	fatalHandler      func(error)

	mu          sync.RWMutex
	state       State
	conn        Conn
	attempts    int
	terminalErr error
	connectedAt time.Time
	epoch       chan struct{}

	writeMu sync.Mutex

	subMu         sync.RWMutex
	subscriptions map[string]*Subscription
	handlers      map[string]Handler
	subCounter    atomic.Uint64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		m.logger = logger
		return nil
	}
}

// WithMetrics enables WebSocket gauges and counters.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(m *Manager) error {
		m.metrics = metrics
		return nil
	}
}

// WithDialer replaces the WebSocket dialer. Tests use this to run
// without a network.
func WithDialer(dialer Dialer) Option {
	return func(m *Manager) error {
		if dialer == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Manager", "WithDialer", "dialer validation")
		}
		m.dialer = dialer
		return nil
	}
}

// WithHeartbeatInterval sets the ping cadence while connected.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(m *Manager) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Manager", "WithHeartbeatInterval", "interval validation")
		}
		m.heartbeatInterval = d
		return nil
	}
}

// WithReconnectPolicy sets the backoff curve and attempt budget for
// automatic reconnection.
func WithReconnectPolicy(cfg retry.Config) Option {
	return func(m *Manager) error {
		m.reconnect = cfg
		return nil
	}
}

// WithFatalHandler registers a callback invoked once when reconnection
// is exhausted and the manager enters the terminal Error state.
func WithFatalHandler(fn func(error)) Option {
	return func(m *Manager) error {
		m.fatalHandler = fn
		return nil
	}
}

// NewManager creates a manager for the given WebSocket endpoint.
func NewManager(url string, opts ...Option) (*Manager, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Manager", "NewManager", "endpoint validation")
	}

	m := &Manager{
		url:               url,
		dialer:            newWSDialer(DefaultHandshakeTimeout),
		logger:            slog.Default(),
		heartbeatInterval: DefaultHeartbeatInterval,
		writeTimeout:      DefaultWriteTimeout,
		reconnect:         DefaultReconnectPolicy(),
		state:             StateDisconnected,
		subscriptions:     make(map[string]*Subscription),
		handlers:          make(map[string]Handler),
		shutdown:          make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, errors.Wrap(err, "Manager", "NewManager", "option application")
		}
	}

	return m, nil
}

// Connect establishes the connection and starts the heartbeat and read
// loops. A dial failure leaves the manager Disconnected; automatic
// reconnection only covers connections lost after establishment.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnected, StateConnecting, StateReconnecting:
		m.mu.Unlock()
		return nil
	case StateError:
		m.mu.Unlock()
		return errors.WrapFatal(errors.ErrConnectionTerminal, "Manager", "Connect", "terminal state check")
	}
	select {
	case <-m.shutdown:
		m.mu.Unlock()
		return errors.WrapFatal(errors.ErrClosed, "Manager", "Connect", "shutdown check")
	default:
	}
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	conn, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		m.mu.Lock()
		m.setStateLocked(StateDisconnected)
		m.mu.Unlock()
		return errors.WrapTransient(err, "Manager", "Connect", "dial endpoint")
	}

	m.mu.Lock()
	select {
	case <-m.shutdown:
		m.setStateLocked(StateDisconnected)
		m.mu.Unlock()
		_ = conn.Close()
		return errors.WrapFatal(errors.ErrClosed, "Manager", "Connect", "shutdown check")
	default:
	}
	m.adoptLocked(conn)
	m.mu.Unlock()

	m.logger.Info("Stream connected", "url", m.url)
	return nil
}

// adoptLocked installs a freshly dialed connection and starts its
// read and heartbeat loops. Caller holds mu.
func (m *Manager) adoptLocked(conn Conn) {
	m.conn = conn
	m.attempts = 0
	m.connectedAt = time.Now()
	m.setStateLocked(StateConnected)

	epoch := make(chan struct{})
	m.epoch = epoch

	if m.metrics != nil {
		m.metrics.RecordWSStatus(true)
	}

	m.wg.Add(2)
	go m.readLoop(conn, epoch)
	go m.heartbeat(conn, epoch)
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.logger.Debug("Stream state changed", "state", s.String())
}

// State returns the current connection state. Callers must treat
// Subscribe as authoritative; state may change between a read and a
// subsequent call.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the terminal error after reconnection exhaustion, nil
// otherwise.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.terminalErr
}

// Health reports a point-in-time connection health snapshot.
func (m *Manager) Health() health.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := health.Snapshot{
		Healthy:    m.state == StateConnected,
		ErrorCount: m.attempts,
		LastCheck:  time.Now(),
	}
	if m.state == StateConnected && !m.connectedAt.IsZero() {
		snap.Uptime = time.Since(m.connectedAt)
	}
	if m.terminalErr != nil {
		snap.LastError = m.terminalErr.Error()
	}
	return snap
}

// Subscribe registers interest in a class of inbound events. Requires
// the manager to be Connected.
func (m *Manager) Subscribe(ctx context.Context, subType string, params map[string]any) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapTransient(err, "Manager", "Subscribe", "context check")
	}

	m.mu.RLock()
	state := m.state
	conn := m.conn
	m.mu.RUnlock()

	if state != StateConnected || conn == nil {
		return nil, errors.WrapInvalid(errors.ErrNotConnected, "Manager", "Subscribe", "connection state check")
	}

	id := fmt.Sprintf("sub-%d-%s", m.subCounter.Add(1), uuid.NewString()[:8])
	env := newEnvelope(id, "subscribe", map[string]any{
		"type":   subType,
		"params": params,
	})

	if err := m.send(conn, env); err != nil {
		return nil, errors.WrapTransient(err, "Manager", "Subscribe", "send subscribe envelope")
	}

	sub := &Subscription{
		ID:      id,
		Type:    subType,
		Params:  params,
		Active:  true,
		Created: time.Now(),
	}

	m.subMu.Lock()
	m.subscriptions[id] = sub
	count := len(m.subscriptions)
	m.subMu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordWSSubscriptions(count)
	}

	m.logger.Debug("Subscription created", "id", id, "type", subType)
	return sub, nil
}

// Unsubscribe removes a subscription and sends the unsubscribe
// envelope best-effort. Unknown ids fail with a validation error.
func (m *Manager) Unsubscribe(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "Manager", "Unsubscribe", "context check")
	}

	m.subMu.Lock()
	sub, exists := m.subscriptions[id]
	if !exists {
		m.subMu.Unlock()
		msg := fmt.Errorf("%w: %q", errors.ErrSubscriptionUnknown, id)
		return errors.WrapInvalid(msg, "Manager", "Unsubscribe", "subscription lookup")
	}
	sub.Active = false
	delete(m.subscriptions, id)
	count := len(m.subscriptions)
	m.subMu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordWSSubscriptions(count)
	}

	m.mu.RLock()
	state := m.state
	conn := m.conn
	m.mu.RUnlock()

	if state == StateConnected && conn != nil {
		if err := m.send(conn, newEnvelope(id, "unsubscribe", nil)); err != nil {
			m.logger.Warn("Unsubscribe envelope send failed", "id", id, "error", err)
		}
	}

	m.logger.Debug("Subscription removed", "id", id)
	return nil
}

// OnEvent registers a handler for a subscription type or envelope
// method. Handlers run on the read loop; a slow handler delays
// subsequent messages.
func (m *Manager) OnEvent(eventType string, handler Handler) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.handlers[eventType] = handler
}

// Subscriptions returns a snapshot of the active subscriptions.
func (m *Manager) Subscriptions() []*Subscription {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	subs := make([]*Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.Active {
			subs = append(subs, sub)
		}
	}
	return subs
}

// send serializes one envelope write under the write mutex.
func (m *Manager) send(conn Conn, env *Envelope) error {
	data, err := env.marshal()
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.RecordWSMessageSent()
	}
	return nil
}

// readLoop reads frames until the connection retires, dispatching
// inbound envelopes to subscription handlers.
func (m *Manager) readLoop(conn Conn, epoch chan struct{}) {
	defer m.wg.Done()

	for {
		select {
		case <-m.shutdown:
			return
		case <-epoch:
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readPollInterval))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			m.connectionLost(conn, epoch, err)
			return
		}

		if m.metrics != nil {
			m.metrics.RecordWSMessageReceived()
		}

		env, err := parseEnvelope(data)
		if err != nil {
			m.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}

		m.dispatch(env)
	}
}

// dispatch routes an envelope to its handler: by subscription id first,
// then by method.
func (m *Manager) dispatch(env *Envelope) {
	m.subMu.RLock()
	var handler Handler
	if env.ID != "" {
		if sub, exists := m.subscriptions[env.ID]; exists {
			handler = m.handlers[sub.Type]
		}
	}
	if handler == nil {
		handler = m.handlers[env.Method]
	}
	m.subMu.RUnlock()

	if handler != nil {
		handler(env)
	}
}

// heartbeat pings the server at the configured interval while the
// connection lives. Ping failures retire the connection.
func (m *Manager) heartbeat(conn Conn, epoch chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdown:
			return
		case <-epoch:
			return
		case <-ticker.C:
			m.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			m.writeMu.Unlock()
			if err != nil {
				m.connectionLost(conn, epoch, err)
				return
			}
		}
	}
}

// connectionLost retires a connection exactly once and decides between
// reconnecting and the terminal Error state.
func (m *Manager) connectionLost(conn Conn, epoch chan struct{}, cause error) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	close(epoch)
	m.epoch = nil
	m.conn = nil
	_ = conn.Close()

	if m.metrics != nil {
		m.metrics.RecordWSStatus(false)
	}

	select {
	case <-m.shutdown:
		m.setStateLocked(StateDisconnected)
		m.mu.Unlock()
		return
	default:
	}

	if m.attempts >= m.reconnect.MaxAttempts {
		m.enterTerminalLocked()
		return
	}

	m.setStateLocked(StateReconnecting)
	m.mu.Unlock()

	m.logger.Warn("Stream connection lost", "url", m.url, "error", cause)

	m.wg.Add(1)
	go m.reconnectLoop()
}

// enterTerminalLocked transitions to the terminal Error state. Caller
// holds mu; the lock is released before the fatal handler runs.
func (m *Manager) enterTerminalLocked() {
	m.terminalErr = errors.WrapFatal(
		fmt.Errorf("%w after %d attempts", errors.ErrReconnectExhausted, m.attempts),
		"Manager", "reconnect", "attempt budget")
	m.setStateLocked(StateError)
	handler := m.fatalHandler
	terminal := m.terminalErr
	m.mu.Unlock()

	m.logger.Error("Stream reconnection exhausted", "url", m.url, "attempts", m.reconnect.MaxAttempts)

	if handler != nil {
		handler(terminal)
	}
}

// reconnectLoop waits out the backoff delay and redials until success,
// shutdown, or attempt exhaustion.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		m.mu.Lock()
		attempt := m.attempts
		m.attempts++
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.RecordWSReconnect()
		}

		timer := time.NewTimer(m.reconnect.Delay(attempt))
		select {
		case <-m.shutdown:
			timer.Stop()
			m.mu.Lock()
			m.setStateLocked(StateDisconnected)
			m.mu.Unlock()
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), DefaultHandshakeTimeout)
		conn, err := m.dialer.DialContext(ctx, m.url, nil)
		cancel()

		if err == nil {
			m.mu.Lock()
			select {
			case <-m.shutdown:
				m.mu.Unlock()
				_ = conn.Close()
				return
			default:
			}
			m.adoptLocked(conn)
			m.mu.Unlock()

			m.logger.Info("Stream reconnected", "url", m.url, "attempts", attempt+1)
			m.resubscribeAll()
			return
		}

		m.logger.Warn("Stream reconnect attempt failed",
			"url", m.url,
			"attempt", attempt+1,
			"error", err)

		m.mu.Lock()
		if m.attempts >= m.reconnect.MaxAttempts {
			m.enterTerminalLocked()
			return
		}
		m.mu.Unlock()
	}
}

// resubscribeAll replays subscribe envelopes for every subscription
// that survived a reconnect, keeping their original ids.
func (m *Manager) resubscribeAll() {
	m.subMu.RLock()
	snapshot := make([]*Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.Active {
			snapshot = append(snapshot, sub)
		}
	}
	m.subMu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		return
	}

	for _, sub := range snapshot {
		env := newEnvelope(sub.ID, "subscribe", map[string]any{
			"type":   sub.Type,
			"params": sub.Params,
		})
		if err := m.send(conn, env); err != nil {
			m.logger.Warn("Resubscribe failed", "id", sub.ID, "error", err)
			return
		}
	}

	m.logger.Info("Resubscribed after reconnect", "count", len(snapshot))
}

// Disconnect tears the manager down: background tasks stop, the
// subscription registry is cleared unconditionally, and the state ends
// at Disconnected. The manager cannot be reused afterwards.
func (m *Manager) Disconnect() error {
	m.shutdownOnce.Do(func() {
		close(m.shutdown)
	})

	m.mu.Lock()
	if m.epoch != nil {
		close(m.epoch)
		m.epoch = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		m.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		m.writeMu.Unlock()
		_ = conn.Close()
	}

	m.wg.Wait()

	m.subMu.Lock()
	for _, sub := range m.subscriptions {
		sub.Active = false
	}
	m.subscriptions = make(map[string]*Subscription)
	m.subMu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordWSSubscriptions(0)
		m.metrics.RecordWSStatus(false)
	}

	m.mu.Lock()
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	m.logger.Info("Stream disconnected", "url", m.url)
	return nil
}
