// Package stream manages the persistent WebSocket connection to the
// simulation service: connection state, subscriptions, heartbeat, and
// automatic reconnection with bounded exponential backoff.
//
// # Connection Lifecycle
//
// A Manager moves through five states: Disconnected (initial),
// Connecting, Connected, Reconnecting, and Error. The Error state is
// terminal. It is entered when the reconnection attempt budget is
// exhausted, and the manager never dials again on its own. Transient
// connection drops while Connected trigger reconnection transparently;
// callers only see a failure when the budget runs out, surfaced through
// Err() and the optional fatal handler.
//
// Reconnect delays follow InitialDelay * Multiplier^attempt capped at
// MaxDelay (pkg/retry.Config). The attempt counter resets to zero on
// every successful connection.
//
// # Subscriptions
//
// Subscribe requires the Connected state and returns a record with a
// unique id. Subscriptions survive automatic reconnects because the
// manager replays their subscribe envelopes on the new connection. An
// explicit Disconnect clears the registry unconditionally.
//
//	m, err := stream.NewManager("wss://rpc.hyperliquid.xyz/ws",
//	    stream.WithLogger(logger),
//	    stream.WithHeartbeatInterval(30*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := m.Connect(ctx); err != nil {
//	    return err
//	}
//	m.OnEvent("blockUpdates", func(env *stream.Envelope) {
//	    // handle inbound event
//	})
//	sub, err := m.Subscribe(ctx, "blockUpdates", nil)
//
// # Concurrency
//
// Connection state, the subscription registry, and the write path are
// guarded by separate locks; no method holds more than one. Handlers
// run on the read loop, so inbound envelopes for one connection are
// delivered in order.
package stream
