package stream

// State represents the connection lifecycle of a Manager.
type State int32

const (
	// StateDisconnected is the initial state and the result of an
	// explicit Disconnect.
	StateDisconnected State = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateConnected means the connection is established and the
	// heartbeat and read loops are running.
	StateConnected

	// StateReconnecting means the connection was lost and automatic
	// reconnection is in progress.
	StateReconnecting

	// StateError is terminal: reconnection attempts were exhausted and
	// the manager will not dial again on its own.
	StateError
)

// String returns the state name for logging and diagnostics.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
