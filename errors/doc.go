// Package errors provides standardized error handling for the HyperSim SDK.
//
// # Overview
//
// The package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing). Classification lets callers make
// retry and shutdown decisions without error string matching.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if !connected {
//	    return errors.ErrNotConnected
//	}
//
// Wrap errors with component context:
//
//	if err := client.Call(ctx, method, params, &out); err != nil {
//	    return errors.WrapTransient(err, "SimulationClient", "Simulate", "rpc call")
//	}
//
// Check classification for retry logic:
//
//	if errors.IsTransient(err) {
//	    // retry with backoff
//	} else if errors.IsFatal(err) {
//	    // stop, escalate
//	}
//
// # Error Wrapping Pattern
//
// All wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// WrapTransient, WrapInvalid, and WrapFatal apply the pattern and attach a
// classification; the plain Wrap preserves whatever classification the
// underlying error carries. All types support errors.Is, errors.As, and
// unwrapping chains.
//
// # Classification Rules
//
// Connection loss, timeouts, and rate limiting are Transient. Malformed
// requests, parsing failures, and unknown plugin names are Invalid.
// Reconnect exhaustion, terminal connection state, and configuration errors
// are Fatal. Unknown errors default to Transient so callers may retry.
package errors
