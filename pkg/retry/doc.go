// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff, designed to
// handle transient failures in network operations and connection management. The HTTP
// caller runs RPC round trips through DoWithResult, and the stream package uses
// Config.Delay to schedule websocket reconnect attempts.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//   - Config.Delay: Compute the backoff delay for a given attempt number
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (startup)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Connect()
//	})
//
// Retry with result:
//
//	status, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*types.NetworkStatus, error) {
//	    return client.NetworkStatus(ctx)
//	})
//
// Backoff scheduling without retry loops:
//
//	delay := cfg.Delay(attemptsMade) // InitialDelay * Multiplier^attempts, capped
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers
//   - No metrics collection (instrument at the call site)
//   - No error classification (caller decides what to retry; see NonRetryable)
//   - Just exponential backoff with jitter
//
// # Context Cancellation
//
// All retry operations respect context cancellation and stop retrying when the
// context is cancelled, either during execution or during backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a
// thread-safe random source to avoid contention.
package retry
