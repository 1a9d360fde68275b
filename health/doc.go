// Package health provides health monitoring functionality for SDK components
// with thread-safe status tracking and aggregation.
//
// The health package tracks the health status of individual components (stream
// connections, plugin pipelines, request clients) and aggregates them into a
// system-wide view for monitoring and operational visibility.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced functionality
//   - Unhealthy: component not functioning properly
//
// The three-state model enables nuanced reporting: a cache with a low hit rate
// might report degraded, while a stream connection in a terminal error state
// reports unhealthy.
//
// # Core Components
//
// Status: individual component health state containing status level, descriptive
// message, timestamp, optional metrics, and hierarchical sub-statuses.
//
// Monitor: thread-safe centralized tracking for multiple component health
// statuses with concurrent read/write access and automatic timestamps.
//
// Snapshot: a lightweight point-in-time health reading that components produce
// internally; FromSnapshot converts it into a full Status.
//
// # Basic Usage
//
//	monitor := health.NewMonitor()
//
//	monitor.UpdateHealthy("stream", "WebSocket connection stable")
//	monitor.UpdateDegraded("cache", "Cache hit rate below threshold")
//	monitor.UpdateUnhealthy("rpc", "Connection timeout after 5 attempts")
//
//	if status, exists := monitor.Get("stream"); exists && status.IsHealthy() {
//	    log.Println("stream is healthy")
//	}
//
// # System-Wide Aggregation
//
// Combining component statuses into a single system indicator:
//
//	systemHealth := monitor.AggregateHealth("sdk")
//	if systemHealth.IsUnhealthy() {
//	    log.Printf("SDK unhealthy: %s", systemHealth.Message)
//	}
//
// Aggregation follows worst-state-wins: any unhealthy component makes the
// system unhealthy, any degraded component makes it degraded, and the system
// is healthy only when all components are healthy.
//
// # Error Message Sanitization
//
// Status messages built from errors are sanitized before exposure so health
// endpoints never leak connection details:
//   - URLs (http://, https://, ws://, wss://) become [URL]
//   - Unix and Windows file paths become [PATH]
//   - IP addresses become [IP]
//   - Port numbers become [PORT]
//   - Credential-looking fragments (password:, token=, ...) become [REDACTED]
//
// # Thread Safety
//
// Monitor uses sync.RWMutex for concurrent access. Status values are immutable
// once created; WithMetrics and WithSubStatus return copies.
package health
