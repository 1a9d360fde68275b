// Package metric provides Prometheus-based metrics collection for the
// HyperSim SDK.
//
// The package offers a centralized metrics registry managing both core SDK
// metrics (requests, plugin hooks, WebSocket connectivity) and custom
// component-specific metrics, plus an optional HTTP server exposing metrics
// in Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: SDK-level metrics automatically registered (Metrics type)
//  2. Registry: Extensible registration for component-specific metrics
//     (MetricsRegistrar interface)
//  3. HTTP Server: Optional metrics endpoint with a health check (Server type)
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
//	core := registry.CoreMetrics()
//	core.RecordRequest("simulation", "simulate", "success")
//	core.RecordWSStatus(true)
//
// Applications that already run an HTTP server can mount server.Handler()
// instead of starting a dedicated listener.
//
// # Core Metrics
//
// All core metrics use the namespace "hypersim":
//
//   - hypersim_requests_total{client, method, status}
//   - hypersim_requests_duration_seconds{client, method}
//   - hypersim_errors_total{component, type}
//   - hypersim_health_status{component}
//   - hypersim_plugin_executions_total{plugin, hook}
//   - hypersim_plugin_failures_total{plugin, hook}
//   - hypersim_websocket_connected / reconnects_total / subscriptions
//   - hypersim_websocket_messages_received_total / sent_total
//
// # Component-Specific Metrics
//
// Components register custom metrics through the registry, which rejects
// duplicate names at both the registry and Prometheus level:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "operations_total",
//	    Help: "Total operations",
//	})
//	if err := registry.RegisterCounter("simulation", "operations_total", counter); err != nil {
//	    return err
//	}
//
// The cache package uses this path for its WithMetrics option.
//
// # Thread Safety
//
// All registry operations are mutex-protected; metric recording is
// lock-free per the Prometheus client's guarantees. CoreMetrics() returns
// a shared instance safe for concurrent use.
package metric
