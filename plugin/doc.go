// Package plugin implements the SDK extension pipeline.
//
// Plugins hook into the request path at three points: BeforeRequest,
// AfterResponse, and OnError. A Pipeline holds loaded plugins in
// priority order (lower priority runs first; equal priorities keep
// load order) and invokes them sequentially, so extensions can depend
// on ordering between each other.
//
// # Failure Isolation
//
// A plugin hook that returns an error or panics is logged and counted,
// and execution continues with the next plugin. Pipeline hook runs
// never fail the request they wrap. Each callback runs under a bounded
// timeout (DefaultHookTimeout unless configured).
//
// # Loading
//
// Plugin kinds come from a closed registry fixed at construction: the
// logging and metrics built-ins plus factories supplied through
// WithFactory. Load constructs the named plugin, calls Initialize with
// the descriptor config, and inserts it by priority; an initialization
// failure aborts the load and leaves the pipeline unmodified.
//
//	pipe, err := plugin.New(ctx,
//	    plugin.WithLogger(logger),
//	    plugin.WithMetrics(metrics),
//	    plugin.WithFactory("audit", newAuditPlugin),
//	)
//	if err != nil {
//	    return err
//	}
//	err = pipe.Load(ctx, plugin.Descriptor{
//	    Name:     "audit",
//	    Priority: 20,
//	    Enabled:  true,
//	    Config:   map[string]any{"sink": "stdout"},
//	})
//
// Custom plugins embed Base to inherit no-op hooks and override only
// what they need.
package plugin
