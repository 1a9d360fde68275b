package plugin

import (
	"context"
	"log/slog"
	"time"

	"github.com/rajgottipati/HyperSim-SDK/errors"
)

// Built-in plugin names.
const (
	LoggingPluginName = "logging"
	MetricsPluginName = "metrics"
)

// registerBuiltins installs the factories every pipeline carries.
func registerBuiltins(r *Registry) error {
	if err := r.Register(LoggingPluginName, newLoggingPlugin); err != nil {
		return err
	}
	return r.Register(MetricsPluginName, newMetricsPlugin)
}

// builtinDescriptors are loaded at pipeline construction, ahead of any
// caller-supplied plugins.
func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{Name: LoggingPluginName, Priority: 1, Enabled: true},
		{Name: MetricsPluginName, Priority: 2, Enabled: true},
	}
}

// loggingPlugin emits structured request/response logs.
type loggingPlugin struct {
	Base
	logger      *slog.Logger
	level       slog.Level
	showPayload bool
}

func newLoggingPlugin(deps Dependencies) (Plugin, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingPlugin{logger: logger}, nil
}

func (p *loggingPlugin) Name() string    { return LoggingPluginName }
func (p *loggingPlugin) Version() string { return "1.0.0" }

func (p *loggingPlugin) Initialize(_ context.Context, config map[string]any) error {
	p.showPayload = getBool(config, "showPayload", false)
	switch getString(config, "level", "debug") {
	case "info":
		p.level = slog.LevelInfo
	default:
		p.level = slog.LevelDebug
	}
	return nil
}

func (p *loggingPlugin) BeforeRequest(ctx context.Context, rc *RequestContext) error {
	attrs := []any{
		"requestId", rc.RequestID,
		"client", rc.Client,
		"method", rc.Method,
	}
	if p.showPayload && rc.Payload != nil {
		attrs = append(attrs, "payload", rc.Payload)
	}
	p.logger.Log(ctx, p.level, "Request started", attrs...)
	return nil
}

func (p *loggingPlugin) AfterResponse(ctx context.Context, rc *RequestContext, _ any) error {
	p.logger.Log(ctx, p.level, "Request completed",
		"requestId", rc.RequestID,
		"client", rc.Client,
		"method", rc.Method,
		"duration", time.Since(rc.StartedAt))
	return nil
}

func (p *loggingPlugin) OnError(_ context.Context, rc *RequestContext, callErr error) error {
	p.logger.Error("Request failed",
		"requestId", rc.RequestID,
		"client", rc.Client,
		"method", rc.Method,
		"duration", time.Since(rc.StartedAt),
		"error", callErr)
	return nil
}

// metricsPlugin records request counters and latency histograms.
// It is a no-op when the pipeline has no metrics configured.
type metricsPlugin struct {
	Base
	deps Dependencies
}

func newMetricsPlugin(deps Dependencies) (Plugin, error) {
	return &metricsPlugin{deps: deps}, nil
}

func (p *metricsPlugin) Name() string    { return MetricsPluginName }
func (p *metricsPlugin) Version() string { return "1.0.0" }

func (p *metricsPlugin) AfterResponse(_ context.Context, rc *RequestContext, _ any) error {
	if p.deps.Metrics == nil {
		return nil
	}
	p.deps.Metrics.RecordRequest(rc.Client, rc.Method, "success")
	p.deps.Metrics.RecordRequestDuration(rc.Client, rc.Method, time.Since(rc.StartedAt))
	return nil
}

func (p *metricsPlugin) OnError(_ context.Context, rc *RequestContext, callErr error) error {
	if p.deps.Metrics == nil {
		return nil
	}
	p.deps.Metrics.RecordRequest(rc.Client, rc.Method, "error")
	p.deps.Metrics.RecordRequestDuration(rc.Client, rc.Method, time.Since(rc.StartedAt))
	p.deps.Metrics.RecordError(rc.Client, errors.Classify(callErr).String())
	return nil
}

// Config helpers for plugin Initialize implementations.

func getBool(config map[string]any, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return defaultValue
}

func getString(config map[string]any, key, defaultValue string) string {
	if value, exists := config[key]; exists {
		if s, ok := value.(string); ok && s != "" {
			return s
		}
	}
	return defaultValue
}
