package plugin

import (
	"context"
	"log/slog"
	"time"

	"github.com/rajgottipati/HyperSim-SDK/metric"
)

// Plugin is the contract SDK extensions implement. Hooks are invoked
// synchronously in priority order around every client request; a hook
// error never fails the request itself.
type Plugin interface {
	// Name returns the unique plugin name.
	Name() string

	// Version returns the plugin version.
	Version() string

	// Initialize prepares the plugin with its descriptor config.
	// A failed Initialize aborts the load.
	Initialize(ctx context.Context, config map[string]any) error

	// Shutdown releases plugin resources. Called on Unload and on
	// pipeline shutdown.
	Shutdown(ctx context.Context) error

	// Healthy reports whether the plugin is operational.
	Healthy() bool

	// BeforeRequest runs before a request is dispatched.
	BeforeRequest(ctx context.Context, rc *RequestContext) error

	// AfterResponse runs after a successful response.
	AfterResponse(ctx context.Context, rc *RequestContext, result any) error

	// OnError runs when a request fails.
	OnError(ctx context.Context, rc *RequestContext, callErr error) error
}

// RequestContext carries per-request information through the hook chain.
type RequestContext struct {
	RequestID string         `json:"requestId"`
	Client    string         `json:"client"`
	Method    string         `json:"method"`
	StartedAt time.Time      `json:"startedAt"`
	Payload   any            `json:"payload,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewRequestContext creates a request context stamped with the current time.
func NewRequestContext(requestID, client, method string, payload any) *RequestContext {
	return &RequestContext{
		RequestID: requestID,
		Client:    client,
		Method:    method,
		StartedAt: time.Now(),
		Payload:   payload,
		Metadata:  make(map[string]any),
	}
}

// Descriptor selects and configures a plugin for loading.
// Priority orders hook execution (lower runs first); zero means
// DefaultPriority. Enabled must be set explicitly: a disabled plugin is
// loaded and tracked but skipped during hook execution.
type Descriptor struct {
	Name     string         `json:"name" yaml:"name"`
	Priority int            `json:"priority" yaml:"priority"`
	Enabled  bool           `json:"enabled" yaml:"enabled"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// DefaultPriority is assigned when a descriptor leaves Priority unset.
const DefaultPriority = 10

// Info describes a loaded plugin.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`
	Healthy  bool   `json:"healthy"`
}

// Dependencies are handed to plugin factories at construction.
// Factories must not perform I/O; deferred work belongs in Initialize.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// Base provides no-op hook and lifecycle implementations for embedding,
// so plugins only override the hooks they care about.
type Base struct{}

// Initialize is a no-op.
func (Base) Initialize(context.Context, map[string]any) error { return nil }

// Shutdown is a no-op.
func (Base) Shutdown(context.Context) error { return nil }

// Healthy reports true.
func (Base) Healthy() bool { return true }

// BeforeRequest is a no-op.
func (Base) BeforeRequest(context.Context, *RequestContext) error { return nil }

// AfterResponse is a no-op.
func (Base) AfterResponse(context.Context, *RequestContext, any) error { return nil }

// OnError is a no-op.
func (Base) OnError(context.Context, *RequestContext, error) error { return nil }
