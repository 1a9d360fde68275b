package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/metric"
)

// Hook names used for logging and metric labels.
const (
	hookBeforeRequest = "before_request"
	hookAfterResponse = "after_response"
	hookOnError       = "on_error"
)

// DefaultHookTimeout bounds a single plugin callback.
const DefaultHookTimeout = 10 * time.Second

// loaded is a plugin admitted into the pipeline with its ordering state.
type loaded struct {
	plugin   Plugin
	priority int
	enabled  bool
}

// Pipeline runs loaded plugins around every request in strict priority
// order. Hook failures are isolated: a misbehaving plugin is logged and
// counted but never fails the request, and never blocks later plugins.
type Pipeline struct {
	mu          sync.RWMutex
	registry    *Registry
	ordered     []*loaded
	logger      *slog.Logger
	metrics     *metric.Metrics
	hookTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets the logger used for hook failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		p.logger = logger
		return nil
	}
}

// WithMetrics enables plugin execution and failure counters.
func WithMetrics(m *metric.Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithHookTimeout bounds each plugin callback invocation.
func WithHookTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Pipeline", "WithHookTimeout", "timeout validation")
		}
		p.hookTimeout = d
		return nil
	}
}

// WithFactory registers an additional plugin factory alongside the
// built-ins. The registry is closed once construction completes.
func WithFactory(name string, factory Factory) Option {
	return func(p *Pipeline) error {
		return p.registry.Register(name, factory)
	}
}

// New creates a pipeline with the logging and metrics built-ins loaded
// ahead of any caller-supplied plugins.
func New(ctx context.Context, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		registry:    NewRegistry(),
		logger:      slog.Default(),
		hookTimeout: DefaultHookTimeout,
	}

	if err := registerBuiltins(p.registry); err != nil {
		return nil, errors.Wrap(err, "Pipeline", "New", "builtin registration")
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, errors.Wrap(err, "Pipeline", "New", "option application")
		}
	}

	for _, desc := range builtinDescriptors() {
		if err := p.Load(ctx, desc); err != nil {
			return nil, errors.Wrap(err, "Pipeline", "New", "builtin load")
		}
	}

	return p, nil
}

// Load constructs the named plugin, initializes it with the descriptor
// config, and inserts it at the position its priority dictates. Plugins
// with equal priority keep their load order. A failed Initialize leaves
// the pipeline unmodified.
func (p *Pipeline) Load(ctx context.Context, desc Descriptor) error {
	if desc.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Pipeline", "Load", "descriptor name validation")
	}

	factory, exists := p.registry.Lookup(desc.Name)
	if !exists {
		msg := fmt.Errorf("%w: %q", errors.ErrPluginUnknown, desc.Name)
		return errors.WrapInvalid(msg, "Pipeline", "Load", "factory lookup")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.findLocked(desc.Name) >= 0 {
		msg := fmt.Errorf("%w: %q", errors.ErrPluginDuplicate, desc.Name)
		return errors.WrapInvalid(msg, "Pipeline", "Load", "duplicate plugin check")
	}

	instance, err := factory(Dependencies{Logger: p.logger, Metrics: p.metrics})
	if err != nil {
		return errors.Wrap(err, "Pipeline", "Load", "plugin construction")
	}

	initCtx, cancel := context.WithTimeout(ctx, p.hookTimeout)
	defer cancel()
	if err := instance.Initialize(initCtx, desc.Config); err != nil {
		msg := fmt.Errorf("%w: %q: %w", errors.ErrPluginInitFailed, desc.Name, err)
		return errors.Wrap(msg, "Pipeline", "Load", "plugin initialization")
	}

	priority := desc.Priority
	if priority == 0 {
		priority = DefaultPriority
	}

	p.insertLocked(&loaded{plugin: instance, priority: priority, enabled: desc.Enabled})
	return nil
}

// insertLocked places entry before the first plugin with a strictly
// greater priority, keeping insertion order among equal priorities.
func (p *Pipeline) insertLocked(entry *loaded) {
	pos := len(p.ordered)
	for i, existing := range p.ordered {
		if existing.priority > entry.priority {
			pos = i
			break
		}
	}

	p.ordered = append(p.ordered, nil)
	copy(p.ordered[pos+1:], p.ordered[pos:])
	p.ordered[pos] = entry
}

func (p *Pipeline) findLocked(name string) int {
	for i, entry := range p.ordered {
		if entry.plugin.Name() == name {
			return i
		}
	}
	return -1
}

// Unload removes the named plugin and invokes its Shutdown. Shutdown
// failures are logged, not propagated.
func (p *Pipeline) Unload(ctx context.Context, name string) error {
	p.mu.Lock()
	idx := p.findLocked(name)
	if idx < 0 {
		p.mu.Unlock()
		msg := fmt.Errorf("%w: %q", errors.ErrPluginUnknown, name)
		return errors.WrapInvalid(msg, "Pipeline", "Unload", "plugin lookup")
	}
	entry := p.ordered[idx]
	p.ordered = append(p.ordered[:idx], p.ordered[idx+1:]...)
	p.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, p.hookTimeout)
	defer cancel()
	if err := entry.plugin.Shutdown(shutdownCtx); err != nil {
		p.logger.Warn("Plugin shutdown failed",
			"plugin", name,
			"error", err)
	}
	return nil
}

// Enable activates hook execution for a loaded plugin.
func (p *Pipeline) Enable(name string) error {
	return p.setEnabled(name, true)
}

// Disable suspends hook execution for a loaded plugin without
// unloading it.
func (p *Pipeline) Disable(name string) error {
	return p.setEnabled(name, false)
}

func (p *Pipeline) setEnabled(name string, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.findLocked(name)
	if idx < 0 {
		msg := fmt.Errorf("%w: %q", errors.ErrPluginUnknown, name)
		return errors.WrapInvalid(msg, "Pipeline", "setEnabled", "plugin lookup")
	}
	p.ordered[idx].enabled = enabled
	return nil
}

// RunBefore invokes BeforeRequest on every enabled plugin in priority
// order. Always returns to the caller without error.
func (p *Pipeline) RunBefore(ctx context.Context, rc *RequestContext) {
	p.run(ctx, hookBeforeRequest, func(hookCtx context.Context, pl Plugin) error {
		return pl.BeforeRequest(hookCtx, rc)
	})
}

// RunAfter invokes AfterResponse on every enabled plugin in priority
// order. Always returns to the caller without error.
func (p *Pipeline) RunAfter(ctx context.Context, rc *RequestContext, result any) {
	p.run(ctx, hookAfterResponse, func(hookCtx context.Context, pl Plugin) error {
		return pl.AfterResponse(hookCtx, rc, result)
	})
}

// RunOnError invokes OnError on every enabled plugin in priority order.
// Always returns to the caller without error.
func (p *Pipeline) RunOnError(ctx context.Context, rc *RequestContext, callErr error) {
	p.run(ctx, hookOnError, func(hookCtx context.Context, pl Plugin) error {
		return pl.OnError(hookCtx, rc, callErr)
	})
}

// run executes one hook across the pipeline. Plugins execute
// sequentially so extensions can rely on ordering between them.
func (p *Pipeline) run(ctx context.Context, hook string, invoke func(context.Context, Plugin) error) {
	p.mu.RLock()
	snapshot := make([]*loaded, 0, len(p.ordered))
	for _, entry := range p.ordered {
		if entry.enabled {
			snapshot = append(snapshot, entry)
		}
	}
	p.mu.RUnlock()

	for _, entry := range snapshot {
		name := entry.plugin.Name()
		if p.metrics != nil {
			p.metrics.RecordPluginExecution(name, hook)
		}

		if err := p.invokeOne(ctx, entry.plugin, invoke); err != nil {
			if p.metrics != nil {
				p.metrics.RecordPluginFailure(name, hook)
			}
			p.logger.Warn("Plugin hook failed",
				"plugin", name,
				"hook", hook,
				"error", err)
		}
	}
}

// invokeOne runs a single callback under the hook timeout, converting
// panics into errors so one plugin cannot take down the request path.
func (p *Pipeline) invokeOne(ctx context.Context, pl Plugin, invoke func(context.Context, Plugin) error) (err error) {
	hookCtx, cancel := context.WithTimeout(ctx, p.hookTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin panic: %v", r)
		}
	}()

	return invoke(hookCtx, pl)
}

// HealthCheck probes every loaded plugin independently. A failing or
// panicking probe reports false but does not remove the plugin.
func (p *Pipeline) HealthCheck() map[string]bool {
	p.mu.RLock()
	snapshot := make([]*loaded, len(p.ordered))
	copy(snapshot, p.ordered)
	p.mu.RUnlock()

	result := make(map[string]bool, len(snapshot))
	for _, entry := range snapshot {
		result[entry.plugin.Name()] = probe(entry.plugin)
	}
	return result
}

func probe(pl Plugin) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			healthy = false
		}
	}()
	return pl.Healthy()
}

// Plugins lists the loaded plugins in execution order.
func (p *Pipeline) Plugins() []Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	infos := make([]Info, 0, len(p.ordered))
	for _, entry := range p.ordered {
		infos = append(infos, Info{
			Name:     entry.plugin.Name(),
			Version:  entry.plugin.Version(),
			Priority: entry.priority,
			Enabled:  entry.enabled,
			Healthy:  probe(entry.plugin),
		})
	}
	return infos
}

// Shutdown unloads every plugin in reverse execution order. Individual
// shutdown failures are logged and the teardown continues.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	snapshot := p.ordered
	p.ordered = nil
	p.mu.Unlock()

	for i := len(snapshot) - 1; i >= 0; i-- {
		entry := snapshot[i]
		shutdownCtx, cancel := context.WithTimeout(ctx, p.hookTimeout)
		if err := entry.plugin.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn("Plugin shutdown failed",
				"plugin", entry.plugin.Name(),
				"error", err)
		}
		cancel()
	}
	return nil
}
