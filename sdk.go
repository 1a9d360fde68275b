package hypersim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rajgottipati/HyperSim-SDK/client"
	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/health"
	"github.com/rajgottipati/HyperSim-SDK/metric"
	"github.com/rajgottipati/HyperSim-SDK/pkg/cache"
	"github.com/rajgottipati/HyperSim-SDK/plugin"
	"github.com/rajgottipati/HyperSim-SDK/stream"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

// shutdownTimeout bounds plugin teardown during Close.
const shutdownTimeout = 10 * time.Second

// SDK is the facade over the simulation, cross-layer, and analysis clients,
// the plugin pipeline, and the optional streaming connection.
type SDK struct {
	config  *Config
	logger  *slog.Logger
	metrics *metric.Metrics

	pipeline   *plugin.Pipeline
	caller     *client.HTTPCaller
	simulation *client.SimulationClient
	crossLayer *client.CrossLayerClient
	analysis   *client.AnalysisClient
	stream     *stream.Manager

	mu        sync.Mutex
	closed    bool
	closeErr  error
	closeOnce sync.Once
}

// Option configures an SDK instance.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	metrics        *metric.Metrics
	caller         client.Caller
	analysisCaller client.Caller
	dialer         stream.Dialer
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collectors shared by all components.
func WithMetrics(m *metric.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithCaller replaces the HTTP transport. Tests use this to run without a
// network.
func WithCaller(c client.Caller) Option {
	return func(o *options) {
		o.caller = c
	}
}

// WithAnalysisTransport replaces the analysis service transport.
func WithAnalysisTransport(c client.Caller) Option {
	return func(o *options) {
		o.analysisCaller = c
	}
}

// WithStreamDialer replaces the WebSocket dialer.
func WithStreamDialer(d stream.Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// New builds an SDK from the configuration. Defaults are applied and the
// configuration validated before any component is constructed.
func New(cfg *Config, opts ...Option) (*SDK, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"SDK", "New", "config cannot be nil")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{
		logger:  slog.Default(),
		metrics: metric.NewMetrics(),
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &SDK{
		config:  cfg,
		logger:  o.logger,
		metrics: o.metrics,
	}

	ctx := context.Background()
	pipeline, err := plugin.New(ctx,
		plugin.WithLogger(o.logger),
		plugin.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	for _, desc := range cfg.Plugins {
		if err := pipeline.Load(ctx, desc); err != nil {
			pipeline.Shutdown(ctx)
			return nil, err
		}
	}
	s.pipeline = pipeline

	rpcCaller := o.caller
	if rpcCaller == nil {
		httpCaller, err := client.NewHTTPCaller(cfg.RPCEndpoint,
			client.WithCallerLogger(o.logger),
			client.WithCallTimeout(cfg.Timeout))
		if err != nil {
			pipeline.Shutdown(ctx)
			return nil, err
		}
		rpcCaller = httpCaller
	}
	// Injected HTTP callers get their pooled connections released on Close too.
	if httpCaller, ok := rpcCaller.(*client.HTTPCaller); ok {
		s.caller = httpCaller
	}

	simCache, err := cache.NewFromConfig[*types.SimulationResult](ctx, cfg.Cache)
	if err != nil {
		pipeline.Shutdown(ctx)
		return nil, err
	}
	s.simulation, err = client.NewSimulationClient(rpcCaller,
		client.WithSimulationCache(simCache),
		client.WithSimulationPipeline(pipeline),
		client.WithSimulationLogger(o.logger))
	if err != nil {
		pipeline.Shutdown(ctx)
		return nil, err
	}

	if cfg.CrossLayerEnabled {
		crossCache, err := cache.NewFromConfig[any](ctx, cfg.Cache)
		if err != nil {
			pipeline.Shutdown(ctx)
			return nil, err
		}
		s.crossLayer, err = client.NewCrossLayerClient(rpcCaller,
			client.WithCrossLayerCache(crossCache),
			client.WithCrossLayerPipeline(pipeline),
			client.WithCrossLayerLogger(o.logger))
		if err != nil {
			pipeline.Shutdown(ctx)
			return nil, err
		}
	}

	analysisOpts := []client.AnalysisOption{
		client.WithAnalysisLogger(o.logger),
		client.WithMaxConcurrency(cfg.MaxConcurrency),
	}
	switch {
	case o.analysisCaller != nil:
		analysisOpts = append(analysisOpts, client.WithAnalysisCaller(o.analysisCaller))
	case cfg.AnalysisEndpoint != "":
		analysisCaller, err := client.NewHTTPCaller(cfg.AnalysisEndpoint,
			client.WithCallerLogger(o.logger),
			client.WithCallTimeout(cfg.Timeout))
		if err != nil {
			pipeline.Shutdown(ctx)
			return nil, err
		}
		analysisOpts = append(analysisOpts, client.WithAnalysisCaller(analysisCaller))
	}
	s.analysis, err = client.NewAnalysisClient(s.simulation, analysisOpts...)
	if err != nil {
		pipeline.Shutdown(ctx)
		return nil, err
	}

	if cfg.StreamingEnabled {
		streamOpts := []stream.Option{
			stream.WithLogger(o.logger),
			stream.WithMetrics(o.metrics),
			stream.WithHeartbeatInterval(cfg.Stream.HeartbeatInterval),
			stream.WithReconnectPolicy(cfg.Stream.reconnectPolicy()),
		}
		if o.dialer != nil {
			streamOpts = append(streamOpts, stream.WithDialer(o.dialer))
		}
		s.stream, err = stream.NewManager(cfg.WSEndpoint, streamOpts...)
		if err != nil {
			pipeline.Shutdown(ctx)
			return nil, err
		}
	}

	s.logger.Info("SDK initialized",
		"network", cfg.Network,
		"crossLayer", cfg.CrossLayerEnabled,
		"streaming", cfg.StreamingEnabled)
	return s, nil
}

// Simulate runs a transaction simulation through the cache and pipeline.
func (s *SDK) Simulate(ctx context.Context, tx *types.TransactionRequest) (*types.SimulationResult, error) {
	if err := s.guard("Simulate"); err != nil {
		return nil, err
	}
	return s.simulation.Simulate(ctx, tx)
}

// AnalyzeRisk simulates a transaction and grades the result.
func (s *SDK) AnalyzeRisk(ctx context.Context, tx *types.TransactionRequest) (*types.RiskInsights, error) {
	if err := s.guard("AnalyzeRisk"); err != nil {
		return nil, err
	}
	result, err := s.simulation.Simulate(ctx, tx)
	if err != nil {
		return nil, err
	}
	return s.analysis.AnalyzeRisk(ctx, result)
}

// OptimizeBundle simulates and reorders a transaction bundle.
func (s *SDK) OptimizeBundle(ctx context.Context, txs []*types.TransactionRequest) (*types.BundleOptimization, error) {
	if err := s.guard("OptimizeBundle"); err != nil {
		return nil, err
	}
	return s.analysis.OptimizeBundle(ctx, txs)
}

// NetworkStatus reads the current network status.
func (s *SDK) NetworkStatus(ctx context.Context) (*types.NetworkStatus, error) {
	if err := s.guard("NetworkStatus"); err != nil {
		return nil, err
	}
	return s.simulation.NetworkStatus(ctx)
}

// Block fetches a block by number.
func (s *SDK) Block(ctx context.Context, number int64) (*types.BlockInfo, error) {
	if err := s.guard("Block"); err != nil {
		return nil, err
	}
	return s.simulation.Block(ctx, number)
}

// CoreState returns the cross-layer state for an address. Requires
// cross-layer support to be enabled.
func (s *SDK) CoreState(ctx context.Context, address string) (*types.CoreState, error) {
	if err := s.guard("CoreState"); err != nil {
		return nil, err
	}
	if s.crossLayer == nil {
		return nil, crossLayerDisabled("CoreState")
	}
	return s.crossLayer.CoreState(ctx, address)
}

// Positions returns the open positions held by an address.
func (s *SDK) Positions(ctx context.Context, address string) ([]types.Position, error) {
	if err := s.guard("Positions"); err != nil {
		return nil, err
	}
	if s.crossLayer == nil {
		return nil, crossLayerDisabled("Positions")
	}
	return s.crossLayer.Positions(ctx, address)
}

// MarketData returns pricing and depth for the given assets.
func (s *SDK) MarketData(ctx context.Context, assets ...string) (*types.MarketData, error) {
	if err := s.guard("MarketData"); err != nil {
		return nil, err
	}
	if s.crossLayer == nil {
		return nil, crossLayerDisabled("MarketData")
	}
	return s.crossLayer.MarketData(ctx, assets...)
}

// Connect establishes the streaming connection. Requires streaming to be
// enabled.
func (s *SDK) Connect(ctx context.Context) error {
	if err := s.guard("Connect"); err != nil {
		return err
	}
	if s.stream == nil {
		return streamingDisabled("Connect")
	}
	return s.stream.Connect(ctx)
}

// Subscribe opens a subscription on the streaming connection.
func (s *SDK) Subscribe(ctx context.Context, subType types.SubscriptionType, params map[string]any) (*stream.Subscription, error) {
	if err := s.guard("Subscribe"); err != nil {
		return nil, err
	}
	if s.stream == nil {
		return nil, streamingDisabled("Subscribe")
	}
	return s.stream.Subscribe(ctx, string(subType), params)
}

// Unsubscribe closes a subscription by id.
func (s *SDK) Unsubscribe(ctx context.Context, id string) error {
	if err := s.guard("Unsubscribe"); err != nil {
		return err
	}
	if s.stream == nil {
		return streamingDisabled("Unsubscribe")
	}
	return s.stream.Unsubscribe(ctx, id)
}

// OnEvent registers a handler for a subscription event type.
func (s *SDK) OnEvent(subType types.SubscriptionType, handler stream.Handler) error {
	if err := s.guard("OnEvent"); err != nil {
		return err
	}
	if s.stream == nil {
		return streamingDisabled("OnEvent")
	}
	s.stream.OnEvent(string(subType), handler)
	return nil
}

// Plugins exposes the pipeline for plugin management.
func (s *SDK) Plugins() *plugin.Pipeline {
	return s.pipeline
}

// Health aggregates component health. Worst component state wins.
func (s *SDK) Health() health.Status {
	monitor := health.NewMonitor()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		monitor.UpdateUnhealthy("sdk", "closed")
		return monitor.AggregateHealth("hypersim")
	}
	monitor.UpdateHealthy("sdk", "running")

	for name, healthy := range s.pipeline.HealthCheck() {
		if healthy {
			monitor.UpdateHealthy("plugin:"+name, "plugin healthy")
		} else {
			monitor.UpdateDegraded("plugin:"+name, "plugin unhealthy")
		}
	}

	if s.stream != nil {
		monitor.UpdateSnapshot("stream", s.stream.Health())
	}

	return monitor.AggregateHealth("hypersim")
}

// Close tears the SDK down: stream first so no events arrive during plugin
// shutdown, then the pipeline, then the clients. Safe to call twice.
func (s *SDK) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if s.stream != nil {
			if err := s.stream.Disconnect(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
		if err := s.pipeline.Shutdown(ctx); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
		if err := s.simulation.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
		if s.crossLayer != nil {
			if err := s.crossLayer.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
		if s.caller != nil {
			s.caller.CloseIdleConnections()
		}
		s.logger.Info("SDK closed")
	})
	return s.closeErr
}

func (s *SDK) guard(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.WrapInvalid(errors.ErrClosed, "SDK", method, "sdk is closed")
	}
	return nil
}

func crossLayerDisabled(method string) error {
	return errors.WrapInvalid(errors.ErrInvalidConfig, "SDK", method,
		"cross-layer support is not enabled")
}

func streamingDisabled(method string) error {
	return errors.WrapInvalid(errors.ErrInvalidConfig, "SDK", method,
		"streaming is not enabled")
}
