package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/pkg/cache"
	"github.com/rajgottipati/HyperSim-SDK/plugin"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

// Client name labels used in request contexts and metrics.
const (
	ClientSimulation = "simulation"
	ClientCrossLayer = "crosslayer"
	ClientAnalysis   = "analysis"
)

// RPC methods served by the simulation endpoint.
const (
	methodSimulate      = "hypersim_simulate"
	methodNetworkStatus = "hypersim_networkStatus"
	methodBlockByNumber = "hypersim_blockByNumber"
)

// SimulationClient simulates transactions against a HyperEVM endpoint.
// Successful results are cached by transaction fingerprint; failed
// simulations are never cached so retries reach the network.
type SimulationClient struct {
	caller   Caller
	cache    cache.Cache[*types.SimulationResult]
	pipeline *plugin.Pipeline
	logger   *slog.Logger

	requestCounter atomic.Int64
}

// SimulationOption configures a SimulationClient.
type SimulationOption func(*SimulationClient)

// WithSimulationCache sets the response cache. Defaults to a no-op cache.
func WithSimulationCache(c cache.Cache[*types.SimulationResult]) SimulationOption {
	return func(sc *SimulationClient) {
		sc.cache = c
	}
}

// WithSimulationPipeline attaches the plugin pipeline run around each call.
func WithSimulationPipeline(p *plugin.Pipeline) SimulationOption {
	return func(sc *SimulationClient) {
		sc.pipeline = p
	}
}

// WithSimulationLogger sets the logger.
func WithSimulationLogger(logger *slog.Logger) SimulationOption {
	return func(sc *SimulationClient) {
		sc.logger = logger
	}
}

// NewSimulationClient creates a simulation client over the given caller.
func NewSimulationClient(caller Caller, opts ...SimulationOption) (*SimulationClient, error) {
	if caller == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"SimulationClient", "NewSimulationClient", "caller cannot be nil")
	}

	sc := &SimulationClient{
		caller: caller,
		cache:  cache.NewNoop[*types.SimulationResult](),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Simulate runs a transaction simulation. Cache hits skip the network and
// the plugin pipeline entirely.
func (c *SimulationClient) Simulate(ctx context.Context, tx *types.TransactionRequest) (*types.SimulationResult, error) {
	if tx == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidRequest,
			"SimulationClient", "Simulate", "transaction cannot be nil")
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	key := tx.CacheKey()
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("Simulation cache hit", "key", key)
		return cached, nil
	}

	rc := plugin.NewRequestContext(c.nextRequestID(), ClientSimulation, "simulate", tx)
	if c.pipeline != nil {
		c.pipeline.RunBefore(ctx, rc)
	}

	var result types.SimulationResult
	if err := c.caller.Call(ctx, methodSimulate, []any{tx}, &result); err != nil {
		if c.pipeline != nil {
			c.pipeline.RunOnError(ctx, rc, err)
		}
		return nil, err
	}

	if c.pipeline != nil {
		c.pipeline.RunAfter(ctx, rc, &result)
	}

	if result.Success {
		if _, err := c.cache.Set(key, &result); err != nil {
			c.logger.Warn("Failed to cache simulation result", "key", key, "error", err)
		}
	}
	return &result, nil
}

// NetworkStatus reads the current network status. Never cached: the status
// changes every block.
func (c *SimulationClient) NetworkStatus(ctx context.Context) (*types.NetworkStatus, error) {
	rc := plugin.NewRequestContext(c.nextRequestID(), ClientSimulation, "networkStatus", nil)
	if c.pipeline != nil {
		c.pipeline.RunBefore(ctx, rc)
	}

	var status types.NetworkStatus
	if err := c.caller.Call(ctx, methodNetworkStatus, []any{}, &status); err != nil {
		if c.pipeline != nil {
			c.pipeline.RunOnError(ctx, rc, err)
		}
		return nil, err
	}
	if c.pipeline != nil {
		c.pipeline.RunAfter(ctx, rc, &status)
	}
	return &status, nil
}

// Block fetches a block by number.
func (c *SimulationClient) Block(ctx context.Context, number int64) (*types.BlockInfo, error) {
	if number < 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidRequest,
			"SimulationClient", "Block", fmt.Sprintf("invalid block number %d", number))
	}

	var block types.BlockInfo
	if err := c.caller.Call(ctx, methodBlockByNumber, []any{number}, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Close releases the response cache.
func (c *SimulationClient) Close() error {
	return c.cache.Close()
}

func (c *SimulationClient) nextRequestID() string {
	return fmt.Sprintf("%d-%s", c.requestCounter.Add(1), uuid.NewString()[:8])
}
