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

// RPC methods served by the cross-layer endpoint.
const (
	methodCoreState  = "core_getState"
	methodPositions  = "core_getPositions"
	methodMarketData = "core_getMarketData"
)

// CrossLayerClient reads HyperCore state that lives alongside the EVM
// layer. All reads are cached; keys are fingerprints of the method and its
// arguments.
type CrossLayerClient struct {
	caller   Caller
	cache    cache.Cache[any]
	pipeline *plugin.Pipeline
	logger   *slog.Logger

	requestCounter atomic.Int64
}

// CrossLayerOption configures a CrossLayerClient.
type CrossLayerOption func(*CrossLayerClient)

// WithCrossLayerCache sets the response cache. Defaults to a no-op cache.
func WithCrossLayerCache(c cache.Cache[any]) CrossLayerOption {
	return func(cl *CrossLayerClient) {
		cl.cache = c
	}
}

// WithCrossLayerPipeline attaches the plugin pipeline run around each call.
func WithCrossLayerPipeline(p *plugin.Pipeline) CrossLayerOption {
	return func(cl *CrossLayerClient) {
		cl.pipeline = p
	}
}

// WithCrossLayerLogger sets the logger.
func WithCrossLayerLogger(logger *slog.Logger) CrossLayerOption {
	return func(cl *CrossLayerClient) {
		cl.logger = logger
	}
}

// NewCrossLayerClient creates a cross-layer client over the given caller.
func NewCrossLayerClient(caller Caller, opts ...CrossLayerOption) (*CrossLayerClient, error) {
	if caller == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"CrossLayerClient", "NewCrossLayerClient", "caller cannot be nil")
	}

	cl := &CrossLayerClient{
		caller: caller,
		cache:  cache.NewNoop[any](),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl, nil
}

// CoreState returns the cross-layer state relevant to an address.
func (c *CrossLayerClient) CoreState(ctx context.Context, address string) (*types.CoreState, error) {
	if !isHexAddressArg(address) {
		return nil, errors.WrapInvalid(errors.ErrInvalidRequest,
			"CrossLayerClient", "CoreState", fmt.Sprintf("invalid address %q", address))
	}

	key := cache.Fingerprint(methodCoreState, address)
	if cached, ok := c.cache.Get(key); ok {
		if state, ok := cached.(*types.CoreState); ok {
			return state, nil
		}
	}

	var state types.CoreState
	if err := c.call(ctx, "coreState", methodCoreState, []any{address}, &state); err != nil {
		return nil, err
	}
	c.store(key, &state)
	return &state, nil
}

// Positions returns the open positions held by an address.
func (c *CrossLayerClient) Positions(ctx context.Context, address string) ([]types.Position, error) {
	if !isHexAddressArg(address) {
		return nil, errors.WrapInvalid(errors.ErrInvalidRequest,
			"CrossLayerClient", "Positions", fmt.Sprintf("invalid address %q", address))
	}

	key := cache.Fingerprint(methodPositions, address)
	if cached, ok := c.cache.Get(key); ok {
		if positions, ok := cached.([]types.Position); ok {
			return positions, nil
		}
	}

	var positions []types.Position
	if err := c.call(ctx, "positions", methodPositions, []any{address}, &positions); err != nil {
		return nil, err
	}
	c.store(key, positions)
	return positions, nil
}

// MarketData returns pricing and depth for the given assets, or for all
// assets when none are named.
func (c *CrossLayerClient) MarketData(ctx context.Context, assets ...string) (*types.MarketData, error) {
	parts := append([]string{methodMarketData}, assets...)
	key := cache.Fingerprint(parts...)
	if cached, ok := c.cache.Get(key); ok {
		if md, ok := cached.(*types.MarketData); ok {
			return md, nil
		}
	}

	var md types.MarketData
	if err := c.call(ctx, "marketData", methodMarketData, []any{assets}, &md); err != nil {
		return nil, err
	}
	c.store(key, &md)
	return &md, nil
}

// Close releases the response cache.
func (c *CrossLayerClient) Close() error {
	return c.cache.Close()
}

func (c *CrossLayerClient) call(ctx context.Context, op, method string, params any, result any) error {
	rc := plugin.NewRequestContext(c.nextRequestID(), ClientCrossLayer, op, params)
	if c.pipeline != nil {
		c.pipeline.RunBefore(ctx, rc)
	}
	if err := c.caller.Call(ctx, method, params, result); err != nil {
		if c.pipeline != nil {
			c.pipeline.RunOnError(ctx, rc, err)
		}
		return err
	}
	if c.pipeline != nil {
		c.pipeline.RunAfter(ctx, rc, result)
	}
	return nil
}

func (c *CrossLayerClient) store(key string, value any) {
	if _, err := c.cache.Set(key, value); err != nil {
		c.logger.Warn("Failed to cache cross-layer response", "key", key, "error", err)
	}
}

func (c *CrossLayerClient) nextRequestID() string {
	return fmt.Sprintf("%d-%s", c.requestCounter.Add(1), uuid.NewString()[:8])
}

func isHexAddressArg(s string) bool {
	if len(s) != 42 || s[0] != '0' || s[1] != 'x' {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
