package client

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

// RPC methods served by the analysis endpoint.
const (
	methodAnalyzeRisk    = "analysis_assessRisk"
	methodOptimizeBundle = "analysis_optimizeBundle"
)

// DefaultMaxConcurrency bounds the simulation fan-out in OptimizeBundle.
const DefaultMaxConcurrency = 10

// Simulator runs a single transaction simulation. *SimulationClient
// satisfies this.
type Simulator interface {
	Simulate(ctx context.Context, tx *types.TransactionRequest) (*types.SimulationResult, error)
}

// AnalysisClient grades simulation results and optimizes transaction
// bundles. With a nil caller the remote analysis service is skipped and
// local heuristics answer instead.
type AnalysisClient struct {
	caller         Caller
	simulator      Simulator
	logger         *slog.Logger
	maxConcurrency int
}

// AnalysisOption configures an AnalysisClient.
type AnalysisOption func(*AnalysisClient)

// WithAnalysisCaller connects the remote analysis service. Without it the
// client falls back to local heuristics.
func WithAnalysisCaller(caller Caller) AnalysisOption {
	return func(ac *AnalysisClient) {
		ac.caller = caller
	}
}

// WithAnalysisLogger sets the logger.
func WithAnalysisLogger(logger *slog.Logger) AnalysisOption {
	return func(ac *AnalysisClient) {
		ac.logger = logger
	}
}

// WithMaxConcurrency bounds the parallel simulations in OptimizeBundle.
func WithMaxConcurrency(n int) AnalysisOption {
	return func(ac *AnalysisClient) {
		if n > 0 {
			ac.maxConcurrency = n
		}
	}
}

// NewAnalysisClient creates an analysis client. The simulator is required;
// it drives the bundle fan-out.
func NewAnalysisClient(simulator Simulator, opts ...AnalysisOption) (*AnalysisClient, error) {
	if simulator == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"AnalysisClient", "NewAnalysisClient", "simulator cannot be nil")
	}

	ac := &AnalysisClient{
		simulator:      simulator,
		logger:         slog.Default(),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(ac)
	}
	return ac, nil
}

// AnalyzeRisk grades a simulation result. Remote analysis when connected,
// local gas-based heuristics otherwise.
func (c *AnalysisClient) AnalyzeRisk(ctx context.Context, result *types.SimulationResult) (*types.RiskInsights, error) {
	if result == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidRequest,
			"AnalysisClient", "AnalyzeRisk", "result cannot be nil")
	}

	if c.caller == nil {
		return c.heuristicRisk(result), nil
	}

	var insights types.RiskInsights
	if err := c.caller.Call(ctx, methodAnalyzeRisk, []any{result}, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

// OptimizeBundle simulates every transaction in the bundle, at most
// maxConcurrency in flight, then asks the analysis service for an
// optimized ordering. The first simulation failure aborts the bundle.
func (c *AnalysisClient) OptimizeBundle(ctx context.Context, txs []*types.TransactionRequest) (*types.BundleOptimization, error) {
	if len(txs) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidRequest,
			"AnalysisClient", "OptimizeBundle", "bundle cannot be empty")
	}

	simulations := make([]*types.SimulationResult, len(txs))
	errCh := make(chan error, len(txs))
	sem := make(chan struct{}, c.maxConcurrency)

	var wg sync.WaitGroup
	for i, tx := range txs {
		wg.Add(1)
		go func(index int, tx *types.TransactionRequest) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := c.simulator.Simulate(ctx, tx)
			if err != nil {
				errCh <- err
				return
			}
			simulations[index] = result
		}(i, tx)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}

	if c.caller == nil {
		return c.heuristicOptimization(simulations), nil
	}

	var optimization types.BundleOptimization
	if err := c.caller.Call(ctx, methodOptimizeBundle, []any{simulations}, &optimization); err != nil {
		return nil, err
	}
	return &optimization, nil
}

// heuristicRisk mirrors the remote grading coarsely: failures are high
// risk, gas above the small block ceiling is medium.
func (c *AnalysisClient) heuristicRisk(result *types.SimulationResult) *types.RiskInsights {
	level := types.RiskLevelLow
	probability := 0.9

	if !result.Success {
		level = types.RiskLevelHigh
		probability = 0.1
	} else if gas, err := strconv.ParseInt(result.GasUsed, 10, 64); err == nil && gas > types.SmallBlockGasLimit {
		level = types.RiskLevelMedium
		probability = 0.7
	}

	return &types.RiskInsights{
		RiskLevel:          level,
		SuccessProbability: probability,
		Recommendations: []string{
			"Connect the analysis service for detailed risk scoring",
		},
		ConfidenceScore: 0.6,
	}
}

// heuristicOptimization sums gas and keeps the original ordering.
func (c *AnalysisClient) heuristicOptimization(simulations []*types.SimulationResult) *types.BundleOptimization {
	var totalGas int64
	for _, sim := range simulations {
		if gas, err := strconv.ParseInt(sim.GasUsed, 10, 64); err == nil {
			totalGas += gas
		}
	}

	indices := make([]int, len(simulations))
	for i := range indices {
		indices[i] = i
	}

	total := strconv.FormatInt(totalGas, 10)
	return &types.BundleOptimization{
		OriginalGas:      total,
		OptimizedGas:     total,
		GasSaved:         "0",
		Suggestions:      []string{"Connect the analysis service for bundle reordering"},
		ReorderedIndices: indices,
	}
}
