package client

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

// fakeSimulator counts concurrent simulations and returns a fixed result
// per transaction value.
type fakeSimulator struct {
	mu            sync.Mutex
	inFlight      int32
	maxInFlight   int32
	simulated     int
	err           error
	gasPerRequest string
}

func (f *fakeSimulator) Simulate(_ context.Context, tx *types.TransactionRequest) (*types.SimulationResult, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	for {
		recorded := atomic.LoadInt32(&f.maxInFlight)
		if current <= recorded || atomic.CompareAndSwapInt32(&f.maxInFlight, recorded, current) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.simulated++
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	gas := f.gasPerRequest
	if gas == "" {
		gas = "21000"
	}
	return &types.SimulationResult{Success: true, GasUsed: gas}, nil
}

func bundleOf(n int) []*types.TransactionRequest {
	txs := make([]*types.TransactionRequest, n)
	for i := range txs {
		txs[i] = testTx()
	}
	return txs
}

func TestAnalysisClient_AnalyzeRiskRemote(t *testing.T) {
	caller := newFakeCaller()
	caller.responses[methodAnalyzeRisk] = &types.RiskInsights{
		RiskLevel:          types.RiskLevelMedium,
		SuccessProbability: 0.8,
		ConfidenceScore:    0.95,
	}

	ac, err := NewAnalysisClient(&fakeSimulator{}, WithAnalysisCaller(caller))
	require.NoError(t, err)

	insights, err := ac.AnalyzeRisk(context.Background(), &types.SimulationResult{Success: true, GasUsed: "21000"})
	require.NoError(t, err)
	assert.Equal(t, types.RiskLevelMedium, insights.RiskLevel)
}

func TestAnalysisClient_AnalyzeRiskHeuristics(t *testing.T) {
	ac, err := NewAnalysisClient(&fakeSimulator{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		result *types.SimulationResult
		want   types.RiskLevel
	}{
		{name: "failure is high risk", result: &types.SimulationResult{Success: false}, want: types.RiskLevelHigh},
		{name: "cheap success is low risk", result: &types.SimulationResult{Success: true, GasUsed: "21000"}, want: types.RiskLevelLow},
		{name: "heavy gas is medium risk", result: &types.SimulationResult{Success: true, GasUsed: "2500000"}, want: types.RiskLevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights, aErr := ac.AnalyzeRisk(context.Background(), tt.result)
			require.NoError(t, aErr)
			assert.Equal(t, tt.want, insights.RiskLevel)
		})
	}
}

func TestAnalysisClient_AnalyzeRiskNilResult(t *testing.T) {
	ac, err := NewAnalysisClient(&fakeSimulator{})
	require.NoError(t, err)

	_, err = ac.AnalyzeRisk(context.Background(), nil)
	require.Error(t, err)
}

func TestAnalysisClient_OptimizeBundleHeuristics(t *testing.T) {
	sim := &fakeSimulator{gasPerRequest: "21000"}
	ac, err := NewAnalysisClient(sim)
	require.NoError(t, err)

	opt, err := ac.OptimizeBundle(context.Background(), bundleOf(3))
	require.NoError(t, err)
	assert.Equal(t, "63000", opt.OriginalGas)
	assert.Equal(t, "0", opt.GasSaved)
	assert.Equal(t, []int{0, 1, 2}, opt.ReorderedIndices)
	assert.Equal(t, 3, sim.simulated)
}

func TestAnalysisClient_OptimizeBundleRemote(t *testing.T) {
	caller := newFakeCaller()
	caller.responses[methodOptimizeBundle] = &types.BundleOptimization{
		OriginalGas:      "63000",
		OptimizedGas:     "60000",
		GasSaved:         "3000",
		ReorderedIndices: []int{2, 0, 1},
	}

	ac, err := NewAnalysisClient(&fakeSimulator{}, WithAnalysisCaller(caller))
	require.NoError(t, err)

	opt, err := ac.OptimizeBundle(context.Background(), bundleOf(3))
	require.NoError(t, err)
	assert.Equal(t, "3000", opt.GasSaved)
	assert.Equal(t, []int{2, 0, 1}, opt.ReorderedIndices)
}

func TestAnalysisClient_OptimizeBundleBoundsConcurrency(t *testing.T) {
	sim := &fakeSimulator{}
	ac, err := NewAnalysisClient(sim, WithMaxConcurrency(2))
	require.NoError(t, err)

	_, err = ac.OptimizeBundle(context.Background(), bundleOf(8))
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&sim.maxInFlight), int32(2))
	assert.Equal(t, 8, sim.simulated)
}

func TestAnalysisClient_OptimizeBundleEmpty(t *testing.T) {
	ac, err := NewAnalysisClient(&fakeSimulator{})
	require.NoError(t, err)

	_, err = ac.OptimizeBundle(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestAnalysisClient_OptimizeBundleSimulationFailure(t *testing.T) {
	sim := &fakeSimulator{err: errors.WrapTransient(errors.ErrRPCFailed, "HTTPCaller", "Call", "simulate")}
	ac, err := NewAnalysisClient(sim)
	require.NoError(t, err)

	_, err = ac.OptimizeBundle(context.Background(), bundleOf(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRPCFailed)
}

func TestNewAnalysisClient_RequiresSimulator(t *testing.T) {
	_, err := NewAnalysisClient(nil)
	require.Error(t, err)
}
