package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/pkg/cache"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

// fakeCaller replays canned responses keyed by method and records every
// call it sees.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string]any
	errs      map[string]error
	calls     []string
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		responses: make(map[string]any),
		errs:      make(map[string]error),
	}
}

func (f *fakeCaller) Call(_ context.Context, method string, _ any, result any) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	err := f.errs[method]
	resp := f.responses[method]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if resp == nil || result == nil {
		return nil
	}
	raw, mErr := json.Marshal(resp)
	if mErr != nil {
		return mErr
	}
	return json.Unmarshal(raw, result)
}

func (f *fakeCaller) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.calls {
		if m == method {
			n++
		}
	}
	return n
}

func testTx() *types.TransactionRequest {
	return &types.TransactionRequest{
		From:     "0x1111111111111111111111111111111111111111",
		To:       "0x2222222222222222222222222222222222222222",
		Value:    "0xde0b6b3a7640000",
		GasLimit: "0x5208",
	}
}

func newSimCache(t *testing.T) cache.Cache[*types.SimulationResult] {
	t.Helper()
	c, err := cache.New[*types.SimulationResult](context.Background(), cache.Config{
		Enabled:    true,
		MaxEntries: 100,
		TTL:        time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSimulationClient_Simulate(t *testing.T) {
	caller := newFakeCaller()
	caller.responses[methodSimulate] = &types.SimulationResult{
		Success: true,
		GasUsed: "21000",
	}

	sc, err := NewSimulationClient(caller, WithSimulationCache(newSimCache(t)))
	require.NoError(t, err)

	result, err := sc.Simulate(context.Background(), testTx())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "21000", result.GasUsed)
}

func TestSimulationClient_CachesSuccessfulResults(t *testing.T) {
	caller := newFakeCaller()
	caller.responses[methodSimulate] = &types.SimulationResult{Success: true, GasUsed: "21000"}

	sc, err := NewSimulationClient(caller, WithSimulationCache(newSimCache(t)))
	require.NoError(t, err)

	_, err = sc.Simulate(context.Background(), testTx())
	require.NoError(t, err)
	_, err = sc.Simulate(context.Background(), testTx())
	require.NoError(t, err)

	assert.Equal(t, 1, caller.callCount(methodSimulate))
}

func TestSimulationClient_DoesNotCacheFailures(t *testing.T) {
	caller := newFakeCaller()
	caller.responses[methodSimulate] = &types.SimulationResult{
		Success:      false,
		RevertReason: "insufficient balance",
	}

	sc, err := NewSimulationClient(caller, WithSimulationCache(newSimCache(t)))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		result, simErr := sc.Simulate(context.Background(), testTx())
		require.NoError(t, simErr)
		assert.False(t, result.Success)
	}
	assert.Equal(t, 2, caller.callCount(methodSimulate))
}

func TestSimulationClient_ValidatesTransaction(t *testing.T) {
	caller := newFakeCaller()
	sc, err := NewSimulationClient(caller)
	require.NoError(t, err)

	_, err = sc.Simulate(context.Background(), nil)
	require.Error(t, err)

	_, err = sc.Simulate(context.Background(), &types.TransactionRequest{From: "bogus"})
	require.Error(t, err)
	assert.Empty(t, caller.calls)
}

func TestSimulationClient_CallErrorPropagates(t *testing.T) {
	caller := newFakeCaller()
	caller.errs[methodSimulate] = errors.WrapTransient(errors.ErrRPCFailed, "HTTPCaller", "Call", "simulate")

	sc, err := NewSimulationClient(caller, WithSimulationCache(newSimCache(t)))
	require.NoError(t, err)

	_, err = sc.Simulate(context.Background(), testTx())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRPCFailed)

	// The failed call must not have populated the cache.
	caller.errs = map[string]error{}
	caller.responses[methodSimulate] = &types.SimulationResult{Success: true, GasUsed: "21000"}
	result, err := sc.Simulate(context.Background(), testTx())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, caller.callCount(methodSimulate))
}

func TestSimulationClient_NetworkStatus(t *testing.T) {
	caller := newFakeCaller()
	caller.responses[methodNetworkStatus] = &types.NetworkStatus{
		Network:     types.NetworkMainnet,
		LatestBlock: 123456,
		IsHealthy:   true,
	}

	sc, err := NewSimulationClient(caller)
	require.NoError(t, err)

	status, err := sc.NetworkStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123456), status.LatestBlock)
	assert.True(t, status.IsHealthy)
}

func TestSimulationClient_Block(t *testing.T) {
	caller := newFakeCaller()
	caller.responses[methodBlockByNumber] = &types.BlockInfo{
		Number: 42,
		Type:   types.BlockTypeSmall,
	}

	sc, err := NewSimulationClient(caller)
	require.NoError(t, err)

	block, err := sc.Block(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), block.Number)

	_, err = sc.Block(context.Background(), -1)
	require.Error(t, err)
}

func TestNewSimulationClient_RequiresCaller(t *testing.T) {
	_, err := NewSimulationClient(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
