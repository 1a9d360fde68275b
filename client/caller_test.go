package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
)

func rpcServer(t *testing.T, handler func(req rpcRequest) rpcResponse) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := handler(req)
		resp.JSONRPC = "2.0"
		resp.ID = req.ID
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPCaller_Call(t *testing.T) {
	srv := rpcServer(t, func(req rpcRequest) rpcResponse {
		assert.Equal(t, "test_echo", req.Method)
		return rpcResponse{Result: json.RawMessage(`{"value":"hello"}`)}
	})

	caller, err := NewHTTPCaller(srv.URL)
	require.NoError(t, err)

	var result struct {
		Value string `json:"value"`
	}
	require.NoError(t, caller.Call(context.Background(), "test_echo", []any{}, &result))
	assert.Equal(t, "hello", result.Value)
}

func TestHTTPCaller_IncrementsRequestID(t *testing.T) {
	var ids []int64
	srv := rpcServer(t, func(req rpcRequest) rpcResponse {
		ids = append(ids, req.ID)
		return rpcResponse{Result: json.RawMessage(`null`)}
	})

	caller, err := NewHTTPCaller(srv.URL)
	require.NoError(t, err)

	require.NoError(t, caller.Call(context.Background(), "test_a", nil, nil))
	require.NoError(t, caller.Call(context.Background(), "test_b", nil, nil))
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestHTTPCaller_RPCError(t *testing.T) {
	srv := rpcServer(t, func(req rpcRequest) rpcResponse {
		return rpcResponse{Error: &rpcError{Code: -32601, Message: "method not found"}}
	})

	caller, err := NewHTTPCaller(srv.URL)
	require.NoError(t, err)

	callErr := caller.Call(context.Background(), "test_missing", nil, nil)
	require.Error(t, callErr)
	assert.ErrorIs(t, callErr, errors.ErrRPCFailed)
	assert.Contains(t, callErr.Error(), "method not found")
}

func TestHTTPCaller_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	caller, err := NewHTTPCaller(srv.URL, WithRetryPolicy(noRetry()))
	require.NoError(t, err)

	callErr := caller.Call(context.Background(), "test_any", nil, nil)
	require.Error(t, callErr)
	assert.True(t, errors.IsTransient(callErr))
}

func TestHTTPCaller_ConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	caller, err := NewHTTPCaller(url, WithRetryPolicy(noRetry()))
	require.NoError(t, err)

	callErr := caller.Call(context.Background(), "test_any", nil, nil)
	require.Error(t, callErr)
	assert.True(t, errors.IsTransient(callErr))
}

func noRetry() retry.Config {
	return retry.Config{
		MaxAttempts:  1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   2.0,
	}
}

func fastRetry(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestHTTPCaller_RetriesTransientFailures(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NoError(t, json.NewEncoder(w).Encode(rpcResponse{
			JSONRPC: "2.0",
			Result:  json.RawMessage(`{"value":"recovered"}`),
			ID:      req.ID,
		}))
	}))
	t.Cleanup(srv.Close)

	caller, err := NewHTTPCaller(srv.URL, WithRetryPolicy(fastRetry(3)))
	require.NoError(t, err)

	var result struct {
		Value string `json:"value"`
	}
	require.NoError(t, caller.Call(context.Background(), "test_flaky", nil, &result))
	assert.Equal(t, "recovered", result.Value)
	assert.Equal(t, int64(3), requests.Load())
}

func TestHTTPCaller_ExhaustedRetriesStayTransient(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	caller, err := NewHTTPCaller(srv.URL, WithRetryPolicy(fastRetry(3)))
	require.NoError(t, err)

	callErr := caller.Call(context.Background(), "test_down", nil, nil)
	require.Error(t, callErr)
	assert.True(t, errors.IsTransient(callErr))
	assert.ErrorIs(t, callErr, errors.ErrRPCFailed)
	assert.Equal(t, int64(3), requests.Load())
}

func TestHTTPCaller_RPCErrorIsNotRetried(t *testing.T) {
	var requests atomic.Int64
	srv := rpcServer(t, func(req rpcRequest) rpcResponse {
		requests.Add(1)
		return rpcResponse{Error: &rpcError{Code: -32602, Message: "invalid params"}}
	})

	caller, err := NewHTTPCaller(srv.URL, WithRetryPolicy(fastRetry(5)))
	require.NoError(t, err)

	callErr := caller.Call(context.Background(), "test_bad", nil, nil)
	require.Error(t, callErr)
	assert.ErrorIs(t, callErr, errors.ErrRPCFailed)
	assert.NotContains(t, callErr.Error(), "non-retryable")
	assert.Equal(t, int64(1), requests.Load())
}

func TestHTTPCaller_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	caller, err := NewHTTPCaller(srv.URL)
	require.NoError(t, err)

	callErr := caller.Call(context.Background(), "test_any", nil, nil)
	require.Error(t, callErr)
	assert.ErrorIs(t, callErr, errors.ErrParsingFailed)
}

func TestNewHTTPCaller_EmptyEndpoint(t *testing.T) {
	_, err := NewHTTPCaller("")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
