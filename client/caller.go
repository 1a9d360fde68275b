// Package client provides the request clients of the SDK: transaction
// simulation, cross-layer state reads, and risk analysis. Each client
// composes a response cache and the plugin pipeline around a Caller, the
// transport seam that tests replace with a fake.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
)

// Caller executes a single remote procedure call. Implementations decode
// the response payload into result, which must be a pointer.
type Caller interface {
	Call(ctx context.Context, method string, params any, result any) error
}

// Transport tuning for the pooled HTTP client.
const (
	// DefaultTimeout bounds a single RPC round trip.
	DefaultTimeout = 30 * time.Second

	connectionPoolSize = 10
	maxIdleConnections = 20
	idleConnTimeout    = 90 * time.Second
	dialTimeout        = 10 * time.Second
	keepAlive          = 30 * time.Second

	userAgent = "hypersim-sdk/1.0"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HTTPCaller speaks JSON-RPC 2.0 over HTTP POST against a single endpoint,
// reusing pooled connections across calls.
type HTTPCaller struct {
	endpoint    string
	httpClient  *http.Client
	logger      *slog.Logger
	retryPolicy retry.Config
	nextID      atomic.Int64
}

// HTTPCallerOption configures an HTTPCaller.
type HTTPCallerOption func(*HTTPCaller)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) HTTPCallerOption {
	return func(c *HTTPCaller) {
		c.httpClient = hc
	}
}

// WithCallerLogger sets the logger used for call diagnostics.
func WithCallerLogger(logger *slog.Logger) HTTPCallerOption {
	return func(c *HTTPCaller) {
		c.logger = logger
	}
}

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(timeout time.Duration) HTTPCallerOption {
	return func(c *HTTPCaller) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryPolicy sets the backoff policy applied to transient call
// failures. A MaxAttempts of 1 disables retries.
func WithRetryPolicy(cfg retry.Config) HTTPCallerOption {
	return func(c *HTTPCaller) {
		c.retryPolicy = cfg
	}
}

// NewHTTPCaller creates a JSON-RPC caller for the given endpoint.
func NewHTTPCaller(endpoint string, opts ...HTTPCallerOption) (*HTTPCaller, error) {
	if endpoint == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"HTTPCaller", "NewHTTPCaller", "endpoint cannot be empty")
	}

	c := &HTTPCaller{
		endpoint:    endpoint,
		httpClient:  newPooledClient(),
		logger:      slog.Default(),
		retryPolicy: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newPooledClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAlive,
		}).DialContext,
		MaxIdleConns:          connectionPoolSize,
		MaxIdleConnsPerHost:   maxIdleConnections,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   DefaultTimeout,
	}
}

// Call sends a JSON-RPC request, retrying transient failures per the
// caller's retry policy. Transport failures and non-200 statuses are
// transient and retried with backoff; a JSON-RPC error object or a
// malformed response fails immediately with the server message preserved.
func (c *HTTPCaller) Call(ctx context.Context, method string, params any, result any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errors.WrapInvalid(err, "HTTPCaller", "Call", "encode request")
	}

	rpcResp, err := retry.DoWithResult(ctx, c.retryPolicy, func() (rpcResponse, error) {
		return c.roundTrip(ctx, method, body)
	})
	if err != nil {
		// Surface the classified error, not the retry wrapper.
		var nre *retry.NonRetryableError
		if stderrors.As(err, &nre) {
			return nre.Err
		}
		return err
	}

	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
				"HTTPCaller", "Call", method)
		}
	}
	return nil
}

// roundTrip performs one HTTP attempt. Errors returned plain are retried
// by Call; errors wrapped retry.NonRetryable stop the backoff loop.
func (c *HTTPCaller) roundTrip(ctx context.Context, method string, body []byte) (rpcResponse, error) {
	var rpcResp rpcResponse

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return rpcResp, retry.NonRetryable(
			errors.WrapInvalid(err, "HTTPCaller", "Call", "build request"))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return rpcResp, errors.WrapTransient(err, "HTTPCaller", "Call", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return rpcResp, errors.WrapTransient(
			fmt.Errorf("%w: status %d", errors.ErrRPCFailed, resp.StatusCode),
			"HTTPCaller", "Call", method)
	}

	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return rpcResp, retry.NonRetryable(errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrParsingFailed, err),
			"HTTPCaller", "Call", method))
	}

	if rpcResp.Error != nil {
		c.logger.Debug("RPC call returned error",
			"method", method,
			"code", rpcResp.Error.Code,
			"message", rpcResp.Error.Message)
		return rpcResp, retry.NonRetryable(errors.Wrap(
			fmt.Errorf("%w: %w", errors.ErrRPCFailed, rpcResp.Error),
			"HTTPCaller", "Call", method))
	}
	return rpcResp, nil
}

// CloseIdleConnections releases pooled transport connections.
func (c *HTTPCaller) CloseIdleConnections() {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
