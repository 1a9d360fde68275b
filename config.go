package hypersim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rajgottipati/HyperSim-SDK/client"
	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/pkg/cache"
	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
	"github.com/rajgottipati/HyperSim-SDK/plugin"
	"github.com/rajgottipati/HyperSim-SDK/stream"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

// Config configures an SDK instance. Zero values take network and
// package defaults via ApplyDefaults.
type Config struct {
	// Network selects endpoint defaults when explicit endpoints are unset.
	Network types.Network `json:"network" yaml:"network"`

	// RPCEndpoint overrides the network's default simulation endpoint.
	RPCEndpoint string `json:"rpc_endpoint,omitempty" yaml:"rpc_endpoint,omitempty"`

	// WSEndpoint overrides the network's default streaming endpoint.
	WSEndpoint string `json:"ws_endpoint,omitempty" yaml:"ws_endpoint,omitempty"`

	// AnalysisEndpoint connects the remote risk analysis service. Empty
	// falls back to local heuristics.
	AnalysisEndpoint string `json:"analysis_endpoint,omitempty" yaml:"analysis_endpoint,omitempty"`

	// CrossLayerEnabled exposes HyperCore reads through the SDK.
	CrossLayerEnabled bool `json:"cross_layer_enabled" yaml:"cross_layer_enabled"`

	// StreamingEnabled creates the WebSocket stream manager.
	StreamingEnabled bool `json:"streaming_enabled" yaml:"streaming_enabled"`

	// Timeout bounds a single RPC round trip.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxConcurrency bounds the bundle optimization fan-out.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`

	// Cache configures the simulation and cross-layer response caches.
	Cache cache.Config `json:"cache" yaml:"cache"`

	// Stream tunes the WebSocket connection lifecycle.
	Stream StreamConfig `json:"stream" yaml:"stream"`

	// Plugins are loaded into the pipeline after the builtins, in order.
	Plugins []plugin.Descriptor `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// StreamConfig tunes heartbeats and reconnect backoff.
type StreamConfig struct {
	HeartbeatInterval     time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval"`
	MaxReconnectAttempts  int           `json:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	ReconnectInitialDelay time.Duration `json:"reconnect_initial_delay" yaml:"reconnect_initial_delay"`
	ReconnectMaxDelay     time.Duration `json:"reconnect_max_delay" yaml:"reconnect_max_delay"`
	ReconnectMultiplier   float64       `json:"reconnect_multiplier" yaml:"reconnect_multiplier"`
}

// reconnectPolicy maps the stream settings onto a retry configuration.
func (s StreamConfig) reconnectPolicy() retry.Config {
	return retry.Config{
		MaxAttempts:  s.MaxReconnectAttempts,
		InitialDelay: s.ReconnectInitialDelay,
		MaxDelay:     s.ReconnectMaxDelay,
		Multiplier:   s.ReconnectMultiplier,
	}
}

// DefaultConfig returns a mainnet configuration with caching enabled.
func DefaultConfig() *Config {
	cfg := &Config{
		Network: types.NetworkMainnet,
		Cache:   cache.DefaultConfig(),
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields from network and package defaults.
func (c *Config) ApplyDefaults() {
	netCfg := c.Network.Config()
	if c.RPCEndpoint == "" {
		c.RPCEndpoint = netCfg.RPCURL
	}
	if c.WSEndpoint == "" {
		c.WSEndpoint = netCfg.WSURL
	}
	if c.Timeout == 0 {
		c.Timeout = client.DefaultTimeout
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = client.DefaultMaxConcurrency
	}

	policy := stream.DefaultReconnectPolicy()
	if c.Stream.HeartbeatInterval == 0 {
		c.Stream.HeartbeatInterval = stream.DefaultHeartbeatInterval
	}
	if c.Stream.MaxReconnectAttempts == 0 {
		c.Stream.MaxReconnectAttempts = policy.MaxAttempts
	}
	if c.Stream.ReconnectInitialDelay == 0 {
		c.Stream.ReconnectInitialDelay = policy.InitialDelay
	}
	if c.Stream.ReconnectMaxDelay == 0 {
		c.Stream.ReconnectMaxDelay = policy.MaxDelay
	}
	if c.Stream.ReconnectMultiplier == 0 {
		c.Stream.ReconnectMultiplier = policy.Multiplier
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := c.Network.Validate(); err != nil {
		return err
	}
	if c.RPCEndpoint == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"Config", "Validate", "rpc_endpoint cannot be empty")
	}
	if c.StreamingEnabled && c.WSEndpoint == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"Config", "Validate", "ws_endpoint required when streaming is enabled")
	}
	if c.Timeout > 0 && c.Timeout < time.Second {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate", fmt.Sprintf("timeout %v below one second", c.Timeout))
	}
	if c.MaxConcurrency < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate", fmt.Sprintf("max_concurrency cannot be negative, got %d", c.MaxConcurrency))
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return nil
}

// UnmarshalYAML accepts Go duration strings ("30s", "5m") for every
// duration field, mirroring the cache package's JSON handling.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawCache struct {
		Enabled         *bool  `yaml:"enabled"`
		MaxEntries      *int   `yaml:"max_entries"`
		TTL             string `yaml:"ttl"`
		CleanupInterval string `yaml:"cleanup_interval"`
	}
	type rawStream struct {
		HeartbeatInterval     string  `yaml:"heartbeat_interval"`
		MaxReconnectAttempts  int     `yaml:"max_reconnect_attempts"`
		ReconnectInitialDelay string  `yaml:"reconnect_initial_delay"`
		ReconnectMaxDelay     string  `yaml:"reconnect_max_delay"`
		ReconnectMultiplier   float64 `yaml:"reconnect_multiplier"`
	}
	type rawConfig struct {
		Network           string              `yaml:"network"`
		RPCEndpoint       string              `yaml:"rpc_endpoint"`
		WSEndpoint        string              `yaml:"ws_endpoint"`
		AnalysisEndpoint  string              `yaml:"analysis_endpoint"`
		CrossLayerEnabled bool                `yaml:"cross_layer_enabled"`
		StreamingEnabled  bool                `yaml:"streaming_enabled"`
		Timeout           string              `yaml:"timeout"`
		MaxConcurrency    int                 `yaml:"max_concurrency"`
		Cache             *rawCache           `yaml:"cache"`
		Stream            rawStream           `yaml:"stream"`
		Plugins           []plugin.Descriptor `yaml:"plugins"`
	}

	var raw rawConfig
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Network != "" {
		c.Network = types.Network(raw.Network)
	}
	c.RPCEndpoint = raw.RPCEndpoint
	c.WSEndpoint = raw.WSEndpoint
	c.AnalysisEndpoint = raw.AnalysisEndpoint
	c.CrossLayerEnabled = raw.CrossLayerEnabled
	c.StreamingEnabled = raw.StreamingEnabled
	c.MaxConcurrency = raw.MaxConcurrency
	c.Plugins = raw.Plugins

	var err error
	if c.Timeout, err = parseDuration(raw.Timeout, "timeout"); err != nil {
		return err
	}

	if raw.Cache != nil {
		if raw.Cache.Enabled != nil {
			c.Cache.Enabled = *raw.Cache.Enabled
		}
		if raw.Cache.MaxEntries != nil {
			c.Cache.MaxEntries = *raw.Cache.MaxEntries
		}
		if raw.Cache.TTL != "" {
			if c.Cache.TTL, err = parseDuration(raw.Cache.TTL, "cache.ttl"); err != nil {
				return err
			}
		}
		if raw.Cache.CleanupInterval != "" {
			if c.Cache.CleanupInterval, err = parseDuration(raw.Cache.CleanupInterval, "cache.cleanup_interval"); err != nil {
				return err
			}
		}
	}

	c.Stream.MaxReconnectAttempts = raw.Stream.MaxReconnectAttempts
	c.Stream.ReconnectMultiplier = raw.Stream.ReconnectMultiplier
	if c.Stream.HeartbeatInterval, err = parseDuration(raw.Stream.HeartbeatInterval, "stream.heartbeat_interval"); err != nil {
		return err
	}
	if c.Stream.ReconnectInitialDelay, err = parseDuration(raw.Stream.ReconnectInitialDelay, "stream.reconnect_initial_delay"); err != nil {
		return err
	}
	if c.Stream.ReconnectMaxDelay, err = parseDuration(raw.Stream.ReconnectMaxDelay, "stream.reconnect_max_delay"); err != nil {
		return err
	}
	return nil
}

func parseDuration(value, field string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "UnmarshalYAML", fmt.Sprintf("%s: bad duration %q", field, value))
	}
	return d, nil
}

// LoadConfig reads a YAML configuration file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Config", "LoadConfig", path)
	}

	cfg := &Config{
		Network: types.NetworkMainnet,
		Cache:   cache.DefaultConfig(),
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"Config", "LoadConfig", path)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
