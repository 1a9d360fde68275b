package types

import (
	"fmt"
	"time"

	"github.com/rajgottipati/HyperSim-SDK/errors"
)

// Network identifies a HyperEVM deployment.
type Network string

// Supported networks.
const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// Validate returns an error for networks without a known configuration.
func (n Network) Validate() error {
	if _, ok := NetworkConfigs[n]; !ok {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Network", "Validate", fmt.Sprintf("unknown network %q", n))
	}
	return nil
}

// Config returns the endpoint defaults for the network. Validate first;
// unknown networks return a zero config.
func (n Network) Config() NetworkConfig {
	return NetworkConfigs[n]
}

// BlockType classifies HyperEVM's dual block sizes.
type BlockType string

// Block type constants
const (
	BlockTypeSmall BlockType = "SMALL"
	BlockTypeLarge BlockType = "LARGE"
)

// NetworkConfig holds per-network endpoint defaults.
type NetworkConfig struct {
	DisplayName string        `json:"displayName"`
	ChainID     int64         `json:"chainId"`
	RPCURL      string        `json:"rpcUrl"`
	WSURL       string        `json:"wsUrl"`
	ExplorerURL string        `json:"explorerUrl"`
	BlockTime   time.Duration `json:"blockTime"`
}

// NetworkConfigs maps each supported network to its defaults.
var NetworkConfigs = map[Network]NetworkConfig{
	NetworkMainnet: {
		DisplayName: "HyperEVM Mainnet",
		ChainID:     42161,
		RPCURL:      "https://mainnet.hyperevm.example.com",
		WSURL:       "wss://mainnet.hyperevm.example.com/ws",
		ExplorerURL: "https://explorer.hyperevm.example.com",
		BlockTime:   2 * time.Second,
	},
	NetworkTestnet: {
		DisplayName: "HyperEVM Testnet",
		ChainID:     421614,
		RPCURL:      "https://testnet.hyperevm.example.com",
		WSURL:       "wss://testnet.hyperevm.example.com/ws",
		ExplorerURL: "https://testnet-explorer.hyperevm.example.com",
		BlockTime:   2 * time.Second,
	},
}

// Gas constants for HyperEVM's dual block system.
const (
	// MaxGasLimit is the large block gas ceiling.
	MaxGasLimit = 30_000_000

	// SmallBlockGasLimit is the small block gas ceiling.
	SmallBlockGasLimit = 2_000_000

	// DefaultGasLimit covers a plain value transfer.
	DefaultGasLimit = 21_000
)

// NetworkStatus is a point-in-time view of network health.
type NetworkStatus struct {
	Network         Network `json:"network"`
	LatestBlock     int64   `json:"latestBlock"`
	GasPrice        string  `json:"gasPrice"`
	IsHealthy       bool    `json:"isHealthy"`
	AvgBlockTime    float64 `json:"avgBlockTime"`
	CongestionLevel string  `json:"congestionLevel"`
}

// BlockInfo describes a single block.
type BlockInfo struct {
	Number           int64     `json:"number"`
	Hash             string    `json:"hash"`
	Type             BlockType `json:"type"`
	Timestamp        int64     `json:"timestamp"`
	GasLimit         string    `json:"gasLimit"`
	GasUsed          string    `json:"gasUsed"`
	TransactionCount int       `json:"transactionCount"`
}
