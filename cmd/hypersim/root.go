package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	hypersim "github.com/rajgottipati/HyperSim-SDK"
	"github.com/rajgottipati/HyperSim-SDK/client"
	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

var (
	configFile  string
	networkFlag string
	rpcEndpoint string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Simulate transactions against a HyperSim endpoint",
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", string(types.NetworkMainnet), "Target network: mainnet or testnet")
	rootCmd.PersistentFlags().StringVar(&rpcEndpoint, "rpc-endpoint", "", "Override the network's default RPC endpoint")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig builds the SDK configuration from the config file, then
// applies command line overrides.
func loadConfig() (*hypersim.Config, error) {
	var cfg *hypersim.Config
	if configFile != "" {
		loaded, err := hypersim.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = hypersim.DefaultConfig()
	}

	if networkFlag != "" && networkFlag != string(cfg.Network) {
		cfg.Network = types.Network(networkFlag)
		cfg.RPCEndpoint = ""
		cfg.WSEndpoint = ""
		cfg.ApplyDefaults()
	}
	if rpcEndpoint != "" {
		cfg.RPCEndpoint = rpcEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSDK builds an SDK whose RPC transport retries with the given policy.
// One-shot commands use retry.Quick for fast feedback; long-running ones
// use retry.Persistent to ride out endpoint hiccups.
func newSDK(cfg *hypersim.Config, policy retry.Config) (*hypersim.SDK, *slog.Logger, error) {
	logger := setupLogger(logLevel, logFormat)

	caller, err := client.NewHTTPCaller(cfg.RPCEndpoint,
		client.WithCallerLogger(logger),
		client.WithCallTimeout(cfg.Timeout),
		client.WithRetryPolicy(policy))
	if err != nil {
		return nil, nil, err
	}

	sdk, err := hypersim.New(cfg,
		hypersim.WithLogger(logger),
		hypersim.WithCaller(caller))
	if err != nil {
		return nil, nil, err
	}
	return sdk, logger, nil
}
