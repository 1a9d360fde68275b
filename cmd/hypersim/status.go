package main

import (
	"github.com/spf13/cobra"

	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current network status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sdk, _, err := newSDK(cfg, retry.Quick())
		if err != nil {
			return err
		}
		defer sdk.Close()

		status, err := sdk.NetworkStatus(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}
