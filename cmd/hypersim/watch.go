package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
	"github.com/rajgottipati/HyperSim-SDK/stream"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

var watchType string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Subscribe to an event feed and print events until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.StreamingEnabled = true
		cfg.ApplyDefaults()

		sdk, logger, err := newSDK(cfg, retry.Persistent())
		if err != nil {
			return err
		}
		defer sdk.Close()

		if err := sdk.Connect(cmd.Context()); err != nil {
			return err
		}

		subType := types.SubscriptionType(watchType)
		if err := sdk.OnEvent(subType, printEnvelope); err != nil {
			return err
		}
		sub, err := sdk.Subscribe(cmd.Context(), subType, nil)
		if err != nil {
			return err
		}
		logger.Info("Watching events", "type", watchType, "subscription", sub.ID)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Info("Shutting down")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchType, "type", string(types.SubTypeBlocks),
		"Feed to watch: blocks, transactions, simulations, or marketData")
}

func printEnvelope(env *stream.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	fmt.Println(string(data))
}
