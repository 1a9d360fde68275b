package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rajgottipati/HyperSim-SDK/pkg/retry"
	"github.com/rajgottipati/HyperSim-SDK/types"
)

var analyzeFlag bool

var simulateCmd = &cobra.Command{
	Use:   "simulate <tx.json>",
	Short: "Simulate a transaction from a JSON file",
	Long: `Reads a transaction request from a JSON file ("-" for stdin),
simulates it, and prints the result as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := readTransaction(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sdk, _, err := newSDK(cfg, retry.DefaultConfig())
		if err != nil {
			return err
		}
		defer sdk.Close()

		result, err := sdk.Simulate(cmd.Context(), tx)
		if err != nil {
			return err
		}
		if err := printJSON(result); err != nil {
			return err
		}

		if analyzeFlag {
			insights, err := sdk.AnalyzeRisk(cmd.Context(), tx)
			if err != nil {
				return err
			}
			return printJSON(insights)
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&analyzeFlag, "analyze", false, "Also print a risk assessment")
}

func readTransaction(path string) (*types.TransactionRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read transaction: %w", err)
	}

	var tx types.TransactionRequest
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}
	return &tx, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
