// Package main implements the hypersim command line tool: one-shot
// transaction simulation, network status, and event watching against a
// HyperSim endpoint.
package main

import (
	"fmt"
	"os"
	"runtime"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "hypersim"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
