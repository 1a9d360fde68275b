// Package hypersim is the client SDK for the HyperSim transaction
// simulation service.
//
// The SDK composes four layers:
//
//   - client: JSON-RPC request clients for simulation, cross-layer state,
//     and risk analysis, each wrapped in a TTL response cache
//   - plugin: an ordered, fault-isolating pipeline of request hooks
//   - stream: a persistent WebSocket connection with subscription tracking
//     and bounded reconnect backoff
//   - types: the shared domain types
//
// Most programs only touch this package:
//
//	cfg := hypersim.DefaultConfig()
//	cfg.Network = types.NetworkTestnet
//	sdk, err := hypersim.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sdk.Close()
//
//	result, err := sdk.Simulate(ctx, &types.TransactionRequest{
//		From:  "0x...",
//		To:    "0x...",
//		Value: "0xde0b6b3a7640000",
//	})
//
// Streaming and cross-layer reads are opt-in via Config.StreamingEnabled
// and Config.CrossLayerEnabled.
package hypersim
