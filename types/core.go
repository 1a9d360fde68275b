package types

// CoreState bundles the cross-layer data relevant to a transaction.
type CoreState struct {
	State        map[string]any    `json:"state"`
	Positions    []Position        `json:"positions,omitempty"`
	MarketData   *MarketData       `json:"marketData,omitempty"`
	Interactions []CoreInteraction `json:"interactions,omitempty"`
}

// Position is an open trading position. Side is "LONG" or "SHORT".
type Position struct {
	Asset         string `json:"asset"`
	Size          string `json:"size"`
	EntryPrice    string `json:"entryPrice"`
	UnrealizedPnL string `json:"unrealizedPnl"`
	Side          string `json:"side"`
}

// MarketData holds per-asset pricing, depth and funding information, keyed
// by asset symbol.
type MarketData struct {
	Prices       map[string]string      `json:"prices"`
	Depths       map[string]MarketDepth `json:"depths"`
	FundingRates map[string]string      `json:"fundingRates"`
}

// MarketDepth is top-of-book bid/ask depth for one asset.
type MarketDepth struct {
	Bid     string `json:"bid"`
	Ask     string `json:"ask"`
	BidSize string `json:"bidSize"`
	AskSize string `json:"askSize"`
}

// CoreInteraction records a cross-layer precompile touch detected in a
// transaction. Type is "READ" or "WRITE".
type CoreInteraction struct {
	Type       string `json:"type"`
	Precompile string `json:"precompile"`
	Data       string `json:"data"`
	Result     string `json:"result,omitempty"`
}
