package types

// SubscriptionType names a streaming event feed.
type SubscriptionType string

// Available subscription feeds.
const (
	SubTypeBlocks       SubscriptionType = "blocks"
	SubTypeTransactions SubscriptionType = "transactions"
	SubTypeSimulations  SubscriptionType = "simulations"
	SubTypeMarketData   SubscriptionType = "marketData"
)
