package types

// RiskLevel grades a simulated transaction.
type RiskLevel string

// Risk levels, lowest to highest.
const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// RiskInsights is the analysis service's assessment of a simulation result.
type RiskInsights struct {
	RiskLevel           RiskLevel        `json:"riskLevel"`
	SuccessProbability  float64          `json:"successProbability"`
	GasOptimization     *GasOptimization `json:"gasOptimization,omitempty"`
	SecurityWarnings    []string         `json:"securityWarnings,omitempty"`
	Recommendations     []string         `json:"recommendations,omitempty"`
	SimilarTransactions int              `json:"similarTransactions"`
	ConfidenceScore     float64          `json:"confidenceScore"`
}

// GasOptimization suggests cheaper execution for a transaction.
type GasOptimization struct {
	CurrentGas   string   `json:"currentGas"`
	OptimizedGas string   `json:"optimizedGas"`
	Savings      string   `json:"savings"`
	Suggestions  []string `json:"suggestions"`
}
