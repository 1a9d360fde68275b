package types

// SimulationResult is the outcome of a transaction simulation.
type SimulationResult struct {
	Success        bool              `json:"success"`
	GasUsed        string            `json:"gasUsed"`
	ReturnData     string            `json:"returnData,omitempty"`
	Error          string            `json:"error,omitempty"`
	RevertReason   string            `json:"revertReason,omitempty"`
	BlockType      BlockType         `json:"blockType"`
	EstimatedBlock int64             `json:"estimatedBlock"`
	Trace          *ExecutionTrace   `json:"trace,omitempty"`
	CoreData       *CoreState        `json:"coreData,omitempty"`
	StateChanges   []StateChange     `json:"stateChanges,omitempty"`
	Events         []SimulationEvent `json:"events,omitempty"`
}

// ExecutionTrace holds the call tree and gas accounting for a simulation.
type ExecutionTrace struct {
	Calls           []TraceCall     `json:"calls"`
	GasBreakdown    GasBreakdown    `json:"gasBreakdown"`
	StorageAccesses []StorageAccess `json:"storageAccesses"`
}

// TraceCall is a single frame in the execution trace. Nested calls appear
// in Calls.
type TraceCall struct {
	Type    string      `json:"type"`
	From    string      `json:"from"`
	To      string      `json:"to"`
	Value   string      `json:"value"`
	Input   string      `json:"input"`
	Output  string      `json:"output,omitempty"`
	GasUsed string      `json:"gasUsed"`
	Error   string      `json:"error,omitempty"`
	Calls   []TraceCall `json:"calls,omitempty"`
}

// GasBreakdown splits gas usage by category.
type GasBreakdown struct {
	BaseGas      string `json:"baseGas"`
	ExecutionGas string `json:"executionGas"`
	StorageGas   string `json:"storageGas"`
	MemoryGas    string `json:"memoryGas"`
	LogGas       string `json:"logGas"`
}

// StorageAccess records a storage slot read or write observed during
// simulation. Type is "READ" or "WRITE".
type StorageAccess struct {
	Address string `json:"address"`
	Slot    string `json:"slot"`
	Value   string `json:"value"`
	Type    string `json:"type"`
}

// StateChange records a state delta. Type is one of BALANCE, NONCE, CODE,
// STORAGE; Slot is set only for STORAGE changes.
type StateChange struct {
	Address string  `json:"address"`
	Type    string  `json:"type"`
	Slot    *string `json:"slot,omitempty"`
	Before  string  `json:"before"`
	After   string  `json:"after"`
}

// SimulationEvent is a log emitted during simulation, optionally decoded.
type SimulationEvent struct {
	Address string         `json:"address"`
	Topics  []string       `json:"topics"`
	Data    string         `json:"data"`
	Name    string         `json:"name,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
}

// BundleOptimization is the result of optimizing a transaction bundle.
// ReorderedIndices maps the suggested execution order back to the input
// slice.
type BundleOptimization struct {
	OriginalGas      string   `json:"originalGas"`
	OptimizedGas     string   `json:"optimizedGas"`
	GasSaved         string   `json:"gasSaved"`
	Suggestions      []string `json:"suggestions"`
	ReorderedIndices []int    `json:"reorderedIndices"`
	Warnings         []string `json:"warnings,omitempty"`
}
