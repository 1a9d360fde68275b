// Package types contains shared domain types used across the HyperSim SDK.
package types

import (
	"fmt"
	"strings"

	"github.com/rajgottipati/HyperSim-SDK/errors"
	"github.com/rajgottipati/HyperSim-SDK/pkg/cache"
)

// TransactionRequest describes a transaction to be simulated.
type TransactionRequest struct {
	From                 string `json:"from"`
	To                   string `json:"to,omitempty"`
	Value                string `json:"value,omitempty"`
	Data                 string `json:"data,omitempty"`
	GasLimit             string `json:"gasLimit,omitempty"`
	GasPrice             string `json:"gasPrice,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
	Nonce                *int64 `json:"nonce,omitempty"`
	Type                 *int   `json:"type,omitempty"`
}

// CacheKey returns a deterministic fingerprint for the fields that affect
// simulation outcome. Two requests with the same from, to, value, data, and
// gas limit share a key regardless of fee fields.
func (t *TransactionRequest) CacheKey() string {
	return cache.Fingerprint(t.From, t.To, t.Value, t.Data, t.GasLimit)
}

// Validate checks address formats. To may be empty for contract creation.
func (t *TransactionRequest) Validate() error {
	if t.From == "" {
		return errors.WrapInvalid(errors.ErrInvalidRequest,
			"TransactionRequest", "Validate", "from address cannot be empty")
	}
	if !isHexAddress(t.From) {
		return errors.WrapInvalid(errors.ErrInvalidRequest,
			"TransactionRequest", "Validate",
			fmt.Sprintf("invalid from address %q", t.From))
	}
	if t.To != "" && !isHexAddress(t.To) {
		return errors.WrapInvalid(errors.ErrInvalidRequest,
			"TransactionRequest", "Validate",
			fmt.Sprintf("invalid to address %q", t.To))
	}
	return nil
}

func isHexAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
