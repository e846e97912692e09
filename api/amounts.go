package api

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/wlvchandler/rollup-settlement-core/types"
)

// parseAmount accepts either a 0x-prefixed hex string or a plain decimal
// string, the same two shapes a chain RPC client typically hands back.
func parseAmount(s string) (*types.Amount, error) {
	amount := new(uint256.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if err := amount.SetFromHex(s); err != nil {
			return nil, fmt.Errorf("invalid hex amount %q: %w", s, err)
		}
		return amount, nil
	}
	if err := amount.SetFromDecimal(s); err != nil {
		return nil, fmt.Errorf("invalid decimal amount %q: %w", s, err)
	}
	return amount, nil
}
