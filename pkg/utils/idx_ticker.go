package utils

import (
	"strings"
)

// JKSuffix is the exchange suffix the Sectors API attaches to IDX symbols.
const JKSuffix = ".JK"

// NormalizeSymbol turns user input into a bare IDX ticker.
// " bbri.jk " and "$BBRI" both become "BBRI".
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	symbol = strings.TrimPrefix(symbol, "$")
	return strings.TrimSuffix(symbol, JKSuffix)
}
