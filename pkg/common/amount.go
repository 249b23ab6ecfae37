package common

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCurrencySymbol is stripped from amount cells when no other symbol is configured.
const DefaultCurrencySymbol = "$"

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseAmount converts a currency cell such as "$1,234.50" or "(12.00)" into a float.
//
// The currency symbol and thousands separators are removed and accounting
// parentheses mark a negative value. An empty cell is zero. Anything left that
// is not a plain decimal number is reported as an error together with a zero value.
func ParseAmount(s, symbol string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	s = strings.ReplaceAll(s, symbol, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if !numericRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if negative {
		v = -v
	}
	return v, nil
}
