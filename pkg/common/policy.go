package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord marks an input row that cannot become a record. Loaders
// skip such rows and keep going.
var ErrInvalidRecord = errors.New("invalid record")

// DuplicatePolicy decides what a bulk load does with an ID it has already seen.
type DuplicatePolicy string

const (
	// PolicyIgnore keeps the record that arrived first.
	PolicyIgnore DuplicatePolicy = "ignore"
	// PolicyReplace swaps in the record that arrived last.
	PolicyReplace DuplicatePolicy = "replace"
)

func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyIgnore:
		return PolicyIgnore, nil
	case PolicyReplace:
		return PolicyReplace, nil
	}
	return PolicyIgnore, fmt.Errorf("unknown duplicate policy %q", s)
}
