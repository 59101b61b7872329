package common

import (
	"fmt"
	"strings"
)

// TokenPOD and TokenZPOD are the fungible assets the native engines custody.
const (
	TokenPOD  = "POD"
	TokenZPOD = "ZPOD"
)

// NormalizeToken canonicalises a token symbol for storage and lookups.
func NormalizeToken(token string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case TokenPOD:
		return TokenPOD, nil
	case TokenZPOD:
		return TokenZPOD, nil
	default:
		return "", fmt.Errorf("unsupported token %q: %w", token, ErrInvalidArgument)
	}
}

// IsZeroAddress reports whether addr is the all-zero account key.
func IsZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
