package facematch

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalName normalizes an identity name for storage and comparison
// (Unicode NFC, inner whitespace collapsed, surrounding whitespace trimmed).
// Case is preserved: "Alice" and "alice" are different identities.
func CanonicalName(name string) string {
	name = norm.NFC.String(name)
	return strings.Join(strings.Fields(name), " ")
}

// ValidateName canonicalizes name and rejects it if nothing is left.
func ValidateName(name string) (string, error) {
	canonical := CanonicalName(name)
	if canonical == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return canonical, nil
}
