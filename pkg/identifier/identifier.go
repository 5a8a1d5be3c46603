// Package identifier canonicalises human-entered business keys such as
// employee numbers and skill codes.
package identifier

import (
	"errors"
	"strings"
)

// ErrEmpty is returned when an identifier is empty after trimming.
var ErrEmpty = errors.New("identifier is empty")

// Normalize trims surrounding whitespace and keeps case intact; identifiers
// are case-sensitive.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmpty
	}
	return trimmed, nil
}

