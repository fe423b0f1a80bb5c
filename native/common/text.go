package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Text trims value and enforces the length bounds measured in runes. A zero
// min allows empty values.
func Text(field, value string, min, max int) (string, error) {
	trimmed := strings.TrimSpace(value)
	n := utf8.RuneCountInString(trimmed)
	if n < min {
		if min == 1 {
			return "", fmt.Errorf("%w: %s required", ErrInvalidField, field)
		}
		return "", fmt.Errorf("%w: %s shorter than %d characters", ErrInvalidField, field, min)
	}
	if max > 0 && n > max {
		return "", fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidField, field, max)
	}
	return trimmed, nil
}
