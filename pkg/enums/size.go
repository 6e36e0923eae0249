package enums

import (
	"fmt"
	"strings"
)

// Size is the garment size of a product variant.
type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

var validSizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL}

// String implements fmt.Stringer.
func (s Size) String() string {
	return string(s)
}

// IsValid reports whether the size is recognized.
func (s Size) IsValid() bool {
	for _, candidate := range validSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank orders sizes from smallest to largest; unknown sizes sort last.
func (s Size) Rank() int {
	for i, candidate := range validSizes {
		if candidate == s {
			return i
		}
	}
	return len(validSizes)
}

// ParseSize converts raw input into a Size, ignoring case and surrounding whitespace.
func ParseSize(value string) (Size, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validSizes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid size %q", value)
}
