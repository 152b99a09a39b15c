package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxAmount is the exclusive upper bound accepted for a single operation.
const MaxAmount = 1e9

// NormalizeAmount drops spaces (including non-breaking ones) and reads a
// comma as the decimal point, so "1 500,50" becomes "1500.50".
func NormalizeAmount(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
	return strings.Replace(clean, ",", ".", 1)
}

// ParseAmount reads a human-entered or stored amount such as "1 500,50"
// or "2500". Only finite decimal numbers are accepted.
func ParseAmount(s string) (float64, error) {
	clean := NormalizeAmount(s)
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.ContainsAny(clean, "xXpP") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return f, nil
}

// ValidateAmount checks 0 < amount < MaxAmount.
func ValidateAmount(a float64) error {
	if !(a > 0 && a < MaxAmount) {
		return fmt.Errorf("amount %v out of range (0, %v)", a, MaxAmount)
	}
	return nil
}
