package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/arisanhub/arisand/internal/domain"
)

// ValidateAmount checks that amount is a well-formed positive decimal string
// ("10", "0.5") without scaling it to token units. Callers that need a cheap
// syntactic check before fetching the token's decimals use this.
func ValidateAmount(amount string) error {
	s := strings.TrimSpace(amount)
	if s == "" {
		return domain.ErrInvalidAmount
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if strings.IndexByte(s[i+1:], '.') >= 0 {
			return domain.ErrInvalidAmount
		}
		s = s[:i] + s[i+1:]
	}
	if s == "" {
		return domain.ErrInvalidAmount
	}
	nonZero := false
	for _, c := range s {
		if c < '0' || c > '9' {
			return domain.ErrInvalidAmount
		}
		if c != '0' {
			nonZero = true
		}
	}
	if !nonZero {
		return domain.ErrInvalidAmount
	}
	return nil
}

// ParseUnits converts a human-readable decimal amount ("10.5") into its raw
// integer token representation at the given number of decimals. The math is
// done on decimal strings so amounts never pass through a float.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, domain.ErrInvalidAmount
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: more than %d decimal places", domain.ErrInvalidAmount, decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	raw, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, domain.ErrInvalidAmount
	}
	if raw.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return raw, nil
}

// FormatUnits renders a raw token amount as a decimal string, trimming
// trailing zeros from the fractional part.
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	neg := raw.Sign() < 0
	digits := new(big.Int).Abs(raw).String()
	if len(digits) <= int(decimals) {
		digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
	}
	split := len(digits) - int(decimals)
	whole, frac := digits[:split], digits[split:]
	frac = strings.TrimRight(frac, "0")
	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
