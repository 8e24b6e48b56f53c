package validation

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCNPJ = errors.New("CNPJ must have exactly 14 digits")
	ErrInvalidCEP  = errors.New("CEP must have exactly 8 digits")
	ErrInvalidCNAE = errors.New("CNAE code must have at least 2 characters")
)

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCNPJ strips formatting punctuation from a CNPJ (tax id) and
// validates that exactly 14 digits remain.
func NormalizeCNPJ(cnpj string) (string, error) {
	digits := DigitsOnly(cnpj)
	if len(digits) != 14 {
		return "", ErrInvalidCNPJ
	}
	return digits, nil
}

// NormalizeCEP strips formatting from a CEP (postal code) and validates
// that exactly 8 digits remain.
func NormalizeCEP(cep string) (string, error) {
	digits := DigitsOnly(cep)
	if len(digits) != 8 {
		return "", ErrInvalidCEP
	}
	return digits, nil
}

// NormalizeCNAE strips separators from a CNAE (industry) code. Codes are
// accepted loosely: class codes ("47.11-3") and subclass codes
// ("4711-3/01") both occur upstream, so only a minimum length is enforced.
func NormalizeCNAE(code string) (string, error) {
	cleaned := strings.NewReplacer(".", "", "-", "", "/", "", " ", "").Replace(code)
	if len(cleaned) < 2 {
		return "", ErrInvalidCNAE
	}
	return cleaned, nil
}
