package match

import (
	"strings"
	"unicode"
)

// Normalize case-folds an identifier and drops separators, so "spi.AutoConfig",
// "spi.auto_config" and "SPI.AUTOCONFIG" compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}
