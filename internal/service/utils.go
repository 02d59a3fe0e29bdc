package service

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// sanitizeUTF8 removes invalid UTF-8 sequences from string
// This prevents PostgreSQL encoding errors when saving text
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return strings.ReplaceAll(s, "\x00", "")
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if (r == utf8.RuneError && size == 1) || r == 0 {
			s = s[size:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}

// cleanText trims and sanitizes provider text; blank input reports false.
func cleanText(s string) (string, bool) {
	s = strings.TrimSpace(sanitizeUTF8(s))
	return s, s != ""
}

// decimalFromFloat rejects NaN and infinities, which decimal cannot represent.
func decimalFromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// parseAmount reads a printed amount such as "$1,234.50", "1.234,50 €" or
// "(12.00)". It reports false for anything that is not a number, including
// text with letters between its digits.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	letterAfterDigits := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			if letterAfterDigits {
				return decimal.Zero, false
			}
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = !negative
		case unicode.IsLetter(r):
			letterAfterDigits = b.Len() > 0
		case unicode.IsSpace(r), unicode.Is(unicode.Sc, r), r == '\'':
		default:
			return decimal.Zero, false
		}
	}

	digits := normalizeSeparators(b.String())
	if digits == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators turns the last of '.' or ',' into the decimal point and
// drops the other as a thousands separator. A lone ',' counts as decimal only
// when it is followed by one or two digits.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot == -1 && lastComma == -1:
		return s
	case lastComma > lastDot:
		if lastDot == -1 && strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			return strings.Replace(s, ",", ".", 1)
		}
		if lastDot != -1 {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ",", "")
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	}
}

// dateLayouts are tried in order; month-first wins for ambiguous slashes.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"2/1/2006",
	"01/02/06",
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
