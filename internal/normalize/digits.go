// Package normalize repairs the text that PDF decoders produce for
// Bangla voter-roll exports: localized digits become ASCII and the glyphs
// substituted by the exporting tool's broken font are mapped back to the
// grapheme clusters they stand for.
package normalize

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// BanglaDigits maps each Bangla decimal digit to its ASCII counterpart,
// indexed by value.
var BanglaDigits = [10]struct {
	Glyph rune
	ASCII rune
}{
	{'০', '0'}, {'১', '1'}, {'২', '2'}, {'৩', '3'}, {'৪', '4'},
	{'৫', '5'}, {'৬', '6'}, {'৭', '7'}, {'৮', '8'}, {'৯', '9'},
}

var digitLookup = func() map[rune]rune {
	m := make(map[rune]rune, len(BanglaDigits))
	for _, d := range BanglaDigits {
		m[d.Glyph] = d.ASCII
	}
	return m
}()

var digitTransformer = runes.Map(mapDigit)

func mapDigit(r rune) rune {
	if ascii, ok := digitLookup[r]; ok {
		return ascii
	}
	return r
}

// DigitTransformer returns a transformer that rewrites Bangla digits as
// ASCII digits and leaves every other rune alone. It can be chained with
// other x/text transformers.
func DigitTransformer() transform.Transformer {
	return runes.Map(mapDigit)
}

// Digits converts every Bangla digit in s to ASCII. It never fails and is
// idempotent.
func Digits(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(digitTransformer, s)
	if err != nil {
		// runes.Map only errors on short buffers, which transform.String handles;
		// fall back to a rune-by-rune copy just in case.
		buf := []rune(s)
		for i, r := range buf {
			buf[i] = mapDigit(r)
		}
		return string(buf)
	}
	return out
}

// IsDigit reports whether r is an ASCII or Bangla decimal digit.
func IsDigit(r rune) bool {
	if r >= '0' && r <= '9' {
		return true
	}
	_, ok := digitLookup[r]
	return ok
}

// IsASCIIDigits reports whether s is empty or consists solely of ASCII digits.
func IsASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
