package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Canonical prepares decoded document text for segmentation: line endings
// become "\n" and the text is put in NFC so labels match regardless of how
// the decoder composed vowel signs. Line structure is preserved.
func Canonical(s string) string {
	return norm.NFC.String(lineEndings.Replace(s))
}
