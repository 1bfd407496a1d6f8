package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Ligature is a single font-substitution correction: the decoded glyph (or
// CID placeholder) and the Bangla cluster it actually represents.
type Ligature struct {
	From string
	To   string
}

// ligatures is ordered; when two entries could match at the same position
// the earlier one wins. No To value may contain a From value, otherwise
// Repair would stop being idempotent.
var ligatures = []Ligature{
	{"Î", "র্"},
	{"Ï", "ে"},
	{"Ë", "্য"},
	{"ƣ", "কু"},
	{"ń", "ম্ব"},
	{"į", "ন্য"},
	{"Œ", "ন্ট"},
	{"Ĵ", "প্র"},
	{"Ą", "দ্দী"},
	{"ŀ", "ল্হ"},
	{"ľ", "ব্দ"},
	{"ň", "ন্ন"},
	{"Ħ", "ম্ম"},
	{"Ķ", "ফ্ফ"},
	{"ġ", "দ্দি"},
	{"×", "ক্ত"},
	{"Ř", "শ্র"},
	{"Ɓ", "রু"},
	{"Ů", "স"},
	{"Ɔ", "হ"},
	{"ƀ", "জ"},
	{"ſ", "নূ"},
	{"Ĩ", "ন্ন"},
	{"ĺ", "ব্দ"},
	{"Ž", "ফ্ফ"},
	{"ķ", "ল্হ"},
	{"ļ", "দ্রে"},
	{"ŗ", "প্র"},
	{"Ş", "শ"},
	{"Ţ", "ষ"},
	{"Ñ", "ব্দু"},
	// glyphs seen only through the pdf-extraction decoder
	{"ĥ", "্ম"},
	{"ē", "ত্"},
	{"Ň", "ম্ম"},
	{"ė", "দ্দি"},
	// CID placeholders emitted when the font has no ToUnicode map
	{"(cid:206)", "র্"},
	{"(cid:207)", "ে"},
	{"(cid:203)", "্য"},
	{"(cid:419)", "কু"},
	{"(cid:324)", "ম্ব"},
	{"(cid:303)", "ন্য"},
	{"(cid:140)", "ন্ট"},
	{"(cid:308)", "প্র"},
	{"(cid:215)", "ক্ত"},
	{"(cid:384)", "সু"},
}

var (
	ligatureReplacer = newLigatureReplacer(ligatures)
	reLineBreaks     = regexp.MustCompile(`(?:\r\n|\r|\n)+`)
	reWhitespace     = regexp.MustCompile(`[\s\p{Zs}]+`)
)

func newLigatureReplacer(table []Ligature) *strings.Replacer {
	pairs := make([]string, 0, len(table)*2)
	for _, l := range table {
		pairs = append(pairs, l.From, l.To)
	}
	return strings.NewReplacer(pairs...)
}

// Ligatures returns a copy of the ordered correction table.
func Ligatures() []Ligature {
	out := make([]Ligature, len(ligatures))
	copy(out, ligatures)
	return out
}

// Repair reverses the known glyph substitutions, folds line breaks and
// whitespace runs into single spaces, trims the result and puts it in NFC.
// Repair(Repair(s)) == Repair(s).
func Repair(s string) string {
	if s == "" {
		return ""
	}
	// compose first so decomposed forms of the substituted glyphs still match
	s = norm.NFC.String(s)
	s = ligatureReplacer.Replace(s)
	s = reLineBreaks.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return norm.NFC.String(s)
}
