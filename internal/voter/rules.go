package voter

import (
	"regexp"
	"strings"

	"github.com/a3tai/voter-roll-reader/internal/normalize"
)

// RE2's \s is ASCII only; decoders also emit NBSP and other Zs spaces.
const (
	ws    = `[\s\p{Zs}]`
	hws   = `[\t\p{Zs}]`
	nonWS = `[^\s\p{Zs}]`
)

// Terminator says where a field's value stops.
type Terminator int

const (
	// UntilEOL captures the rest of the line.
	UntilEOL Terminator = iota
	// UntilComma captures up to the next comma on the same line.
	UntilComma
	// SingleToken captures one whitespace-delimited token.
	SingleToken
	// DigitRun captures a run of ASCII or Bangla digits.
	DigitRun
	// UntilNextAnchor captures everything up to the next entry anchor, across lines.
	UntilNextAnchor
)

func (t Terminator) String() string {
	switch t {
	case UntilEOL:
		return "until_eol"
	case UntilComma:
		return "until_comma"
	case SingleToken:
		return "single_token"
	case DigitRun:
		return "digit_run"
	case UntilNextAnchor:
		return "until_next_anchor"
	default:
		return "unknown"
	}
}

const digitClass = `[0-9০-৯]`

// FieldRule is a label-anchored extraction rule: one of Labels, an optional
// Qualifier, a separator, then a value bounded by Terminator.
type FieldRule struct {
	Field  string
	Labels []string
	// Qualifier is a regexp fragment allowed between the label and the separator.
	Qualifier string
	// SeparatorOptional lets the value follow the label without ':' (or with '-').
	SeparatorOptional bool
	Terminator        Terminator
	// StopAtLabels cuts the value where another known label begins.
	StopAtLabels bool
	// Clean is applied to the captured value; nil keeps it as captured.
	Clean func(string) string

	re *regexp.Regexp
}

// Compile builds the rule's expression. It panics on a malformed rule, so
// rule tables are compiled at package init.
func (r FieldRule) Compile() FieldRule {
	labels := make([]string, len(r.Labels))
	for i, l := range r.Labels {
		labels[i] = quoteLabel(l)
	}

	var b strings.Builder
	b.WriteString(`(?:`)
	b.WriteString(strings.Join(labels, "|"))
	b.WriteString(`)`)
	if r.Qualifier != "" {
		b.WriteString(r.Qualifier)
	}
	b.WriteString(ws + `*`)
	if r.SeparatorOptional {
		b.WriteString(`[:ঃ\-]?`)
	} else {
		b.WriteString(`[:ঃ]`)
	}

	switch r.Terminator {
	case UntilEOL:
		b.WriteString(hws + `*([^\r\n]*)`)
	case UntilComma:
		b.WriteString(hws + `*([^,\r\n]*)`)
	case SingleToken:
		b.WriteString(ws + `*(` + nonWS + `+)`)
	case DigitRun:
		b.WriteString(ws + `*(` + digitClass + `+)`)
	case UntilNextAnchor:
		b.WriteString(ws + `*((?s:.*))`)
	}

	r.re = regexp.MustCompile(b.String())
	return r
}

// Find applies the rule to text. It reports false when the label is absent
// or the cleaned value is empty.
func (r FieldRule) Find(text string) (string, bool) {
	if r.re == nil {
		r = r.Compile()
	}
	m := r.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	value := m[1]

	if r.Terminator == UntilNextAnchor {
		if loc := anchorPattern.FindStringIndex(value); loc != nil {
			value = value[:loc[0]]
		}
	}
	if r.StopAtLabels {
		if loc := stopPattern.FindStringIndex(value); loc != nil {
			value = value[:loc[0]]
		}
	}
	if r.Clean != nil {
		value = r.Clean(value)
	} else {
		value = strings.TrimSpace(value)
	}
	return value, value != ""
}

// Pattern exposes the compiled expression, mostly for diagnostics.
func (r FieldRule) Pattern() string {
	if r.re == nil {
		r = r.Compile()
	}
	return r.re.String()
}

func repairDigits(s string) string {
	return normalize.Digits(normalize.Repair(s))
}

// Entry labels, including the variants produced when the decoder emits a
// pre-base vowel sign ahead of its consonant or drops it entirely.
var (
	voterNumberLabels = []string{"ভোটার নং", "ভাটার নং", "নং"}
	nameLabels        = []string{"নাম"}
	fatherLabels      = []string{"পিতা", "িপতা", "পতা"}
	motherLabels      = []string{"মাতা"}
	occupationLabels  = []string{"পেশা", "পশা"}
	birthDateLabels   = []string{"জন্ম তারিখ", "তারিখ", "তািরখ"}
	addressLabels     = []string{"ঠিকানা", "িঠকানা"}
)

// Header labels. The ward label is written with both encodings of য়
// (precomposed and ya + nukta).
var (
	districtLabels = []string{"জেলা"}
	areaCodeLabels = []string{"কোড"}
	areaNameLabels = []string{"এলাকার নাম"}
	wardLabels     = []string{
		"ও\u09DFার্ড", "ও\u09AF\u09BCার্ড",
		"ও\u09DFাড", "ও\u09AF\u09BCাড",
	}
)

// EntryRules extract the per-voter fields from one entry block.
var EntryRules = []FieldRule{
	{Field: "voter_number", Labels: voterNumberLabels, SeparatorOptional: true, Terminator: DigitRun, Clean: normalize.Digits},
	{Field: "name", Labels: nameLabels, Terminator: UntilEOL, StopAtLabels: true, Clean: normalize.Repair},
	{Field: "father_name", Labels: fatherLabels, Terminator: UntilEOL, StopAtLabels: true, Clean: normalize.Repair},
	{Field: "mother_name", Labels: motherLabels, Terminator: UntilEOL, StopAtLabels: true, Clean: normalize.Repair},
	{Field: "occupation", Labels: occupationLabels, Terminator: UntilComma, StopAtLabels: true, Clean: normalize.Repair},
	{Field: "date_of_birth", Labels: birthDateLabels, Terminator: SingleToken, Clean: repairDigits},
	{Field: "address", Labels: addressLabels, Terminator: UntilNextAnchor, Clean: normalize.Repair},
}

// HeaderRules extract the document-level fields from the whole text.
var HeaderRules = []FieldRule{
	{Field: "district_name", Labels: districtLabels, Terminator: SingleToken, Clean: normalize.Repair},
	{Field: "area_code", Labels: areaCodeLabels, Terminator: DigitRun, Clean: normalize.Digits},
	{Field: "area_name", Labels: areaNameLabels, Terminator: UntilEOL, Clean: normalize.Repair},
	{
		Field:             "ward",
		Labels:            wardLabels,
		Qualifier:         `(?:র|Î)?` + ws + `*(?:নম্বর|নং)?(?:` + ws + `*\([^)]*\))?`,
		SeparatorOptional: true,
		Terminator:        DigitRun,
		Clean:             normalize.Digits,
	},
}

var (
	// anchorPattern marks the start of an entry: serial number, period, name label, colon.
	anchorPattern = regexp.MustCompile(`(` + digitClass + `+)\.` + ws + `*নাম` + ws + `*[:ঃ]`)
	nameMarker    = regexp.MustCompile(`নাম` + ws + `*[:ঃ]`)
	stopPattern   = buildStopPattern()
	wardInPath    = regexp.MustCompile(`(?i)WARD NO-(\d+)`)
)

// buildStopPattern matches the start of any entry label followed by its
// separator, plus the long voter-number labels which often appear without one.
func buildStopPattern() *regexp.Regexp {
	var labels []string
	for _, group := range [][]string{nameLabels, fatherLabels, motherLabels, occupationLabels, birthDateLabels, addressLabels} {
		for _, l := range group {
			labels = append(labels, quoteLabel(l))
		}
	}
	return regexp.MustCompile(`(?:` + quoteLabel("ভোটার নং") + `|` + quoteLabel("ভাটার নং") +
		`|(?:` + strings.Join(labels, "|") + `)` + ws + `*[:ঃ])`)
}

// quoteLabel escapes a label and lets each space in it match any whitespace run.
func quoteLabel(l string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(l), " ", ws+`+`)
}

func compileRules(rules []FieldRule) []FieldRule {
	out := make([]FieldRule, len(rules))
	for i, r := range rules {
		out[i] = r.Compile()
	}
	return out
}

var (
	compiledEntryRules  = compileRules(EntryRules)
	compiledHeaderRules = compileRules(HeaderRules)
)
