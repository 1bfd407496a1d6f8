package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/transform"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "bangla digits", in: "১২৩", want: "123"},
		{name: "all bangla digits", in: "০১২৩৪৫৬৭৮৯", want: "0123456789"},
		{name: "ascii untouched", in: "abc123", want: "abc123"},
		{name: "mixed scripts", in: "ওয়ার্ড নং ০৫", want: "ওয়ার্ড নং 05"},
		{name: "date", in: "১২/০৩/১৯৮৫", want: "12/03/1985"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Digits(tt.in))
		})
	}
}

func TestDigits_Idempotent(t *testing.T) {
	inputs := []string{"", "১২৩", "abc123", "নাম: ক ১. ২", "\xff\xfe১"}
	for _, in := range inputs {
		once := Digits(in)
		assert.Equal(t, once, Digits(once), "input %q", in)
	}
}

func TestDigitTransformer_Chains(t *testing.T) {
	chain := transform.Chain(DigitTransformer(), DigitTransformer())
	out, _, err := transform.String(chain, "৪২")
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestIsDigit(t *testing.T) {
	assert.True(t, IsDigit('7'))
	assert.True(t, IsDigit('৭'))
	assert.False(t, IsDigit('a'))
	assert.False(t, IsDigit('ক'))
}

func TestIsASCIIDigits(t *testing.T) {
	assert.True(t, IsASCIIDigits(""))
	assert.True(t, IsASCIIDigits("0123"))
	assert.False(t, IsASCIIDigits("১২"))
	assert.False(t, IsASCIIDigits("12a"))
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "collapses breaks and spaces", in: "a\n\n  b", want: "a b"},
		{name: "crlf", in: "a\r\nb\rc", want: "a b c"},
		{name: "trims", in: "  \t x \n", want: "x"},
		{name: "nbsp run", in: "a\u00a0\u00a0 b", want: "a b"},
		{name: "en space and nbsp edges", in: "\u00a0ক\u2002খ\u00a0", want: "ক খ"},
		{name: "single glyph", in: "Ůালাম", want: "সালাম"},
		{name: "cid placeholder", in: "ক(cid:215)া", want: "কক্তা"},
		{name: "plain text untouched", in: "Rahim Uddin", want: "Rahim Uddin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repair(tt.in))
		})
	}
}

func TestRepair_Idempotent(t *testing.T) {
	var all strings.Builder
	for _, l := range Ligatures() {
		all.WriteString(l.From)
		all.WriteString(" \n")
	}

	inputs := []string{
		"",
		"a\n\n  b",
		"Ïমাছ×\tÎ",
		"Î",
		"(cid:207)া",
		all.String(),
	}
	for _, in := range inputs {
		once := Repair(in)
		assert.Equal(t, once, Repair(once), "input %q", in)
	}
}

func TestLigatures_TableIsDisjoint(t *testing.T) {
	table := Ligatures()
	require.NotEmpty(t, table)

	seen := make(map[string]bool, len(table))
	for _, l := range table {
		require.NotEmpty(t, l.From)
		require.NotEmpty(t, l.To)
		assert.False(t, seen[l.From], "duplicate entry for %q", l.From)
		seen[l.From] = true
	}

	for _, produced := range table {
		for _, consumed := range table {
			assert.NotContains(t, produced.To, consumed.From,
				"replacement for %q reintroduces %q", produced.From, consumed.From)
		}
	}
}

func TestLigatures_ReturnsCopy(t *testing.T) {
	table := Ligatures()
	table[0].To = "changed"
	assert.NotEqual(t, "changed", Ligatures()[0].To)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "a\nb\nc", Canonical("a\r\nb\rc"))
	assert.Equal(t, "\u09CB", Canonical("\u09C7\u09BE"))
	assert.Equal(t, "নাম: ক\n\nপিতা", Canonical("নাম: ক\n\nপিতা"))
}
