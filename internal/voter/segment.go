package voter

import (
	"iter"
	"strings"

	"github.com/a3tai/voter-roll-reader/internal/normalize"
)

// Block is one slice of a document's text: either the preamble before the
// first entry anchor or a single voter's entry.
type Block struct {
	Index    int
	Serial   string // ASCII serial number from the anchor, "" for the preamble
	Text     string
	Preamble bool
}

// HasNameLabel reports whether the block contains the name label marker.
func (b Block) HasNameLabel() bool {
	return nameMarker.MatchString(b.Text)
}

// Segment splits text into blocks at every serial-number-and-name anchor.
// Non-blank text ahead of the first anchor is yielded first as a preamble
// block. The sequence is lazy and can be ranged over any number of times;
// each pass yields the same blocks in document order.
func Segment(text string) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		loc := findAnchor(text, 0)
		if loc == nil {
			if strings.TrimSpace(text) != "" {
				yield(Block{Index: 0, Text: text, Preamble: true})
			}
			return
		}

		index := 0
		if pre := text[:loc[0]]; strings.TrimSpace(pre) != "" {
			if !yield(Block{Index: index, Text: pre, Preamble: true}) {
				return
			}
			index++
		}

		for loc != nil {
			next := findAnchor(text, loc[1])
			end := len(text)
			if next != nil {
				end = next[0]
			}
			block := Block{
				Index:  index,
				Serial: normalize.Digits(text[loc[2]:loc[3]]),
				Text:   text[loc[0]:end],
			}
			if !yield(block) {
				return
			}
			index++
			loc = next
		}
	}
}

// Segments collects Segment(text) into a slice.
func Segments(text string) []Block {
	var blocks []Block
	for b := range Segment(text) {
		blocks = append(blocks, b)
	}
	return blocks
}

// findAnchor returns the submatch index of the first anchor at or after
// from, with offsets relative to the whole text.
func findAnchor(text string, from int) []int {
	if from >= len(text) {
		return nil
	}
	loc := anchorPattern.FindStringSubmatchIndex(text[from:])
	if loc == nil {
		return nil
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += from
		}
	}
	return loc
}
