package voter

import (
	"iter"
)

// LocateDocumentFields reads the header values from the whole decoded text.
// The ward falls back to a "WARD NO-<digits>" marker in sourcePath when the
// text has no ward label. Absent values are "".
func LocateDocumentFields(text, sourcePath string) DocumentFields {
	var doc DocumentFields
	for _, rule := range compiledHeaderRules {
		value, ok := rule.Find(text)
		if !ok {
			continue
		}
		switch rule.Field {
		case "district_name":
			doc.DistrictName = value
		case "area_code":
			doc.AreaCode = value
		case "area_name":
			doc.AreaName = value
		case "ward":
			doc.Ward = value
		}
	}
	if doc.Ward == "" {
		doc.Ward = WardFromPath(sourcePath)
	}
	return doc
}

// WardFromPath returns the digits following a "WARD NO-" marker in path.
func WardFromPath(path string) string {
	if m := wardInPath.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return ""
}

// ExtractEntry pulls the voter fields out of one entry block. It reports
// false when no name can be recovered, in which case the entry must be
// discarded. Every other field is best-effort and defaults to "".
func ExtractEntry(block Block) (Entry, bool) {
	e := Entry{SerialNumber: block.Serial}
	for _, rule := range compiledEntryRules {
		value, _ := rule.Find(block.Text)
		switch rule.Field {
		case "voter_number":
			e.VoterNumber = value
		case "name":
			e.Name = value
		case "father_name":
			e.FatherName = value
		case "mother_name":
			e.MotherName = value
		case "occupation":
			e.Occupation = value
		case "date_of_birth":
			e.DateOfBirth = value
		case "address":
			e.Address = value
		}
	}
	return e, e.Name != ""
}

// Document is a decoded document ready for record extraction.
type Document struct {
	Source Source
	Fields DocumentFields
	text   string
}

// ParseDocument locates the header fields of text. Entries are extracted
// lazily by Records.
func ParseDocument(text string, src Source) *Document {
	return &Document{
		Source: src,
		Fields: LocateDocumentFields(text, src.Path),
		text:   text,
	}
}

// Records yields one value per entry block in document order. Blocks with
// a recoverable name yield (record, true); blocks whose name is missing
// yield (nil, false) so callers can count discards. The preamble and any
// block without the name label are skipped.
func (d *Document) Records() iter.Seq2[*Record, bool] {
	return func(yield func(*Record, bool) bool) {
		for block := range Segment(d.text) {
			if block.Preamble || !block.HasNameLabel() {
				continue
			}
			entry, ok := ExtractEntry(block)
			if !ok {
				if !yield(nil, false) {
					return
				}
				continue
			}
			if !yield(NewRecord(d.Source, d.Fields, entry), true) {
				return
			}
		}
	}
}
