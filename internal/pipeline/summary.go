package pipeline

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/a3tai/voter-roll-reader/internal/voter"
)

// SkipReason says why a document produced no records.
type SkipReason string

const (
	SkipUnreadable SkipReason = "unreadable"
	SkipTooLarge   SkipReason = "too_large"
	SkipDecode     SkipReason = "decode_failed"
	SkipFault      SkipReason = "processing_fault"
)

// Outcome is what processing one document reported. Exactly one of the
// two shapes holds: a skipped document has Skip set and no record counts
// beyond those emitted before a fault; a processed document has Skip == "".
type Outcome struct {
	Source voter.Source
	Skip   SkipReason
	Err    error

	// Extracted counts records handed to storage, Stored those accepted.
	Extracted       int
	Stored          int
	Discarded       int
	StorageFailures int
	Duration        time.Duration
}

// Skipped reports whether the document was skipped.
func (o Outcome) Skipped() bool {
	return o.Skip != ""
}

// Summary accumulates outcomes over a run.
type Summary struct {
	RunID           string
	Discovered      int
	Processed       int
	Skipped         map[SkipReason][]string
	Extracted       int
	Stored          int
	Discarded       int
	StorageFailures int
	Elapsed         time.Duration
	Cancelled       bool
}

// Apply folds one outcome into the summary. The receiver is not modified.
func (s Summary) Apply(o Outcome) Summary {
	s.Extracted += o.Extracted
	s.Stored += o.Stored
	s.Discarded += o.Discarded
	s.StorageFailures += o.StorageFailures

	if !o.Skipped() {
		s.Processed++
		return s
	}

	skipped := maps.Clone(s.Skipped)
	if skipped == nil {
		skipped = make(map[SkipReason][]string)
	}
	skipped[o.Skip] = append(slices.Clone(skipped[o.Skip]), o.Source.Path)
	s.Skipped = skipped
	return s
}

// Attempted is the number of documents that reached an outcome.
func (s Summary) Attempted() int {
	return s.Processed + s.SkippedCount()
}

// SkippedCount is the number of skipped documents across all reasons.
func (s Summary) SkippedCount() int {
	n := 0
	for _, paths := range s.Skipped {
		n += len(paths)
	}
	return n
}

// Failed reports whether the run must exit non-zero.
func (s Summary) Failed() bool {
	return s.StorageFailures > 0
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	reasons := slices.Sorted(maps.Keys(s.Skipped))
	skipped := make([]slog.Attr, 0, len(reasons))
	for _, r := range reasons {
		skipped = append(skipped, slog.Int(string(r), len(s.Skipped[r])))
	}

	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("discovered", s.Discovered),
		slog.Int("processed", s.Processed),
		slog.Int("skipped", s.SkippedCount()),
		slog.Attr{Key: "skipped_by_reason", Value: slog.GroupValue(skipped...)},
		slog.Int("extracted", s.Extracted),
		slog.Int("stored", s.Stored),
		slog.Int("discarded_missing_name", s.Discarded),
		slog.Int("storage_failures", s.StorageFailures),
		slog.Duration("elapsed", s.Elapsed),
		slog.Bool("cancelled", s.Cancelled),
	)
}
