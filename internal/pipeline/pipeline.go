// Package pipeline drives a batch run: it discovers documents, decodes each
// one, extracts its voter records and hands them to storage, one document
// at a time in discovery order.
//
// Every document is attempted exactly once. A document that cannot be read
// or decoded, or that faults during extraction, is skipped with a reason
// and the run moves on; only an unusable store stops a run, and that is
// checked before the first document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/voter-roll-reader/internal/normalize"
	"github.com/a3tai/voter-roll-reader/internal/pdf"
	"github.com/a3tai/voter-roll-reader/internal/voter"
)

// State is the orchestrator's position in a run.
type State int

const (
	Idle State = iota
	Discovering
	Decoding
	Cleaning
	Segmenting
	Extracting
	Emitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Discovering:
		return "discovering"
	case Decoding:
		return "decoding"
	case Cleaning:
		return "cleaning"
	case Segmenting:
		return "segmenting"
	case Extracting:
		return "extracting"
	case Emitting:
		return "emitting"
	default:
		return "unknown"
	}
}

// Discoverer lists the documents of a run in processing order.
type Discoverer interface {
	Documents(ctx context.Context) ([]voter.Source, error)
}

// Sink receives extracted records.
type Sink interface {
	Insert(ctx context.Context, rec *voter.Record) (int64, error)
}

// Pinger is implemented by sinks that can report their availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Pipeline processes documents from a Discoverer into a Sink.
type Pipeline struct {
	decoder       pdf.Decoder
	sink          Sink
	validator     *pdf.Validator
	logger        *slog.Logger
	progressEvery int
	onState       func(State, string)
	readFile      func(string) ([]byte, error)
	now           func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMaxFileSize skips documents larger than n bytes. n <= 0 means no limit.
func WithMaxFileSize(n int64) Option {
	return func(p *Pipeline) { p.validator = pdf.NewValidator(n) }
}

// WithProgress logs progress and an ETA every n documents. n <= 0 disables it.
func WithProgress(n int) Option {
	return func(p *Pipeline) { p.progressEvery = n }
}

// WithStateHook calls fn on every state transition with the current
// document path ("" outside a document).
func WithStateHook(fn func(State, string)) Option {
	return func(p *Pipeline) { p.onState = fn }
}

// New creates a pipeline.
func New(decoder pdf.Decoder, sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		decoder:   decoder,
		sink:      sink,
		validator: pdf.NewValidator(0),
		logger:    slog.Default(),
		readFile:  os.ReadFile,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) enter(s State, path string) {
	if p.onState != nil {
		p.onState(s, path)
	}
}

// Run discovers the corpus and processes every document once. The error is
// non-nil only when the sink is unavailable or discovery fails; in both
// cases no document has been processed. Cancelling ctx stops the run
// between documents and the partial summary is returned with Cancelled set.
func (p *Pipeline) Run(ctx context.Context, d Discoverer) (Summary, error) {
	start := p.now()
	summary := Summary{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", summary.RunID)
	defer p.enter(Idle, "")

	if pinger, ok := p.sink.(Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return summary, fmt.Errorf("store unavailable: %w", err)
		}
	}

	p.enter(Discovering, "")
	docs, err := d.Documents(ctx)
	if err != nil {
		return summary, fmt.Errorf("discover documents: %w", err)
	}
	summary.Discovered = len(docs)
	logger.Info("documents discovered", "count", len(docs))

	progress := newProgress(len(docs), p.progressEvery, start)
	for i, src := range docs {
		if ctx.Err() != nil {
			summary.Cancelled = true
			logger.Warn("run cancelled", "attempted", i, "remaining", len(docs)-i)
			break
		}

		outcome := p.process(ctx, src, logger)
		summary = summary.Apply(outcome)
		p.logOutcome(logger, outcome)

		if progress.due(i + 1) {
			progress.log(logger, i+1, summary, p.now())
		}
	}

	summary.Elapsed = p.now().Sub(start)
	logger.Info("run complete", "summary", summary)
	return summary, nil
}

func (p *Pipeline) logOutcome(logger *slog.Logger, o Outcome) {
	if o.Skipped() {
		logger.Warn("document skipped",
			"path", o.Source.Path,
			"reason", o.Skip,
			"error", o.Err,
		)
		return
	}
	logger.Debug("document processed",
		"path", o.Source.Path,
		"region", o.Source.Region,
		"subregion", o.Source.Subregion,
		"extracted", o.Extracted,
		"stored", o.Stored,
		"discarded", o.Discarded,
		"storage_failures", o.StorageFailures,
		"duration_ms", o.Duration.Milliseconds(),
	)
}

// ProcessDocument runs one document through decode, extraction and storage.
// It always returns an outcome; faults inside the document are recovered
// and reported as a skip.
func (p *Pipeline) ProcessDocument(ctx context.Context, src voter.Source) Outcome {
	return p.process(ctx, src, p.logger)
}

func (p *Pipeline) process(ctx context.Context, src voter.Source, logger *slog.Logger) (out Outcome) {
	start := p.now()
	out.Source = src

	defer func() {
		if r := recover(); r != nil {
			out.Skip = SkipFault
			out.Err = docErr(src.Path, StageExtract, ErrPanic, fmt.Errorf("%v", r))
		}
		out.Duration = p.now().Sub(start)
	}()

	p.enter(Decoding, src.Path)
	data, err := p.read(src.Path)
	if err != nil {
		out.Skip = SkipUnreadable
		if errors.Is(err, ErrTooLarge) {
			out.Skip = SkipTooLarge
			out.Err = docErr(src.Path, StageRead, ErrTooLarge, err)
		} else {
			out.Err = docErr(src.Path, StageRead, ErrRead, err)
		}
		return out
	}

	text, err := p.decoder.Decode(ctx, src.Path, data)
	if err != nil {
		out.Skip = SkipDecode
		out.Err = docErr(src.Path, StageDecode, ErrDecode, err)
		return out
	}

	p.enter(Cleaning, src.Path)
	text = normalize.Canonical(text)

	p.enter(Segmenting, src.Path)
	doc := voter.ParseDocument(text, src)

	p.enter(Extracting, src.Path)
	for rec, ok := range doc.Records() {
		if !ok {
			out.Discarded++
			continue
		}
		out.Extracted++

		p.enter(Emitting, src.Path)
		if _, err := p.sink.Insert(ctx, rec); err != nil {
			out.StorageFailures++
			logger.Error("record not stored",
				"error", docErr(src.Path, StageStore, ErrStorageWrite, err),
				"serial_number", rec.SerialNumber,
				"voter_number", rec.VoterNumber,
			)
		} else {
			out.Stored++
		}
		p.enter(Extracting, src.Path)
	}
	return out
}

func (p *Pipeline) read(path string) ([]byte, error) {
	if err := p.validator.ValidatePath(path); err != nil {
		return nil, err
	}
	return p.readFile(path)
}
