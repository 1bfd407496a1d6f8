package pipeline

import (
	"errors"
	"fmt"

	"github.com/a3tai/voter-roll-reader/internal/pdf"
)

// Failure kinds. They are wrapped inside DocumentError and can be tested
// with errors.Is.
var (
	ErrRead         = errors.New("document unreadable")
	ErrTooLarge     = pdf.ErrTooLarge
	ErrDecode       = errors.New("document decode failed")
	ErrPanic        = errors.New("document processing fault")
	ErrStorageWrite = errors.New("storage write failed")
)

// Stage names the step of document processing where an error occurred.
type Stage string

const (
	StageRead    Stage = "read"
	StageDecode  Stage = "decode"
	StageExtract Stage = "extract"
	StageStore   Stage = "store"
)

// DocumentError ties a failure to the document and stage that produced it.
type DocumentError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// docErr wraps cause so that errors.Is matches both kind and cause.
func docErr(path string, stage Stage, kind, cause error) *DocumentError {
	err := kind
	switch {
	case cause == nil:
	case errors.Is(cause, kind):
		err = cause
	default:
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &DocumentError{Path: path, Stage: stage, Err: err}
}
