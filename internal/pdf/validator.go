package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// File-level rejection reasons.
var (
	ErrNotPDF    = errors.New("file is not a PDF")
	ErrEmptyFile = errors.New("file is empty")
	ErrTooLarge  = errors.New("file too large")
	ErrDirectory = errors.New("path is a directory, not a file")
)

// Validator checks files before they are read.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator; maxFileSize <= 0 disables the size limit.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// IsPDFName reports whether name carries a .pdf extension, in any case.
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// ValidatePath stats filePath and applies ValidateFileInfo.
func (v *Validator) ValidatePath(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}
	info, err := os.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file does not exist: %s: %w", filePath, err)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	return v.ValidateFileInfo(filePath, info)
}

// ValidateFileInfo performs the checks that need no file contents.
func (v *Validator) ValidateFileInfo(filePath string, info fs.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectory, filePath)
	}
	if !IsPDFName(filePath) {
		return fmt.Errorf("%w: %s", ErrNotPDF, filePath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, filePath)
	}
	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrTooLarge, info.Size(), v.maxFileSize)
	}
	return nil
}
