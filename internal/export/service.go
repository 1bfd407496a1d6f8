// Package export writes stored voter records out as an XLSX workbook or as
// JSON Lines. Every record is checked against the embedded record schema
// first; non-conforming records are counted and left out.
package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/voter-roll-reader/internal/voter"
)

// Format names an output encoding.
type Format string

const (
	FormatXLSX  Format = "xlsx"
	FormatJSONL Format = "jsonl"
)

// ErrUnknownFormat is returned for format names other than xlsx and jsonl.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name or a file name carrying one as its extension.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimPrefix(ext, ".")
	}
	switch name {
	case "xlsx":
		return FormatXLSX, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Source streams records in id order. store.Store satisfies it.
type Source interface {
	Each(ctx context.Context, fn func(voter.Record) error) error
}

// Result counts what an export wrote.
type Result struct {
	Rows    int
	Invalid int
}

// Headers are the XLSX column titles: "ID" then one per voter.Columns entry.
var Headers = []string{
	"ID", "Serial No", "Voter No", "Name", "Father", "Mother", "Occupation",
	"Date of Birth", "Address", "Region", "Subregion", "Ward", "Area Code",
	"Area Name", "District", "Source Path",
}

const sheetName = "Voters"

// Service produces exports from a record source.
type Service struct {
	src    Source
	logger *slog.Logger
}

func NewService(src Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, logger: logger}
}

// Write encodes every record from the source to w in format f.
func (s *Service) Write(ctx context.Context, w io.Writer, f Format) (Result, error) {
	switch f {
	case FormatXLSX:
		return s.WriteXLSX(ctx, w)
	case FormatJSONL:
		return s.WriteJSONL(ctx, w)
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteJSONL writes one JSON object per line.
func (s *Service) WriteJSONL(ctx context.Context, w io.Writer) (Result, error) {
	start := time.Now()
	bw := bufio.NewWriter(w)
	var res Result

	err := s.src.Each(ctx, func(rec voter.Record) error {
		b, ok := s.check(rec, &res)
		if !ok {
			return nil
		}
		if _, err := bw.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("write record %d: %w", rec.ID, err)
		}
		res.Rows++
		return nil
	})
	if err != nil {
		return res, err
	}
	if err := bw.Flush(); err != nil {
		return res, fmt.Errorf("flush: %w", err)
	}

	s.logger.Info("export.jsonl.ok", "rows", res.Rows, "invalid", res.Invalid,
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// WriteXLSX writes a single-sheet workbook with a header row.
func (s *Service) WriteXLSX(ctx context.Context, w io.Writer) (Result, error) {
	start := time.Now()
	var res Result

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close", "error", err)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return res, fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return res, fmt.Errorf("stream writer: %w", err)
	}

	// Widths must be set before the first row.
	widths := []struct {
		min, max int
		width    float64
	}{
		{1, 3, 10},   // id, serial, voter no
		{4, 7, 24},   // names, occupation
		{8, 8, 14},   // dob
		{9, 9, 40},   // address
		{10, 15, 16}, // labels
		{16, 16, 60}, // path
	}
	for _, c := range widths {
		if err := sw.SetColWidth(c.min, c.max, c.width); err != nil {
			return res, fmt.Errorf("column width: %w", err)
		}
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return res, fmt.Errorf("header row: %w", err)
	}

	row := 2
	err = s.src.Each(ctx, func(rec voter.Record) error {
		if _, ok := s.check(rec, &res); !ok {
			return nil
		}
		cells := make([]any, 0, len(Headers))
		cells = append(cells, rec.ID)
		for _, v := range rec.Values() {
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		row++
		res.Rows++
		return nil
	})
	if err != nil {
		return res, err
	}

	if err := sw.Flush(); err != nil {
		return res, fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return res, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok", "rows", res.Rows, "invalid", res.Invalid,
		"elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (s *Service) check(rec voter.Record, res *Result) ([]byte, bool) {
	b, err := ValidateRecord(rec)
	if err != nil {
		res.Invalid++
		s.logger.Warn("export.record.invalid", "id", rec.ID, "path", rec.SourcePath, "error", err)
		return nil, false
	}
	return b, true
}
