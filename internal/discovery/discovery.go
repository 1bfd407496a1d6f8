// Package discovery finds the documents of a voter-roll corpus and labels
// each with the folders it was found under.
//
// The corpus layout is root/<region>/<subregion>/.../<file>.pdf. Only the
// configured region folders are visited. The first folder below a region
// names the subregion; deeper folders inherit it. Files placed directly in
// a region folder have an empty subregion.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/voter-roll-reader/internal/pdf"
	"github.com/a3tai/voter-roll-reader/internal/voter"
)

// DefaultRegions are the region folders visited when none are configured.
var DefaultRegions = []string{"JHENAIGATI", "SREEBARDI"}

// Corpus describes where documents live.
type Corpus struct {
	Root    string
	Regions []string
	Logger  *slog.Logger
}

// IsHidden reports whether a path element is hidden.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Documents lists every document in the corpus in lexical order, region by
// region in configured order. Missing region folders and unreadable
// subdirectories are logged and skipped.
func (c Corpus) Documents(ctx context.Context) ([]voter.Source, error) {
	if strings.TrimSpace(c.Root) == "" {
		return nil, errors.New("corpus root is required")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root is not a directory: %s", c.Root)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var docs []voter.Source
	for _, region := range c.regions() {
		dir := filepath.Join(c.Root, region)
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			logger.Warn("region folder missing, skipping", "region", region, "path", dir)
			continue
		}

		found, err := walkRegion(ctx, dir, region, logger)
		if err != nil {
			return docs, err
		}
		logger.Debug("region scanned", "region", region, "documents", len(found))
		docs = append(docs, found...)
	}
	return docs, nil
}

// Source labels a single file under the root the way Documents would.
// Files outside every configured region folder keep empty labels.
func (c Corpus) Source(path string) voter.Source {
	src := voter.Source{Path: path}
	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		return src
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return src
	}
	for _, region := range c.regions() {
		if parts[0] == region {
			src.Region = region
			src.Subregion = subregionOf(filepath.Join(c.Root, region), path)
			break
		}
	}
	return src
}

func (c Corpus) regions() []string {
	if len(c.Regions) == 0 {
		return DefaultRegions
	}
	return c.Regions
}

func walkRegion(ctx context.Context, dir, region string, logger *slog.Logger) ([]voter.Source, error) {
	var docs []voter.Source

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logger.Warn("cannot read directory entry", "path", path, "error", walkErr)
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if path == dir {
			return nil
		}
		if IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !pdf.IsPDFName(d.Name()) {
			return nil
		}

		docs = append(docs, voter.Source{
			Path:      path,
			Region:    region,
			Subregion: subregionOf(dir, path),
		})
		return nil
	})
	return docs, err
}

// subregionOf returns the first folder between the region folder and the file.
func subregionOf(regionDir, path string) string {
	rel, err := filepath.Rel(regionDir, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}
