package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/voter-roll-reader/internal/voter"
)

func writeFile(t *testing.T, root string, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestCorpus_Documents(t *testing.T) {
	root := t.TempDir()

	direct := writeFile(t, root, "JHENAIGATI", "direct.pdf")
	nested := writeFile(t, root, "JHENAIGATI", "KANSHA", "WARD NO-3", "roll.pdf")
	sub := writeFile(t, root, "JHENAIGATI", "KANSHA", "a.PDF")
	writeFile(t, root, "JHENAIGATI", "KANSHA", "notes.txt")
	writeFile(t, root, "JHENAIGATI", ".cache", "hidden.pdf")
	writeFile(t, root, "JHENAIGATI", "KANSHA", ".hidden.pdf")
	other := writeFile(t, root, "SREEBARDI", "GOSAIPUR", "b.pdf")
	writeFile(t, root, "UNLISTED", "X", "c.pdf")

	docs, err := Corpus{Root: root}.Documents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []voter.Source{
		{Path: nested, Region: "JHENAIGATI", Subregion: "KANSHA"},
		{Path: sub, Region: "JHENAIGATI", Subregion: "KANSHA"},
		{Path: direct, Region: "JHENAIGATI", Subregion: ""},
		{Path: other, Region: "SREEBARDI", Subregion: "GOSAIPUR"},
	}, docs)
}

func TestCorpus_Documents_MissingRegionSkipped(t *testing.T) {
	root := t.TempDir()
	only := writeFile(t, root, "SREEBARDI", "S1", "x.pdf")

	docs, err := Corpus{Root: root, Regions: []string{"NOPE", "SREEBARDI"}}.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, only, docs[0].Path)
}

func TestCorpus_Documents_BadRoot(t *testing.T) {
	_, err := Corpus{}.Documents(context.Background())
	assert.Error(t, err)

	_, err = Corpus{Root: filepath.Join(t.TempDir(), "missing")}.Documents(context.Background())
	assert.Error(t, err)

	file := writeFile(t, t.TempDir(), "file.pdf")
	_, err = Corpus{Root: file}.Documents(context.Background())
	assert.Error(t, err)
}

func TestCorpus_Documents_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "JHENAIGATI", "K", "x.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Corpus{Root: root}.Documents(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".git"))
	assert.False(t, IsHidden("JHENAIGATI"))
}

func TestCorpus_Source(t *testing.T) {
	root := "/data/rolls"
	c := Corpus{Root: root}

	tests := []struct {
		path string
		want voter.Source
	}{
		{
			path: "/data/rolls/JHENAIGATI/KANSHA/WARD NO-3/roll.pdf",
			want: voter.Source{Region: "JHENAIGATI", Subregion: "KANSHA"},
		},
		{
			path: "/data/rolls/SREEBARDI/direct.pdf",
			want: voter.Source{Region: "SREEBARDI"},
		},
		{path: "/data/rolls/UNLISTED/X/c.pdf"},
		{path: "/data/rolls/top.pdf"},
		{path: "/elsewhere/JHENAIGATI/K/x.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tt.want.Path = tt.path
			assert.Equal(t, tt.want, c.Source(tt.path))
		})
	}
}
