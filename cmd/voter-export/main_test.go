package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/voter-roll-reader/internal/export"
	"github.com/a3tai/voter-roll-reader/internal/store"
	"github.com/a3tai/voter-roll-reader/internal/voter"
)

func TestParseOptions(t *testing.T) {
	t.Setenv("VOTER_ROLL_DSN", "")

	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: options{DSN: "sqlite:voters.db", Out: "-", Format: "jsonl"}},
		{name: "format from extension", args: []string{"-o", "out/voters.xlsx"}, want: options{DSN: "sqlite:voters.db", Out: "out/voters.xlsx", Format: "xlsx"}},
		{name: "explicit format wins", args: []string{"--out=v.dat", "--format=xlsx", "--dsn=x.db"}, want: options{DSN: "x.db", Out: "v.dat", Format: "xlsx"}},
		{name: "unknown extension", args: []string{"-o", "voters.csv"}, wantErr: true},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptions(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOptions_DSNFromEnvironment(t *testing.T) {
	t.Setenv("VOTER_ROLL_DSN", "sqlite:/data/v.db")
	got, err := parseOptions(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "sqlite:/data/v.db", got.DSN)
}

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voters.db")
	st, err := store.OpenSQLite(context.Background(), path, nil)
	require.NoError(t, err)
	defer st.Close()
	for _, rec := range []*voter.Record{
		{SerialNumber: "1", VoterNumber: "12345", Name: "করিম", Region: "JHENAIGATI", Ward: "3", SourcePath: "/r/a.pdf"},
		{SerialNumber: "2", VoterNumber: "67890", Name: "সালাম", Region: "JHENAIGATI", Ward: "3", SourcePath: "/r/a.pdf"},
	} {
		_, err := st.Insert(context.Background(), rec)
		require.NoError(t, err)
	}
	return "sqlite:" + path
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRun_JSONLToStdout(t *testing.T) {
	dsn := seedStore(t)

	var out bytes.Buffer
	err := run(context.Background(), options{DSN: dsn, Out: "-", Format: "jsonl"}, &out, quietLogger())
	require.NoError(t, err)

	var names []string
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var rec voter.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"করিম", "সালাম"}, names)
}

func TestRun_XLSXFile(t *testing.T) {
	dsn := seedStore(t)
	out := filepath.Join(t.TempDir(), "voters.xlsx")

	err := run(context.Background(), options{DSN: dsn, Out: out, Format: "xlsx"}, io.Discard, quietLogger())
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Voters")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, export.Headers, rows[0])
	assert.Equal(t, "সালাম", rows[2][3])
}

func TestRun_Errors(t *testing.T) {
	err := run(context.Background(), options{DSN: "mysql://x", Out: "-", Format: "jsonl"}, io.Discard, quietLogger())
	assert.ErrorIs(t, err, store.ErrUnsupportedDSN)

	dsn := seedStore(t)
	err = run(context.Background(), options{DSN: dsn, Out: filepath.Join(t.TempDir(), "missing", "v.jsonl"), Format: "jsonl"}, io.Discard, quietLogger())
	assert.ErrorContains(t, err, "create output")
}
