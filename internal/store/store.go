// Package store persists voter records and serves lookups over them.
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) back the same Store
// interface; Open picks one from the DSN.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a3tai/voter-roll-reader/internal/voter"
)

// ErrUnsupportedDSN is returned by Open for DSNs naming no known backend.
var ErrUnsupportedDSN = errors.New("unsupported dsn")

// Store is the record sink and query surface used by the pipeline, the
// MCP server and the exporter.
type Store interface {
	// Insert appends one record and returns its assigned id.
	Insert(ctx context.Context, rec *voter.Record) (int64, error)
	// Reset drops and recreates the voters table.
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Search(ctx context.Context, q Query) (Page, error)
	// Each streams every stored record in id order.
	Each(ctx context.Context, fn func(voter.Record) error) error
	Filters(ctx context.Context) ([]RegionFilter, error)
	Close() error
}

// Open connects to the backend named by dsn: "postgres://" or
// "postgresql://" URLs select PostgreSQL; "sqlite:<path>", "file:<path>"
// or a bare path select SQLite. The schema is created if missing.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn = strings.TrimSpace(dsn)

	switch {
	case dsn == "":
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedDSN)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, PostgresConfig{DSN: dsn}, logger)
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite:"), logger)
	case strings.Contains(dsn, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDSN, redact(dsn))
	default:
		return OpenSQLite(ctx, dsn, logger)
	}
}

// redact hides the password of a URL-style DSN for logging.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	if user, _, hasPass := strings.Cut(creds, ":"); hasPass {
		return scheme + "://" + user + ":***@" + host
	}
	return dsn
}
