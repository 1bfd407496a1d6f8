package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/a3tai/voter-roll-reader/internal/voter"
)

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	like:        "LIKE",
	createTable: "CREATE TABLE IF NOT EXISTS voters (\n\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n\t" + columnDefs() + "\n)",
}

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema. ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening sqlite database", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL",
		sqliteDialect.createTable,
		"CREATE INDEX IF NOT EXISTS idx_voters_location ON voters (upazila, union_name, ward)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Insert implements Store.
func (s *SQLite) Insert(ctx context.Context, rec *voter.Record) (int64, error) {
	res, err := s.db.ExecContext(ctx, sqliteDialect.insertSQL(), recordArgs(rec)...)
	if err != nil {
		return 0, fmt.Errorf("insert voter: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert voter id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Reset implements Store.
func (s *SQLite) Reset(ctx context.Context) error {
	s.logger.Info("resetting voters table")
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS voters"); err != nil {
		return fmt.Errorf("drop voters: %w", err)
	}
	return s.migrate(ctx)
}

// Ping implements Store.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Search implements Store.
func (s *SQLite) Search(ctx context.Context, q Query) (Page, error) {
	q = q.Normalized()
	countSQL, pageSQL, countArgs, pageArgs := sqliteDialect.searchSQL(q)

	page := Page{Number: q.Page, Limit: q.Limit, Records: []voter.Record{}}
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return Page{}, fmt.Errorf("count voters: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return Page{}, fmt.Errorf("search voters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return Page{}, fmt.Errorf("scan voter: %w", err)
		}
		page.Records = append(page.Records, rec)
	}
	return page, rows.Err()
}

// Each implements Store.
func (s *SQLite) Each(ctx context.Context, fn func(voter.Record) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM voters ORDER BY id ASC")
	if err != nil {
		return fmt.Errorf("list voters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return fmt.Errorf("scan voter: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Filters implements Store.
func (s *SQLite) Filters(ctx context.Context) ([]RegionFilter, error) {
	rows, err := s.db.QueryContext(ctx, filterSQL)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer rows.Close()

	var out []filterRow
	for rows.Next() {
		var r filterRow
		if err := rows.Scan(&r.Region, &r.Subregion, &r.Ward, &r.AreaCode, &r.AreaName); err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buildFilters(out), nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
