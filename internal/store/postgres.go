package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/a3tai/voter-roll-reader/internal/voter"
)

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	like:        "ILIKE",
	createTable: "CREATE TABLE IF NOT EXISTS voters (\n\tid BIGSERIAL PRIMARY KEY,\n\t" + columnDefs() + "\n)",
}

// PostgresConfig tunes the connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

func (c PostgresConfig) withDefaults() PostgresConfig {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 5 * time.Minute
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	return c
}

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Store = (*Postgres)(nil)

// OpenPostgres creates the pool and ensures the schema.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	logger.Info("connecting to database", "dsn", redact(cfg.DSN))

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "voter-roll-reader"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	p := &Postgres{pool: pool, logger: logger}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("successfully connected to database")
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmts := []string{
		postgresDialect.createTable,
		"CREATE INDEX IF NOT EXISTS idx_voters_location ON voters (upazila, union_name, ward)",
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}

// Insert implements Store.
func (p *Postgres) Insert(ctx context.Context, rec *voter.Record) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, postgresDialect.insertSQL()+" RETURNING id", recordArgs(rec)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert voter: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Reset implements Store.
func (p *Postgres) Reset(ctx context.Context) error {
	p.logger.Info("resetting voters table")
	if _, err := p.pool.Exec(ctx, "DROP TABLE IF EXISTS voters"); err != nil {
		return fmt.Errorf("drop voters: %w", err)
	}
	return p.migrate(ctx)
}

// Ping implements Store.
func (p *Postgres) Ping(ctx context.Context) error {
	p.logger.Debug("pinging database")
	return p.pool.Ping(ctx)
}

// Search implements Store.
func (p *Postgres) Search(ctx context.Context, q Query) (Page, error) {
	q = q.Normalized()
	countSQL, pageSQL, countArgs, pageArgs := postgresDialect.searchSQL(q)

	page := Page{Number: q.Page, Limit: q.Limit, Records: []voter.Record{}}
	if err := p.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return Page{}, fmt.Errorf("count voters: %w", err)
	}

	rows, err := p.pool.Query(ctx, pageSQL, pageArgs...)
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
func (p *Postgres) Each(ctx context.Context, fn func(voter.Record) error) error {
	rows, err := p.pool.Query(ctx, "SELECT "+selectColumns+" FROM voters ORDER BY id ASC")
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
func (p *Postgres) Filters(ctx context.Context) ([]RegionFilter, error) {
	rows, err := p.pool.Query(ctx, filterSQL)
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
func (p *Postgres) Close() error {
	p.logger.Info("closing database connections")
	p.pool.Close()
	return nil
}
