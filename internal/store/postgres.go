package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses, kept as an
// interface so tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":       `INSERT INTO runs (id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"get_run":          `SELECT id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at FROM runs WHERE id = $1`,
	"insert_misplaced": `INSERT INTO misplaced_records (run_id, record_id, kind, name, org_unit, org_unit_name, latitude, longitude, source, distance_km) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"list_misplaced":   `SELECT run_id, record_id, kind, name, org_unit, org_unit_name, latitude, longitude, source, distance_km FROM misplaced_records WHERE run_id = $1 ORDER BY record_id`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind            TEXT NOT NULL,
	zone            TEXT NOT NULL,
	program         TEXT,
	org_unit        TEXT,
	total           INTEGER NOT NULL DEFAULT 0,
	with_coordinate INTEGER NOT NULL DEFAULT 0,
	missing         INTEGER NOT NULL DEFAULT 0,
	misplaced       INTEGER NOT NULL DEFAULT 0,
	summary         JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS misplaced_records (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	record_id     TEXT NOT NULL,
	kind          TEXT NOT NULL,
	name          TEXT,
	org_unit      TEXT,
	org_unit_name TEXT,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	source        TEXT NOT NULL,
	distance_km   DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_zone ON runs(zone);
CREATE INDEX IF NOT EXISTS idx_misplaced_run_id ON misplaced_records(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run, misplaced []MisplacedRecord) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.Kind, run.Zone, run.Program, run.OrgUnit,
		run.Total, run.WithCoordinate, run.Missing, run.Misplaced,
		[]byte(run.Summary), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	for _, m := range misplaced {
		_, err = tx.Exec(ctx,
			`INSERT INTO misplaced_records (run_id, record_id, kind, name, org_unit, org_unit_name, latitude, longitude, source, distance_km)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			run.ID, m.RecordID, m.Kind, m.Name, m.OrgUnit, m.OrgUnitName,
			m.Latitude, m.Longitude, m.Source, m.DistanceKM,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert misplaced %s", m.RecordID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	var program, orgUnit *string
	var summary []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Kind, &r.Zone, &program, &orgUnit,
		&r.Total, &r.WithCoordinate, &r.Missing, &r.Misplaced, &summary, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrRunNotFound, "postgres: %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if program != nil {
		r.Program = *program
	}
	if orgUnit != nil {
		r.OrgUnit = *orgUnit
	}
	r.Summary = summary
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at
	          FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, filter.Kind)
		argIdx++
	}
	if filter.Zone != "" {
		query += fmt.Sprintf(` AND zone = $%d`, argIdx)
		args = append(args, filter.Zone)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var program, orgUnit *string
		var summary []byte
		if err := rows.Scan(&r.ID, &r.Kind, &r.Zone, &program, &orgUnit,
			&r.Total, &r.WithCoordinate, &r.Missing, &r.Misplaced, &summary, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if program != nil {
			r.Program = *program
		}
		if orgUnit != nil {
			r.OrgUnit = *orgUnit
		}
		r.Summary = summary
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) ListMisplaced(ctx context.Context, runID string) ([]MisplacedRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, record_id, kind, name, org_unit, org_unit_name, latitude, longitude, source, distance_km
		 FROM misplaced_records WHERE run_id = $1 ORDER BY record_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list misplaced")
	}
	defer rows.Close()

	var out []MisplacedRecord
	for rows.Next() {
		var m MisplacedRecord
		var name, orgUnit, orgUnitName *string
		if err := rows.Scan(&m.RunID, &m.RecordID, &m.Kind, &name, &orgUnit, &orgUnitName,
			&m.Latitude, &m.Longitude, &m.Source, &m.DistanceKM); err != nil {
			return nil, eris.Wrap(err, "postgres: scan misplaced")
		}
		if name != nil {
			m.Name = *name
		}
		if orgUnit != nil {
			m.OrgUnit = *orgUnit
		}
		if orgUnitName != nil {
			m.OrgUnitName = *orgUnitName
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list misplaced iterate")
}
