package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL,
	zone            TEXT NOT NULL,
	program         TEXT,
	org_unit        TEXT,
	total           INTEGER NOT NULL DEFAULT 0,
	with_coordinate INTEGER NOT NULL DEFAULT 0,
	missing         INTEGER NOT NULL DEFAULT 0,
	misplaced       INTEGER NOT NULL DEFAULT 0,
	summary         TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS misplaced_records (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	record_id     TEXT NOT NULL,
	kind          TEXT NOT NULL,
	name          TEXT,
	org_unit      TEXT,
	org_unit_name TEXT,
	latitude      REAL NOT NULL,
	longitude     REAL NOT NULL,
	source        TEXT NOT NULL,
	distance_km   REAL NOT NULL,
	PRIMARY KEY (run_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_zone ON runs(zone);
CREATE INDEX IF NOT EXISTS idx_misplaced_run_id ON misplaced_records(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, misplaced []MisplacedRecord) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Zone, run.Program, run.OrgUnit,
		run.Total, run.WithCoordinate, run.Missing, run.Misplaced,
		string(run.Summary), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	for _, m := range misplaced {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO misplaced_records (run_id, record_id, kind, name, org_unit, org_unit_name, latitude, longitude, source, distance_km)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, m.RecordID, m.Kind, m.Name, m.OrgUnit, m.OrgUnitName,
			m.Latitude, m.Longitude, m.Source, m.DistanceKM,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert misplaced %s", m.RecordID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at
		 FROM runs WHERE id = ?`,
		runID,
	)

	var r Run
	var program, orgUnit, summary sql.NullString
	err := row.Scan(&r.ID, &r.Kind, &r.Zone, &program, &orgUnit,
		&r.Total, &r.WithCoordinate, &r.Missing, &r.Misplaced, &summary, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrRunNotFound, "sqlite: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	r.Program = program.String
	r.OrgUnit = orgUnit.String
	if summary.Valid && summary.String != "" {
		r.Summary = []byte(summary.String)
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, kind, zone, program, org_unit, total, with_coordinate, missing, misplaced, summary, created_at
	          FROM runs WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.Zone != "" {
		query += ` AND zone = ?`
		args = append(args, filter.Zone)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var program, orgUnit, summary sql.NullString
		if err := rows.Scan(&r.ID, &r.Kind, &r.Zone, &program, &orgUnit,
			&r.Total, &r.WithCoordinate, &r.Missing, &r.Misplaced, &summary, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Program = program.String
		r.OrgUnit = orgUnit.String
		if summary.Valid && summary.String != "" {
			r.Summary = []byte(summary.String)
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListMisplaced(ctx context.Context, runID string) ([]MisplacedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, record_id, kind, name, org_unit, org_unit_name, latitude, longitude, source, distance_km
		 FROM misplaced_records WHERE run_id = ? ORDER BY record_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list misplaced")
	}
	defer rows.Close()

	var out []MisplacedRecord
	for rows.Next() {
		var m MisplacedRecord
		var name, orgUnit, orgUnitName sql.NullString
		if err := rows.Scan(&m.RunID, &m.RecordID, &m.Kind, &name, &orgUnit, &orgUnitName,
			&m.Latitude, &m.Longitude, &m.Source, &m.DistanceKM); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan misplaced")
		}
		m.Name = name.String
		m.OrgUnit = orgUnit.String
		m.OrgUnitName = orgUnitName.String
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list misplaced iterate")
}
