package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, kind, zone, program, org_unit`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRunNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run, misplaced := sampleRun("moyale")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "trackedEntity", "moyale", "PK5z4GmhKjI", "xDjzO8C7aMO",
			10, 8, 2, 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for range misplaced {
		mock.ExpectExec(`INSERT INTO misplaced_records`).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	err := s.SaveRun(context.Background(), run, misplaced)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun_InsertFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run, _ := sampleRun("moyale")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.SaveRun(context.Background(), run, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMisplaced(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"run_id", "record_id", "kind", "name", "org_unit", "org_unit_name",
		"latitude", "longitude", "source", "distance_km",
	}).AddRow("run-1", "te-1", "trackedEntity", nil, nil, nil, 6.7, 38.2, "geometry", 30.1)

	mock.ExpectQuery(`SELECT run_id, record_id, kind`).
		WithArgs("run-1").
		WillReturnRows(rows)

	got, err := s.ListMisplaced(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "te-1", got[0].RecordID)
	assert.Empty(t, got[0].OrgUnitName)
	assert.InDelta(t, 30.1, got[0].DistanceKM, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
