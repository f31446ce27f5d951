package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hewan-health/geoaudit/internal/audit"
	"github.com/hewan-health/geoaudit/internal/geo"
)

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestNewSQLiteDriver(t *testing.T) {
	s, err := New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &SQLiteStore{}, s)
}

func TestBuildRun(t *testing.T) {
	res := &audit.Result{
		Misplaced: []audit.ClassifiedRecord{
			{
				Record:     audit.Record{ID: "te-9", Kind: audit.KindEntity, Name: "Abebe", OrgUnit: "ou-1"},
				Point:      geo.Point{Lat: 9.03, Lng: 38.74},
				Source:     audit.SourceAttribute,
				UnitName:   "Abitu Health Post",
				DistanceKM: 540.25,
			},
		},
		Summary: audit.Summary{
			Total:          5,
			WithCoordinate: 4,
			Missing:        1,
			Misplaced:      1,
		},
	}

	run, misplaced, err := BuildRun(res, "trackedEntity", "moyale", "PK5z4GmhKjI", "rAGMe1IZ7uy")
	require.NoError(t, err)

	assert.Equal(t, "trackedEntity", run.Kind)
	assert.Equal(t, "moyale", run.Zone)
	assert.Equal(t, 5, run.Total)
	assert.Equal(t, 4, run.WithCoordinate)
	assert.Equal(t, 1, run.Missing)
	assert.Equal(t, 1, run.Misplaced)
	assert.NotEmpty(t, run.Summary)

	require.Len(t, misplaced, 1)
	m := misplaced[0]
	assert.Equal(t, "te-9", m.RecordID)
	assert.Equal(t, "trackedEntity", m.Kind)
	assert.Equal(t, "Abitu Health Post", m.OrgUnitName)
	assert.Equal(t, "attribute", m.Source)
	assert.InDelta(t, 540.25, m.DistanceKM, 0.001)
}
