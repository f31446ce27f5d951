package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hewan-health/geoaudit/internal/audit"
	"github.com/hewan-health/geoaudit/internal/geo"
	"github.com/hewan-health/geoaudit/internal/store"
)

func fptr(v float64) *float64 { return &v }

func sampleResult() *audit.Result {
	inside := audit.ClassifiedRecord{
		Record: audit.Record{
			ID: "te-1", Kind: audit.KindEntity, Name: "Abebe", OrgUnit: "ou-1",
			Attributes: []audit.Attribute{{ID: "jXFBnlt8KyM", Value: "Abebe"}},
		},
		Point:      geo.Point{Lat: 4.40, Lng: 40.10},
		Source:     audit.SourceGeometry,
		UnitName:   "Abitu Health Post",
		DistanceKM: 5.2,
		ToUnitKM:   fptr(0.4),
	}
	misplaced := audit.ClassifiedRecord{
		Record:     audit.Record{ID: "te-2", Kind: audit.KindEntity, OrgUnit: "ou-1"},
		Point:      geo.Point{Lat: 9.03, Lng: 38.74},
		Source:     audit.SourceAttribute,
		UnitName:   "Abitu Health Post",
		DistanceKM: 540.2,
		Misplaced:  true,
	}
	return &audit.Result{
		Zones:     []geo.Zone{{Name: "moyale", Center: geo.Point{Lat: 4.379710, Lng: 40.083732}, RadiusKM: 158.6}},
		Inside:    []audit.ClassifiedRecord{inside},
		Misplaced: []audit.ClassifiedRecord{misplaced},
		Missing: []audit.MissingRecord{
			{
				Record:   audit.Record{ID: "te-3", OrgUnit: "ou-2", Fields: map[string]string{"event": "te-3"}},
				UnitName: "Bede Clinic",
				Reason:   audit.MissingReason,
			},
		},
		Groups: []audit.FacilityGroup{
			{
				UnitID: "ou-1", UnitName: "Abitu Health Post",
				Point:   &geo.Point{Lat: 4.41, Lng: 40.11},
				Records: []audit.ClassifiedRecord{inside, misplaced},
			},
		},
		Summary: audit.Summary{Total: 3, WithCoordinate: 2, Missing: 1, Misplaced: 1},
	}
}

func TestFlattenGroups(t *testing.T) {
	res := sampleResult()
	flat := flattenGroups(res.Groups)
	require.Len(t, flat, 2)
	assert.Equal(t, "te-1", flat[0].ID)
	assert.Equal(t, "te-2", flat[1].ID)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteEntityOutputs(t *testing.T) {
	dir := t.TempDir()
	headers := map[string]string{"jXFBnlt8KyM": "First_Name"}

	require.NoError(t, writeEntityOutputs(dir, sampleResult(), headers, "rnAb1BzIfVV"))

	for _, name := range []string{
		"entities_distances.csv",
		"entities_misplaced.csv",
		"entities_misplaced.xlsx",
		"entities_misplaced.json",
		"entities_missing.csv",
		"facilities.json",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	rows := readCSV(t, filepath.Join(dir, "entities_distances.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, "trackedEntity", rows[0][0])
	assert.Contains(t, strings.Join(rows[0], ","), "attr_First_Name")

	missing := readCSV(t, filepath.Join(dir, "entities_missing.csv"))
	require.Len(t, missing, 2)
	assert.Contains(t, strings.Join(missing[1], ","), audit.MissingReason)
}

func TestWriteEventOutputs(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeEventOutputs(dir, sampleResult()))

	for _, name := range []string{
		"events_distances.csv",
		"events_misplaced.csv",
		"events_misplaced.xlsx",
		"events_misplaced.json",
		"events_missing.csv",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	rows := readCSV(t, filepath.Join(dir, "events_distances.csv"))
	require.Len(t, rows, 3)
}

func TestFormatRunsList(t *testing.T) {
	var sb strings.Builder
	formatRunsList(&sb, []store.Run{
		{
			ID: "0123456789abcdef", Kind: "trackedEntity", Zone: "moyale",
			Total: 10, Missing: 2, Misplaced: 3,
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	out := sb.String()

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "moyale")
	assert.Contains(t, out, "2026-08-01T12:00:00Z")
}
