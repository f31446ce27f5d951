package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveZonesPresetBySlug(t *testing.T) {
	zs, slug, err := activeZones("", "moyale", "", false)
	require.NoError(t, err)
	require.Len(t, zs, 1)
	assert.Equal(t, "moyale", slug)
	assert.Equal(t, "moyale", zs[0].Name)
	assert.InDelta(t, 158.6, zs[0].RadiusKM, 0.001)

	// Slug lookup ignores the audit kind, so the events survey stays
	// reachable from any command.
	zs, slug, err = activeZones("", "moyale_events", "", false)
	require.NoError(t, err)
	require.Len(t, zs, 1)
	assert.Equal(t, "moyale_events", slug)
	assert.InDelta(t, 152.54, zs[0].RadiusKM, 0.001)
}

func TestActiveZonesUnknownSlug(t *testing.T) {
	_, _, err := activeZones("", "nowhere", "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown zone")
}

func TestActiveZonesByOrgUnit(t *testing.T) {
	zs, slug, err := activeZones("", "", "xDjzO8C7aMO", false)
	require.NoError(t, err)
	require.Len(t, zs, 1)
	assert.Equal(t, "loka_abaya", slug)

	// Unmapped org units get the default preset.
	_, slug, err = activeZones("", "", "unmapped", false)
	require.NoError(t, err)
	assert.Equal(t, "woreda", slug)
}

func TestActiveZonesEventsAudit(t *testing.T) {
	// The Moyale events audit resolves to its own surveyed zone.
	zs, slug, err := activeZones("", "", "rAGMe1IZ7uy", true)
	require.NoError(t, err)
	require.Len(t, zs, 1)
	assert.Equal(t, "moyale_events", slug)
	assert.InDelta(t, 152.54, zs[0].RadiusKM, 0.001)
	assert.InDelta(t, 4.417937, zs[0].Center.Lat, 1e-6)
	assert.InDelta(t, 40.141009, zs[0].Center.Lng, 1e-6)

	// The same org unit audited for tracked entities keeps its own zone.
	zs, slug, err = activeZones("", "", "rAGMe1IZ7uy", false)
	require.NoError(t, err)
	assert.Equal(t, "moyale", slug)
	assert.InDelta(t, 158.6, zs[0].RadiusKM, 0.001)
}

func TestActiveZonesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
zones:
  - name: custom
    latitude: 6.5
    longitude: 38.4
    radius_km: 12
`), 0644))

	zs, slug, err := activeZones(path, "ignored", "ignored", false)
	require.NoError(t, err)
	require.Len(t, zs, 1)
	assert.Equal(t, "custom", slug)
	assert.InDelta(t, 12.0, zs[0].RadiusKM, 0.001)
}

func TestOutputDir(t *testing.T) {
	base := t.TempDir()
	dir, err := outputDir(base, "moyale")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "moyale"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abc"))
	assert.Equal(t, "short", truncateID("short"))
}
