package zones

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForOrgUnit(t *testing.T) {
	p := ForOrgUnit("rAGMe1IZ7uy")
	assert.Equal(t, "moyale", p.Slug)
	assert.InDelta(t, 158.6, p.Zone.RadiusKM, 1e-9)

	fallback := ForOrgUnit("nonexistent")
	assert.Equal(t, DefaultPreset.Slug, fallback.Slug)
}

func TestForEvents(t *testing.T) {
	// Moyale's events audit has its own surveyed center and radius.
	p := ForEvents("rAGMe1IZ7uy")
	assert.Equal(t, "moyale_events", p.Slug)
	assert.InDelta(t, 152.54, p.Zone.RadiusKM, 1e-9)
	assert.InDelta(t, 4.417937, p.Zone.Center.Lat, 1e-9)
	assert.InDelta(t, 40.141009, p.Zone.Center.Lng, 1e-9)

	// Single-survey org units share one zone across both audits.
	assert.Equal(t, ForOrgUnit("xDjzO8C7aMO"), ForEvents("xDjzO8C7aMO"))
	assert.Equal(t, DefaultPreset.Slug, ForEvents("nonexistent").Slug)
}

func TestBySlug(t *testing.T) {
	p, ok := BySlug("moyale_events")
	require.True(t, ok)
	assert.InDelta(t, 152.54, p.Zone.RadiusKM, 1e-9)

	p, ok = BySlug(DefaultPreset.Slug)
	require.True(t, ok)
	assert.Equal(t, DefaultPreset.Zone, p.Zone)

	_, ok = BySlug("nowhere")
	assert.False(t, ok)
}

func TestAllPresetsAreValid(t *testing.T) {
	slugs := make([]string, 0, len(All()))
	for _, p := range All() {
		assert.NoError(t, p.Zone.Validate(), p.Slug)
		assert.NotEmpty(t, p.OrgUnit, p.Slug)
		slugs = append(slugs, p.Slug)
	}
	assert.IsIncreasing(t, slugs)
}

func writeZoneFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeZoneFile(t, `
zones:
  - name: moyale
    latitude: 4.417937
    longitude: 40.141009
    radius_km: 152.54
  - name: loka_abaya
    latitude: 6.663891
    longitude: 38.155214
    radius_km: 24.49
`)
	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "moyale", got[0].Name)
	assert.InDelta(t, 4.417937, got[0].Center.Lat, 1e-9)
	assert.InDelta(t, 152.54, got[0].RadiusKM, 1e-9)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeZoneFile(t, "zones: []\n"))
	assert.Error(t, err)

	// An out-of-range center is a configuration error, not a data gap.
	_, err = LoadFile(writeZoneFile(t, `
zones:
  - name: bad
    latitude: 95.0
    longitude: 40.0
    radius_km: 10
`))
	assert.Error(t, err)

	_, err = LoadFile(writeZoneFile(t, `
zones:
  - name: bad
    latitude: 4.0
    longitude: 40.0
    radius_km: 0
`))
	assert.Error(t, err)
}
