// Package zones holds the built-in audit zone presets and the YAML
// zones-file loader. Presets are keyed by the woreda organisation unit
// under audit; the slug names the per-zone output directory.
package zones

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/hewan-health/geoaudit/internal/geo"
)

// Preset is a built-in zone with its output slug. OrgUnit names the
// woreda organisation unit the zone was surveyed for; Events marks the
// preset that applies when auditing events rather than tracked entities.
type Preset struct {
	OrgUnit string
	Slug    string
	Events  bool
	Zone    geo.Zone
}

// Surveyed woreda centers and allowed radii. Moyale was surveyed
// separately for the events audit, with its own center and radius.
var presets = []Preset{
	{
		OrgUnit: "xDjzO8C7aMO",
		Slug:    "loka_abaya",
		Zone:    geo.Zone{Name: "loka_abaya", Center: geo.Point{Lat: 6.663891, Lng: 38.155214}, RadiusKM: 24.49},
	},
	{
		OrgUnit: "rAGMe1IZ7uy",
		Slug:    "moyale",
		Zone:    geo.Zone{Name: "moyale", Center: geo.Point{Lat: 4.379710, Lng: 40.083732}, RadiusKM: 158.6},
	},
	{
		OrgUnit: "rAGMe1IZ7uy",
		Slug:    "moyale_events",
		Events:  true,
		Zone:    geo.Zone{Name: "moyale_events", Center: geo.Point{Lat: 4.417937, Lng: 40.141009}, RadiusKM: 152.54},
	},
	{
		OrgUnit: "YqNyKBY20vV",
		Slug:    "dara_otilcho",
		Zone:    geo.Zone{Name: "dara_otilcho", Center: geo.Point{Lat: 6.490719, Lng: 38.434032}, RadiusKM: 10.31},
	},
}

// DefaultPreset applies when the audited org unit has no mapping of its
// own.
var DefaultPreset = Preset{
	Slug: "woreda",
	Zone: geo.Zone{Name: "woreda", Center: geo.Point{Lat: 6.663891, Lng: 38.155214}, RadiusKM: 24.49},
}

// ForOrgUnit returns the tracked-entity preset for the audited org
// unit, falling back to the default.
func ForOrgUnit(orgUnitID string) Preset {
	for _, p := range presets {
		if p.OrgUnit == orgUnitID && !p.Events {
			return p
		}
	}
	return DefaultPreset
}

// ForEvents returns the events preset for the audited org unit. Org
// units surveyed only once share one zone across both audits.
func ForEvents(orgUnitID string) Preset {
	for _, p := range presets {
		if p.OrgUnit == orgUnitID && p.Events {
			return p
		}
	}
	return ForOrgUnit(orgUnitID)
}

// BySlug looks up a preset by slug, including the default.
func BySlug(slug string) (Preset, bool) {
	for _, p := range presets {
		if p.Slug == slug {
			return p, true
		}
	}
	if DefaultPreset.Slug == slug {
		return DefaultPreset, true
	}
	return Preset{}, false
}

// All returns every built-in preset, ordered by slug.
func All() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

type zoneFile struct {
	Zones []struct {
		Name      string  `yaml:"name"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		RadiusKM  float64 `yaml:"radius_km"`
	} `yaml:"zones"`
}

// LoadFile reads active zones from a YAML file. Invalid zone definitions
// are configuration errors and fail the load.
func LoadFile(path string) ([]geo.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "zones: read %s", path)
	}

	var f zoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "zones: parse %s", path)
	}
	if len(f.Zones) == 0 {
		return nil, eris.Errorf("zones: %s defines no zones", path)
	}

	out := make([]geo.Zone, 0, len(f.Zones))
	for _, z := range f.Zones {
		zone := geo.Zone{
			Name:     z.Name,
			Center:   geo.Point{Lat: z.Latitude, Lng: z.Longitude},
			RadiusKM: z.RadiusKM,
		}
		if err := zone.Validate(); err != nil {
			return nil, eris.Wrapf(err, "zones: %s", path)
		}
		out = append(out, zone)
	}
	return out, nil
}
