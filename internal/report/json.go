package report

import (
	"encoding/json"
	"math"
	"os"

	"github.com/rotisserie/eris"

	"github.com/hewan-health/geoaudit/internal/audit"
)

// FacilityPayload is one facility group in the JSON export: the org
// unit, its own coordinate and distance to the zone center, and every
// record that rolled up to it.
type FacilityPayload struct {
	OrgUnit                    string          `json:"orgUnit"`
	OrgUnitName                string          `json:"orgUnitName"`
	FacilityLatitude           *float64        `json:"facilityLatitude"`
	FacilityLongitude          *float64        `json:"facilityLongitude"`
	FacilityDistanceToCenterKM *float64        `json:"facilityDistanceToCenterKm"`
	RecordCount                int             `json:"recordCount"`
	Records                    []RecordPayload `json:"records"`
}

// RecordPayload is one classified record inside a facility group.
type RecordPayload struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name,omitempty"`
	Latitude               float64           `json:"latitude"`
	Longitude              float64           `json:"longitude"`
	CoordinateSource       string            `json:"coordinateSource"`
	DistanceToFacilityKM   *float64          `json:"distanceToFacilityKm"`
	DistanceToZoneCenterKM float64           `json:"distanceToZoneCenterKm"`
	CombinedDistanceKM     *float64          `json:"combinedDistanceViaFacilityKm"`
	Misplaced              bool              `json:"misplaced"`
	AttributesByID         map[string]string `json:"attributesById,omitempty"`
	AttributesByName       map[string]string `json:"attributesByName,omitempty"`
}

// GroupedPayload converts finalized facility groups to the JSON export
// shape. Coordinates round to 6 decimals, kilometers to 2.
func GroupedPayload(groups []audit.FacilityGroup, headers map[string]string, coordAttrID string) []FacilityPayload {
	out := make([]FacilityPayload, 0, len(groups))
	for _, g := range groups {
		p := FacilityPayload{
			OrgUnit:     g.UnitID,
			OrgUnitName: g.UnitName,
			RecordCount: len(g.Records),
			Records:     make([]RecordPayload, 0, len(g.Records)),
		}
		if g.Point != nil {
			p.FacilityLatitude = roundPtr(g.Point.Lat, 6)
			p.FacilityLongitude = roundPtr(g.Point.Lng, 6)
		}
		if g.DistanceKM != nil {
			p.FacilityDistanceToCenterKM = roundPtr(*g.DistanceKM, 2)
		}
		for _, r := range g.Records {
			p.Records = append(p.Records, recordPayload(r, headers, coordAttrID))
		}
		out = append(out, p)
	}
	return out
}

func recordPayload(r audit.ClassifiedRecord, headers map[string]string, coordAttrID string) RecordPayload {
	p := RecordPayload{
		ID:                     r.ID,
		Name:                   r.Name,
		Latitude:               round(r.Point.Lat, 6),
		Longitude:              round(r.Point.Lng, 6),
		CoordinateSource:       string(r.Source),
		DistanceToZoneCenterKM: round(r.DistanceKM, 2),
		Misplaced:              r.Misplaced,
	}
	if r.ToUnitKM != nil {
		p.DistanceToFacilityKM = roundPtr(*r.ToUnitKM, 2)
	}
	if r.CombinedKM != nil {
		p.CombinedDistanceKM = roundPtr(*r.CombinedKM, 2)
	}
	if len(r.Attributes) > 0 {
		p.AttributesByID = make(map[string]string)
		p.AttributesByName = make(map[string]string)
		for _, a := range r.Attributes {
			if a.ID == coordAttrID {
				continue
			}
			v := formatValue(a.Value)
			p.AttributesByID[a.ID] = v
			name, ok := headers[a.ID]
			if !ok {
				name = a.ID
			}
			p.AttributesByName[name] = v
		}
	}
	return p
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func roundPtr(v float64, places int) *float64 {
	r := round(v, places)
	return &r
}
