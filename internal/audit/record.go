// Package audit implements coordinate resolution and zone classification
// for tracker records: each record's best-known location is resolved
// through a fallback chain of sources, measured against the active
// zones, and aggregated into facility-grouped results.
package audit

import (
	"encoding/json"

	"github.com/hewan-health/geoaudit/internal/geo"
)

// Source identifies which fallback source supplied a record's resolved
// coordinate.
type Source string

const (
	SourceGeometry   Source = "geometry"
	SourceCoordinate Source = "coordinate"
	SourceAttribute  Source = "attribute"
	SourceOrgUnit    Source = "orgUnit"
	SourceNone       Source = "none"
)

// Self reports whether the coordinate came from the record itself rather
// than from its organisation unit.
func (s Source) Self() bool {
	return s == SourceGeometry || s == SourceCoordinate || s == SourceAttribute
}

// RecordKind distinguishes program events from tracked entities.
type RecordKind string

const (
	KindEvent  RecordKind = "event"
	KindEntity RecordKind = "trackedEntity"
)

// Attribute is a raw attribute value carried on a record.
type Attribute struct {
	ID    string
	Value any
}

// Record is a locatable tracker record: one event or tracked entity with
// its candidate coordinate payloads. A record is built fresh per fetched
// page and consumed exactly once during classification.
type Record struct {
	ID         string
	Kind       RecordKind
	Name       string
	OrgUnit    string
	Geometry   json.RawMessage // raw GeoJSON, possibly absent
	Coordinate any             // legacy coordinate field: mapping or string
	Attributes []Attribute
	Fields     map[string]string // descriptive fields carried through to output
}

// AttributeValue returns the record's value for the given attribute id.
func (r Record) AttributeValue(id string) (any, bool) {
	for _, a := range r.Attributes {
		if a.ID == id {
			return a.Value, true
		}
	}
	return nil, false
}

// Unit is an administrative unit with an optional resolved location,
// used as the last fallback coordinate source for its records.
type Unit struct {
	ID    string
	Name  string
	Point *geo.Point
}

// UnitIndex is a read-only lookup of units by id, built once per run
// before classification starts.
type UnitIndex map[string]Unit

// Name returns the unit's display name, or "" for unknown units.
func (x UnitIndex) Name(id string) string {
	return x[id].Name
}
