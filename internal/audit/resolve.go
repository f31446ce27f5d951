package audit

import "github.com/hewan-health/geoaudit/internal/geo"

// SourceFunc attempts to extract a coordinate from one source on the
// record. ok is false when the source has nothing parseable; the chain
// then moves on to the next source.
type SourceFunc func(r Record, units UnitIndex) (geo.Point, Source, bool)

// Resolution is the outcome of the fallback chain for one record.
// Source is SourceNone when nothing resolved.
type Resolution struct {
	Point  geo.Point
	Source Source
}

// Resolver applies an ordered chain of coordinate sources and
// short-circuits on the first success.
type Resolver struct {
	chain []SourceFunc
}

// NewResolver returns a resolver with the default priority: the record's
// own geometry, then its structured coordinate field, then the
// configured coordinate attributes, and finally the organisation unit's
// own location.
func NewResolver(attrIDs ...string) *Resolver {
	return NewResolverChain(
		FromGeometry,
		FromCoordinateField,
		FromAttributes(attrIDs...),
		FromUnit,
	)
}

// NewResolverChain builds a resolver from an explicit source order.
func NewResolverChain(chain ...SourceFunc) *Resolver {
	return &Resolver{chain: chain}
}

// Resolve runs the chain and returns the first source that parses.
func (rv *Resolver) Resolve(r Record, units UnitIndex) Resolution {
	for _, src := range rv.chain {
		if p, tag, ok := src(r, units); ok {
			return Resolution{Point: p, Source: tag}
		}
	}
	return Resolution{Source: SourceNone}
}

// FromGeometry reads the record's own GeoJSON geometry.
func FromGeometry(r Record, _ UnitIndex) (geo.Point, Source, bool) {
	if len(r.Geometry) == 0 {
		return geo.Point{}, SourceGeometry, false
	}
	p, err := geo.ParseGeometry(r.Geometry)
	if err != nil {
		return geo.Point{}, SourceGeometry, false
	}
	return p, SourceGeometry, true
}

// FromCoordinateField reads the record's structured coordinate field.
func FromCoordinateField(r Record, _ UnitIndex) (geo.Point, Source, bool) {
	if r.Coordinate == nil {
		return geo.Point{}, SourceCoordinate, false
	}
	p, err := geo.ParseCoordinate(r.Coordinate)
	if err != nil {
		return geo.Point{}, SourceCoordinate, false
	}
	return p, SourceCoordinate, true
}

// FromAttributes reads the first parseable value among the given
// coordinate-bearing attribute ids, in order.
func FromAttributes(attrIDs ...string) SourceFunc {
	return func(r Record, _ UnitIndex) (geo.Point, Source, bool) {
		for _, id := range attrIDs {
			value, ok := r.AttributeValue(id)
			if !ok {
				continue
			}
			if p, err := geo.ParseCoordinate(value); err == nil {
				return p, SourceAttribute, true
			}
		}
		return geo.Point{}, SourceAttribute, false
	}
}

// FromUnit falls back to the organisation unit's own location.
func FromUnit(r Record, units UnitIndex) (geo.Point, Source, bool) {
	u, ok := units[r.OrgUnit]
	if !ok || u.Point == nil {
		return geo.Point{}, SourceOrgUnit, false
	}
	return *u.Point, SourceOrgUnit, true
}
