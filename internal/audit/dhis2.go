package audit

import (
	"context"
	"fmt"

	"github.com/hewan-health/geoaudit/internal/geo"
	"github.com/hewan-health/geoaudit/pkg/dhis2"
)

// EventRecord converts a wire event into a locatable record. Descriptive
// fields and data values are flattened for the output layer.
func EventRecord(e dhis2.Event) Record {
	fields := map[string]string{
		"event":         e.Event,
		"trackedEntity": e.TrackedEntity,
		"orgUnit":       e.OrgUnit,
		"orgUnitName":   e.OrgUnitName,
		"programStage":  e.ProgramStage,
		"status":        e.Status,
		"eventDate":     e.EventDate,
		"occurredAt":    e.OccurredAt,
		"storedBy":      e.StoredBy,
		"created":       e.Created,
		"lastUpdated":   e.LastUpdated,
	}
	for _, dv := range e.DataValues {
		key := "dv"
		if dv.DataElement != "" {
			key = "dv_" + dv.DataElement
		}
		fields[key] = stringValue(dv.Value)
	}
	return Record{
		ID:         e.Event,
		Kind:       KindEvent,
		OrgUnit:    e.OrgUnit,
		Geometry:   e.Geometry,
		Coordinate: e.Coordinate,
		Fields:     fields,
	}
}

// EntityRecord converts a wire tracked entity into a locatable record.
// The display name is the first non-empty value among the given name
// attribute ids.
func EntityRecord(te dhis2.TrackedEntity, nameAttrIDs []string) Record {
	r := Record{
		ID:       te.TrackedEntity,
		Kind:     KindEntity,
		OrgUnit:  te.OrgUnit,
		Geometry: te.Geometry,
		Fields: map[string]string{
			"trackedEntity": te.TrackedEntity,
			"orgUnit":       te.OrgUnit,
			"createdAt":     te.CreatedAt,
			"updatedAt":     te.UpdatedAt,
		},
	}
	for _, a := range te.Attributes {
		if a.Attribute == "" {
			continue
		}
		r.Attributes = append(r.Attributes, Attribute{ID: a.Attribute, Value: a.Value})
	}
	for _, id := range nameAttrIDs {
		if v, ok := r.AttributeValue(id); ok {
			if s := stringValue(v); s != "" {
				r.Name = s
				break
			}
		}
	}
	r.Fields["name"] = r.Name
	return r
}

// UnitFromDHIS2 resolves an organisation unit's own location: the
// GeoJSON geometry is preferred, falling back to the legacy coordinates
// string. Units with neither keep a nil Point.
func UnitFromDHIS2(u dhis2.OrgUnit) Unit {
	unit := Unit{ID: u.ID, Name: u.Name}
	if p, err := geo.ParseGeometry(u.Geometry); err == nil {
		unit.Point = &p
		return unit
	}
	if u.Coordinates != nil {
		if p, err := geo.ParseCoordinate(u.Coordinates); err == nil {
			unit.Point = &p
		}
	}
	return unit
}

// BuildUnitIndex builds the read-only unit lookup for a run.
func BuildUnitIndex(units []dhis2.OrgUnit) UnitIndex {
	idx := make(UnitIndex, len(units))
	for _, u := range units {
		if u.ID == "" {
			continue
		}
		idx[u.ID] = UnitFromDHIS2(u)
	}
	return idx
}

// EventSource adapts an event pager to the auditor's record stream.
type EventSource struct {
	Pager *dhis2.EventPager
}

// Next returns the next page of event records.
func (s EventSource) Next(ctx context.Context) ([]Record, error) {
	events, err := s.Pager.Next(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(events))
	for _, e := range events {
		records = append(records, EventRecord(e))
	}
	return records, nil
}

// EntitySource adapts a tracked-entity pager to the auditor's record
// stream.
type EntitySource struct {
	Pager       *dhis2.EntityPager
	NameAttrIDs []string
}

// Next returns the next page of tracked-entity records.
func (s EntitySource) Next(ctx context.Context) ([]Record, error) {
	entities, err := s.Pager.Next(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(entities))
	for _, te := range entities {
		records = append(records, EntityRecord(te, s.NameAttrIDs))
	}
	return records, nil
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
