package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hewan-health/geoaudit/pkg/dhis2"
)

func TestEventRecord_FlattensFields(t *testing.T) {
	r := EventRecord(dhis2.Event{
		Event:       "ev1",
		OrgUnit:     "ou1",
		OrgUnitName: "Moyale Health Center",
		Status:      "COMPLETED",
		EventDate:   "2024-06-01",
		Geometry:    json.RawMessage(`{"type":"Point","coordinates":[40.1,4.4]}`),
		Coordinate:  "40.1,4.4",
		DataValues: []dhis2.DataValue{
			{DataElement: "de1", Value: "yes"},
			{DataElement: "", Value: 7.0},
		},
	})

	assert.Equal(t, "ev1", r.ID)
	assert.Equal(t, KindEvent, r.Kind)
	assert.Equal(t, "ou1", r.OrgUnit)
	assert.NotEmpty(t, r.Geometry)
	assert.Equal(t, "40.1,4.4", r.Coordinate)
	assert.Equal(t, "Moyale Health Center", r.Fields["orgUnitName"])
	assert.Equal(t, "yes", r.Fields["dv_de1"])
	assert.Equal(t, "7", r.Fields["dv"])
}

func TestEntityRecord_NameFromFirstMatchingAttribute(t *testing.T) {
	te := dhis2.TrackedEntity{
		TrackedEntity: "te1",
		OrgUnit:       "ou1",
		Attributes: []dhis2.Attribute{
			{Attribute: "first", Value: ""},
			{Attribute: "second", Value: "Abebe K"},
			{Attribute: coordAttr, Value: "[40.1,4.4]"},
		},
	}
	r := EntityRecord(te, []string{"first", "second"})
	assert.Equal(t, "Abebe K", r.Name)
	assert.Equal(t, "Abebe K", r.Fields["name"])
	require.Len(t, r.Attributes, 3)

	v, ok := r.AttributeValue(coordAttr)
	require.True(t, ok)
	assert.Equal(t, "[40.1,4.4]", v)
}

func TestUnitFromDHIS2_GeometryPreferred(t *testing.T) {
	u := UnitFromDHIS2(dhis2.OrgUnit{
		ID:          "ou1",
		Name:        "Abitu Health Post",
		Geometry:    json.RawMessage(`{"type":"Point","coordinates":[38.155214,6.663891]}`),
		Coordinates: "[1.0,1.0]",
	})
	require.NotNil(t, u.Point)
	assert.InDelta(t, 6.663891, u.Point.Lat, 1e-9)
}

func TestUnitFromDHIS2_CoordinatesFallback(t *testing.T) {
	u := UnitFromDHIS2(dhis2.OrgUnit{
		ID:          "ou1",
		Name:        "Bede Health Post",
		Coordinates: "[38.2,6.7]",
	})
	require.NotNil(t, u.Point)
	assert.InDelta(t, 6.7, u.Point.Lat, 1e-9)
	assert.InDelta(t, 38.2, u.Point.Lng, 1e-9)
}

func TestUnitFromDHIS2_NoLocation(t *testing.T) {
	u := UnitFromDHIS2(dhis2.OrgUnit{ID: "ou1", Name: "Raro Health Post"})
	assert.Nil(t, u.Point)
}

func TestBuildUnitIndex_SkipsEmptyIDs(t *testing.T) {
	idx := BuildUnitIndex([]dhis2.OrgUnit{
		{ID: "ou1", Name: "A"},
		{ID: "", Name: "nameless"},
	})
	require.Len(t, idx, 1)
	assert.Equal(t, "A", idx.Name("ou1"))
	assert.Empty(t, idx.Name("missing"))
}
