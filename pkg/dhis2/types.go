package dhis2

import "encoding/json"

// Pager is the paging envelope DHIS2 returns alongside collections.
type Pager struct {
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

// Event is a program event. Geometry stays raw GeoJSON; the legacy
// coordinate field can be a lat/lng mapping or a delimited string, so it
// is kept untyped for the coordinate parser.
type Event struct {
	Event         string          `json:"event"`
	TrackedEntity string          `json:"trackedEntity"`
	ProgramStage  string          `json:"programStage"`
	Status        string          `json:"status"`
	OrgUnit       string          `json:"orgUnit"`
	OrgUnitName   string          `json:"orgUnitName"`
	EventDate     string          `json:"eventDate"`
	OccurredAt    string          `json:"occurredAt"`
	StoredBy      string          `json:"storedBy"`
	Created       string          `json:"created"`
	LastUpdated   string          `json:"lastUpdated"`
	Geometry      json.RawMessage `json:"geometry,omitempty"`
	Coordinate    any             `json:"coordinate,omitempty"`
	DataValues    []DataValue     `json:"dataValues,omitempty"`
}

// DataValue is a single data element value on an event.
type DataValue struct {
	DataElement string `json:"dataElement"`
	Value       any    `json:"value"`
}

// TrackedEntity is a tracked entity instance with its attribute values.
type TrackedEntity struct {
	TrackedEntity string          `json:"trackedEntity"`
	OrgUnit       string          `json:"orgUnit"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
	Geometry      json.RawMessage `json:"geometry,omitempty"`
	Attributes    []Attribute     `json:"attributes,omitempty"`
}

// Attribute is a raw tracked-entity attribute value.
type Attribute struct {
	Attribute string `json:"attribute"`
	Value     any    `json:"value"`
	ValueType string `json:"valueType,omitempty"`
}

// OrgUnit is an organisation unit with both coordinate representations
// the API may return: a GeoJSON geometry and the legacy coordinates
// string.
type OrgUnit struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Geometry    json.RawMessage `json:"geometry,omitempty"`
	Coordinates any             `json:"coordinates,omitempty"`
}
