package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hewan-health/geoaudit/internal/audit"
)

// Fixed leading columns of the tracked-entity distance sheet. Attribute
// columns are appended after these in sorted order.
var entityColumns = []string{
	"trackedEntity",
	"name",
	"orgUnit",
	"orgUnitName",
	"latitude",
	"longitude",
	"coordinate_source",
	"distance_to_facility_km",
	"distance_to_zone_center_km",
	"facility_distance_to_center_km",
	"combined_distance_via_facility_km",
}

var missingColumns = []string{
	"trackedEntity",
	"name",
	"orgUnit",
	"orgUnitName",
	"missing_reason",
}

// WriteCSV writes rows under the given header to path. Keys absent from
// a row render as empty cells.
func WriteCSV(path string, fieldnames []string, rows []map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(fieldnames); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	line := make([]string, len(fieldnames))
	for _, row := range rows {
		for i, name := range fieldnames {
			line[i] = row[name]
		}
		if err := w.Write(line); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "report: flush")
	}
	return nil
}

// EventRow flattens a classified event into a CSV row: every raw field
// the API returned plus the resolved coordinate and distances.
func EventRow(r audit.ClassifiedRecord) map[string]string {
	row := make(map[string]string, len(r.Fields)+6)
	for k, v := range r.Fields {
		row[k] = v
	}
	row["latitude"] = fmt.Sprintf("%.6f", r.Point.Lat)
	row["longitude"] = fmt.Sprintf("%.6f", r.Point.Lng)
	row["coordinate_source"] = string(r.Source)
	row["distance_km"] = fmt.Sprintf("%.2f", r.DistanceKM)
	if r.ToUnitKM != nil {
		row["distance_to_facility_km"] = fmt.Sprintf("%.2f", *r.ToUnitKM)
	}
	if r.CombinedKM != nil {
		row["combined_distance_km"] = fmt.Sprintf("%.2f", *r.CombinedKM)
	}
	return row
}

// EventFieldnames returns the sorted union of keys across rows, so the
// sheet carries whatever fields the server happened to return.
func EventFieldnames(rows []map[string]string) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// EntityRow builds a distance-sheet row for a tracked entity. Attribute
// columns use the sanitized headers, prefixed attr_; the coordinate
// attribute itself is skipped since it is already split into
// latitude and longitude.
func EntityRow(r audit.ClassifiedRecord, headers map[string]string, coordAttrID string) map[string]string {
	row := map[string]string{
		"trackedEntity":     r.ID,
		"name":              r.Name,
		"orgUnit":           r.OrgUnit,
		"orgUnitName":       r.UnitName,
		"latitude":          fmt.Sprintf("%.6f", r.Point.Lat),
		"longitude":         fmt.Sprintf("%.6f", r.Point.Lng),
		"coordinate_source": string(r.Source),
	}
	if r.ToUnitKM != nil {
		row["distance_to_facility_km"] = fmt.Sprintf("%.2f", *r.ToUnitKM)
	}
	row["distance_to_zone_center_km"] = fmt.Sprintf("%.2f", r.DistanceKM)
	if r.UnitDistanceKM != nil {
		row["facility_distance_to_center_km"] = fmt.Sprintf("%.2f", *r.UnitDistanceKM)
	}
	if r.CombinedKM != nil {
		row["combined_distance_via_facility_km"] = fmt.Sprintf("%.2f", *r.CombinedKM)
	}
	addAttributeColumns(row, r.Attributes, headers, coordAttrID)
	return row
}

// EventMissingRow flattens an event with no resolvable coordinate,
// keeping the raw fields for follow-up.
func EventMissingRow(r audit.MissingRecord) map[string]string {
	row := make(map[string]string, len(r.Fields)+2)
	for k, v := range r.Fields {
		row[k] = v
	}
	row["orgUnitName"] = r.UnitName
	row["missing_reason"] = r.Reason
	return row
}

// MissingRow builds a row for a record with no resolvable coordinate.
func MissingRow(r audit.MissingRecord, headers map[string]string, coordAttrID string) map[string]string {
	row := map[string]string{
		"trackedEntity":  r.ID,
		"name":           r.Name,
		"orgUnit":        r.OrgUnit,
		"orgUnitName":    r.UnitName,
		"missing_reason": r.Reason,
	}
	addAttributeColumns(row, r.Attributes, headers, coordAttrID)
	return row
}

// EntityFieldnames appends the sorted attribute columns present in rows
// after the fixed distance-sheet columns.
func EntityFieldnames(rows []map[string]string) []string {
	return withAttributeColumns(entityColumns, rows)
}

// MissingFieldnames does the same for the missing-coordinate sheet.
func MissingFieldnames(rows []map[string]string) []string {
	return withAttributeColumns(missingColumns, rows)
}

func withAttributeColumns(fixed []string, rows []map[string]string) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			if strings.HasPrefix(k, "attr_") {
				seen[k] = true
			}
		}
	}
	extra := make([]string, 0, len(seen))
	for k := range seen {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(append([]string{}, fixed...), extra...)
}

func addAttributeColumns(row map[string]string, attrs []audit.Attribute, headers map[string]string, coordAttrID string) {
	for _, a := range attrs {
		if a.ID == coordAttrID {
			continue
		}
		name, ok := headers[a.ID]
		if !ok {
			name = a.ID
		}
		row["attr_"+name] = formatValue(a.Value)
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
