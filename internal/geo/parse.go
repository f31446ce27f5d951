package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ParseGeometry decodes a raw GeoJSON geometry into a Point. Only Point
// geometries carry a usable record location; polygons and other types
// are rejected.
func ParseGeometry(raw []byte) (Point, error) {
	if len(raw) == 0 {
		return Point{}, eris.New("geo: empty geometry")
	}
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return Point{}, eris.Wrap(err, "geo: decode geometry")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return Point{}, eris.Errorf("geo: unsupported geometry type %T", g)
	}
	coords := pt.Coords()
	if len(coords) < 2 {
		return Point{}, eris.New("geo: geometry has no coordinate pair")
	}
	return newPoint(coords[0], coords[1])
}

// ParseCoordinate decodes a coordinate from any of the raw shapes the
// tracker API produces: a GeoJSON Point mapping, a mapping with explicit
// latitude/longitude keys, a delimited or JSON-encoded string, or an
// ordered sequence of at least two elements. Longitude precedes latitude
// in every positional form. A shape that cannot be decoded completely
// yields an error, never a partial or zero-filled point.
func ParseCoordinate(raw any) (Point, error) {
	switch v := raw.(type) {
	case nil:
		return Point{}, eris.New("geo: nil coordinate value")
	case map[string]any:
		return parseMapping(v)
	case string:
		return ParseText(v)
	case []any:
		return parseSequence(v)
	case []float64:
		if len(v) < 2 {
			return Point{}, eris.New("geo: coordinate sequence too short")
		}
		return newPoint(v[0], v[1])
	case json.RawMessage:
		return ParseText(string(v))
	default:
		return Point{}, eris.Errorf("geo: unsupported coordinate shape %T", raw)
	}
}

// ParseText decodes a textual coordinate. A strict JSON array decode is
// tried first; otherwise enclosing brackets are stripped, semicolons are
// normalized to commas, and the first two tokens are read as lng,lat.
func ParseText(s string) (Point, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Point{}, eris.New("geo: empty coordinate string")
	}

	var seq []any
	if err := json.Unmarshal([]byte(text), &seq); err == nil {
		return parseSequence(seq)
	}

	text = strings.Trim(text, "[](){}")
	text = strings.ReplaceAll(text, ";", ",")
	var tokens []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	if len(tokens) < 2 {
		return Point{}, eris.Errorf("geo: coordinate string %q has fewer than two tokens", s)
	}
	lng, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return Point{}, eris.Wrapf(err, "geo: parse longitude token %q", tokens[0])
	}
	lat, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return Point{}, eris.Wrapf(err, "geo: parse latitude token %q", tokens[1])
	}
	return newPoint(lng, lat)
}

// parseMapping handles the two mapping shapes: a GeoJSON-style Point
// object, or explicit latitude/longitude keys.
func parseMapping(m map[string]any) (Point, error) {
	if t, ok := m["type"]; ok {
		name, _ := t.(string)
		if !strings.EqualFold(name, "Point") {
			return Point{}, eris.Errorf("geo: unsupported geometry type %q", name)
		}
		return ParseCoordinate(m["coordinates"])
	}

	rawLat, latOK := m["latitude"]
	rawLng, lngOK := m["longitude"]
	if !latOK || !lngOK {
		return Point{}, eris.New("geo: mapping has no recognizable coordinate keys")
	}
	lat, err := toFloat(rawLat)
	if err != nil {
		return Point{}, eris.Wrap(err, "geo: latitude")
	}
	lng, err := toFloat(rawLng)
	if err != nil {
		return Point{}, eris.Wrap(err, "geo: longitude")
	}
	return newPoint(lng, lat)
}

func parseSequence(seq []any) (Point, error) {
	if len(seq) < 2 {
		return Point{}, eris.New("geo: coordinate sequence too short")
	}
	lng, err := toFloat(seq[0])
	if err != nil {
		return Point{}, eris.Wrap(err, "geo: longitude")
	}
	lat, err := toFloat(seq[1])
	if err != nil {
		return Point{}, eris.Wrap(err, "geo: latitude")
	}
	return newPoint(lng, lat)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, eris.Errorf("geo: non-numeric value %T", v)
	}
}

func newPoint(lng, lat float64) (Point, error) {
	for _, f := range []float64{lat, lng} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Point{}, eris.New("geo: non-finite coordinate")
		}
	}
	return Point{Lat: lat, Lng: lng}, nil
}
