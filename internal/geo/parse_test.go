package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    Point
		wantErr bool
	}{
		{
			name: "geojson point mapping",
			raw:  map[string]any{"type": "Point", "coordinates": []any{40.141009, 4.417937}},
			want: Point{Lat: 4.417937, Lng: 40.141009},
		},
		{
			name: "lat lng mapping",
			raw:  map[string]any{"latitude": 4.417937, "longitude": 40.141009},
			want: Point{Lat: 4.417937, Lng: 40.141009},
		},
		{
			name: "lat lng mapping with string values",
			raw:  map[string]any{"latitude": "4.417937", "longitude": "40.141009"},
			want: Point{Lat: 4.417937, Lng: 40.141009},
		},
		{
			name: "sequence lng first",
			raw:  []any{38.155214, 6.663891},
			want: Point{Lat: 6.663891, Lng: 38.155214},
		},
		{
			name: "sequence with altitude",
			raw:  []any{38.155214, 6.663891, 1810.0},
			want: Point{Lat: 6.663891, Lng: 38.155214},
		},
		{
			name: "float sequence",
			raw:  []float64{38.155214, 6.663891},
			want: Point{Lat: 6.663891, Lng: 38.155214},
		},
		{
			name: "json array string",
			raw:  "[38.155214, 6.663891]",
			want: Point{Lat: 6.663891, Lng: 38.155214},
		},
		{
			name:    "nil value",
			raw:     nil,
			wantErr: true,
		},
		{
			name:    "polygon mapping",
			raw:     map[string]any{"type": "Polygon", "coordinates": []any{}},
			wantErr: true,
		},
		{
			name:    "mapping without coordinate keys",
			raw:     map[string]any{"lat": 1.0, "lon": 2.0},
			wantErr: true,
		},
		{
			name:    "short sequence",
			raw:     []any{38.155214},
			wantErr: true,
		},
		{
			name:    "non-numeric sequence",
			raw:     []any{"x", "y"},
			wantErr: true,
		},
		{
			name:    "missing latitude never zero-filled",
			raw:     map[string]any{"longitude": 40.141009},
			wantErr: true,
		},
		{
			name:    "unsupported shape",
			raw:     42,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoordinate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Lat, got.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, got.Lng, 1e-9)
		})
	}
}

// Every textual encoding of the same pair decodes to the same point.
func TestParseText_EquivalentEncodings(t *testing.T) {
	want := Point{Lat: 6.663891, Lng: 38.155214}
	for _, enc := range []string{
		"[38.155214,6.663891]",
		"38.155214,6.663891",
		"38.155214; 6.663891",
		"(38.155214, 6.663891)",
		" [38.155214 , 6.663891] ",
	} {
		got, err := ParseText(enc)
		require.NoError(t, err, enc)
		assert.InDelta(t, want.Lat, got.Lat, 1e-9, enc)
		assert.InDelta(t, want.Lng, got.Lng, 1e-9, enc)
	}
}

func TestParseText_Failures(t *testing.T) {
	for _, enc := range []string{
		"",
		"   ",
		"38.155214",
		"abc,def",
		`{"latitude": 6.6}`,
		"[38.155214]",
	} {
		_, err := ParseText(enc)
		assert.Error(t, err, "input %q", enc)
	}
}

func TestParseGeometry(t *testing.T) {
	got, err := ParseGeometry([]byte(`{"type":"Point","coordinates":[40.141009,4.417937]}`))
	require.NoError(t, err)
	assert.InDelta(t, 4.417937, got.Lat, 1e-9)
	assert.InDelta(t, 40.141009, got.Lng, 1e-9)

	_, err = ParseGeometry(nil)
	assert.Error(t, err)

	_, err = ParseGeometry([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`))
	assert.Error(t, err)

	_, err = ParseGeometry([]byte(`not json`))
	assert.Error(t, err)
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 4.4, Lng: 40.1}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 95, Lng: 40.1}.Valid())
	assert.False(t, Point{Lat: 4.4, Lng: -190}.Valid())
}
