package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHeader(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "plain", label: "FirstName", want: "FirstName"},
		{name: "spaces", label: "First Name", want: "First_Name"},
		{name: "punctuation", label: "Mother's Name (Amharic)", want: "Mother_s_Name_Amharic"},
		{name: "leading trailing", label: "  Phone #  ", want: "Phone"},
		{name: "all symbols", label: "***", want: ""},
		{name: "empty", label: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeHeader(tt.label))
		})
	}
}

func TestHeaderMap(t *testing.T) {
	headers := HeaderMap(map[string]string{
		"jXFBnlt8KyM": "First Name",
		"hgXcoeoc1UE": "Father Name",
		"aaa11111111": "Phone",
		"bbb22222222": "Phone",
		"ccc33333333": "***",
	})

	assert.Equal(t, "First_Name", headers["jXFBnlt8KyM"])
	assert.Equal(t, "Father_Name", headers["hgXcoeoc1UE"])

	// Collisions resolve in sorted id order, so aaa keeps the base name.
	assert.Equal(t, "Phone", headers["aaa11111111"])
	assert.Equal(t, "Phone_2", headers["bbb22222222"])

	// A label with no usable characters falls back to the id.
	assert.Equal(t, "ccc33333333", headers["ccc33333333"])
}

func TestHeaderMapStable(t *testing.T) {
	labels := map[string]string{
		"id1": "Name", "id2": "Name", "id3": "Name",
	}
	first := HeaderMap(labels)
	for range 10 {
		assert.Equal(t, first, HeaderMap(labels))
	}
}
