package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKM_Identity(t *testing.T) {
	for _, p := range []Point{
		{Lat: 0, Lng: 0},
		{Lat: 4.417937, Lng: 40.141009},
		{Lat: -89.9, Lng: 179.9},
	} {
		assert.Zero(t, HaversineKM(p, p))
	}
}

func TestHaversineKM_Symmetry(t *testing.T) {
	a := Point{Lat: 6.663891, Lng: 38.155214}
	b := Point{Lat: 9.03, Lng: 38.74}
	assert.InDelta(t, HaversineKM(a, b), HaversineKM(b, a), 1e-9)
}

// One degree of longitude at the equator is about 111.19 km.
func TestHaversineKM_OneDegreeAtEquator(t *testing.T) {
	d := HaversineKM(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1})
	assert.InDelta(t, 111.19, d, 0.5)
}

func TestHaversineKM_NearAntipodal(t *testing.T) {
	d := HaversineKM(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180})
	// Half the spherical circumference, and no NaN from float overshoot.
	assert.InDelta(t, 20015.1, d, 1.0)
}
