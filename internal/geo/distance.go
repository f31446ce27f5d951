package geo

import "math"

// Mean Earth radius in kilometers.
const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two points in
// kilometers on a spherical Earth. The atan2 formulation stays
// numerically stable for near-identical and near-antipodal points.
func HaversineKM(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
