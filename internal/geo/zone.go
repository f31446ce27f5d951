package geo

import "github.com/rotisserie/eris"

// Zone is a circular geofence: a named center point and an allowed
// radius in kilometers.
type Zone struct {
	Name     string
	Center   Point
	RadiusKM float64
}

// Validate checks that the zone is usable as an audit boundary.
func (z Zone) Validate() error {
	if z.Name == "" {
		return eris.New("geo: zone has no name")
	}
	if !z.Center.Valid() {
		return eris.Errorf("geo: zone %s center %s out of range", z.Name, z.Center)
	}
	if z.RadiusKM <= 0 {
		return eris.Errorf("geo: zone %s radius %.2f must be positive", z.Name, z.RadiusKM)
	}
	return nil
}

// Classification is the verdict for a single point against a single zone.
type Classification struct {
	DistanceKM float64 `json:"distanceKm"`
	Inside     bool    `json:"inside"`
}

// Classify measures the point against the zone center. A point exactly
// on the boundary counts as inside; only a strictly greater distance
// marks a record as misplaced.
func (z Zone) Classify(p Point) Classification {
	d := HaversineKM(z.Center, p)
	return Classification{DistanceKM: d, Inside: d <= z.RadiusKM}
}

// ClassifyAll evaluates the point against every zone independently. A
// point may be inside one zone and outside another.
func ClassifyAll(zones []Zone, p Point) map[string]Classification {
	out := make(map[string]Classification, len(zones))
	for _, z := range zones {
		out[z.Name] = z.Classify(p)
	}
	return out
}
