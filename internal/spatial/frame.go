// Package spatial provides the local planar approximation used to place
// lat/lng collars in the metric frame the desurvey engine works in. It is
// not a map projection: offsets are great-circle distances from a local
// origin, which is accurate at deposit scale and nothing more.
package spatial

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for distance math.
const EarthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance between two points
// in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// LocalFrame is a planar east/north frame anchored at an origin point.
type LocalFrame struct {
	originLat float64
	originLng float64
}

// NewLocalFrame anchors a frame at the given origin.
func NewLocalFrame(lat, lng float64) LocalFrame {
	return LocalFrame{originLat: lat, originLng: lng}
}

// Offset returns the planar east/north offset of a point from the frame
// origin, in meters. East is positive toward increasing longitude, north
// toward increasing latitude.
func (f LocalFrame) Offset(lat, lng float64) (east, north float64) {
	east = HaversineDistance(f.originLat, f.originLng, f.originLat, lng)
	if lng < f.originLng {
		east = -east
	}
	north = HaversineDistance(f.originLat, f.originLng, lat, f.originLng)
	if lat < f.originLat {
		north = -north
	}
	return east, north
}
