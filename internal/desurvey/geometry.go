package desurvey

import (
	"math"

	"github.com/darkmine-oss/baselode/internal/models"
)

const (
	degToRad = math.Pi / 180
	// Below this dogleg angle the ratio factor is numerically 1; the
	// guard removes the 0/0 singularity as the path straightens.
	minDogleg = 1e-6
)

// directionCosines converts an azimuth/dip pair into unit vector
// components (east, north, down). Dip is degrees from horizontal with
// negative pointing down; it is first converted to inclination from
// vertical, clamped to [0, 180] so malformed dips outside [-90, 90]
// cannot flip the vector.
func directionCosines(azimuthDeg, dipDeg float64) (east, north, down float64) {
	inclination := 90 + dipDeg
	if inclination < 0 {
		inclination = 0
	} else if inclination > 180 {
		inclination = 180
	}
	inc := inclination * degToRad
	az := azimuthDeg * degToRad

	sinInc := math.Sin(inc)
	east = sinInc * math.Sin(az)
	north = sinInc * math.Cos(az)
	down = math.Cos(inc)
	return east, north, down
}

// segment precomputes everything constant across one station pair's
// sub-steps: per-meter displacement and the orientation annotation rule.
type segment struct {
	method Method

	// Unit displacement per meter of measured depth (east, north, down).
	ue, un, ud float64

	// Orientation endpoints for interpolation / annotation.
	az0, dip0, az1, dip1 float64
}

func newSegment(s0, s1 models.SurveyStation, method Method) segment {
	seg := segment{
		method: method,
		az0:    s0.Azimuth,
		dip0:   s0.Dip,
		az1:    s1.Azimuth,
		dip1:   s1.Dip,
	}

	switch method {
	case Tangential:
		seg.ue, seg.un, seg.ud = directionCosines(s0.Azimuth, s0.Dip)
	case BalancedTangential:
		seg.ue, seg.un, seg.ud = directionCosines(
			0.5*(s0.Azimuth+s1.Azimuth),
			0.5*(s0.Dip+s1.Dip),
		)
	default: // MinimumCurvature
		e0, n0, d0 := directionCosines(s0.Azimuth, s0.Dip)
		e1, n1, d1 := directionCosines(s1.Azimuth, s1.Dip)
		dot := e0*e1 + n0*n1 + d0*d1
		if dot > 1 {
			dot = 1
		} else if dot < -1 {
			dot = -1
		}
		dogleg := math.Acos(dot)
		rf := 1.0
		if dogleg > minDogleg {
			rf = 2 * math.Tan(dogleg/2) / dogleg
		}
		seg.ue = 0.5 * (e0 + e1) * rf
		seg.un = 0.5 * (n0 + n1) * rf
		seg.ud = 0.5 * (d0 + d1) * rf
	}
	return seg
}

// displacement returns the (east, north, down) displacement of one
// sub-step of the given length.
func (s segment) displacement(length float64) (de, dn, dd float64) {
	return length * s.ue, length * s.un, length * s.ud
}

// orientation returns the azimuth/dip annotated on the trace point at
// fractional position t within the segment. Tangential keeps the start
// orientation, balanced tangential the mean; minimum curvature linearly
// interpolates the endpoints, which smooths the annotation for display
// but is not a consequence of the arc model.
func (s segment) orientation(t float64) (azimuth, dip float64) {
	switch s.method {
	case Tangential:
		return s.az0, s.dip0
	case BalancedTangential:
		return 0.5 * (s.az0 + s.az1), 0.5 * (s.dip0 + s.dip1)
	default:
		return s.az0 + t*(s.az1-s.az0), s.dip0 + t*(s.dip1-s.dip0)
	}
}
