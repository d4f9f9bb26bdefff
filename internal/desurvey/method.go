// Package desurvey converts ordered directional survey stations into 3D
// drillhole traces. Three interpolation methods are supported; minimum
// curvature is the industry default.
package desurvey

import (
	"errors"
	"fmt"
	"runtime"
)

// Option validation errors, matchable with errors.Is.
var (
	ErrUnknownMethod = errors.New("unknown desurvey method")
	ErrInvalidStep   = errors.New("desurvey step must be > 0")
)

// Method selects the interpolation used between consecutive stations.
type Method string

const (
	// Tangential carries the first station's orientation through the
	// whole segment. Simplest and least accurate.
	Tangential Method = "tangential"
	// BalancedTangential uses the arithmetic mean of the segment's start
	// and end orientations.
	BalancedTangential Method = "balanced_tangential"
	// MinimumCurvature fits a circular arc between stations using the
	// dogleg ratio factor. The default.
	MinimumCurvature Method = "minimum_curvature"
)

// ParseMethod maps a string onto a Method, defaulting empty input to
// minimum curvature.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "":
		return MinimumCurvature, nil
	case Tangential, BalancedTangential, MinimumCurvature:
		return Method(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// DefaultStep is the sub-step length in meters used when none is given.
const DefaultStep = 1.0

// Options configures a desurvey run.
type Options struct {
	// Step is the maximum sub-step length in meters; each segment is cut
	// into ceil(delta/step) equal pieces. Must be > 0; defaults to 1.
	Step float64
	// Method selects the interpolation; defaults to minimum curvature.
	Method Method
	// Workers bounds the per-hole worker pool; defaults to GOMAXPROCS.
	Workers int
}

func (o Options) normalized() (Options, error) {
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if o.Step <= 0 {
		return o, fmt.Errorf("%w, got %g", ErrInvalidStep, o.Step)
	}
	method, err := ParseMethod(string(o.Method))
	if err != nil {
		return o, err
	}
	o.Method = method
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o, nil
}
