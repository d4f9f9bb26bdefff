package models

import "encoding/json"

// TracePoint is one derived 3D sample along a desurveyed hole. X and Y are
// local planar meters (east, north), Z is elevation (positive up). Points
// are strictly ordered by ascending MD within a hole.
type TracePoint struct {
	HoleID  string  `json:"hole_id"`
	MD      float64 `json:"md"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Azimuth float64 `json:"azimuth"`
	Dip     float64 `json:"dip"`
	// AliasColumn/AliasValue carry the originally-named hole id column
	// when it differs from hole_id, so callers can join back to source
	// tables without re-resolving the alias.
	AliasColumn string `json:"-"`
	AliasValue  string `json:"-"`
}

// MarshalJSON emits the fixed trace fields plus, when the source table was
// keyed by a differently named column, that column under its original name.
func (p TracePoint) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"hole_id": p.HoleID,
		"md":      p.MD,
		"x":       p.X,
		"y":       p.Y,
		"z":       p.Z,
		"azimuth": p.Azimuth,
		"dip":     p.Dip,
	}
	if p.AliasColumn != "" && p.AliasColumn != "hole_id" {
		out[p.AliasColumn] = p.AliasValue
	}
	return json.Marshal(out)
}

// Field returns a trace column by canonical name. Used by the exact
// equi-join, which accepts arbitrary join columns.
func (p TracePoint) Field(name string) (any, bool) {
	switch name {
	case "hole_id":
		return p.HoleID, true
	case "md":
		return p.MD, true
	case "x":
		return p.X, true
	case "y":
		return p.Y, true
	case "z":
		return p.Z, true
	case "azimuth":
		return p.Azimuth, true
	case "dip":
		return p.Dip, true
	}
	if p.AliasColumn != "" && name == p.AliasColumn {
		return p.AliasValue, true
	}
	return nil, false
}
