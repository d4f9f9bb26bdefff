package models

import (
	"time"

	"github.com/google/uuid"
)

// Collar is one drillhole's fixed reference point. Position is carried
// either as projected easting/northing or as latitude/longitude; elevation
// is meters above datum. Nullable coordinates use pointers so a missing
// column can be told apart from zero.
type Collar struct {
	HoleID           string   `json:"hole_id"`
	DatasourceHoleID string   `json:"datasource_hole_id,omitempty"`
	ProjectID        string   `json:"project_id,omitempty"`
	CRS              string   `json:"crs,omitempty"`
	Easting          *float64 `json:"easting,omitempty"`
	Northing         *float64 `json:"northing,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Elevation        float64  `json:"elevation"`
	Extra            RawRow   `json:"extra,omitempty"`
}

// LocalPosition returns the collar's planar position. Missing easting or
// northing default to zero, matching the loader's lenient treatment of
// partially positioned collars.
func (c *Collar) LocalPosition() (x, y, z float64) {
	if c.Easting != nil {
		x = *c.Easting
	}
	if c.Northing != nil {
		y = *c.Northing
	}
	return x, y, c.Elevation
}

// SurveyStation is one directional measurement down a hole: measured depth,
// azimuth in degrees clockwise from north, and dip in degrees from
// horizontal (negative pointing down).
type SurveyStation struct {
	HoleID  string   `json:"hole_id"`
	From    float64  `json:"from"`
	To      *float64 `json:"to,omitempty"`
	Azimuth float64  `json:"azimuth"`
	Dip     float64  `json:"dip"`
	Extra   RawRow   `json:"extra,omitempty"`
}

// Interval is a depth-ranged sample row (assay or geology). Mid is the
// derived midpoint depth used for nearest-trace attachment. Value and
// category columns ride along in Extra.
type Interval struct {
	HoleID string  `json:"hole_id"`
	From   float64 `json:"from"`
	To     float64 `json:"to"`
	Mid    float64 `json:"mid"`
	Extra  RawRow  `json:"extra,omitempty"`
}

// CollarTable is a validated collar load together with the alias column
// that supplied the canonical hole id.
type CollarTable struct {
	AliasColumn string   `json:"alias_column"`
	Collars     []Collar `json:"collars"`
}

// SurveyTable is a validated survey load.
type SurveyTable struct {
	AliasColumn string          `json:"alias_column"`
	Stations    []SurveyStation `json:"stations"`
}

// IntervalTable is a validated assay or geology load.
type IntervalTable struct {
	AliasColumn string     `json:"alias_column"`
	Intervals   []Interval `json:"intervals"`
}

// FilterProject keeps only collars whose project id matches. An empty
// project id keeps everything.
func (t CollarTable) FilterProject(projectID string) CollarTable {
	if projectID == "" {
		return t
	}
	out := CollarTable{AliasColumn: t.AliasColumn}
	for _, c := range t.Collars {
		if c.ProjectID == projectID {
			out.Collars = append(out.Collars, c)
		}
	}
	return out
}

// Dataset groups one project's drillhole tables under a single id.
type Dataset struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ProjectID string    `json:"project_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interval table kinds as stored in the repository.
const (
	IntervalKindAssay   = "assay"
	IntervalKindGeology = "geology"
)
