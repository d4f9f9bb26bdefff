// Package schema rewrites arbitrarily named source columns onto the
// baselode canonical data model and resolves which column supplies the
// logical hole identifier. Everything here is pure over its inputs.
package schema

import (
	"strings"

	"github.com/darkmine-oss/baselode/internal/models"
)

// Canonical field names used across collar, survey, assay and geology
// tables.
const (
	FieldHoleID             = "hole_id"
	FieldDatasourceHoleID   = "datasource_hole_id"
	FieldProjectID          = "project_id"
	FieldLatitude           = "latitude"
	FieldLongitude          = "longitude"
	FieldElevation          = "elevation"
	FieldEasting            = "easting"
	FieldNorthing           = "northing"
	FieldCRS                = "crs"
	FieldFrom               = "from"
	FieldTo                 = "to"
	FieldMid                = "mid"
	FieldDepth              = "depth"
	FieldAzimuth            = "azimuth"
	FieldDip                = "dip"
	FieldDeclination        = "declination"
	FieldGeologyCode        = "geology_code"
	FieldGeologyDescription = "geology_description"
)

// defaultAliases maps each canonical field to its known source spellings.
// Spellings are compared after NormalizeFieldName, so case and internal
// whitespace do not matter. Source columns with no entry here pass through
// under their normalized name.
var defaultAliases = map[string][]string{
	FieldHoleID: {"hole_id", "holeid", "hole id", "hole-id"},
	FieldDatasourceHoleID: {
		"datasource_hole_id", "datasourceholeid", "datasource hole id", "datasource-hole-id",
		"company_hole_id", "companyholeid", "company hole id", "company-hole-id",
	},
	FieldProjectID: {
		"project_id", "projectid", "project id", "project-id",
		"project_code", "projectcode", "project code", "project-code",
		"company_id", "companyid", "company id", "company-id",
		"dataset", "project",
	},
	FieldLatitude:  {"latitude", "lat"},
	FieldLongitude: {"longitude", "lon"},
	FieldElevation: {"elevation", "rl", "elev", "z"},
	FieldEasting:   {"easting", "x"},
	FieldNorthing:  {"northing", "y"},
	FieldCRS:       {"crs", "epsg", "projection"},
	FieldFrom:      {"from", "depth_from", "from_depth", "samp_from", "sample_from", "sampfrom", "fromdepth"},
	FieldTo:        {"to", "depth_to", "to_depth", "samp_to", "sample_to", "sampto", "todepth"},
	FieldGeologyCode: {
		"geology_code", "geologycode", "lith1", "lith1code", "lith1_code",
		"lithology", "plot_lithology", "rock1",
	},
	FieldGeologyDescription: {
		"geology_description", "geologydescription", "geology_comment", "geologycomment",
		"geology comment", "lithology_comment", "lithology comment", "description", "comments",
	},
	FieldAzimuth:     {"azimuth", "az", "dipdir", "dip_direction", "dipdirection"},
	FieldDip:         {"dip"},
	FieldDeclination: {"declination", "dec"},
	FieldDepth:       {"depth", "survey_depth", "surveydepth"},
}

// aliasLookup is defaultAliases pivoted for O(1) reverse lookup:
// normalized spelling -> canonical field.
var aliasLookup = func() map[string]string {
	lookup := make(map[string]string)
	for canonical, spellings := range defaultAliases {
		for _, spelling := range spellings {
			lookup[NormalizeFieldName(spelling)] = canonical
		}
	}
	return lookup
}()

// NormalizeFieldName lowercases a column name, trims it, and collapses
// internal whitespace runs to a single underscore.
func NormalizeFieldName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "_")
}

// StandardizeColumns rewrites every key of the row through the alias table,
// merged with caller-supplied overrides (source spelling -> canonical
// field, both sides normalized). Keys with no known alias pass through
// under their normalized name. The input row is not modified.
func StandardizeColumns(row models.RawRow, overrides map[string]string) models.RawRow {
	lookup := aliasLookup
	if len(overrides) > 0 {
		merged := make(map[string]string, len(aliasLookup)+len(overrides))
		for k, v := range aliasLookup {
			merged[k] = v
		}
		for raw, canonical := range overrides {
			if raw == "" || canonical == "" {
				continue
			}
			merged[NormalizeFieldName(raw)] = NormalizeFieldName(canonical)
		}
		lookup = merged
	}

	out := make(models.RawRow, len(row))
	for col, val := range row {
		key := NormalizeFieldName(col)
		if canonical, ok := lookup[key]; ok {
			key = canonical
		}
		// First writer wins when two source columns collapse onto the
		// same canonical name, unless the later one actually has a value.
		if existing, ok := out[key]; ok && existing != nil {
			continue
		}
		out[key] = val
	}
	return out
}

// StandardizeRows applies StandardizeColumns to a batch.
func StandardizeRows(rows []models.RawRow, overrides map[string]string) []models.RawRow {
	out := make([]models.RawRow, len(rows))
	for i, row := range rows {
		out[i] = StandardizeColumns(row, overrides)
	}
	return out
}
