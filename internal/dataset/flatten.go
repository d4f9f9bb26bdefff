package dataset

import (
	"github.com/darkmine-oss/baselode/internal/models"
	"github.com/darkmine-oss/baselode/internal/schema"
)

// Candidate code/value columns for long-format interval tables, tried in
// order.
var (
	assayCodeCandidates    = []string{"assay_code", "assay_type", "analyte", "element", "code"}
	assayValueCandidates   = []string{"assay_value", "value", "result", "assay_result"}
	geologyCodeCandidates  = []string{schema.FieldGeologyCode, "lith_code", "code"}
	geologyValueCandidates = []string{schema.FieldGeologyDescription, "geology_value", "value", "description"}
)

func firstPresentColumn(rows []models.RawRow, candidates []string) string {
	for _, candidate := range candidates {
		if columnPresent(rows, candidate) {
			return candidate
		}
	}
	return ""
}

// flattenLongIntervals pivots a long-format interval table (one row per
// code,value pair) into wide rows keyed by (hole_id, from, to): each
// distinct code becomes a column holding its value. First value wins per
// cell; base passthrough columns come from the first row of each group.
func flattenLongIntervals(rows []models.RawRow, table string) ([]models.RawRow, error) {
	codeCandidates, valueCandidates := assayCodeCandidates, assayValueCandidates
	if table == "geology" {
		codeCandidates, valueCandidates = geologyCodeCandidates, geologyValueCandidates
	}

	codeCol := firstPresentColumn(rows, codeCandidates)
	if codeCol == "" {
		return nil, &MissingColumnError{Table: table, Column: codeCandidates[0]}
	}
	valueCol := firstPresentColumn(rows, valueCandidates)
	if valueCol == "" {
		return nil, &MissingColumnError{Table: table, Column: valueCandidates[0]}
	}

	type groupKey struct {
		hole     string
		from, to string
	}
	var order []groupKey
	groups := make(map[groupKey]models.RawRow)

	for _, row := range rows {
		key := groupKey{
			hole: row.String(schema.FieldHoleID),
			from: row.String(schema.FieldFrom),
			to:   row.String(schema.FieldTo),
		}
		wide, seen := groups[key]
		if !seen {
			wide = make(models.RawRow, len(row))
			for col, val := range row {
				if col == codeCol || col == valueCol {
					continue
				}
				wide[col] = val
			}
			groups[key] = wide
			order = append(order, key)
		}

		code := row.String(codeCol)
		if code == "" {
			continue
		}
		if _, exists := wide[code]; !exists {
			wide[code] = row[valueCol]
		}
	}

	out := make([]models.RawRow, len(order))
	for i, key := range order {
		out[i] = groups[key]
	}
	return out, nil
}
