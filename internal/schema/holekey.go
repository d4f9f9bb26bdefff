package schema

import (
	"fmt"
	"strings"

	"github.com/darkmine-oss/baselode/internal/models"
)

// holeIDFallbacks are tried, in order, after any caller-preferred column
// when resolving which column supplies the hole identifier. "holeId" and
// "id" cover sources that never went through column standardization.
var holeIDFallbacks = []string{FieldHoleID, "holeId", "id", "primary_id"}

// HoleIDResolutionError reports that no candidate column held a hole
// identifier anywhere in the batch. It is a whole-dataset failure.
type HoleIDResolutionError struct {
	Candidates []string
}

func (e *HoleIDResolutionError) Error() string {
	return fmt.Sprintf("no hole id column found; tried %s", strings.Join(e.Candidates, ", "))
}

// CanonicalizeHoleIDRows picks the first candidate column for which at
// least one row has a non-empty value and materializes its trimmed,
// stringified values as a hole_id field on every row. The chosen alias
// column is retained on the rows and returned so callers can surface the
// original keying. Rows already keyed by hole_id resolve to hole_id, which
// makes the operation idempotent.
func CanonicalizeHoleIDRows(rows []models.RawRow, preferred string) (string, []models.RawRow, error) {
	candidates := make([]string, 0, len(holeIDFallbacks)+1)
	if preferred != "" {
		candidates = append(candidates, preferred)
	}
	candidates = append(candidates, holeIDFallbacks...)

	alias := ""
	for _, candidate := range candidates {
		for _, row := range rows {
			if row.Has(candidate) {
				alias = candidate
				break
			}
		}
		if alias != "" {
			break
		}
	}
	if alias == "" {
		return "", nil, &HoleIDResolutionError{Candidates: candidates}
	}

	out := make([]models.RawRow, len(rows))
	for i, row := range rows {
		clone := row.Clone()
		clone[FieldHoleID] = row.String(alias)
		out[i] = clone
	}
	return alias, out, nil
}
