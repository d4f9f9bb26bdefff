package dataset

import (
	"sort"

	"github.com/darkmine-oss/baselode/internal/models"
	"github.com/darkmine-oss/baselode/internal/schema"
)

// columnPresent reports whether any row in the batch carries a non-empty
// value for the column. Lenient by design: sparse optional columns count
// as present.
func columnPresent(rows []models.RawRow, column string) bool {
	for _, row := range rows {
		if row.Has(column) {
			return true
		}
	}
	return false
}

// requireColumns checks batch-level presence of each column in order and
// returns a MissingColumnError naming the first absent one.
func requireColumns(rows []models.RawRow, table string, columns ...string) error {
	for _, column := range columns {
		if !columnPresent(rows, column) {
			return &MissingColumnError{Table: table, Column: column}
		}
	}
	return nil
}

// ValidateNoOverlappingIntervals checks that no two intervals on the same
// hole overlap in depth. Intervals are ordered by (hole, from, to) and the
// first row whose from undercuts the previous to on the same hole fails
// the check. Touching bounds (from == previous to) are allowed.
func ValidateNoOverlappingIntervals(intervals []models.Interval, table string) error {
	ordered := make([]models.Interval, len(intervals))
	copy(ordered, intervals)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.HoleID != b.HoleID {
			return a.HoleID < b.HoleID
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})

	prevTo := make(map[string]float64)
	for _, iv := range ordered {
		if to, seen := prevTo[iv.HoleID]; seen && iv.From < to {
			return &OverlapError{Table: table, HoleID: iv.HoleID, From: iv.From, PrevTo: to}
		}
		prevTo[iv.HoleID] = iv.To
	}
	return nil
}

// sortIntervals orders intervals by (hole, from, to), the order loaders
// return interval tables in.
func sortIntervals(intervals []models.Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if a.HoleID != b.HoleID {
			return a.HoleID < b.HoleID
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
}

// extraColumns copies every column of the row that is not in the consumed
// set, preserving passthrough value and category columns.
func extraColumns(row models.RawRow, consumed map[string]bool) models.RawRow {
	var extra models.RawRow
	for col, val := range row {
		if consumed[col] {
			continue
		}
		if extra == nil {
			extra = make(models.RawRow)
		}
		extra[col] = val
	}
	return extra
}

// consumedSet builds the consumed-column set for a loader. The alias
// column is never consumed: it stays in Extra so the original keying
// survives the load.
func consumedSet(columns ...string) map[string]bool {
	set := make(map[string]bool, len(columns)+1)
	set[schema.FieldHoleID] = true
	for _, c := range columns {
		set[c] = true
	}
	return set
}
