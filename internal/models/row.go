package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawRow is one record from an already-parsed tabular source (CSV, array,
// SQL result), keyed by column name. Rows arrive with arbitrary source
// column names and are rewritten to canonical names by the schema package
// before any loader consumes them.
type RawRow map[string]any

// Clone returns a shallow copy of the row.
func (r RawRow) Clone() RawRow {
	out := make(RawRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the trimmed string form of a column value.
// Missing columns and nil values yield an empty string.
func (r RawRow) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		// Avoid "1e+06" style hole ids when numeric ids come in as floats.
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Float returns the numeric form of a column value. The second return is
// false when the column is absent, empty, or not a finite number.
func (r RawRow) Float(column string) (float64, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Has reports whether the column is present with a non-empty value.
func (r RawRow) Has(column string) bool {
	return r.String(column) != ""
}
