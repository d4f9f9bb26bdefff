// Package attach places interval rows (assays, geology) onto desurveyed
// traces, either by nearest measured depth or by exact multi-column join.
package attach

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/darkmine-oss/baselode/internal/models"
)

// traceFields are the spatial fields merged onto intervals, in merge
// order.
var traceFields = []string{"md", "x", "y", "z", "azimuth", "dip"}

// AttachAssayPositions joins each interval to the nearest trace point of
// its hole by |trace.md - interval.mid|. The earliest point at the minimum
// distance wins. Merged fields land directly on the interval's extras
// unless the interval already carries the column, in which case they go
// under a _trace suffix. Intervals with no matching hole or no finite mid
// pass through unmodified.
func AttachAssayPositions(intervals []models.Interval, traces []models.TracePoint) []models.Interval {
	byHole := groupTraces(traces)

	out := make([]models.Interval, len(intervals))
	for i, iv := range intervals {
		out[i] = iv
		if math.IsNaN(iv.Mid) || math.IsInf(iv.Mid, 0) {
			continue
		}
		hole := byHole[iv.HoleID]
		if len(hole) == 0 {
			continue
		}

		nearest := hole[0]
		best := math.Abs(nearest.MD - iv.Mid)
		for _, p := range hole[1:] {
			if d := math.Abs(p.MD - iv.Mid); d < best {
				nearest, best = p, d
			}
		}
		out[i] = mergeTraceFields(iv, nearest)
	}
	return out
}

// JoinAssaysToTraces performs an exact equi-join of intervals to traces on
// the given columns (hole_id when none are given). One trace row is kept
// per key, last wins on duplicates. Merge policy matches
// AttachAssayPositions. Intervals whose key has no trace row pass through
// unmodified.
func JoinAssaysToTraces(intervals []models.Interval, traces []models.TracePoint, on []string) []models.Interval {
	if len(on) == 0 {
		on = []string{"hole_id"}
	}

	keyed := make(map[string]models.TracePoint, len(traces))
	for _, p := range traces {
		if key, ok := traceKey(p, on); ok {
			keyed[key] = p
		}
	}

	out := make([]models.Interval, len(intervals))
	for i, iv := range intervals {
		out[i] = iv
		key, ok := intervalKey(iv, on)
		if !ok {
			continue
		}
		if p, found := keyed[key]; found {
			out[i] = mergeTraceFields(iv, p)
		}
	}
	return out
}

// mergeTraceFields copies the trace's spatial fields onto a copy of the
// interval, suffixing _trace where the interval already has the column.
func mergeTraceFields(iv models.Interval, p models.TracePoint) models.Interval {
	extra := iv.Extra.Clone()
	if extra == nil {
		extra = make(models.RawRow, len(traceFields))
	}
	for _, name := range traceFields {
		value, _ := p.Field(name)
		key := name
		if _, taken := extra[key]; taken {
			key = name + "_trace"
		}
		extra[key] = value
	}
	iv.Extra = extra
	return iv
}

func groupTraces(traces []models.TracePoint) map[string][]models.TracePoint {
	byHole := make(map[string][]models.TracePoint)
	for _, p := range traces {
		byHole[p.HoleID] = append(byHole[p.HoleID], p)
	}
	for hole := range byHole {
		group := byHole[hole]
		sort.SliceStable(group, func(i, j int) bool { return group[i].MD < group[j].MD })
	}
	return byHole
}

// Join keys concatenate column values with an unprintable separator so
// composite keys cannot collide on value boundaries.
const keySeparator = "\x1f"

func traceKey(p models.TracePoint, on []string) (string, bool) {
	parts := make([]string, len(on))
	for i, col := range on {
		v, ok := p.Field(col)
		if !ok {
			return "", false
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, keySeparator), true
}

func intervalKey(iv models.Interval, on []string) (string, bool) {
	parts := make([]string, len(on))
	for i, col := range on {
		var v any
		switch col {
		case "hole_id":
			v = iv.HoleID
		case "from":
			v = iv.From
		case "to":
			v = iv.To
		case "mid":
			v = iv.Mid
		default:
			value, ok := iv.Extra[col]
			if !ok {
				return "", false
			}
			v = value
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, keySeparator), true
}
