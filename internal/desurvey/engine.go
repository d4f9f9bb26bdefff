package desurvey

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/darkmine-oss/baselode/internal/models"
)

// Skip reasons surfaced on Result.Skipped.
const (
	SkipNoCollar        = "no_collar"
	SkipNoValidStations = "no_valid_stations"
)

// SkippedHole records a hole the engine could not trace. Skipping is not
// an error: a survey file routinely references holes whose collars were
// filtered out upstream.
type SkippedHole struct {
	HoleID string `json:"hole_id"`
	Reason string `json:"reason"`
}

// Result is a desurvey run's output: trace points grouped by hole in
// first-encounter order of the survey rows, ascending by md within each
// hole, plus the holes that produced no trace.
type Result struct {
	Traces  []models.TracePoint `json:"traces"`
	Skipped []SkippedHole       `json:"skipped_holes,omitempty"`
}

// HoleTrace returns the trace points of one hole, in order.
func (r *Result) HoleTrace(holeID string) []models.TracePoint {
	var out []models.TracePoint
	for _, p := range r.Traces {
		if p.HoleID == holeID {
			out = append(out, p)
		}
	}
	return out
}

// Desurvey computes 3D traces for every hole present in both tables.
// Holes are independent and are traced concurrently on a bounded worker
// pool; ctx cancellation is observed between holes. Duplicate collars for
// a hole are ignored past the first.
func Desurvey(ctx context.Context, collars models.CollarTable, surveys models.SurveyTable, opts Options) (*Result, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}

	// First collar wins per hole.
	collarByHole := make(map[string]*models.Collar, len(collars.Collars))
	for i := range collars.Collars {
		c := &collars.Collars[i]
		if _, seen := collarByHole[c.HoleID]; !seen {
			collarByHole[c.HoleID] = c
		}
	}

	// Group stations by hole in first-encounter order, keeping only
	// finite measurements.
	var holeOrder []string
	stationsByHole := make(map[string][]models.SurveyStation)
	for _, s := range surveys.Stations {
		if !finite(s.From) || !finite(s.Azimuth) || !finite(s.Dip) {
			continue
		}
		if _, seen := stationsByHole[s.HoleID]; !seen {
			holeOrder = append(holeOrder, s.HoleID)
		}
		stationsByHole[s.HoleID] = append(stationsByHole[s.HoleID], s)
	}

	result := &Result{}
	traces := make([][]models.TracePoint, len(holeOrder))
	skipped := make([]*SkippedHole, len(holeOrder))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := opts.Workers
	if workers > len(holeOrder) && len(holeOrder) > 0 {
		workers = len(holeOrder)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				holeID := holeOrder[idx]
				stations := stationsByHole[holeID]
				collar, ok := collarByHole[holeID]
				if !ok {
					skipped[idx] = &SkippedHole{HoleID: holeID, Reason: SkipNoCollar}
					continue
				}
				if len(stations) == 0 {
					skipped[idx] = &SkippedHole{HoleID: holeID, Reason: SkipNoValidStations}
					continue
				}
				traces[idx] = traceHole(collar, stations, collars.AliasColumn, opts)
			}
		}()
	}

dispatch:
	for idx := range holeOrder {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for idx := range holeOrder {
		if skipped[idx] != nil {
			result.Skipped = append(result.Skipped, *skipped[idx])
			continue
		}
		result.Traces = append(result.Traces, traces[idx]...)
	}
	// Collars with no surveys at all never enter holeOrder; report them
	// too so callers see every hole that went quiet.
	for holeID := range collarByHole {
		if _, hasStations := stationsByHole[holeID]; !hasStations {
			result.Skipped = append(result.Skipped, SkippedHole{HoleID: holeID, Reason: SkipNoValidStations})
		}
	}
	sort.SliceStable(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].HoleID < result.Skipped[j].HoleID
	})

	return result, nil
}

// traceHole walks one hole's sorted stations, anchoring the first trace
// point at the collar and folding (position, orientation) state through
// each segment's sub-steps.
func traceHole(collar *models.Collar, stations []models.SurveyStation, aliasColumn string, opts Options) []models.TracePoint {
	ordered := make([]models.SurveyStation, len(stations))
	copy(ordered, stations)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].From < ordered[j].From })

	aliasValue := ""
	if aliasColumn != "" && aliasColumn != "hole_id" {
		aliasValue = collar.Extra.String(aliasColumn)
	}

	x, y, elevation := collar.LocalPosition()
	down := 0.0 // accumulated vertical drop, positive downward
	md := ordered[0].From

	emit := func(md, x, y, down, azimuth, dip float64) models.TracePoint {
		return models.TracePoint{
			HoleID:      collar.HoleID,
			MD:          md,
			X:           x,
			Y:           y,
			Z:           elevation - down,
			Azimuth:     azimuth,
			Dip:         dip,
			AliasColumn: aliasColumn,
			AliasValue:  aliasValue,
		}
	}

	// The first station anchors orientation only; its position is the
	// collar's.
	trace := []models.TracePoint{emit(md, x, y, down, ordered[0].Azimuth, ordered[0].Dip)}

	for i := 0; i+1 < len(ordered); i++ {
		s0, s1 := ordered[i], ordered[i+1]
		delta := s1.From - s0.From
		if delta <= 0 {
			// Duplicate or regressing depth: no segment, keep walking
			// from the last emitted position.
			continue
		}

		steps := int(math.Ceil(delta / opts.Step))
		if steps < 1 {
			steps = 1
		}
		increment := delta / float64(steps)

		seg := newSegment(s0, s1, opts.Method)
		for k := 0; k < steps; k++ {
			md += increment
			de, dn, dd := seg.displacement(increment)
			x += de
			y += dn
			down += dd
			azimuth, dip := seg.orientation((md - s0.From) / delta)
			trace = append(trace, emit(md, x, y, down, azimuth, dip))
		}
	}
	return trace
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
