package attach

import (
	"math"
	"testing"

	"github.com/darkmine-oss/baselode/internal/models"
)

func testTraces() []models.TracePoint {
	return []models.TracePoint{
		{HoleID: "DH-001", MD: 0, X: 100, Y: 200, Z: 300, Azimuth: 0, Dip: -60},
		{HoleID: "DH-001", MD: 10, X: 101, Y: 202, Z: 291, Azimuth: 2, Dip: -61},
		{HoleID: "DH-001", MD: 20, X: 102, Y: 204, Z: 282, Azimuth: 4, Dip: -62},
		{HoleID: "DH-002", MD: 0, X: 500, Y: 600, Z: 250, Azimuth: 90, Dip: -45},
	}
}

func TestAttachAssayPositions(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-001", From: 12, To: 18, Mid: 15, Extra: models.RawRow{"au_ppm": 1.5}},
	}

	out := AttachAssayPositions(intervals, testTraces())
	if len(out) != 1 {
		t.Fatalf("Expected 1 interval, got %d", len(out))
	}

	// Mid 15 is equidistant from md 10 and 20; the earlier point wins.
	iv := out[0]
	if got, _ := iv.Extra.Float("md"); got != 10 {
		t.Errorf("Expected nearest md 10, got %v", iv.Extra["md"])
	}
	if got, _ := iv.Extra.Float("x"); got != 101 {
		t.Errorf("Expected x 101, got %v", iv.Extra["x"])
	}
	if got, _ := iv.Extra.Float("z"); got != 291 {
		t.Errorf("Expected z 291, got %v", iv.Extra["z"])
	}
	// Original passthrough columns survive.
	if got, _ := iv.Extra.Float("au_ppm"); got != 1.5 {
		t.Errorf("Expected au_ppm 1.5, got %v", iv.Extra["au_ppm"])
	}
}

func TestAttachAssayPositions_CollisionSuffix(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-001", From: 0, To: 4, Mid: 2, Extra: models.RawRow{"x": "keep-me"}},
	}

	out := AttachAssayPositions(intervals, testTraces())

	iv := out[0]
	if iv.Extra.String("x") != "keep-me" {
		t.Errorf("Expected interval's own x to survive, got %v", iv.Extra["x"])
	}
	if got, _ := iv.Extra.Float("x_trace"); got != 100 {
		t.Errorf("Expected trace x under x_trace, got %v", iv.Extra["x_trace"])
	}
	// Columns without a collision land unsuffixed.
	if got, _ := iv.Extra.Float("y"); got != 200 {
		t.Errorf("Expected y 200, got %v", iv.Extra["y"])
	}
}

func TestAttachAssayPositions_NoMatchingHole(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-999", From: 0, To: 2, Mid: 1},
	}

	out := AttachAssayPositions(intervals, testTraces())

	if out[0].Extra != nil {
		t.Errorf("Expected unmatched interval to pass through unmodified, got %v", out[0].Extra)
	}
}

func TestAttachAssayPositions_NonFiniteMid(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-001", From: 0, To: 2, Mid: math.NaN()},
	}

	out := AttachAssayPositions(intervals, testTraces())

	if out[0].Extra != nil {
		t.Errorf("Expected NaN mid to pass through unmodified, got %v", out[0].Extra)
	}
}

func TestAttachAssayPositions_DoesNotMutateInput(t *testing.T) {
	extra := models.RawRow{"au_ppm": 1.5}
	intervals := []models.Interval{
		{HoleID: "DH-001", From: 0, To: 2, Mid: 1, Extra: extra},
	}

	_ = AttachAssayPositions(intervals, testTraces())

	if len(extra) != 1 {
		t.Errorf("Expected input extras untouched, got %v", extra)
	}
}

func TestJoinAssaysToTraces_DefaultHoleID(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-002", From: 0, To: 5, Mid: 2.5},
		{HoleID: "DH-404", From: 0, To: 5, Mid: 2.5},
	}

	out := JoinAssaysToTraces(intervals, testTraces(), nil)

	// DH-001 has three trace rows; last wins, but DH-002 has one.
	matched := out[0]
	if got, _ := matched.Extra.Float("x"); got != 500 {
		t.Errorf("Expected DH-002 trace x 500, got %v", matched.Extra["x"])
	}

	if out[1].Extra != nil {
		t.Errorf("Expected unmatched key to pass through, got %v", out[1].Extra)
	}
}

func TestJoinAssaysToTraces_LastWinsOnDuplicateKeys(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-001", From: 0, To: 5, Mid: 2.5},
	}

	out := JoinAssaysToTraces(intervals, testTraces(), []string{"hole_id"})

	// All three DH-001 trace rows share the key; the last one kept wins.
	if got, _ := out[0].Extra.Float("md"); got != 20 {
		t.Errorf("Expected last DH-001 trace row (md 20), got %v", out[0].Extra["md"])
	}
}

func TestJoinAssaysToTraces_CompositeKey(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-001", From: 0, To: 20, Mid: 10},
	}

	out := JoinAssaysToTraces(intervals, testTraces(), []string{"hole_id", "mid"})

	// Traces carry no mid column, so no trace row can build this key and
	// the interval passes through.
	if out[0].Extra != nil {
		t.Errorf("Expected composite key with no trace column to pass through, got %v", out[0].Extra)
	}
}

func TestJoinAssaysToTraces_JoinOnMD(t *testing.T) {
	intervals := []models.Interval{
		{HoleID: "DH-001", From: 8, To: 12, Mid: 10, Extra: models.RawRow{"md": 10.0}},
	}

	out := JoinAssaysToTraces(intervals, testTraces(), []string{"hole_id", "md"})

	if got, _ := out[0].Extra.Float("x"); got != 101 {
		t.Errorf("Expected join on (hole_id, md) to hit the md 10 row, got %v", out[0].Extra)
	}
	// The interval's own md collides with the merged trace md.
	if got, _ := out[0].Extra.Float("md_trace"); got != 10 {
		t.Errorf("Expected md_trace 10, got %v", out[0].Extra["md_trace"])
	}
}
