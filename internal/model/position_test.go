package model

import (
	"math"
	"testing"
)

func TestPosition_Distances(t *testing.T) {
	a := NewPosition(0, 0, 0, 0)
	b := NewPosition(3, 4, 12, 0)

	if got := a.ExactDist2D(b); got != 5 {
		t.Errorf("ExactDist2D = %v, want 5", got)
	}
	if got := a.ExactDist(b); got != 13 {
		t.Errorf("ExactDist = %v, want 13", got)
	}
	if !a.IsWithinDist(b, 13) {
		t.Error("IsWithinDist at exact boundary should hold")
	}
	if a.IsWithinDist(b, 12.9) {
		t.Error("IsWithinDist just inside boundary should fail")
	}
}

func TestNormalizeOrientation(t *testing.T) {
	cases := []struct {
		in, want float32
	}{
		{0, 0},
		{float32(3 * math.Pi), float32(math.Pi)},
		{float32(-math.Pi / 2), float32(3 * math.Pi / 2)},
	}
	for _, tc := range cases {
		got := NormalizeOrientation(tc.in)
		if math.Abs(float64(got-tc.want)) > 1e-5 {
			t.Errorf("NormalizeOrientation(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPosition_HasInArc(t *testing.T) {
	// Facing +X from origin.
	p := NewPosition(0, 0, 0, 0)
	front := NewPosition(10, 0, 0, 0)
	behind := NewPosition(-10, 0, 0, 0)
	side := NewPosition(0, 10, 0, 0)

	if !p.HasInArc(math.Pi, front) {
		t.Error("target dead ahead should be inside a pi arc")
	}
	if p.HasInArc(math.Pi, behind) {
		t.Error("target behind should be outside a pi arc")
	}
	if !p.HasInArc(2*math.Pi, behind) {
		t.Error("a full-circle arc covers everything")
	}
	if !p.HasInArc(math.Pi+0.1, side) {
		t.Error("target at the flank sits on the pi boundary")
	}
}

func TestPosition_IsFinite(t *testing.T) {
	if !NewPosition(1, 2, 3, 0).IsFinite() {
		t.Error("ordinary position should be finite")
	}
	bad := Position{X: float32(math.NaN())}
	if bad.IsFinite() {
		t.Error("NaN component must not be finite")
	}
	inf := Position{Z: float32(math.Inf(1))}
	if inf.IsFinite() {
		t.Error("infinite component must not be finite")
	}
}

func TestPosition_OffsetBy(t *testing.T) {
	p := NewPosition(1, 2, 3, 1)
	q := p.OffsetBy(10, 20, 30)
	if q.X != 11 || q.Y != 22 || q.Z != 33 || q.O != p.O {
		t.Errorf("OffsetBy = %+v, want translated copy with same facing", q)
	}
	if p.X != 1 {
		t.Error("OffsetBy must not mutate the receiver")
	}
}
