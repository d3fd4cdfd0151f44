package model

import "math"

// Position is a 3D point plus facing in map coordinates.
// Value type, passed by value (immutable).
type Position struct {
	X float32
	Y float32
	Z float32
	O float32 // orientation in radians, [0, 2π)
}

// NewPosition creates a Position with a normalized orientation.
func NewPosition(x, y, z, o float32) Position {
	return Position{X: x, Y: y, Z: z, O: NormalizeOrientation(o)}
}

// NormalizeOrientation wraps an angle into [0, 2π).
func NormalizeOrientation(o float32) float32 {
	twoPi := float32(2 * math.Pi)
	o = float32(math.Mod(float64(o), float64(twoPi)))
	if o < 0 {
		o += twoPi
	}
	return o
}

// WithOrientation returns a copy with the facing replaced.
func (p Position) WithOrientation(o float32) Position {
	p.O = NormalizeOrientation(o)
	return p
}

// ExactDist2DSq returns the squared 2D distance to other.
func (p Position) ExactDist2DSq(other Position) float32 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// ExactDist2D returns the 2D distance to other.
func (p Position) ExactDist2D(other Position) float32 {
	return float32(math.Sqrt(float64(p.ExactDist2DSq(other))))
}

// ExactDistSq returns the squared 3D distance to other.
func (p Position) ExactDistSq(other Position) float32 {
	dz := p.Z - other.Z
	return p.ExactDist2DSq(other) + dz*dz
}

// ExactDist returns the 3D distance to other.
func (p Position) ExactDist(other Position) float32 {
	return float32(math.Sqrt(float64(p.ExactDistSq(other))))
}

// IsWithinDist reports whether other lies within dist (3D).
func (p Position) IsWithinDist(other Position, dist float32) bool {
	return p.ExactDistSq(other) <= dist*dist
}

// AngleTo returns the absolute angle from p to other, in [0, 2π).
func (p Position) AngleTo(other Position) float32 {
	dx := float64(other.X - p.X)
	dy := float64(other.Y - p.Y)
	return NormalizeOrientation(float32(math.Atan2(dy, dx)))
}

// RelativeAngleTo returns the angle to other relative to p's facing,
// normalized into [-π, π].
func (p Position) RelativeAngleTo(other Position) float32 {
	angle := float64(p.AngleTo(other)) - float64(p.O)
	angle = math.Mod(angle+math.Pi, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return float32(angle - math.Pi)
}

// HasInArc reports whether other lies inside the arc (centered on p's facing,
// arc radians wide).
func (p Position) HasInArc(arc float32, other Position) bool {
	rel := p.RelativeAngleTo(other)
	half := arc / 2
	return rel >= -half && rel <= half
}

// OffsetBy returns a copy translated by (dx, dy, dz).
func (p Position) OffsetBy(dx, dy, dz float32) Position {
	p.X += dx
	p.Y += dy
	p.Z += dz
	return p
}

// IsFinite reports whether all components are finite numbers. Entities must
// never be placed at a non-finite position.
func (p Position) IsFinite() bool {
	for _, v := range [4]float32{p.X, p.Y, p.Z, p.O} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// LineOfSight is the collaborator answering terrain line-of-sight queries.
// The map's geometry backend implements it; tests substitute fixed answers.
type LineOfSight interface {
	InLineOfSight(from, to Position) bool
}

// openLOS is the default backend used when a map has no geometry loaded:
// every pair of points sees each other.
type openLOS struct{}

func (openLOS) InLineOfSight(Position, Position) bool { return true }

// OpenLineOfSight returns a LineOfSight that always answers true.
func OpenLineOfSight() LineOfSight { return openLOS{} }
