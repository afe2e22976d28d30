// Package geometry holds the 2D value types shared by the diagram element
// tree: a [Position] and a [Rect]. Coordinates are in diagram units (pixels
// in the editor) with the origin at the top-left corner and y growing down.
package geometry

import "strconv"

// Position is a point relative to some parent origin.
type Position struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Position) Add(q Position) Position {
	return Position{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect is a positioned rectangle.
type Rect struct {
	X, Y float64
	W, H float64
}

// Pos returns the top-left corner of r.
func (r Rect) Pos() Position { return Position{X: r.X, Y: r.Y} }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// At returns a copy of r moved to p.
func (r Rect) At(p Position) Rect {
	r.X, r.Y = p.X, p.Y
	return r
}

// Contains reports whether o lies fully inside r. Edges are inclusive.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Format renders a coordinate the way the diagram schema expects it:
// integral values without a fractional part, others in shortest form.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
