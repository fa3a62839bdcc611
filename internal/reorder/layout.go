package reorder

import (
	"math"
)

// Point is a screen position in layout units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout reports where rows currently sit on screen.
type Layout interface {
	// Top returns the vertical top coordinate of the row for id.
	Top(id string) (float64, bool)
	// HitTest returns the id of the row under p.
	HitTest(p Point) (string, bool)
}

// Rows is the read side of the ordered list a RowLayout needs.
type Rows interface {
	OrderedIDs() []string
	Index(id string) int
}

// RowLayout stacks rows of equal height downward from Origin.
// A zero Width accepts any X.
type RowLayout struct {
	Rows      Rows
	Origin    Point
	RowHeight float64
	Width     float64
}

func (r RowLayout) height() float64 {
	if r.RowHeight <= 0 {
		return 1
	}
	return r.RowHeight
}

func (r RowLayout) Top(id string) (float64, bool) {
	i := r.Rows.Index(id)
	if i < 0 {
		return 0, false
	}
	return r.Origin.Y + float64(i)*r.height(), true
}

func (r RowLayout) HitTest(p Point) (string, bool) {
	if r.Width > 0 && (p.X < r.Origin.X || p.X >= r.Origin.X+r.Width) {
		return "", false
	}
	dy := p.Y - r.Origin.Y
	if dy < 0 {
		return "", false
	}
	i := int(math.Floor(dy / r.height()))
	ids := r.Rows.OrderedIDs()
	if i >= len(ids) {
		return "", false
	}
	return ids[i], true
}
