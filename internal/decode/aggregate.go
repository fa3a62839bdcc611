package decode

import "github.com/lehigh-university-libraries/stitcher/internal/models"

// Aggregates are running extents over decoded entries. Add is commutative
// and associative, so the result does not depend on arrival order.
type Aggregates struct {
	Count int `json:"count"`
	MinW  int `json:"min_width"`
	MaxW  int `json:"max_width"`
	SumW  int `json:"sum_width"`
	MinH  int `json:"min_height"`
	MaxH  int `json:"max_height"`
	SumH  int `json:"sum_height"`
}

// Add folds d into a.
func (a Aggregates) Add(d models.Dimensions) Aggregates {
	if a.Count == 0 {
		return Aggregates{Count: 1, MinW: d.Width, MaxW: d.Width, SumW: d.Width, MinH: d.Height, MaxH: d.Height, SumH: d.Height}
	}
	return Aggregates{
		Count: a.Count + 1,
		MinW:  min(a.MinW, d.Width),
		MaxW:  max(a.MaxW, d.Width),
		SumW:  a.SumW + d.Width,
		MinH:  min(a.MinH, d.Height),
		MaxH:  max(a.MaxH, d.Height),
		SumH:  a.SumH + d.Height,
	}
}

// Merge combines two partial folds.
func (a Aggregates) Merge(b Aggregates) Aggregates {
	switch {
	case a.Count == 0:
		return b
	case b.Count == 0:
		return a
	}
	return Aggregates{
		Count: a.Count + b.Count,
		MinW:  min(a.MinW, b.MinW),
		MaxW:  max(a.MaxW, b.MaxW),
		SumW:  a.SumW + b.SumW,
		MinH:  min(a.MinH, b.MinH),
		MaxH:  max(a.MaxH, b.MaxH),
		SumH:  a.SumH + b.SumH,
	}
}
