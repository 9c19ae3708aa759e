// Package curve models zero/par rate curves as ordered (tenor, rate) points
// and provides interpolation with a defined extrapolation policy.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCurveRange is returned when a tenor falls outside the curve and
// extrapolation has been explicitly disabled.
var ErrCurveRange = errors.New("tenor outside curve range")

// Point is a single (tenor in years, rate as decimal) curve node.
type Point struct {
	Tenor float64 `json:"tenor"`
	Rate  float64 `json:"rate"`
}

// Curve is an ordered sequence of points for one currency and one as-of date.
// Tenors are strictly increasing and non-negative.
type Curve struct {
	points []Point
}

// New validates and sorts the points into a Curve. At least one point is
// required; duplicate tenors are rejected.
func New(points []Point) (*Curve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("curve.New: at least one point is required")
	}
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tenor < sorted[j].Tenor })
	for i, p := range sorted {
		if p.Tenor < 0 {
			return nil, fmt.Errorf("curve.New: negative tenor %.6f", p.Tenor)
		}
		if i > 0 && p.Tenor == sorted[i-1].Tenor {
			return nil, fmt.Errorf("curve.New: duplicate tenor %.6f", p.Tenor)
		}
	}
	return &Curve{points: sorted}, nil
}

// Points returns a copy of the curve nodes in tenor order.
func (c *Curve) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Len returns the number of nodes.
func (c *Curve) Len() int { return len(c.points) }

// BumpNode returns a new curve with node i shifted by delta, all other nodes
// held fixed. Used for key rate bumps.
func (c *Curve) BumpNode(i int, delta float64) (*Curve, error) {
	if i < 0 || i >= len(c.points) {
		return nil, fmt.Errorf("curve.BumpNode: node %d out of range [0,%d)", i, len(c.points))
	}
	bumped := c.Points()
	bumped[i].Rate += delta
	return &Curve{points: bumped}, nil
}

// ParallelShift returns a new curve with every node shifted by delta.
func (c *Curve) ParallelShift(delta float64) *Curve {
	shifted := c.Points()
	for i := range shifted {
		shifted[i].Rate += delta
	}
	return &Curve{points: shifted}
}

// bracket returns the index i such that points[i].Tenor <= t < points[i+1].Tenor.
// Callers handle t outside [first, last] before calling.
func (c *Curve) bracket(t float64) int {
	i := sort.Search(len(c.points), func(i int) bool { return c.points[i].Tenor > t })
	if i == 0 {
		return 0
	}
	return i - 1
}
