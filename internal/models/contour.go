package models

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Distance returns the Euclidean distance between two pixels.
func (p Point) Distance(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Contour is a closed, cyclic sequence of boundary pixels produced by the
// edge tracer. Consecutive points are 8-connected and the last point
// connects back to the first.
type Contour struct {
	// Points holds the boundary in traversal order
	Points []Point

	// Area is the number of pixels filled inside the boundary when the
	// contour was accepted; it ranks regions for selection
	Area int
}

// Len returns the number of boundary points.
func (c Contour) Len() int { return len(c.Points) }

// First returns the first traced point, the pixel where tracing started.
func (c Contour) First() Point { return c.Points[0] }

// Coordinates splits points into their x and y coordinates.
func Coordinates(points []Point) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
	}
	return xs, ys
}

// Centroid returns the mean coordinate of points. An empty set has no
// centroid and yields NaN for both coordinates.
func Centroid(points []Point) (x, y float64) {
	if len(points) == 0 {
		return math.NaN(), math.NaN()
	}
	xs, ys := Coordinates(points)
	return stat.Mean(xs, nil), stat.Mean(ys, nil)
}
