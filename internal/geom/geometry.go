// Package geom holds the planar primitives shared by the map builder, the cost model
// and the planners.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Segment is a straight line between two points.
type Segment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Vec returns the point as a gonum vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// To returns the displacement vector from p to other.
func (p Point) To(other Point) r2.Vec {
	return r2.Sub(other.Vec(), p.Vec())
}

// Midpoint returns the point halfway between p and other.
func (p Point) Midpoint(other Point) Point {
	return Point{X: (p.X + other.X) / 2, Y: (p.Y + other.Y) / 2}
}

// Lerp interpolates between p (t=0) and other (t=1).
func (p Point) Lerp(other Point, t float64) Point {
	return Point{X: p.X + t*(other.X-p.X), Y: p.Y + t*(other.Y-p.Y)}
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return s.P1.Distance(s.P2)
}

// Sample returns points along the segment spaced at most step apart, both endpoints
// included. A degenerate segment yields its single point.
func (s Segment) Sample(step float64) []Point {
	length := s.Length()
	if length == 0 || step <= 0 {
		return []Point{s.P1}
	}

	n := int(math.Ceil(length / step))
	points := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		points = append(points, s.P1.Lerp(s.P2, float64(i)/float64(n)))
	}
	return points
}

// PathLength sums the Euclidean lengths of the consecutive path segments.
func PathLength(path []Point) float64 {
	var total float64
	for i := 0; i < len(path)-1; i++ {
		total += path[i].Distance(path[i+1])
	}
	return total
}

// Reverse reverses a path in place.
func Reverse(path []Point) {
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
}
