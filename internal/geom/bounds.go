package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// collinearTolerance is the Douglas-Peucker threshold used by Compress. Anything above
// floating point noise would let the compressed path cut corners.
const collinearTolerance = 1e-9

// BoundsOf returns the axis-aligned bounding box of a point set.
func BoundsOf(points []Point) orb.Bound {
	if len(points) == 0 {
		return orb.Bound{}
	}

	bound := orb.Bound{Min: points[0].Orb(), Max: points[0].Orb()}
	for _, p := range points[1:] {
		bound = bound.Extend(p.Orb())
	}
	return bound
}

// Orb converts the point to an orb point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrb converts an orb point.
func FromOrb(p orb.Point) Point {
	return Point{X: p.X(), Y: p.Y()}
}

// Compress drops interior path points that lie on the straight line between their
// neighbours, leaving only the turning points. The polyline it describes is unchanged.
func Compress(path []Point) []Point {
	if len(path) <= 2 {
		return append([]Point(nil), path...)
	}

	ls := make(orb.LineString, len(path))
	for i, p := range path {
		ls[i] = p.Orb()
	}

	simplified := simplify.DouglasPeucker(collinearTolerance).LineString(ls)

	compressed := make([]Point, len(simplified))
	for i, p := range simplified {
		compressed[i] = FromOrb(p)
	}
	return compressed
}
