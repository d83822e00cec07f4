package geom

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestSegmentSampleIncludesEndpoints(t *testing.T) {
	seg := Segment{P1: Point{0, 0}, P2: Point{3, 4}}
	points := seg.Sample(0.5)

	test.That(t, len(points), test.ShouldEqual, 11)
	test.That(t, points[0], test.ShouldResemble, Point{0, 0})
	test.That(t, points[len(points)-1].X, test.ShouldAlmostEqual, 3.0)
	test.That(t, points[len(points)-1].Y, test.ShouldAlmostEqual, 4.0)
	for i := 0; i < len(points)-1; i++ {
		test.That(t, points[i].Distance(points[i+1]), test.ShouldBeLessThanOrEqualTo, 0.5+1e-9)
	}

	degenerate := Segment{P1: Point{1, 1}, P2: Point{1, 1}}
	test.That(t, degenerate.Sample(0.5), test.ShouldResemble, []Point{{1, 1}})
}

func TestPathLengthAndReverse(t *testing.T) {
	path := []Point{{0, 0}, {1, 0}, {2, 1}}
	test.That(t, PathLength(path), test.ShouldAlmostEqual, 1+math.Sqrt2)

	Reverse(path)
	test.That(t, path, test.ShouldResemble, []Point{{2, 1}, {1, 0}, {0, 0}})
}

func TestMidpointAndVector(t *testing.T) {
	a, b := Point{0, 2}, Point{4, 6}
	test.That(t, a.Midpoint(b), test.ShouldResemble, Point{2, 4})

	v := a.To(b)
	test.That(t, v.X, test.ShouldEqual, 4.0)
	test.That(t, v.Y, test.ShouldEqual, 4.0)
}

func TestBoundsOf(t *testing.T) {
	bound := BoundsOf([]Point{{1, 5}, {-2, 3}, {4, -1}})
	test.That(t, bound.Min.X(), test.ShouldEqual, -2.0)
	test.That(t, bound.Min.Y(), test.ShouldEqual, -1.0)
	test.That(t, bound.Max.X(), test.ShouldEqual, 4.0)
	test.That(t, bound.Max.Y(), test.ShouldEqual, 5.0)
}

func TestCompressKeepsTurningPoints(t *testing.T) {
	path := []Point{{0, 0}, {1, 0}, {2, 0}, {3, 1}, {4, 2}, {4, 3}}
	compressed := Compress(path)

	test.That(t, compressed, test.ShouldResemble, []Point{{0, 0}, {2, 0}, {4, 2}, {4, 3}})
	test.That(t, PathLength(compressed), test.ShouldAlmostEqual, PathLength(path))

	short := []Point{{0, 0}, {1, 1}}
	test.That(t, Compress(short), test.ShouldResemble, short)
}
