package gridmap

import (
	"github.com/dhconnelly/rtreego"

	"flight-planner/internal/geom"
)

// pointPadding gives obstacle points a non-degenerate box, rtreego rejects zero lengths.
const pointPadding = 1e-9

// obstacleEntry wraps an obstacle point for R-tree storage
type obstacleEntry struct {
	Point geom.Point
	BBox  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (o *obstacleEntry) Bounds() rtreego.Rect {
	return o.BBox
}

// obstacleIndex answers "which obstacle points are near this position" without scanning
// the full obstacle list for every grid cell.
type obstacleIndex struct {
	tree *rtreego.Rtree
}

func newObstacleIndex(points []geom.Point) *obstacleIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	for _, p := range points {
		bbox, err := squareAround(p, pointPadding)
		if err != nil {
			continue
		}
		tree.Insert(&obstacleEntry{Point: p, BBox: bbox})
	}

	return &obstacleIndex{tree: tree}
}

// anyWithin reports whether some obstacle point lies within radius (inclusive) of p.
func (idx *obstacleIndex) anyWithin(p geom.Point, radius float64) bool {
	bbox, err := squareAround(p, radius+pointPadding)
	if err != nil {
		return false
	}

	for _, item := range idx.tree.SearchIntersect(bbox) {
		entry := item.(*obstacleEntry)
		if entry.Point.Distance(p) <= radius {
			return true
		}
	}
	return false
}

// squareAround builds the axis-aligned square of half-width half centred on p.
func squareAround(p geom.Point, half float64) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{p.X - half, p.Y - half},
		[]float64{2 * half, 2 * half},
	)
}
