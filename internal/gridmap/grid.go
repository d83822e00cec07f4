// Package gridmap rasterises obstacle point sets into an immutable occupancy grid.
package gridmap

import (
	"math"

	"github.com/pkg/errors"

	"flight-planner/internal/geom"
)

// ErrInvalidMap is returned when the obstacle set or map parameters cannot produce a grid.
var ErrInvalidMap = errors.New("invalid obstacle map")

// OccupancyGrid marks the cells whose centre lies within the clearance radius of an
// obstacle point. It is read-only once built and safe to share between planners.
type OccupancyGrid struct {
	Resolution float64
	Clearance  float64

	MinX, MinY int
	MaxX, MaxY int
	XWidth     int
	YWidth     int

	occupied [][]bool // [ix][iy]
}

// Build computes grid bounds from the obstacle extents and marks every cell within
// clearance of an obstacle point as occupied.
func Build(obstacles []geom.Point, resolution, clearance float64) (*OccupancyGrid, error) {
	if len(obstacles) == 0 {
		return nil, errors.Wrap(ErrInvalidMap, "no obstacle points")
	}
	if resolution <= 0 || math.IsNaN(resolution) {
		return nil, errors.Wrapf(ErrInvalidMap, "resolution must be positive, got %v", resolution)
	}
	if clearance < 0 || math.IsNaN(clearance) {
		return nil, errors.Wrapf(ErrInvalidMap, "clearance must not be negative, got %v", clearance)
	}

	bound := geom.BoundsOf(obstacles)
	g := &OccupancyGrid{
		Resolution: resolution,
		Clearance:  clearance,
		MinX:       int(math.Round(bound.Min.X())),
		MinY:       int(math.Round(bound.Min.Y())),
		MaxX:       int(math.Round(bound.Max.X())),
		MaxY:       int(math.Round(bound.Max.Y())),
	}

	g.XWidth = int(math.Round(float64(g.MaxX-g.MinX) / resolution))
	g.YWidth = int(math.Round(float64(g.MaxY-g.MinY) / resolution))

	// A single point or a degenerate line still gets one cell.
	if g.XWidth <= 0 {
		g.XWidth = 1
	}
	if g.YWidth <= 0 {
		g.YWidth = 1
	}

	index := newObstacleIndex(obstacles)

	g.occupied = make([][]bool, g.XWidth)
	for ix := 0; ix < g.XWidth; ix++ {
		g.occupied[ix] = make([]bool, g.YWidth)
		x := g.CalcGridPosition(ix, g.MinX)
		for iy := 0; iy < g.YWidth; iy++ {
			y := g.CalcGridPosition(iy, g.MinY)
			g.occupied[ix][iy] = index.anyWithin(geom.Point{X: x, Y: y}, clearance)
		}
	}

	return g, nil
}

// CalcGridPosition converts a cell index on one axis to its world coordinate.
func (g *OccupancyGrid) CalcGridPosition(index, minPosition int) float64 {
	return float64(index)*g.Resolution + float64(minPosition)
}

// CalcXYIndex converts a world coordinate on one axis to the nearest cell index.
// Halves round to even.
func (g *OccupancyGrid) CalcXYIndex(position float64, minPosition int) int {
	return int(math.RoundToEven((position - float64(minPosition)) / g.Resolution))
}

// CellOf returns the cell indices nearest to p.
func (g *OccupancyGrid) CellOf(p geom.Point) (int, int) {
	return g.CalcXYIndex(p.X, g.MinX), g.CalcXYIndex(p.Y, g.MinY)
}

// CellCenter returns the world position of a cell centre.
func (g *OccupancyGrid) CellCenter(ix, iy int) geom.Point {
	return geom.Point{X: g.CalcGridPosition(ix, g.MinX), Y: g.CalcGridPosition(iy, g.MinY)}
}

// GridIndex is the identity of a cell in search maps.
func (g *OccupancyGrid) GridIndex(ix, iy int) int {
	return iy*g.XWidth + ix
}

// InBounds reports whether p lies inside [min, max) on both axes.
func (g *OccupancyGrid) InBounds(p geom.Point) bool {
	return p.X >= float64(g.MinX) && p.Y >= float64(g.MinY) &&
		p.X < float64(g.MaxX) && p.Y < float64(g.MaxY)
}

// IsFreeCell reports whether the cell exists, lies inside the world bounds and is not
// occupied.
func (g *OccupancyGrid) IsFreeCell(ix, iy int) bool {
	if ix < 0 || iy < 0 || ix >= g.XWidth || iy >= g.YWidth {
		return false
	}
	if !g.InBounds(g.CellCenter(ix, iy)) {
		return false
	}
	return !g.occupied[ix][iy]
}

// IsFree reports whether a world position is inside the map and its nearest cell is free.
func (g *OccupancyGrid) IsFree(p geom.Point) bool {
	if !g.InBounds(p) {
		return false
	}
	ix, iy := g.CellOf(p)
	return g.IsFreeCell(ix, iy)
}

// IsSegmentFree samples the segment every step (endpoints included) and reports
// whether every sample is free.
func (g *OccupancyGrid) IsSegmentFree(seg geom.Segment, step float64) bool {
	for _, p := range seg.Sample(step) {
		if !g.IsFree(p) {
			return false
		}
	}
	return true
}

// Occupied lists the centres of all occupied cells, column by column.
func (g *OccupancyGrid) Occupied() []geom.Point {
	var cells []geom.Point
	for ix := 0; ix < g.XWidth; ix++ {
		for iy := 0; iy < g.YWidth; iy++ {
			if g.occupied[ix][iy] {
				cells = append(cells, g.CellCenter(ix, iy))
			}
		}
	}
	return cells
}

// FreeCells counts the cells a planner may enter.
func (g *OccupancyGrid) FreeCells() int {
	free := 0
	for ix := 0; ix < g.XWidth; ix++ {
		for iy := 0; iy < g.YWidth; iy++ {
			if g.IsFreeCell(ix, iy) {
				free++
			}
		}
	}
	return free
}
