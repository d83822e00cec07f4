package search

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// motion is a grid move: cell offset and nominal distance.
type motion struct {
	dx, dy int
	cost   float64
}

func (m motion) vec() r2.Vec {
	return r2.Vec{X: float64(m.dx), Y: float64(m.dy)}
}

var axisMotions = []motion{
	{1, 0, 1},
	{0, 1, 1},
	{-1, 0, 1},
	{0, -1, 1},
}

var diagonalMotions = []motion{
	{-1, -1, math.Sqrt2},
	{-1, 1, math.Sqrt2},
	{1, -1, math.Sqrt2},
	{1, 1, math.Sqrt2},
}

// motionModel returns the axis-aligned moves, followed by the diagonals when enabled.
func motionModel(diagonal bool) []motion {
	motions := append([]motion(nil), axisMotions...)
	if diagonal {
		motions = append(motions, diagonalMotions...)
	}
	return motions
}
