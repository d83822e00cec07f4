// Package search implements the two route search strategies over an occupancy grid and
// a cost model: a deterministic grid A* and a sampling-based RRT.
package search

import (
	"math"

	"github.com/pkg/errors"

	"flight-planner/internal/geom"
)

var (
	// ErrInvalidEndpoint is returned before searching when the start or goal lies outside
	// the map or inside an occupied cell.
	ErrInvalidEndpoint = errors.New("start or goal is outside the map or inside an obstacle")

	// ErrNoPath is returned when the search space or iteration budget is exhausted.
	ErrNoPath = errors.New("no path found")

	// ErrInvalidOptions is returned by planner constructors for unusable tuning.
	ErrInvalidOptions = errors.New("invalid planner options")
)

// Planner finds a least-cost route between two world positions.
type Planner interface {
	// Plan returns the route from start to goal. On ErrNoPath the result is still
	// returned, with an empty path and infinite cost.
	Plan(start, goal geom.Point) (*Result, error)

	// Name returns the strategy name.
	Name() string
}

// Result is the outcome of one search.
type Result struct {
	Path     []geom.Point   // start to goal, world coordinates
	Cost     float64        // accumulated cost, +Inf when no path exists
	Expanded int            // closed nodes (grid) or tree size (RRT)
	Edges    []geom.Segment // tree edges, RRT only
}

// Found reports whether the result holds a route.
func (r *Result) Found() bool {
	return r != nil && len(r.Path) > 0 && !math.IsInf(r.Cost, 1)
}

func noPath(expanded int) *Result {
	return &Result{Cost: math.Inf(1), Expanded: expanded}
}
