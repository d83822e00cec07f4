// Package route chains a single search strategy through an ordered list of mandatory
// waypoints.
package route

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"flight-planner/internal/geom"
	"flight-planner/internal/search"
)

// Plan is a complete multi-leg route.
type Plan struct {
	Path     []geom.Point // start, through every waypoint, to goal
	Cost     float64      // sum of LegCosts
	LegCosts []float64
	Expanded int            // summed over legs
	Edges    []geom.Segment // search tree edges of every leg, RRT only
}

// Assembler plans every leg with the same planner.
type Assembler struct {
	Planner search.Planner

	// Parallel plans legs concurrently. Output is identical to sequential mode.
	Parallel bool

	Logger *zap.SugaredLogger
}

// NewAssembler returns a sequential assembler around planner.
func NewAssembler(planner search.Planner, logger *zap.SugaredLogger) *Assembler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Assembler{Planner: planner, Logger: logger}
}

// Plan routes start → waypoints[0] → … → goal. The first failing leg aborts the whole
// plan; its error is wrapped with the leg number so errors.Is still matches the
// planner's sentinel.
func (a *Assembler) Plan(ctx context.Context, start geom.Point, waypoints []geom.Point, goal geom.Point) (*Plan, error) {
	if a.Planner == nil {
		return nil, errors.New("route assembler has no planner")
	}

	stops := make([]geom.Point, 0, len(waypoints)+2)
	stops = append(stops, start)
	stops = append(stops, waypoints...)
	stops = append(stops, goal)

	legs := make([]*search.Result, len(stops)-1)
	var err error
	if a.Parallel && len(legs) > 1 {
		err = a.planParallel(ctx, stops, legs)
	} else {
		err = a.planSequential(ctx, stops, legs)
	}
	if err != nil {
		return nil, err
	}

	plan := join(legs)
	a.logger().Debugw("route assembled",
		"planner", a.Planner.Name(), "legs", len(legs), "points", len(plan.Path), "cost", plan.Cost)
	return plan, nil
}

func (a *Assembler) planSequential(ctx context.Context, stops []geom.Point, legs []*search.Result) error {
	for i := range legs {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := a.planLeg(i, stops[i], stops[i+1])
		if err != nil {
			return err
		}
		legs[i] = res
	}
	return nil
}

func (a *Assembler) planParallel(ctx context.Context, stops []geom.Point, legs []*search.Result) error {
	// Legs do not cancel each other: every leg records its own error so that the lowest
	// failing leg is reported no matter which goroutine finished first.
	var g errgroup.Group
	legErrs := make([]error, len(legs))
	for i := range legs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				legErrs[i] = err
				return err
			}
			res, err := a.planLeg(i, stops[i], stops[i+1])
			if err != nil {
				legErrs[i] = err
				return err
			}
			legs[i] = res
			return nil
		})
	}

	groupErr := g.Wait()
	for _, err := range legErrs {
		if err != nil {
			return err
		}
	}
	return groupErr
}

func (a *Assembler) planLeg(i int, from, to geom.Point) (*search.Result, error) {
	res, err := a.Planner.Plan(from, to)
	if err != nil {
		return nil, errors.Wrapf(err, "leg %d (%.3f, %.3f) -> (%.3f, %.3f)", i+1, from.X, from.Y, to.X, to.Y)
	}
	a.logger().Debugw("leg planned", "leg", i+1, "cost", res.Cost, "points", len(res.Path))
	return res, nil
}

func (a *Assembler) logger() *zap.SugaredLogger {
	if a.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return a.Logger
}

// join concatenates leg paths, dropping the last point of every leg but the final one
// so each junction appears once.
func join(legs []*search.Result) *Plan {
	plan := &Plan{LegCosts: make([]float64, len(legs))}
	for i, leg := range legs {
		path := leg.Path
		if i < len(legs)-1 && len(path) > 0 {
			path = path[:len(path)-1]
		}
		plan.Path = append(plan.Path, path...)
		plan.LegCosts[i] = leg.Cost
		plan.Cost += leg.Cost
		plan.Expanded += leg.Expanded
		plan.Edges = append(plan.Edges, leg.Edges...)
	}
	return plan
}
