package scenario

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
	"flight-planner/internal/search"
)

// Placement is the outcome of one reward band position.
type Placement struct {
	BandY float64      `json:"bandY"` // first row of the band
	Cost  float64      `json:"cost"`  // +Inf when no route exists
	Found bool         `json:"found"`
	Path  []geom.Point `json:"-"`
}

// SweepResult lists every placement in row order and points at the cheapest.
type SweepResult struct {
	Placements []Placement
	Best       int // index into Placements
}

// BestPlacement returns the cheapest placement.
func (r *SweepResult) BestPlacement() Placement {
	return r.Placements[r.Best]
}

// SweepRewardBand slides a horizontal reward band across the configured rows, plans
// start to goal with the scenario's penalty zones plus the band at every position and
// returns the cheapest placement. Earlier rows win ties. Placements without a route
// are recorded with infinite cost; any other planning error aborts the sweep.
func (s *Scenario) SweepRewardBand(ctx context.Context, sweep SweepConfig, strategy string, start, goal geom.Point) (*SweepResult, error) {
	if sweep.Height <= 0 || sweep.ToY < sweep.FromY || sweep.X1 < sweep.X0 {
		return nil, errors.Wrap(ErrInvalidConfig, "sweep range is empty")
	}

	var rows []float64
	for y := sweep.FromY; y <= sweep.ToY; y++ {
		rows = append(rows, y)
	}
	placements := make([]Placement, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	if sweep.Concurrency > 0 {
		g.SetLimit(sweep.Concurrency)
	}

	for i, y := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			model := cost.NewModel(s.Model.Penalties, []cost.RewardZone{s.bandZone(sweep, y)})
			planner, err := s.PlannerWithModel(strategy, model)
			if err != nil {
				return err
			}

			res, err := planner.Plan(start, goal)
			switch {
			case errors.Is(err, search.ErrNoPath):
				placements[i] = Placement{BandY: y, Cost: math.Inf(1)}
				return nil
			case err != nil:
				return errors.Wrapf(err, "band at y=%v", y)
			}

			placements[i] = Placement{BandY: y, Cost: res.Cost, Found: true, Path: res.Path}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := -1
	for i, p := range placements {
		if p.Found && (best < 0 || p.Cost < placements[best].Cost) {
			best = i
		}
	}
	if best < 0 {
		return nil, errors.Wrapf(search.ErrNoPath, "no band placement between y=%v and y=%v", sweep.FromY, sweep.ToY)
	}

	s.logger.Infof("🏆 Best reward band starts at y=%v, cost %.2f (%d placements)",
		placements[best].BandY, placements[best].Cost, len(placements))
	return &SweepResult{Placements: placements, Best: best}, nil
}

// bandZone is the reward zone over the cells from row y to y+Height-1 across X0..X1.
// A band that misses every cell leaves the placement undiscounted.
func (s *Scenario) bandZone(sweep SweepConfig, y float64) cost.RewardZone {
	band := Area{Rect: &Rect{X0: sweep.X0, X1: sweep.X1, Y0: y, Y1: y + float64(sweep.Height-1)}}
	return cost.RewardZone{
		Name:           "band",
		Zone:           cost.NewZone(band.cells(s.Grid)),
		Field:          sweep.Direction,
		MaxDiscount:    sweep.MaxDiscount,
		CounterPenalty: sweep.CounterPenalty,
	}
}
