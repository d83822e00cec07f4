package search

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// default values for planner options.
const (
	// Cost of one axis-aligned grid step before zone adjustments.
	defaultUnitCost = 1.0

	// Maximum distance the RRT grows the tree per iteration.
	defaultExpandDistance = 1.0

	// Check segments for collisions every this many world units.
	defaultPathResolution = 0.5

	// Probability of sampling the goal instead of a random point.
	defaultGoalSampleRate = 0.1

	// Number of RRT iterations before giving up.
	defaultPlanIter = 5000
)

// Heuristic selects how the grid search estimates the remaining cost.
type Heuristic string

const (
	// HeuristicAdmissible scales the Euclidean distance by the cost model's lower bound
	// on the per-step cost, so reward discounts never make it overestimate.
	HeuristicAdmissible Heuristic = "admissible"

	// HeuristicEuclidean uses the raw Euclidean distance. With reward zones present it
	// can overestimate and the returned route may not be optimal.
	HeuristicEuclidean Heuristic = "euclidean"
)

// GridOptions tunes the grid search.
type GridOptions struct {
	// Diagonal adds the four diagonal moves (cost √2) to the axis-aligned ones.
	Diagonal bool `json:"diagonal" yaml:"diagonal"`

	UnitCost  float64   `json:"unit_cost" yaml:"unit_cost"`
	Heuristic Heuristic `json:"heuristic" yaml:"heuristic"`

	Logger *zap.SugaredLogger `json:"-" yaml:"-"`
}

// NewDefaultGridOptions returns 8-connected search with the admissible heuristic.
func NewDefaultGridOptions() *GridOptions {
	return &GridOptions{
		Diagonal:  true,
		UnitCost:  defaultUnitCost,
		Heuristic: HeuristicAdmissible,
		Logger:    zap.NewNop().Sugar(),
	}
}

func (o *GridOptions) validate() error {
	if o.UnitCost <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "unit cost must be positive, got %v", o.UnitCost)
	}
	switch o.Heuristic {
	case HeuristicAdmissible, HeuristicEuclidean:
	default:
		return errors.Wrapf(ErrInvalidOptions, "unknown heuristic %q", o.Heuristic)
	}
	return nil
}

// RRTOptions tunes the sampling-based search.
type RRTOptions struct {
	ExpandDistance float64 `json:"expand_distance" yaml:"expand_distance"`
	PathResolution float64 `json:"path_resolution" yaml:"path_resolution"`
	GoalSampleRate float64 `json:"goal_sample_rate" yaml:"goal_sample_rate"`
	PlanIter       int     `json:"plan_iter" yaml:"plan_iter"`

	// Seed for the per-call random source. Zero seeds from the clock.
	Seed int64 `json:"seed" yaml:"seed"`

	Logger *zap.SugaredLogger `json:"-" yaml:"-"`
}

// NewDefaultRRTOptions returns the reference tuning with a clock seed.
func NewDefaultRRTOptions() *RRTOptions {
	return &RRTOptions{
		ExpandDistance: defaultExpandDistance,
		PathResolution: defaultPathResolution,
		GoalSampleRate: defaultGoalSampleRate,
		PlanIter:       defaultPlanIter,
		Logger:         zap.NewNop().Sugar(),
	}
}

func (o *RRTOptions) validate() error {
	if o.ExpandDistance <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "expand distance must be positive, got %v", o.ExpandDistance)
	}
	if o.PathResolution <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "path resolution must be positive, got %v", o.PathResolution)
	}
	if o.GoalSampleRate < 0 || o.GoalSampleRate > 1 {
		return errors.Wrapf(ErrInvalidOptions, "goal sample rate must be in [0, 1], got %v", o.GoalSampleRate)
	}
	if o.PlanIter <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "plan iterations must be positive, got %d", o.PlanIter)
	}
	return nil
}
