package scenario

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
	"flight-planner/internal/gridmap"
	"flight-planner/internal/route"
	"flight-planner/internal/search"
)

// Scenario is a built map: the shared immutable grid and cost model plus the config
// they came from.
type Scenario struct {
	Config    *Config
	Obstacles []geom.Point
	Grid      *gridmap.OccupancyGrid
	Model     *cost.Model

	logger *zap.SugaredLogger
}

// Build gathers obstacle points from every source in the config, rasterises them and
// assembles the cost model.
func Build(cfg *Config, logger *zap.SugaredLogger) (*Scenario, error) {
	if cfg == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "nil config")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var obstacles []geom.Point
	if cfg.Boundary != nil {
		obstacles = append(obstacles, cfg.Boundary.Walls()...)
	}
	for _, l := range cfg.Lines {
		obstacles = append(obstacles, l.Sample()...)
	}
	obstacles = append(obstacles, cfg.Obstacles...)

	penaltyAreas := append([]PenaltyConfig(nil), cfg.PenaltyZones...)
	var rewardAreas []RewardConfig
	if cfg.RewardZone != nil {
		rewardAreas = append(rewardAreas, *cfg.RewardZone)
	}

	if cfg.GeoJSON != "" {
		features, err := LoadGeoJSON(cfg.GeoJSON, cfg.Resolution, logger)
		if err != nil {
			return nil, err
		}
		obstacles = append(obstacles, features.Obstacles...)
		penaltyAreas = append(penaltyAreas, features.Penalties...)
		rewardAreas = append(rewardAreas, features.Rewards...)
	}

	grid, err := gridmap.Build(obstacles, cfg.Resolution, cfg.Clearance)
	if err != nil {
		return nil, err
	}

	// Zones are resolved on the grid so that they match cell positions whatever the
	// grid origin and resolution.
	penalties := make([]cost.PenaltyZone, 0, len(penaltyAreas))
	for _, pz := range penaltyAreas {
		zone, err := zoneOn(grid, pz.Name, pz.Area)
		if err != nil {
			return nil, err
		}
		penalties = append(penalties, cost.PenaltyZone{Name: pz.Name, Zone: zone, Multiplier: pz.Multiplier})
	}

	rewards := make([]cost.RewardZone, 0, len(rewardAreas))
	for _, rz := range rewardAreas {
		zone, err := zoneOn(grid, rz.Name, rz.Area)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, cost.RewardZone{
			Name:           rz.Name,
			Zone:           zone,
			Field:          rz.Direction,
			MaxDiscount:    rz.MaxDiscount,
			CounterPenalty: rz.CounterPenalty,
		})
	}

	logger.Infof("🗺️  Grid %dx%d over [%d,%d]x[%d,%d], %d free cells, %d obstacle points",
		grid.XWidth, grid.YWidth, grid.MinX, grid.MaxX, grid.MinY, grid.MaxY, grid.FreeCells(), len(obstacles))

	return &Scenario{
		Config:    cfg,
		Obstacles: obstacles,
		Grid:      grid,
		Model:     cost.NewModel(penalties, rewards),
		logger:    logger,
	}, nil
}

// Planner returns a planner of the named strategy over the scenario's grid and cost
// model. An empty strategy selects the configured one.
func (s *Scenario) Planner(strategy string) (search.Planner, error) {
	return s.PlannerWithModel(strategy, s.Model)
}

// PlannerWithModel is Planner with a different cost model over the same grid.
func (s *Scenario) PlannerWithModel(strategy string, model *cost.Model) (search.Planner, error) {
	if strategy == "" {
		strategy = s.Config.Strategy
	}

	switch strategy {
	case StrategyAStar:
		opts := s.Config.GridOptions()
		opts.Logger = s.logger
		return search.NewGridPlanner(s.Grid, model, opts)
	case StrategyRRT:
		opts := s.Config.RRTOptions()
		opts.Logger = s.logger
		return search.NewRRTPlanner(s.Grid, model, opts)
	}
	return nil, errors.Wrapf(ErrInvalidConfig, "unknown strategy %q", strategy)
}

// Assembler returns a waypoint assembler for the named strategy.
func (s *Scenario) Assembler(strategy string) (*route.Assembler, error) {
	planner, err := s.Planner(strategy)
	if err != nil {
		return nil, err
	}
	a := route.NewAssembler(planner, s.logger)
	a.Parallel = s.Config.ParallelLegs
	return a, nil
}
