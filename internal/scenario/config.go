// Package scenario turns a YAML scenario description into an occupancy grid, a cost
// model and a ready planner, and hosts the reward band sweep.
package scenario

import (
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
	"flight-planner/internal/gridmap"
	"flight-planner/internal/search"
)

// ErrInvalidConfig is returned for scenario files that cannot be turned into a map.
var ErrInvalidConfig = errors.New("invalid scenario config")

// Strategy names accepted in configs and requests.
const (
	StrategyAStar = "astar"
	StrategyRRT   = "rrt"
)

const (
	defaultResolution = 1.0
	defaultClearance  = 1.0

	defaultSweepHeight      = 5
	defaultSweepConcurrency = 4

	// Slack when testing cell centres against zone edges.
	cellTolerance = 1e-9
)

// Config is the on-disk scenario description.
type Config struct {
	Resolution float64 `yaml:"resolution"`
	Clearance  float64 `yaml:"clearance"`

	Strategy  string            `yaml:"strategy"`
	Diagonal  *bool             `yaml:"diagonal"`
	UnitCost  float64           `yaml:"unit_cost"`
	Heuristic search.Heuristic  `yaml:"heuristic"`
	RRT       search.RRTOptions `yaml:"rrt"`

	Boundary  *Boundary    `yaml:"boundary"`
	Lines     []Line       `yaml:"lines"`
	Obstacles []geom.Point `yaml:"obstacles"`
	GeoJSON   string       `yaml:"geojson"`

	PenaltyZones []PenaltyConfig `yaml:"penalty_zones"`
	RewardZone   *RewardConfig   `yaml:"reward_zone"`

	ParallelLegs bool `yaml:"parallel_legs"`

	// Default route for the plan and sweep commands.
	Start     geom.Point   `yaml:"start"`
	Goal      geom.Point   `yaml:"goal"`
	Waypoints []geom.Point `yaml:"waypoints"`

	Sweep *SweepConfig `yaml:"sweep"`
}

// Boundary is a square wall from Min to Max on both axes, sampled at unit spacing.
type Boundary struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Line is an obstacle segment sampled into Steps+1 evenly spaced points.
type Line struct {
	From  geom.Point `yaml:"from"`
	To    geom.Point `yaml:"to"`
	Steps int        `yaml:"steps"`
}

// Rect is an axis-aligned rectangle in world coordinates, edges included.
type Rect struct {
	X0 float64 `yaml:"x0"`
	X1 float64 `yaml:"x1"`
	Y0 float64 `yaml:"y0"`
	Y1 float64 `yaml:"y1"`
}

// Area is a zone given as a rectangle, explicit points or, from GeoJSON, a polygon.
// It covers grid cells only once resolved against a built grid.
type Area struct {
	Rect   *Rect        `yaml:"rect"`
	Points []geom.Point `yaml:"points"`
	Shape  orb.Geometry `yaml:"-"` // orb.Polygon or orb.MultiPolygon
}

// PenaltyConfig describes one penalty zone.
type PenaltyConfig struct {
	Name       string  `yaml:"name"`
	Multiplier float64 `yaml:"multiplier"`
	Area       `yaml:",inline"`
}

// RewardConfig describes the reward zone.
type RewardConfig struct {
	Name           string                `yaml:"name"`
	Direction      cost.DirectionalField `yaml:"direction"`
	MaxDiscount    float64               `yaml:"max_discount"`
	CounterPenalty float64               `yaml:"counter_penalty"`
	Area           `yaml:",inline"`
}

// SweepConfig places a horizontal reward band of Height rows at every start row from
// FromY to ToY inclusive, spanning X0..X1.
type SweepConfig struct {
	FromY          float64               `yaml:"from_y"`
	ToY            float64               `yaml:"to_y"`
	Height         int                   `yaml:"height"`
	X0             float64               `yaml:"x0"`
	X1             float64               `yaml:"x1"`
	Direction      cost.DirectionalField `yaml:"direction"`
	MaxDiscount    float64               `yaml:"max_discount"`
	CounterPenalty float64               `yaml:"counter_penalty"`
	Concurrency    int                   `yaml:"concurrency"`
}

// LoadConfig reads and validates a YAML scenario file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}
	return ParseConfig(data)
}

// NewDefaultConfig returns a config holding every default. ParseConfig decodes onto it,
// so a key present in the file wins even when its value is zero.
func NewDefaultConfig() *Config {
	grid := search.NewDefaultGridOptions()
	rrt := search.NewDefaultRRTOptions()
	rrt.Logger = nil

	return &Config{
		Resolution: defaultResolution,
		Clearance:  defaultClearance,
		Strategy:   StrategyAStar,
		Diagonal:   &grid.Diagonal,
		UnitCost:   grid.UnitCost,
		Heuristic:  grid.Heuristic,
		RRT:        *rrt,
	}
}

// ParseConfig decodes a YAML scenario over the defaults and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults fills the sweep block, which YAML allocates empty.
func (c *Config) setDefaults() {
	if c.Sweep != nil {
		if c.Sweep.Height == 0 {
			c.Sweep.Height = defaultSweepHeight
		}
		if c.Sweep.Concurrency == 0 {
			c.Sweep.Concurrency = defaultSweepConcurrency
		}
	}
}

// Validate checks the fields that Build relies on.
func (c *Config) Validate() error {
	if c.Resolution <= 0 || math.IsNaN(c.Resolution) {
		return errors.Wrapf(ErrInvalidConfig, "resolution must be positive, got %v", c.Resolution)
	}
	if c.Clearance < 0 || math.IsNaN(c.Clearance) {
		return errors.Wrapf(ErrInvalidConfig, "clearance must not be negative, got %v", c.Clearance)
	}
	if c.UnitCost <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "unit cost must be positive, got %v", c.UnitCost)
	}
	switch c.Strategy {
	case StrategyAStar, StrategyRRT:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown strategy %q", c.Strategy)
	}
	if c.Boundary != nil && c.Boundary.Max <= c.Boundary.Min {
		return errors.Wrapf(ErrInvalidConfig, "boundary max %v must exceed min %v", c.Boundary.Max, c.Boundary.Min)
	}
	for i, l := range c.Lines {
		if l.Steps <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "line %d needs a positive step count", i)
		}
	}
	for _, pz := range c.PenaltyZones {
		if pz.Multiplier < 0 {
			return errors.Wrapf(ErrInvalidConfig, "penalty zone %q has a negative multiplier", pz.Name)
		}
		if err := pz.Area.validate(pz.Name); err != nil {
			return err
		}
	}
	if rz := c.RewardZone; rz != nil {
		if rz.MaxDiscount < 0 || rz.CounterPenalty < 0 {
			return errors.Wrapf(ErrInvalidConfig, "reward zone %q has a negative factor", rz.Name)
		}
		if err := rz.Area.validate(rz.Name); err != nil {
			return err
		}
	}
	if s := c.Sweep; s != nil {
		if s.ToY < s.FromY || s.X1 < s.X0 || s.Height <= 0 {
			return errors.Wrap(ErrInvalidConfig, "sweep range is empty")
		}
	}
	return nil
}

func (a Area) validate(name string) error {
	if a.Rect == nil && len(a.Points) == 0 && a.Shape == nil {
		return errors.Wrapf(ErrInvalidConfig, "zone %q needs a rect or points", name)
	}
	if r := a.Rect; r != nil && (r.X1 < r.X0 || r.Y1 < r.Y0) {
		return errors.Wrapf(ErrInvalidConfig, "zone %q has an inverted rect", name)
	}
	return nil
}

// GridOptions returns the grid search options selected by the config.
func (c *Config) GridOptions() *search.GridOptions {
	opts := search.NewDefaultGridOptions()
	if c.Diagonal != nil {
		opts.Diagonal = *c.Diagonal
	}
	if c.UnitCost != 0 {
		opts.UnitCost = c.UnitCost
	}
	if c.Heuristic != "" {
		opts.Heuristic = c.Heuristic
	}
	return opts
}

// RRTOptions returns a copy of the configured RRT options.
func (c *Config) RRTOptions() *search.RRTOptions {
	opts := c.RRT
	return &opts
}

// cells returns the centres of the grid cells the area covers, the positions the
// planners price steps at. Points select their nearest cell, rects and polygons every
// cell whose centre lies inside them, edges included.
func (a Area) cells(grid *gridmap.OccupancyGrid) []geom.Point {
	var cells []geom.Point
	for _, p := range a.Points {
		ix, iy := grid.CellOf(p)
		if ix >= 0 && iy >= 0 && ix < grid.XWidth && iy < grid.YWidth {
			cells = append(cells, grid.CellCenter(ix, iy))
		}
	}

	if r := a.Rect; r != nil {
		b := orb.Bound{Min: orb.Point{r.X0, r.Y0}, Max: orb.Point{r.X1, r.Y1}}.Pad(cellTolerance)
		cells = append(cells, cellsIn(grid, b, b.Contains)...)
	}

	switch g := a.Shape.(type) {
	case orb.Polygon:
		cells = append(cells, cellsIn(grid, g.Bound().Pad(cellTolerance), func(p orb.Point) bool {
			return planar.PolygonContains(g, p)
		})...)
	case orb.MultiPolygon:
		cells = append(cells, cellsIn(grid, g.Bound().Pad(cellTolerance), func(p orb.Point) bool {
			return planar.MultiPolygonContains(g, p)
		})...)
	}
	return cells
}

// cellsIn returns the centres of the cells inside bound accepted by inside.
func cellsIn(grid *gridmap.OccupancyGrid, bound orb.Bound, inside func(orb.Point) bool) []geom.Point {
	res := grid.Resolution
	x0 := max(0, int(math.Ceil((bound.Min.X()-float64(grid.MinX))/res)))
	x1 := min(grid.XWidth-1, int(math.Floor((bound.Max.X()-float64(grid.MinX))/res)))
	y0 := max(0, int(math.Ceil((bound.Min.Y()-float64(grid.MinY))/res)))
	y1 := min(grid.YWidth-1, int(math.Floor((bound.Max.Y()-float64(grid.MinY))/res)))

	var cells []geom.Point
	for ix := x0; ix <= x1; ix++ {
		for iy := y0; iy <= y1; iy++ {
			c := grid.CellCenter(ix, iy)
			if inside(c.Orb()) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// zoneOn resolves an area against the grid and rejects areas that cover no cell, which
// would otherwise price nothing.
func zoneOn(grid *gridmap.OccupancyGrid, name string, a Area) (cost.Zone, error) {
	zone := cost.NewZone(a.cells(grid))
	if zone.Empty() {
		return cost.Zone{}, errors.Wrapf(ErrInvalidConfig, "zone %q covers no grid cell", name)
	}
	return zone, nil
}

// Walls samples the boundary square at unit spacing.
func (b Boundary) Walls() []geom.Point {
	var pts []geom.Point
	for v := b.Min; v <= b.Max; v++ {
		pts = append(pts,
			geom.Point{X: v, Y: b.Min},
			geom.Point{X: v, Y: b.Max},
			geom.Point{X: b.Max, Y: v},
			geom.Point{X: b.Min, Y: v},
		)
	}
	return pts
}

// Sample returns the Steps+1 evenly spaced points of the line.
func (l Line) Sample() []geom.Point {
	pts := make([]geom.Point, 0, l.Steps+1)
	for i := 0; i <= l.Steps; i++ {
		pts = append(pts, l.From.Lerp(l.To, float64(i)/float64(l.Steps)))
	}
	return pts
}
