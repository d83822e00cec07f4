package search

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
	"flight-planner/internal/gridmap"
)

// boxWalls returns the outline of the square [lo, hi] sampled at unit spacing.
func boxWalls(lo, hi int) []geom.Point {
	var pts []geom.Point
	for i := lo; i <= hi; i++ {
		pts = append(pts,
			geom.Point{X: float64(i), Y: float64(lo)},
			geom.Point{X: float64(i), Y: float64(hi)},
			geom.Point{X: float64(lo), Y: float64(i)},
			geom.Point{X: float64(hi), Y: float64(i)},
		)
	}
	return pts
}

// rectZone fills [x0, x1] x [y0, y1] with unit-spaced points.
func rectZone(x0, x1, y0, y1 int) cost.Zone {
	var pts []geom.Point
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			pts = append(pts, geom.Point{X: float64(x), Y: float64(y)})
		}
	}
	return cost.NewZone(pts)
}

func buildGrid(t *testing.T, obstacles []geom.Point) *gridmap.OccupancyGrid {
	t.Helper()
	g, err := gridmap.Build(obstacles, 1, 1)
	test.That(t, err, test.ShouldBeNil)
	return g
}

func gridPlanner(t *testing.T, g *gridmap.OccupancyGrid, model *cost.Model, diagonal bool) *GridPlanner {
	t.Helper()
	opts := NewDefaultGridOptions()
	opts.Diagonal = diagonal
	opts.Logger = zaptest.NewLogger(t).Sugar()
	p, err := NewGridPlanner(g, model, opts)
	test.That(t, err, test.ShouldBeNil)
	return p
}

// assertConnected checks that consecutive points are one grid move apart and never
// enter an occupied cell.
func assertConnected(t *testing.T, g *gridmap.OccupancyGrid, path []geom.Point) {
	t.Helper()
	for i, p := range path {
		test.That(t, g.IsFree(p), test.ShouldBeTrue)
		if i == 0 {
			continue
		}
		d := p.Distance(path[i-1])
		test.That(t, d, test.ShouldBeGreaterThan, 0)
		test.That(t, d, test.ShouldBeLessThanOrEqualTo, math.Sqrt2+1e-9)
	}
}

func TestGridPlannerAxisOnly(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	p := gridPlanner(t, g, nil, false)

	start, goal := geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 4}
	res, err := p.Plan(start, goal)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found(), test.ShouldBeTrue)
	test.That(t, res.Cost, test.ShouldAlmostEqual, 7.0, 1e-9)
	test.That(t, len(res.Path), test.ShouldEqual, 8)
	test.That(t, res.Path[0], test.ShouldResemble, start)
	test.That(t, res.Path[len(res.Path)-1], test.ShouldResemble, goal)
	test.That(t, res.Expanded, test.ShouldBeGreaterThan, 0)
	assertConnected(t, g, res.Path)
}

func TestGridPlannerDiagonal(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	p := gridPlanner(t, g, nil, true)

	res, err := p.Plan(geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Cost, test.ShouldAlmostEqual, 3*math.Sqrt2+1, 1e-9)
	test.That(t, len(res.Path), test.ShouldEqual, 5)
	test.That(t, geom.PathLength(res.Path), test.ShouldAlmostEqual, res.Cost, 1e-9)
	assertConnected(t, g, res.Path)
}

func TestGridPlannerDemoWalls(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 60))
	start, goal := geom.Point{X: 0, Y: 0}, geom.Point{X: 50, Y: 50}

	for _, tc := range []struct {
		name     string
		diagonal bool
		want     float64
	}{
		{"diagonal", true, 50 * math.Sqrt2},
		{"axis only", false, 100},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := gridPlanner(t, g, nil, tc.diagonal).Plan(start, goal)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, res.Cost, test.ShouldAlmostEqual, tc.want, 1e-6)
			assertConnected(t, g, res.Path)
		})
	}
}

func TestGridPlannerIdempotent(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	p := gridPlanner(t, g, nil, true)

	first, err := p.Plan(geom.Point{X: -5, Y: 2}, geom.Point{X: 12, Y: 9})
	test.That(t, err, test.ShouldBeNil)
	second, err := p.Plan(geom.Point{X: -5, Y: 2}, geom.Point{X: 12, Y: 9})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, second.Path, test.ShouldResemble, first.Path)
	test.That(t, second.Cost, test.ShouldEqual, first.Cost)
}

func TestGridPlannerSameCell(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	res, err := gridPlanner(t, g, nil, true).Plan(geom.Point{X: 2, Y: 2}, geom.Point{X: 2.2, Y: 1.9})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Cost, test.ShouldEqual, 0.0)
	test.That(t, res.Path, test.ShouldResemble, []geom.Point{{X: 2, Y: 2}})
}

func TestGridPlannerPenaltyMonotone(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	start, goal := geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 6}

	base, err := gridPlanner(t, g, nil, true).Plan(start, goal)
	test.That(t, err, test.ShouldBeNil)

	model := cost.NewModel([]cost.PenaltyZone{
		{Name: "tc", Zone: rectZone(2, 8, -5, 15), Multiplier: 0.3},
	}, nil)
	penalised, err := gridPlanner(t, g, model, true).Plan(start, goal)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, penalised.Cost, test.ShouldBeGreaterThanOrEqualTo, base.Cost)
	assertConnected(t, g, penalised.Path)
}

func TestGridPlannerAvoidsExpensiveZone(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))

	// Crossing the band costs 101 times the distance; walking around it is cheaper.
	model := cost.NewModel([]cost.PenaltyZone{
		{Name: "band", Zone: rectZone(5, 5, -8, 10), Multiplier: 100},
	}, nil)
	res, err := gridPlanner(t, g, model, true).Plan(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0})
	test.That(t, err, test.ShouldBeNil)

	for _, pt := range res.Path {
		if pt.X == 5 {
			test.That(t, pt.Y, test.ShouldBeGreaterThan, 10)
		}
	}
}

func TestGridPlannerRewardAlignedField(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	model := cost.NewModel(nil, []cost.RewardZone{
		{
			Name:        "fc",
			Zone:        rectZone(-10, 20, -10, 20),
			Field:       cost.DirectionalField{VX: 1, VY: 1},
			MaxDiscount: 0.3,
		},
	})

	res, err := gridPlanner(t, g, model, true).Plan(geom.Point{X: 0, Y: 0}, geom.Point{X: 5, Y: 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Cost, test.ShouldAlmostEqual, 5*math.Sqrt2*0.7, 1e-9)
	test.That(t, len(res.Path), test.ShouldEqual, 6)
}

func TestGridPlannerHeuristicScaling(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	// A tailwind row three cells above the direct line: every eastward step in it costs 0.1.
	model := cost.NewModel(nil, []cost.RewardZone{{
		Name:        "jet",
		Zone:        rectZone(0, 10, 3, 3),
		Field:       cost.DirectionalField{VX: 1},
		MaxDiscount: 0.9,
	}})
	start, goal := geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0}

	plan := func(h Heuristic) *Result {
		opts := NewDefaultGridOptions()
		opts.Diagonal = false
		opts.Heuristic = h
		opts.Logger = zaptest.NewLogger(t).Sugar()
		p, err := NewGridPlanner(g, model, opts)
		test.That(t, err, test.ShouldBeNil)
		res, err := p.Plan(start, goal)
		test.That(t, err, test.ShouldBeNil)
		return res
	}

	// Up three, ten discounted steps along the row, down three.
	admissible := plan(HeuristicAdmissible)
	test.That(t, admissible.Cost, test.ShouldAlmostEqual, 7.0, 1e-9)
	test.That(t, len(admissible.Path), test.ShouldEqual, 17)
	test.That(t, admissible.Path, test.ShouldContain, geom.Point{X: 5, Y: 3})
	assertConnected(t, g, admissible.Path)

	// The unscaled estimate overshoots the discounted route and settles for the direct line.
	euclidean := plan(HeuristicEuclidean)
	test.That(t, euclidean.Cost, test.ShouldAlmostEqual, 10.0, 1e-9)
	test.That(t, len(euclidean.Path), test.ShouldEqual, 11)
	test.That(t, euclidean.Cost, test.ShouldBeGreaterThan, admissible.Cost)
}

func TestGridPlannerInvalidEndpoint(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	p := gridPlanner(t, g, nil, true)

	for _, tc := range []struct {
		name       string
		start, end geom.Point
	}{
		{"start outside", geom.Point{X: -50, Y: 0}, geom.Point{X: 1, Y: 1}},
		{"goal outside", geom.Point{X: 1, Y: 1}, geom.Point{X: 20, Y: 5}},
		{"start on wall", geom.Point{X: -10, Y: 0}, geom.Point{X: 1, Y: 1}},
		{"goal in clearance", geom.Point{X: 1, Y: 1}, geom.Point{X: 19, Y: 5}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := p.Plan(tc.start, tc.end)
			test.That(t, errors.Is(err, ErrInvalidEndpoint), test.ShouldBeTrue)
			test.That(t, res, test.ShouldBeNil)
		})
	}
}

func TestGridPlannerNoPath(t *testing.T) {
	obstacles := append(boxWalls(-10, 20), boxWalls(5, 15)...)
	g := buildGrid(t, obstacles)

	res, err := gridPlanner(t, g, nil, true).Plan(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 10})
	test.That(t, errors.Is(err, ErrNoPath), test.ShouldBeTrue)
	test.That(t, res, test.ShouldNotBeNil)
	test.That(t, res.Found(), test.ShouldBeFalse)
	test.That(t, math.IsInf(res.Cost, 1), test.ShouldBeTrue)
	test.That(t, res.Path, test.ShouldBeEmpty)
	test.That(t, res.Expanded, test.ShouldBeGreaterThan, 0)
}

func TestGridOptionsValidate(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))

	opts := NewDefaultGridOptions()
	opts.UnitCost = 0
	_, err := NewGridPlanner(g, nil, opts)
	test.That(t, errors.Is(err, ErrInvalidOptions), test.ShouldBeTrue)

	opts = NewDefaultGridOptions()
	opts.Heuristic = "manhattan"
	_, err = NewGridPlanner(g, nil, opts)
	test.That(t, errors.Is(err, ErrInvalidOptions), test.ShouldBeTrue)

	_, err = NewGridPlanner(nil, nil, nil)
	test.That(t, errors.Is(err, ErrInvalidOptions), test.ShouldBeTrue)

	p, err := NewGridPlanner(g, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Name(), test.ShouldEqual, "astar")
}

func TestPriorityQueueTieBreak(t *testing.T) {
	g := buildGrid(t, boxWalls(-10, 20))
	opts := NewDefaultGridOptions()
	opts.Heuristic = HeuristicEuclidean
	p, err := NewGridPlanner(g, nil, opts)
	test.That(t, err, test.ShouldBeNil)

	// Axis-only and diagonal paths tie in cost here; the result must not vary.
	want, err := p.Plan(geom.Point{X: 0, Y: 0}, geom.Point{X: 4, Y: 0})
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 5; i++ {
		got, err := p.Plan(geom.Point{X: 0, Y: 0}, geom.Point{X: 4, Y: 0})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.Path, test.ShouldResemble, want.Path)
	}
}
