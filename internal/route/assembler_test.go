package route

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"flight-planner/internal/geom"
	"flight-planner/internal/gridmap"
	"flight-planner/internal/search"
)

// straightPlanner returns the two endpoints of every leg, failing on requested goals.
type straightPlanner struct {
	mu    sync.Mutex
	calls int
	fail  map[geom.Point]error
}

func (p *straightPlanner) Name() string { return "straight" }

func (p *straightPlanner) Plan(start, goal geom.Point) (*search.Result, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if err, ok := p.fail[goal]; ok {
		return &search.Result{Cost: math.Inf(1)}, err
	}
	return &search.Result{Path: []geom.Point{start, goal}, Cost: start.Distance(goal), Expanded: 1}, nil
}

func TestAssemblerNoWaypoints(t *testing.T) {
	a := NewAssembler(&straightPlanner{}, zaptest.NewLogger(t).Sugar())

	plan, err := a.Plan(context.Background(), geom.Point{X: 0, Y: 0}, nil, geom.Point{X: 3, Y: 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plan.Path, test.ShouldResemble, []geom.Point{{X: 0, Y: 0}, {X: 3, Y: 4}})
	test.That(t, plan.Cost, test.ShouldEqual, 5.0)
	test.That(t, plan.LegCosts, test.ShouldResemble, []float64{5})
}

func TestAssemblerJunctionsAppearOnce(t *testing.T) {
	a := NewAssembler(&straightPlanner{}, zaptest.NewLogger(t).Sugar())

	start, goal := geom.Point{X: 0, Y: 0}, geom.Point{X: 6, Y: 0}
	waypoints := []geom.Point{{X: 3, Y: 0}, {X: 3, Y: 4}}
	plan, err := a.Plan(context.Background(), start, waypoints, goal)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, plan.Path, test.ShouldResemble, []geom.Point{
		{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 4}, {X: 6, Y: 0},
	})
	test.That(t, plan.LegCosts, test.ShouldResemble, []float64{3, 4, 5})
	test.That(t, plan.Cost, test.ShouldEqual, 12.0)
	test.That(t, plan.Expanded, test.ShouldEqual, 3)
}

func TestAssemblerFirstFailureAborts(t *testing.T) {
	bad := geom.Point{X: 3, Y: 4}
	planner := &straightPlanner{fail: map[geom.Point]error{
		bad:          errors.Wrap(search.ErrNoPath, "walled off"),
		{X: 6, Y: 0}: errors.Wrap(search.ErrInvalidEndpoint, "goal"),
	}}

	for _, parallel := range []bool{false, true} {
		a := NewAssembler(planner, zaptest.NewLogger(t).Sugar())
		a.Parallel = parallel

		plan, err := a.Plan(context.Background(), geom.Point{}, []geom.Point{{X: 3, Y: 0}, bad}, geom.Point{X: 6, Y: 0})
		test.That(t, plan, test.ShouldBeNil)
		test.That(t, errors.Is(err, search.ErrNoPath), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "leg 2")
	}
}

func TestAssemblerSequentialStopsAtFailure(t *testing.T) {
	planner := &straightPlanner{fail: map[geom.Point]error{
		{X: 1, Y: 0}: search.ErrNoPath,
	}}
	a := NewAssembler(planner, nil)

	_, err := a.Plan(context.Background(), geom.Point{}, []geom.Point{{X: 1, Y: 0}, {X: 2, Y: 0}}, geom.Point{X: 3, Y: 0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, planner.calls, test.ShouldEqual, 1)
}

func TestAssemblerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAssembler(&straightPlanner{}, nil)
	_, err := a.Plan(ctx, geom.Point{}, nil, geom.Point{X: 1, Y: 1})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestAssemblerParallelMatchesSequential(t *testing.T) {
	var walls []geom.Point
	for i := -10; i <= 30; i++ {
		walls = append(walls,
			geom.Point{X: float64(i), Y: -10}, geom.Point{X: float64(i), Y: 30},
			geom.Point{X: -10, Y: float64(i)}, geom.Point{X: 30, Y: float64(i)},
		)
	}
	// An inner wall the legs must go around.
	for y := -10; y <= 15; y++ {
		walls = append(walls, geom.Point{X: 10, Y: float64(y)})
	}
	g, err := gridmap.Build(walls, 1, 1)
	test.That(t, err, test.ShouldBeNil)

	planner, err := search.NewGridPlanner(g, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	start, goal := geom.Point{X: 0, Y: 0}, geom.Point{X: 20, Y: 0}
	waypoints := []geom.Point{{X: 5, Y: 20}, {X: 15, Y: 25}, {X: 25, Y: 10}}

	seq := NewAssembler(planner, zaptest.NewLogger(t).Sugar())
	want, err := seq.Plan(context.Background(), start, waypoints, goal)
	test.That(t, err, test.ShouldBeNil)

	par := NewAssembler(planner, zaptest.NewLogger(t).Sugar())
	par.Parallel = true
	got, err := par.Plan(context.Background(), start, waypoints, goal)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, got.Path, test.ShouldResemble, want.Path)
	test.That(t, got.LegCosts, test.ShouldResemble, want.LegCosts)
	test.That(t, got.Cost, test.ShouldEqual, want.Cost)

	// Waypoints are visited in order.
	next := 0
	for _, p := range got.Path {
		if next < len(waypoints) && p == waypoints[next] {
			next++
		}
	}
	test.That(t, next, test.ShouldEqual, len(waypoints))
	test.That(t, got.Path[0], test.ShouldResemble, start)
	test.That(t, got.Path[len(got.Path)-1], test.ShouldResemble, goal)

	for i := 1; i < len(got.Path); i++ {
		test.That(t, got.Path[i], test.ShouldNotResemble, got.Path[i-1])
	}
}
