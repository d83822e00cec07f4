package search

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
	"flight-planner/internal/gridmap"
)

// treeNode lives in the append-only arena of one RRT run. Parent is the position of
// the parent node in the arena, always smaller than the node's own position, or -1.
type treeNode struct {
	Point  geom.Point
	Cost   float64
	Parent int
}

// RRTPlanner grows a rapidly-exploring random tree from the start until it comes
// within one expansion distance of the goal.
type RRTPlanner struct {
	grid   *gridmap.OccupancyGrid
	model  *cost.Model
	opts   *RRTOptions
	logger *zap.SugaredLogger
}

// NewRRTPlanner returns an RRT planner. A nil model prices segments at their length;
// nil options select NewDefaultRRTOptions.
func NewRRTPlanner(grid *gridmap.OccupancyGrid, model *cost.Model, opts *RRTOptions) (*RRTPlanner, error) {
	if grid == nil {
		return nil, errors.Wrap(ErrInvalidOptions, "rrt planner needs an occupancy grid")
	}
	if opts == nil {
		opts = NewDefaultRRTOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &RRTPlanner{grid: grid, model: model, opts: opts, logger: loggerOrNop(opts.Logger)}, nil
}

// Name returns the strategy name.
func (p *RRTPlanner) Name() string {
	return "rrt"
}

// Plan grows a tree from start. Every call draws from its own random source seeded
// from the options, so equal seeds reproduce equal trees and concurrent calls share
// nothing mutable.
func (p *RRTPlanner) Plan(start, goal geom.Point) (*Result, error) {
	if !p.grid.IsFree(start) {
		return nil, errors.Wrapf(ErrInvalidEndpoint, "start (%.3f, %.3f)", start.X, start.Y)
	}
	if !p.grid.IsFree(goal) {
		return nil, errors.Wrapf(ErrInvalidEndpoint, "goal (%.3f, %.3f)", goal.X, goal.Y)
	}

	rng := p.newRand()
	tree := []treeNode{{Point: start, Cost: 0, Parent: -1}}

	// The root is a candidate too: a goal already in reach needs no sampling.
	if res, ok := p.tryConnect(tree, 0, goal); ok {
		return res, nil
	}

	for i := 0; i < p.opts.PlanIter; i++ {
		sample := p.randomPoint(rng, goal)

		nearestIdx := nearestNode(tree, sample)
		nearest := tree[nearestIdx]

		candidate := steer(nearest.Point, sample, p.opts.ExpandDistance)
		if candidate == nearest.Point {
			continue
		}
		if !p.grid.IsSegmentFree(geom.Segment{P1: nearest.Point, P2: candidate}, p.opts.PathResolution) {
			continue
		}

		tree = append(tree, treeNode{
			Point:  candidate,
			Cost:   nearest.Cost + p.segmentCost(nearest.Point, candidate),
			Parent: nearestIdx,
		})

		if res, ok := p.tryConnect(tree, len(tree)-1, goal); ok {
			p.logger.Debugw("rrt reached goal", "iterations", i+1, "nodes", len(res.Path), "cost", res.Cost)
			return res, nil
		}
	}

	p.logger.Debugw("rrt iteration budget exhausted", "iterations", p.opts.PlanIter, "tree", len(tree))
	res := noPath(len(tree))
	res.Edges = treeEdges(tree)
	return res, errors.Wrapf(ErrNoPath, "no connection to goal after %d iterations", p.opts.PlanIter)
}

// tryConnect appends the goal under tree[idx] when it is within one expansion
// distance and the closing segment is free.
func (p *RRTPlanner) tryConnect(tree []treeNode, idx int, goal geom.Point) (*Result, bool) {
	from := tree[idx]
	if from.Point.Distance(goal) > p.opts.ExpandDistance {
		return nil, false
	}
	if !p.grid.IsSegmentFree(geom.Segment{P1: from.Point, P2: goal}, p.opts.PathResolution) {
		return nil, false
	}

	goalNode := treeNode{
		Point:  goal,
		Cost:   from.Cost + p.segmentCost(from.Point, goal),
		Parent: idx,
	}
	tree = append(tree, goalNode)

	path := finalTreePath(tree, len(tree)-1)
	geom.Reverse(path)

	return &Result{
		Path:     path,
		Cost:     goalNode.Cost,
		Expanded: len(tree),
		Edges:    treeEdges(tree),
	}, true
}

// segmentCost prices a straight segment, evaluating zones at its midpoint.
func (p *RRTPlanner) segmentCost(from, to geom.Point) float64 {
	return p.model.StepCost(from.Midpoint(to), from.To(to), from.Distance(to))
}

func (p *RRTPlanner) newRand() *rand.Rand {
	seed := p.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// randomPoint samples the goal with the configured probability, otherwise a uniform
// point inside the map bounds.
func (p *RRTPlanner) randomPoint(rng *rand.Rand, goal geom.Point) geom.Point {
	if rng.Float64() < p.opts.GoalSampleRate {
		return goal
	}
	return geom.Point{
		X: float64(p.grid.MinX) + rng.Float64()*float64(p.grid.MaxX-p.grid.MinX),
		Y: float64(p.grid.MinY) + rng.Float64()*float64(p.grid.MaxY-p.grid.MinY),
	}
}

// nearestNode finds the closest tree node to a point by linear scan; the earliest
// node wins ties.
func nearestNode(tree []treeNode, point geom.Point) int {
	nearestID := 0
	minDist := point.Distance(tree[0].Point)

	for i := 1; i < len(tree); i++ {
		if dist := point.Distance(tree[i].Point); dist < minDist {
			minDist = dist
			nearestID = i
		}
	}
	return nearestID
}

// steer moves from "from" toward "to" by at most expand.
func steer(from, to geom.Point, expand float64) geom.Point {
	dir := from.To(to)
	dist := r2.Norm(dir)
	if dist < expand {
		return to
	}
	v := r2.Add(from.Vec(), r2.Scale(expand, r2.Unit(dir)))
	return geom.Point{X: v.X, Y: v.Y}
}

// finalTreePath walks parent positions from tree[idx] back to the root.
func finalTreePath(tree []treeNode, idx int) []geom.Point {
	var path []geom.Point
	for i := idx; i != -1; i = tree[i].Parent {
		path = append(path, tree[i].Point)
	}
	return path
}

// treeEdges returns every parent-child segment of the tree.
func treeEdges(tree []treeNode) []geom.Segment {
	edges := make([]geom.Segment, 0, len(tree))
	for _, n := range tree[1:] {
		edges = append(edges, geom.Segment{P1: tree[n.Parent].Point, P2: n.Point})
	}
	return edges
}
