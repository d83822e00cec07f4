package search

import (
	"container/heap"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
	"flight-planner/internal/gridmap"
)

// GridPlanner runs A* over the cells of an occupancy grid, pricing every move with the
// cost model at the destination cell.
type GridPlanner struct {
	grid    *gridmap.OccupancyGrid
	model   *cost.Model
	opts    *GridOptions
	motions []motion
	hWeight float64 // per-index-unit heuristic weight
	logger  *zap.SugaredLogger
}

// NewGridPlanner returns a grid planner. A nil model prices every move at its nominal
// distance; nil options select NewDefaultGridOptions.
func NewGridPlanner(grid *gridmap.OccupancyGrid, model *cost.Model, opts *GridOptions) (*GridPlanner, error) {
	if grid == nil {
		return nil, errors.Wrap(ErrInvalidOptions, "grid planner needs an occupancy grid")
	}
	if opts == nil {
		opts = NewDefaultGridOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	hWeight := opts.UnitCost
	if opts.Heuristic == HeuristicAdmissible {
		hWeight *= model.MinStepFactor()
	}

	return &GridPlanner{
		grid:    grid,
		model:   model,
		opts:    opts,
		motions: motionModel(opts.Diagonal),
		hWeight: hWeight,
		logger:  loggerOrNop(opts.Logger),
	}, nil
}

// Name returns the strategy name.
func (p *GridPlanner) Name() string {
	return "astar"
}

// Plan runs A* between the cells nearest to start and goal.
func (p *GridPlanner) Plan(start, goal geom.Point) (*Result, error) {
	if !p.grid.IsFree(start) {
		return nil, errors.Wrapf(ErrInvalidEndpoint, "start (%.3f, %.3f)", start.X, start.Y)
	}
	if !p.grid.IsFree(goal) {
		return nil, errors.Wrapf(ErrInvalidEndpoint, "goal (%.3f, %.3f)", goal.X, goal.Y)
	}

	sx, sy := p.grid.CellOf(start)
	gx, gy := p.grid.CellOf(goal)

	heuristic := func(x, y int) float64 {
		return math.Hypot(float64(x-gx), float64(y-gy)) * p.hWeight
	}

	startNode := &gridNode{
		X:      sx,
		Y:      sy,
		ID:     p.grid.GridIndex(sx, sy),
		Cost:   0,
		Parent: -1,
		F:      heuristic(sx, sy),
	}

	openSet := &PriorityQueue{}
	heap.Init(openSet)
	heap.Push(openSet, startNode)

	openSetMap := map[int]*gridNode{startNode.ID: startNode}
	closedSet := make(map[int]*gridNode)

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*gridNode)
		delete(openSetMap, current.ID)

		// Check if we reached the goal
		if current.X == gx && current.Y == gy {
			goalNode := &gridNode{X: gx, Y: gy, Cost: current.Cost, Parent: current.Parent}
			path := p.finalPath(goalNode, closedSet)
			geom.Reverse(path)

			p.logger.Debugw("grid search reached goal",
				"cost", goalNode.Cost, "expanded", len(closedSet), "points", len(path))
			return &Result{Path: path, Cost: goalNode.Cost, Expanded: len(closedSet)}, nil
		}

		closedSet[current.ID] = current

		for _, m := range p.motions {
			nx, ny := current.X+m.dx, current.Y+m.dy
			if !p.grid.IsFreeCell(nx, ny) {
				continue
			}

			neighborID := p.grid.GridIndex(nx, ny)
			if _, closed := closedSet[neighborID]; closed {
				continue
			}

			step := m.cost * p.opts.UnitCost
			tentative := current.Cost + p.model.StepCost(p.grid.CellCenter(nx, ny), m.vec(), step)

			neighbor, exists := openSetMap[neighborID]
			if !exists {
				neighbor = &gridNode{
					X:      nx,
					Y:      ny,
					ID:     neighborID,
					Cost:   tentative,
					Parent: current.ID,
					F:      tentative + heuristic(nx, ny),
				}
				heap.Push(openSet, neighbor)
				openSetMap[neighborID] = neighbor
			} else if tentative < neighbor.Cost {
				// Found a better path to this neighbor
				neighbor.Cost = tentative
				neighbor.Parent = current.ID
				neighbor.F = tentative + heuristic(nx, ny)
				heap.Fix(openSet, neighbor.Index)
			}
		}
	}

	p.logger.Debugw("grid search exhausted open set", "expanded", len(closedSet))
	return noPath(len(closedSet)), errors.Wrapf(ErrNoPath, "open set exhausted after %d nodes", len(closedSet))
}

// finalPath walks parent links from the goal through the closed set, returning world
// positions from goal back to start.
func (p *GridPlanner) finalPath(goal *gridNode, closedSet map[int]*gridNode) []geom.Point {
	path := []geom.Point{p.grid.CellCenter(goal.X, goal.Y)}
	for parent := goal.Parent; parent != -1; {
		n := closedSet[parent]
		path = append(path, p.grid.CellCenter(n.X, n.Y))
		parent = n.Parent
	}
	return path
}

func loggerOrNop(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
