package main

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
	"flight-planner/internal/scenario"
	"flight-planner/internal/search"
)

// RouteRequest asks for a route from Start to Goal through Waypoints in order.
type RouteRequest struct {
	Start     geom.Point   `json:"start"`
	Goal      geom.Point   `json:"goal"`
	Waypoints []geom.Point `json:"waypoints,omitempty"`
	Strategy  string       `json:"strategy,omitempty"` // astar or rrt, defaults to the scenario's
}

// RouteResponse carries the raw path and its turning points. Cost is omitted when no
// route exists.
type RouteResponse struct {
	Path      []geom.Point   `json:"path"`
	Waypoints []geom.Point   `json:"waypoints"`
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	Strategy  string         `json:"strategy"`
	Cost      *float64       `json:"cost,omitempty"`
	Distance  float64        `json:"distance"`
	LegCosts  []float64      `json:"legCosts,omitempty"`
	Expanded  int            `json:"expanded"`
	Edges     []geom.Segment `json:"edges,omitempty"`
}

// SweepRequest overrides parts of the scenario's sweep block.
type SweepRequest struct {
	Start       *geom.Point `json:"start,omitempty"`
	Goal        *geom.Point `json:"goal,omitempty"`
	Strategy    string      `json:"strategy,omitempty"`
	FromY       *float64    `json:"fromY,omitempty"`
	ToY         *float64    `json:"toY,omitempty"`
	Height      int         `json:"height,omitempty"`
	MaxDiscount *float64    `json:"maxDiscount,omitempty"`
}

// SweepPlacement is one band position in a sweep response.
type SweepPlacement struct {
	BandY float64  `json:"bandY"`
	Cost  *float64 `json:"cost,omitempty"`
	Found bool     `json:"found"`
}

// SweepResponse reports the best band and every placement tried.
type SweepResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	BestBandY  float64          `json:"bestBandY"`
	BestCost   *float64         `json:"bestCost,omitempty"`
	Path       []geom.Point     `json:"path,omitempty"`
	Placements []SweepPlacement `json:"placements,omitempty"`
}

// server serves routes over one built scenario.
type server struct {
	mu       sync.RWMutex
	scenario *scenario.Scenario
	logger   *zap.SugaredLogger
}

func newServer(s *scenario.Scenario, logger *zap.SugaredLogger) *server {
	return &server{scenario: s, logger: logger}
}

func (s *server) current() *scenario.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scenario
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/route", s.routeHandler)
	mux.HandleFunc("/sweep", s.sweepHandler)
	mux.HandleFunc("/map", s.mapHandler)
	mux.HandleFunc("/scenario", s.scenarioHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// POST /route - plan through optional waypoints
func (s *server) routeHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("========================================")
	s.logger.Info("📍 Route request received")

	if r.Method != http.MethodPost {
		s.logger.Warnf("❌ Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warnf("❌ Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sc := s.current()
	strategy := req.Strategy
	if strategy == "" {
		strategy = sc.Config.Strategy
	}

	s.logger.Infof("   Start: (%.3f, %.3f)", req.Start.X, req.Start.Y)
	s.logger.Infof("   Goal:  (%.3f, %.3f)", req.Goal.X, req.Goal.Y)
	s.logger.Infof("   Waypoints: %d, strategy: %s", len(req.Waypoints), strategy)

	assembler, err := sc.Assembler(strategy)
	if err != nil {
		s.logger.Warnf("❌ %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Info("========================================")
		return
	}

	plan, err := assembler.Plan(r.Context(), req.Start, req.Waypoints, req.Goal)
	response := RouteResponse{Strategy: strategy}
	switch {
	case errors.Is(err, search.ErrInvalidEndpoint):
		s.logger.Warnf("❌ %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Info("========================================")
		return
	case errors.Is(err, search.ErrNoPath):
		s.logger.Infof("❌ No path found: %v", err)
		response.Message = err.Error()
	case err != nil:
		s.logger.Errorf("❌ Planning failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		s.logger.Info("========================================")
		return
	default:
		response.Success = true
		response.Path = plan.Path
		response.Waypoints = geom.Compress(plan.Path)
		response.Cost = finite(plan.Cost)
		response.Distance = geom.PathLength(plan.Path)
		response.LegCosts = plan.LegCosts
		response.Expanded = plan.Expanded
		response.Edges = plan.Edges

		s.logger.Infof("✅ Path found with %d points (%d turning points)", len(plan.Path), len(response.Waypoints))
		s.logger.Infof("   Cost: %.3f over %d legs, %.3f flown, %d nodes expanded",
			plan.Cost, len(plan.LegCosts), response.Distance, plan.Expanded)
	}

	writeJSON(w, s.logger, response)
	s.logger.Info("========================================")
}

// POST /sweep - find the cheapest reward band placement
func (s *server) sweepHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("========================================")
	s.logger.Info("🌬️  Reward band sweep request received")

	if r.Method != http.MethodPost {
		s.logger.Warnf("❌ Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warnf("❌ Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sc := s.current()
	if sc.Config.Sweep == nil {
		s.logger.Warn("❌ Scenario has no sweep block")
		http.Error(w, "scenario has no sweep configuration", http.StatusBadRequest)
		s.logger.Info("========================================")
		return
	}

	sweep := *sc.Config.Sweep
	start, goal := sc.Config.Start, sc.Config.Goal
	if req.Start != nil {
		start = *req.Start
	}
	if req.Goal != nil {
		goal = *req.Goal
	}
	if req.FromY != nil {
		sweep.FromY = *req.FromY
	}
	if req.ToY != nil {
		sweep.ToY = *req.ToY
	}
	if req.Height > 0 {
		sweep.Height = req.Height
	}
	if req.MaxDiscount != nil {
		sweep.MaxDiscount = *req.MaxDiscount
	}

	s.logger.Infof("   Rows %v..%v, band height %d, discount %.2f", sweep.FromY, sweep.ToY, sweep.Height, sweep.MaxDiscount)

	res, err := sc.SweepRewardBand(r.Context(), sweep, req.Strategy, start, goal)
	response := SweepResponse{}
	switch {
	case errors.Is(err, search.ErrInvalidEndpoint), errors.Is(err, scenario.ErrInvalidConfig):
		s.logger.Warnf("❌ %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Info("========================================")
		return
	case errors.Is(err, search.ErrNoPath):
		s.logger.Infof("❌ No placement has a route: %v", err)
		response.Message = err.Error()
	case err != nil:
		s.logger.Errorf("❌ Sweep failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		s.logger.Info("========================================")
		return
	default:
		best := res.BestPlacement()
		response.Success = true
		response.BestBandY = best.BandY
		response.BestCost = finite(best.Cost)
		response.Path = best.Path
		for _, p := range res.Placements {
			response.Placements = append(response.Placements, SweepPlacement{BandY: p.BandY, Cost: finite(p.Cost), Found: p.Found})
		}
		s.logger.Infof("✅ Best band at y=%v, cost %.3f", best.BandY, best.Cost)
	}

	writeJSON(w, s.logger, response)
	s.logger.Info("========================================")
}

// POST /scenario - replace the served scenario with a YAML config
func (s *server) scenarioHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("========================================")
	s.logger.Info("🗺️  Scenario rebuild request received")

	if r.Method != http.MethodPost {
		s.logger.Warnf("❌ Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Warnf("❌ Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cfg, err := scenario.ParseConfig(data)
	if err != nil {
		s.logger.Warnf("❌ %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Info("========================================")
		return
	}
	built, err := scenario.Build(cfg, s.logger)
	if err != nil {
		s.logger.Warnf("❌ %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.logger.Info("========================================")
		return
	}

	s.mu.Lock()
	s.scenario = built
	s.mu.Unlock()

	s.logger.Info("✅ Scenario rebuilt and stored in memory")
	s.logger.Info("========================================")

	writeJSON(w, s.logger, map[string]interface{}{
		"success":   true,
		"gridWidth": built.Grid.XWidth,
		"freeCells": built.Grid.FreeCells(),
	})
}

// GET /map - obstacles and zones as a GeoJSON feature collection
func (s *server) mapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sc := s.current()
	fc := geojson.NewFeatureCollection()

	bounds := geojson.NewFeature(orb.Bound{
		Min: orb.Point{float64(sc.Grid.MinX), float64(sc.Grid.MinY)},
		Max: orb.Point{float64(sc.Grid.MaxX), float64(sc.Grid.MaxY)},
	}.ToPolygon())
	bounds.Properties["role"] = "bounds"
	bounds.Properties["resolution"] = sc.Grid.Resolution
	fc.Append(bounds)

	occupied := sc.Grid.Occupied()
	cells := make(orb.MultiPoint, 0, len(occupied))
	for _, p := range occupied {
		cells = append(cells, p.Orb())
	}
	obstacles := geojson.NewFeature(cells)
	obstacles.Properties["role"] = scenario.RoleObstacle
	fc.Append(obstacles)

	for _, pz := range sc.Model.Penalties {
		f := zoneFeature(pz.Zone, scenario.RolePenalty, pz.Name)
		f.Properties["multiplier"] = pz.Multiplier
		fc.Append(f)
	}
	for _, rz := range sc.Model.Rewards {
		f := zoneFeature(rz.Zone, scenario.RoleReward, rz.Name)
		f.Properties["vx"] = rz.Field.VX
		f.Properties["vy"] = rz.Field.VY
		f.Properties["max_discount"] = rz.MaxDiscount
		f.Properties["counter_penalty"] = rz.CounterPenalty
		fc.Append(f)
	}

	s.logger.Debugw("map served", "occupied", len(occupied), "features", len(fc.Features))
	writeJSON(w, s.logger, fc)
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	sc := s.current()
	writeJSON(w, s.logger, map[string]interface{}{
		"status":     "ready",
		"strategy":   sc.Config.Strategy,
		"gridWidth":  sc.Grid.XWidth,
		"gridHeight": sc.Grid.YWidth,
		"freeCells":  sc.Grid.FreeCells(),
	})
}

// zoneFeature renders a zone as the rectangle spanned by its axis values, which is
// exactly the region its per-axis membership accepts when the values are contiguous.
func zoneFeature(z cost.Zone, role, name string) *geojson.Feature {
	xs, ys := z.Xs(), z.Ys()
	var g orb.Geometry = orb.MultiPoint{}
	if len(xs) > 0 && len(ys) > 0 {
		g = orb.Bound{
			Min: orb.Point{xs[0], ys[0]},
			Max: orb.Point{xs[len(xs)-1], ys[len(ys)-1]},
		}.ToPolygon()
	}
	f := geojson.NewFeature(g)
	f.Properties["role"] = role
	f.Properties["name"] = name
	return f
}

// finite drops costs that JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("⚠️  Failed to encode response: %v", err)
	}
}
