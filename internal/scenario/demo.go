package scenario

import (
	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
)

// DemoConfig returns the reference flight map: a walled 70x70 area with three
// diagonal obstacle lines, a time cost zone and a fuel cost zone, routed from (0, 0)
// to (50, 50). The sweep block places a 5-row band with a 5% discount along (1, 1).
func DemoConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Boundary = &Boundary{Min: -10, Max: 60}
	cfg.Lines = []Line{
		{From: geom.Point{X: 20, Y: 0}, To: geom.Point{X: 25, Y: 20}, Steps: 425},
		{From: geom.Point{X: 10, Y: 55}, To: geom.Point{X: 25, Y: 45}, Steps: 325},
		{From: geom.Point{X: 30, Y: 0}, To: geom.Point{X: 45, Y: 10}, Steps: 325},
	}
	cfg.PenaltyZones = []PenaltyConfig{
		{Name: "time", Multiplier: 0.3, Area: Area{Rect: &Rect{X0: 10, X1: 25, Y0: 20, Y1: 45}}},
		{Name: "fuel", Multiplier: 0.15, Area: Area{Rect: &Rect{X0: 30, X1: 45, Y0: 10, Y1: 35}}},
	}
	cfg.Start = geom.Point{X: 0, Y: 0}
	cfg.Goal = geom.Point{X: 50, Y: 50}
	cfg.Sweep = &SweepConfig{
		FromY:       -10,
		ToY:         56,
		Height:      5,
		X0:          -10,
		X1:          60,
		Direction:   cost.DirectionalField{VX: 1, VY: 1},
		MaxDiscount: 0.05,
	}
	cfg.setDefaults()
	return cfg
}
