package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"flight-planner/internal/geom"
	"flight-planner/internal/scenario"
)

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagAddr     = "addr"
	flagStrategy = "strategy"
	flagStart    = "start"
	flagGoal     = "goal"
	flagVia      = "via"
)

func main() {
	var logger *zap.SugaredLogger

	app := &cli.App{
		Name:  "flight-planner",
		Usage: "cost-aware route planning over a 2D obstacle map",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load the scenario from `FILE` (built-in demo map when empty)",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			l, err := newLogger(c.Bool(flagDebug))
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				//nolint:errcheck
				logger.Sync()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return serve(c, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve routes over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagAddr, Value: ":8080", Usage: "listen address"},
				},
				Action: func(c *cli.Context) error {
					return serve(c, logger)
				},
			},
			{
				Name:  "plan",
				Usage: "plan one route and print it",
				Flags: routeFlags(),
				Action: func(c *cli.Context) error {
					return planCommand(c, logger)
				},
			},
			{
				Name:  "sweep",
				Usage: "find the cheapest reward band placement",
				Flags: routeFlags(),
				Action: func(c *cli.Context) error {
					return sweepCommand(c, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func routeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagStrategy, Usage: "astar or rrt (scenario default when empty)"},
		&cli.Float64SliceFlag{Name: flagStart, Usage: "start `X,Y` (scenario default when empty)"},
		&cli.Float64SliceFlag{Name: flagGoal, Usage: "goal `X,Y` (scenario default when empty)"},
		&cli.Float64SliceFlag{Name: flagVia, Usage: "waypoints as a flat `X1,Y1,X2,Y2,...` list"},
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// loadScenario builds the scenario named by --config, or the demo map.
func loadScenario(c *cli.Context, logger *zap.SugaredLogger) (*scenario.Scenario, error) {
	cfg := scenario.DemoConfig()
	if path := c.String(flagConfig); path != "" {
		loaded, err := scenario.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		logger.Infof("Loaded scenario from %s", path)
	} else {
		logger.Info("ℹ️  No scenario file given, using the built-in demo map")
	}
	return scenario.Build(cfg, logger)
}

func serve(c *cli.Context, logger *zap.SugaredLogger) error {
	logger.Info("========================================")
	logger.Info("🚀 Flight Route Planner Server")
	logger.Info("========================================")

	sc, err := loadScenario(c, logger)
	if err != nil {
		return err
	}

	addr := c.String(flagAddr)
	if addr == "" {
		addr = ":8080"
	}

	srv := newServer(sc, logger)
	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(srv.routes())

	logger.Infof("Server starting on %s", addr)
	logger.Info("")
	logger.Info("Endpoints:")
	logger.Info("  POST /route      - Compute a route through optional waypoints")
	logger.Info("  POST /sweep      - Find the cheapest reward band placement")
	logger.Info("  POST /scenario   - Replace the scenario with a YAML config")
	logger.Info("  GET  /map        - Obstacles and zones as GeoJSON")
	logger.Info("  GET  /health     - Check server status")
	logger.Info("")
	logger.Info("CORS enabled for all origins")
	logger.Info("========================================")

	return http.ListenAndServe(addr, handler)
}

func planCommand(c *cli.Context, logger *zap.SugaredLogger) error {
	sc, err := loadScenario(c, logger)
	if err != nil {
		return err
	}
	start, goal, waypoints, err := routeEndpoints(c, sc.Config)
	if err != nil {
		return err
	}

	assembler, err := sc.Assembler(c.String(flagStrategy))
	if err != nil {
		return err
	}
	plan, err := assembler.Plan(c.Context, start, waypoints, goal)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "cost %.3f, distance %.3f over %d legs (%d nodes expanded)\n",
		plan.Cost, geom.PathLength(plan.Path), len(plan.LegCosts), plan.Expanded)
	for i, p := range geom.Compress(plan.Path) {
		fmt.Fprintf(c.App.Writer, "%3d: (%.3f, %.3f)\n", i, p.X, p.Y)
	}
	return nil
}

func sweepCommand(c *cli.Context, logger *zap.SugaredLogger) error {
	sc, err := loadScenario(c, logger)
	if err != nil {
		return err
	}
	if sc.Config.Sweep == nil {
		return errors.Wrap(scenario.ErrInvalidConfig, "scenario has no sweep block")
	}
	start, goal, _, err := routeEndpoints(c, sc.Config)
	if err != nil {
		return err
	}

	res, err := sc.SweepRewardBand(c.Context, *sc.Config.Sweep, c.String(flagStrategy), start, goal)
	if err != nil {
		return err
	}

	for _, p := range res.Placements {
		if p.Found {
			fmt.Fprintf(c.App.Writer, "y=%6.1f  cost %.3f\n", p.BandY, p.Cost)
		} else {
			fmt.Fprintf(c.App.Writer, "y=%6.1f  no route\n", p.BandY)
		}
	}
	best := res.BestPlacement()
	fmt.Fprintf(c.App.Writer, "best band starts at y=%v with cost %.3f\n", best.BandY, best.Cost)
	return nil
}

// routeEndpoints reads --start, --goal and --via, falling back to the scenario's route.
func routeEndpoints(c *cli.Context, cfg *scenario.Config) (geom.Point, geom.Point, []geom.Point, error) {
	start, goal := cfg.Start, cfg.Goal
	waypoints := cfg.Waypoints

	if v := c.Float64Slice(flagStart); len(v) > 0 {
		p, err := pointFlag(flagStart, v)
		if err != nil {
			return start, goal, nil, err
		}
		start = p
	}
	if v := c.Float64Slice(flagGoal); len(v) > 0 {
		p, err := pointFlag(flagGoal, v)
		if err != nil {
			return start, goal, nil, err
		}
		goal = p
	}
	if v := c.Float64Slice(flagVia); len(v) > 0 {
		if len(v)%2 != 0 {
			return start, goal, nil, errors.Errorf("--%s needs an even number of coordinates, got %d", flagVia, len(v))
		}
		waypoints = nil
		for i := 0; i < len(v); i += 2 {
			waypoints = append(waypoints, geom.Point{X: v[i], Y: v[i+1]})
		}
	}
	return start, goal, waypoints, nil
}

func pointFlag(name string, v []float64) (geom.Point, error) {
	if len(v) != 2 {
		return geom.Point{}, errors.Errorf("--%s needs X,Y, got %d values", name, len(v))
	}
	return geom.Point{X: v[0], Y: v[1]}, nil
}
