package scenario

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"flight-planner/internal/cost"
	"flight-planner/internal/geom"
)

// Feature roles recognised in the "role" property.
const (
	RoleObstacle = "obstacle"
	RolePenalty  = "penalty"
	RoleReward   = "reward"
)

// Features is everything read from a GeoJSON file. Zones keep their outline and are
// resolved against the grid by Build.
type Features struct {
	Obstacles []geom.Point
	Penalties []PenaltyConfig
	Rewards   []RewardConfig
}

// LoadGeoJSON reads a feature collection. Obstacle lines and polygon outlines are
// densified at resolution.
func LoadGeoJSON(path string, resolution float64, logger *zap.SugaredLogger) (*Features, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ParseGeoJSON(data, resolution, logger)
}

// ParseGeoJSON decodes a feature collection. Features with unsupported geometry are
// skipped with a warning.
func ParseGeoJSON(data []byte, resolution float64, logger *zap.SugaredLogger) (*Features, error) {
	if resolution <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "resolution must be positive, got %v", resolution)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	out := &Features{}
	for i, f := range fc.Features {
		role := f.Properties.MustString("role", RoleObstacle)
		name := f.Properties.MustString("name", "")

		switch role {
		case RoleObstacle:
			pts := outlinePoints(f.Geometry, resolution)
			if len(pts) == 0 {
				logger.Warnf("⚠️  feature %d: unsupported obstacle geometry %s", i, geometryType(f.Geometry))
				continue
			}
			out.Obstacles = append(out.Obstacles, pts...)

		case RolePenalty:
			area, ok := areaOf(f.Geometry)
			if !ok {
				logger.Warnf("⚠️  feature %d: unsupported zone geometry %s", i, geometryType(f.Geometry))
				continue
			}
			out.Penalties = append(out.Penalties, PenaltyConfig{
				Name:       name,
				Multiplier: f.Properties.MustFloat64("multiplier", 0),
				Area:       area,
			})

		case RoleReward:
			area, ok := areaOf(f.Geometry)
			if !ok {
				logger.Warnf("⚠️  feature %d: unsupported zone geometry %s", i, geometryType(f.Geometry))
				continue
			}
			out.Rewards = append(out.Rewards, RewardConfig{
				Name: name,
				Direction: cost.DirectionalField{
					VX: f.Properties.MustFloat64("vx", 0),
					VY: f.Properties.MustFloat64("vy", 0),
				},
				MaxDiscount:    f.Properties.MustFloat64("max_discount", 0),
				CounterPenalty: f.Properties.MustFloat64("counter_penalty", 0),
				Area:           area,
			})

		default:
			return nil, errors.Wrapf(ErrInvalidConfig, "feature %d has unknown role %q", i, role)
		}
	}

	logger.Infof("✅ Loaded %d obstacle points, %d penalty zones, %d reward zones",
		len(out.Obstacles), len(out.Penalties), len(out.Rewards))
	return out, nil
}

// outlinePoints turns a geometry into obstacle points: points as-is, lines and polygon
// rings densified so no gap exceeds step.
func outlinePoints(g orb.Geometry, step float64) []geom.Point {
	switch g := g.(type) {
	case orb.Point:
		return []geom.Point{geom.FromOrb(g)}
	case orb.MultiPoint:
		pts := make([]geom.Point, 0, len(g))
		for _, p := range g {
			pts = append(pts, geom.FromOrb(p))
		}
		return pts
	case orb.LineString:
		return densify(g, step)
	case orb.MultiLineString:
		var pts []geom.Point
		for _, ls := range g {
			pts = append(pts, densify(ls, step)...)
		}
		return pts
	case orb.Ring:
		return densify(orb.LineString(g), step)
	case orb.Polygon:
		var pts []geom.Point
		for _, r := range g {
			pts = append(pts, densify(orb.LineString(r), step)...)
		}
		return pts
	case orb.MultiPolygon:
		var pts []geom.Point
		for _, poly := range g {
			pts = append(pts, outlinePoints(poly, step)...)
		}
		return pts
	}
	return nil
}

func densify(ls orb.LineString, step float64) []geom.Point {
	if len(ls) == 0 {
		return nil
	}
	pts := []geom.Point{geom.FromOrb(ls[0])}
	for i := 1; i < len(ls); i++ {
		seg := geom.Segment{P1: geom.FromOrb(ls[i-1]), P2: geom.FromOrb(ls[i])}
		// The first sample repeats the previous segment's end.
		pts = append(pts, seg.Sample(step)[1:]...)
	}
	return pts
}

// areaOf keeps zone points as explicit points and polygons as shapes.
func areaOf(g orb.Geometry) (Area, bool) {
	switch g := g.(type) {
	case orb.Point:
		return Area{Points: []geom.Point{geom.FromOrb(g)}}, true
	case orb.MultiPoint:
		pts := make([]geom.Point, 0, len(g))
		for _, p := range g {
			pts = append(pts, geom.FromOrb(p))
		}
		return Area{Points: pts}, true
	case orb.Polygon, orb.MultiPolygon:
		return Area{Shape: g}, true
	}
	return Area{}, false
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "<nil>"
	}
	return g.GeoJSONType()
}
