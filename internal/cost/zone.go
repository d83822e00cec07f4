// Package cost prices individual steps of a route: penalty zones inflate the nominal
// step distance, reward zones discount or penalise it depending on how well the motion
// lines up with their directional field.
package cost

import (
	"math"
	"sort"

	"flight-planner/internal/geom"
)

// keyScale quantises coordinates before set lookup so that positions computed as
// index*resolution+min still match the values the zone was declared with.
const keyScale = 1e6

// Zone is a region described by a point set. Membership is tested per axis: a position
// is inside when its X appears among the zone's X values and its Y appears among the
// zone's Y values. For non-rectangular point sets this is coarser than true containment.
type Zone struct {
	xs map[int64]struct{}
	ys map[int64]struct{}
}

// NewZone builds a zone from its points. Duplicates and ordering do not matter.
func NewZone(points []geom.Point) Zone {
	z := Zone{
		xs: make(map[int64]struct{}, len(points)),
		ys: make(map[int64]struct{}, len(points)),
	}
	for _, p := range points {
		z.xs[key(p.X)] = struct{}{}
		z.ys[key(p.Y)] = struct{}{}
	}
	return z
}

// Contains reports per-axis membership of p.
func (z Zone) Contains(p geom.Point) bool {
	if _, ok := z.xs[key(p.X)]; !ok {
		return false
	}
	_, ok := z.ys[key(p.Y)]
	return ok
}

// Empty reports whether the zone has no points.
func (z Zone) Empty() bool {
	return len(z.xs) == 0 || len(z.ys) == 0
}

// Xs returns the distinct X values in ascending order.
func (z Zone) Xs() []float64 {
	return sortedValues(z.xs)
}

// Ys returns the distinct Y values in ascending order.
func (z Zone) Ys() []float64 {
	return sortedValues(z.ys)
}

func key(v float64) int64 {
	return int64(math.Round(v * keyScale))
}

func sortedValues(set map[int64]struct{}) []float64 {
	values := make([]float64, 0, len(set))
	for k := range set {
		values = append(values, float64(k)/keyScale)
	}
	sort.Float64s(values)
	return values
}
