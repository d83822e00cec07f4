package cost

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"flight-planner/internal/geom"
)

// PenaltyZone adds Multiplier times the step distance to every step priced inside it.
type PenaltyZone struct {
	Name       string
	Zone       Zone
	Multiplier float64
}

// DirectionalField is the preferred direction of travel inside a reward zone.
type DirectionalField struct {
	VX float64 `json:"vx" yaml:"vx"`
	VY float64 `json:"vy" yaml:"vy"`
}

// Vec returns the field as a vector.
func (f DirectionalField) Vec() r2.Vec {
	return r2.Vec{X: f.VX, Y: f.VY}
}

// RewardZone discounts steps that follow its field and optionally penalises steps
// that oppose it.
type RewardZone struct {
	Name           string
	Zone           Zone
	Field          DirectionalField
	MaxDiscount    float64 // fraction removed when motion matches the field exactly
	CounterPenalty float64 // fraction added when motion opposes the field exactly
}

// Model prices steps. It is immutable after construction and may be shared.
type Model struct {
	Penalties []PenaltyZone
	Rewards   []RewardZone
}

// NewModel returns a model over the given zones.
func NewModel(penalties []PenaltyZone, rewards []RewardZone) *Model {
	return &Model{Penalties: penalties, Rewards: rewards}
}

// StepCost prices a step of nominal length d whose zone tests are evaluated at "at"
// and whose direction is motion. The result is not clamped, so a strong discount can
// make it negative.
func (m *Model) StepCost(at geom.Point, motion r2.Vec, d float64) float64 {
	cost := d
	if m == nil {
		return cost
	}

	for _, pz := range m.Penalties {
		if pz.Zone.Contains(at) {
			cost += pz.Multiplier * d
		}
	}

	return cost + m.Discount(at, motion, d)
}

// Discount returns the signed adjustment the reward zones apply to a step: negative
// when the motion follows the fields, positive when it opposes them.
func (m *Model) Discount(at geom.Point, motion r2.Vec, d float64) float64 {
	if m == nil {
		return 0
	}

	var adjust float64
	for _, rz := range m.Rewards {
		if !rz.Zone.Contains(at) {
			continue
		}
		c, ok := alignment(motion, rz.Field.Vec())
		if !ok {
			continue
		}
		adjust -= math.Max(0, c) * rz.MaxDiscount * d
		adjust += math.Max(0, -c) * rz.CounterPenalty * d
	}
	return adjust
}

// MinStepFactor is a lower bound on StepCost/d over all positions and directions,
// used to keep the search heuristic admissible when reward zones are present.
func (m *Model) MinStepFactor() float64 {
	if m == nil {
		return 1
	}

	factor := 1.0
	for _, rz := range m.Rewards {
		factor -= math.Max(0, rz.MaxDiscount)
	}
	return math.Max(0, factor)
}

// alignment is the cosine of the angle between motion and field. It reports false
// when either vector has zero length.
func alignment(motion, field r2.Vec) (float64, bool) {
	mn, fn := r2.Norm(motion), r2.Norm(field)
	if mn == 0 || fn == 0 {
		return 0, false
	}
	return r2.Dot(motion, field) / (mn * fn), true
}
