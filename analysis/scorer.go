package analysis

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned when a weight set cannot produce a score in [0,1].
var ErrInvalidWeights = errors.New("invalid weights")

const weightTolerance = 1e-9

// Weights maps each feature to its share of the strength score.
type Weights map[Feature]float64

// DefaultWeights returns the stock weighting. The shares sum to 1.
func DefaultWeights() Weights {
	return Weights{
		FeatureLocation:           0.15,
		FeatureForm:               0.25,
		FeatureGoalsFor:           0.20,
		FeatureGoalsAgainst:       0.15,
		FeaturePlayerAvailability: 0.15,
		FeatureManagerRate:        0.10,
	}
}

// Validate checks that every feature has a non-negative weight and the total is 1.
func (w Weights) Validate() error {
	if len(w) != len(Features) {
		return fmt.Errorf("%w: want %d features, got %d", ErrInvalidWeights, len(Features), len(w))
	}
	sum := 0.0
	for _, f := range Features {
		v, ok := w[f]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidWeights, f)
		}
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, f, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: sum is %v", ErrInvalidWeights, sum)
	}
	return nil
}

// Scorer reduces a FeatureVector to a strength score.
type Scorer struct {
	weights Weights
}

// NewScorer copies w after validating it.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	cp := make(Weights, len(w))
	for k, v := range w {
		cp[k] = v
	}
	return &Scorer{weights: cp}, nil
}

// Weight returns the share assigned to f.
func (s *Scorer) Weight(f Feature) float64 {
	return s.weights[f]
}

// Score is the weighted sum of the vector. Unknown feature names contribute nothing.
func (s *Scorer) Score(v FeatureVector) float64 {
	score := 0.0
	for _, e := range v {
		score += s.weights[e.Name] * e.Value
	}
	return score
}
