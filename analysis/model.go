// Package analysis rates football teams from season statistics and turns two
// ratings into a win probability.
//
// Everything here is a pure function of its inputs. Fetching, caching and
// presentation belong to callers.
package analysis

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid analysis params")

// DefaultFormWindow is the number of latest results kept from a form string.
const DefaultFormWindow = 5

// Params are the tunable constants of the model.
type Params struct {
	GoalDenominator     float64
	ConcededDenominator float64
	KeyPlayers          int
	DrawThreshold       float64
	FormWindow          int
	Weights             Weights
}

// DefaultParams returns the stock model constants.
func DefaultParams() Params {
	return Params{
		GoalDenominator:     DefaultGoalDenominator,
		ConcededDenominator: DefaultConcededDenominator,
		KeyPlayers:          DefaultKeyPlayers,
		DrawThreshold:       DefaultDrawThreshold,
		FormWindow:          DefaultFormWindow,
		Weights:             DefaultWeights(),
	}
}

// Validate rejects constants that would make normalization meaningless.
func (p Params) Validate() error {
	if p.GoalDenominator <= 0 {
		return fmt.Errorf("%w: goal denominator must be positive", ErrInvalidParams)
	}
	if p.ConcededDenominator <= 0 {
		return fmt.Errorf("%w: conceded denominator must be positive", ErrInvalidParams)
	}
	if p.KeyPlayers <= 0 {
		return fmt.Errorf("%w: key players must be positive", ErrInvalidParams)
	}
	if p.DrawThreshold < 0 || p.DrawThreshold > 1 {
		return fmt.Errorf("%w: draw threshold must be within [0,1]", ErrInvalidParams)
	}
	if p.FormWindow < 0 {
		return fmt.Errorf("%w: form window must not be negative", ErrInvalidParams)
	}
	return p.Weights.Validate()
}

// TeamInput is what a caller supplies for one side of a match.
type TeamInput struct {
	Stats    TeamStatistics
	Injuries InjuryCount
}

// TeamRating is the normalized view of one team.
type TeamRating struct {
	Side     Side          `json:"side"`
	Features FeatureVector `json:"features"`
	Score    float64       `json:"score"`
}

// Analysis is the full result for a pairing.
type Analysis struct {
	Home       TeamRating      `json:"home"`
	Away       TeamRating      `json:"away"`
	Prediction MatchPrediction `json:"prediction"`
}

// Model wires the aggregator, scorer and predictor together.
type Model struct {
	params    Params
	scorer    *Scorer
	predictor Predictor
}

// NewModel validates p and builds a Model.
func NewModel(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	scorer, err := NewScorer(p.Weights)
	if err != nil {
		return nil, err
	}
	return &Model{
		params:    p,
		scorer:    scorer,
		predictor: Predictor{DrawThreshold: p.DrawThreshold},
	}, nil
}

// DefaultModel builds a Model from DefaultParams.
func DefaultModel() *Model {
	m, err := NewModel(DefaultParams())
	if err != nil {
		panic(err)
	}
	return m
}

// Params returns the constants the model was built with.
func (m *Model) Params() Params {
	return m.params
}

// Rate builds the feature vector and score for one team.
func (m *Model) Rate(in TeamInput, side Side) TeamRating {
	features := BuildFeatures(in.Stats, in.Injuries, side, m.params)
	return TeamRating{
		Side:     side,
		Features: features,
		Score:    m.scorer.Score(features),
	}
}

// Analyze rates both teams and predicts the match.
func (m *Model) Analyze(home, away TeamInput) Analysis {
	h := m.Rate(home, Home)
	a := m.Rate(away, Away)
	return Analysis{
		Home:       h,
		Away:       a,
		Prediction: m.predictor.Predict(h.Score, a.Score),
	}
}
