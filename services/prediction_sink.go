package services

import (
	"context"
	"errors"
	"time"

	"football-trends/analysis"
)

const (
	KindCompare = "compare"
	KindFixture = "fixture"
)

// TeamRef identifies a team in a published prediction.
type TeamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PredictionEvent is what gets stored and broadcast after every prediction.
type PredictionEvent struct {
	ID           int64                    `json:"id,omitempty"`
	Kind         string                   `json:"kind"`
	FixtureID    int                      `json:"fixture_id,omitempty"`
	League       int                      `json:"league"`
	Season       int                      `json:"season"`
	Home         TeamRef                  `json:"home"`
	Away         TeamRef                  `json:"away"`
	HomeScore    float64                  `json:"home_score"`
	AwayScore    float64                  `json:"away_score"`
	HomeFeatures analysis.FeatureVector   `json:"home_features"`
	AwayFeatures analysis.FeatureVector   `json:"away_features"`
	Prediction   analysis.MatchPrediction `json:"prediction"`
	CreatedAt    time.Time                `json:"created_at"`
}

// Involves reports whether team plays in the predicted match.
func (e PredictionEvent) Involves(team int) bool {
	return e.Home.ID == team || e.Away.ID == team
}

// PredictionSink receives finished predictions.
type PredictionSink interface {
	Publish(ctx context.Context, ev PredictionEvent) error
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []PredictionSink

func (m MultiSink) Publish(ctx context.Context, ev PredictionEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
