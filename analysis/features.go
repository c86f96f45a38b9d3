package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Feature names one normalized input of the strength score.
type Feature string

const (
	FeatureLocation           Feature = "location"
	FeatureForm               Feature = "form"
	FeatureGoalsFor           Feature = "goalsFor"
	FeatureGoalsAgainst       Feature = "goalsAgainst"
	FeaturePlayerAvailability Feature = "playerAvailability"
	FeatureManagerRate        Feature = "managerRate"
)

// Features lists every feature in display order.
var Features = []Feature{
	FeatureLocation,
	FeatureForm,
	FeatureGoalsFor,
	FeatureGoalsAgainst,
	FeaturePlayerAvailability,
	FeatureManagerRate,
}

// Side says whether a team plays at home.
type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Home {
		return Away
	}
	return Home
}

// TeamStatistics are the season figures a rating is built from.
// Wins+Draws+Losses may exceed MatchesPlayed in upstream data; it is not checked.
type TeamStatistics struct {
	MatchesPlayed int  `json:"matches_played"`
	Wins          int  `json:"wins"`
	Draws         int  `json:"draws"`
	Losses        int  `json:"losses"`
	GoalsFor      int  `json:"goals_for"`
	GoalsAgainst  int  `json:"goals_against"`
	RecentForm    Form `json:"recent_form"`
}

// FeatureValue is one entry of a FeatureVector.
type FeatureValue struct {
	Name  Feature
	Value float64
}

// FeatureVector holds normalized features in display order.
type FeatureVector []FeatureValue

// Get returns the value stored for f.
func (v FeatureVector) Get(f Feature) (float64, bool) {
	for _, e := range v {
		if e.Name == f {
			return e.Value, true
		}
	}
	return 0, false
}

// MarshalJSON encodes the vector as an object, keeping entry order.
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(e.Name))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object produced by MarshalJSON, keeping key order.
func (v *FeatureVector) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("feature vector: expected object, got %v", tok)
	}
	out := FeatureVector{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("feature vector: expected key, got %v", tok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("feature vector: %s: %w", name, err)
		}
		out = append(out, FeatureValue{Name: Feature(name), Value: value})
	}
	*v = out
	return nil
}

// BuildFeatures normalizes one team's statistics into the six-entry vector.
func BuildFeatures(stats TeamStatistics, injuries InjuryCount, side Side, p Params) FeatureVector {
	goalsFor := perMatch(stats.GoalsFor, stats.MatchesPlayed)
	goalsAgainst := perMatch(stats.GoalsAgainst, stats.MatchesPlayed)

	return FeatureVector{
		{FeatureLocation, Location(side)},
		{FeatureForm, NormalizeForm(stats.RecentForm)},
		{FeatureGoalsFor, NormalizeGoalRate(goalsFor, p.GoalDenominator)},
		{FeatureGoalsAgainst, InvertNormalizeConceded(goalsAgainst, p.ConcededDenominator)},
		{FeaturePlayerAvailability, NormalizePlayerAvailability(injuries, p.KeyPlayers)},
		{FeatureManagerRate, NormalizeManagerRate(stats.Wins, stats.MatchesPlayed)},
	}
}
