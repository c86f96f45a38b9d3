package analysis

import "math"

// Reference scales used when no Params are given.
const (
	DefaultGoalDenominator     = 3.0
	DefaultConcededDenominator = 3.0
	DefaultKeyPlayers          = 5
)

// missingDefaults is the value a feature takes when its raw input is absent.
// The policy is deliberately per feature: no goal data counts as the worst
// case for both attack and defence, while no injury data counts as a fully
// available squad.
var missingDefaults = map[Feature]float64{
	FeatureGoalsFor:           0.0,
	FeatureGoalsAgainst:       0.0,
	FeaturePlayerAvailability: 1.0,
}

// MissingDefault returns the value substituted for feature f when its input is missing.
func MissingDefault(f Feature) float64 {
	return missingDefaults[f]
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// NormalizeForm scores a form string as earned points over available points.
func NormalizeForm(form Form) float64 {
	results := form.Results()
	if len(results) == 0 {
		return 0
	}
	points := 0
	for _, r := range results {
		p, _ := r.Points()
		points += p
	}
	return clamp01(float64(points) / float64(3*len(results)))
}

// NormalizeGoalRate maps goals scored per match onto [0,1] against denom.
func NormalizeGoalRate(goalsPerMatch Measurement, denom float64) float64 {
	if !goalsPerMatch.Valid || denom == 0 {
		return missingDefaults[FeatureGoalsFor]
	}
	return clamp01(goalsPerMatch.Value / denom)
}

// InvertNormalizeConceded maps goals conceded per match onto [0,1], where
// fewer conceded scores higher.
func InvertNormalizeConceded(concededPerMatch Measurement, denom float64) float64 {
	if !concededPerMatch.Valid || denom == 0 {
		return missingDefaults[FeatureGoalsAgainst]
	}
	return clamp01(1 - concededPerMatch.Value/denom)
}

// NormalizeManagerRate is the share of played matches that were won.
func NormalizeManagerRate(wins, played int) float64 {
	if played <= 0 {
		return 0
	}
	return clamp01(float64(wins) / float64(played))
}

// NormalizePlayerAvailability discounts availability by injured key players.
func NormalizePlayerAvailability(injuries InjuryCount, keyPlayers int) float64 {
	if !injuries.Known {
		return missingDefaults[FeaturePlayerAvailability]
	}
	if keyPlayers <= 0 {
		return 0
	}
	return clamp01(1 - float64(injuries.Count)/float64(keyPlayers))
}

// Location is 1 for the home side and 0 otherwise.
func Location(side Side) float64 {
	if side == Home {
		return 1
	}
	return 0
}
