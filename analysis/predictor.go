package analysis

import "math"

// DefaultDrawThreshold is the score gap below which no favourite is declared.
const DefaultDrawThreshold = 0.10

// MatchPrediction is the verdict for one pairing.
// Winner is empty when IsDraw is set, and also in the no-information case
// where both scores are zero.
type MatchPrediction struct {
	HomeProbability float64 `json:"home_probability"`
	AwayProbability float64 `json:"away_probability"`
	IsDraw          bool    `json:"is_draw"`
	Winner          Side    `json:"winner,omitempty"`
}

// Predictor turns two strength scores into a MatchPrediction.
type Predictor struct {
	DrawThreshold float64
}

// Predict compares the home and away scores. The draw rule is applied to the
// raw scores, not to the derived probabilities.
func (p Predictor) Predict(homeScore, awayScore float64) MatchPrediction {
	total := homeScore + awayScore
	if total == 0 {
		return MatchPrediction{HomeProbability: 0.5, AwayProbability: 0.5}
	}

	home := homeScore / total
	pred := MatchPrediction{
		HomeProbability: home,
		AwayProbability: 1 - home,
		IsDraw:          math.Abs(homeScore-awayScore) < p.DrawThreshold,
	}
	if !pred.IsDraw {
		if homeScore > awayScore {
			pred.Winner = Home
		} else if awayScore > homeScore {
			pred.Winner = Away
		}
	}
	return pred
}
