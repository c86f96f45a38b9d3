package analysis

// Summary holds the per-match figures shown next to a team's chart.
type Summary struct {
	WinRate              float64 `json:"win_rate"`
	DrawRate             float64 `json:"draw_rate"`
	LossRate             float64 `json:"loss_rate"`
	GoalsForPerMatch     float64 `json:"goals_for_per_match"`
	GoalsAgainstPerMatch float64 `json:"goals_against_per_match"`
	GoalDifference       int     `json:"goal_difference"`
	PointsPerMatch       float64 `json:"points_per_match"`
}

// Summarize derives Summary from raw statistics. Rates are zero when no
// matches were played.
func Summarize(s TeamStatistics) Summary {
	sum := Summary{GoalDifference: s.GoalsFor - s.GoalsAgainst}
	if s.MatchesPlayed <= 0 {
		return sum
	}
	played := float64(s.MatchesPlayed)
	sum.WinRate = float64(s.Wins) / played
	sum.DrawRate = float64(s.Draws) / played
	sum.LossRate = float64(s.Losses) / played
	sum.GoalsForPerMatch = float64(s.GoalsFor) / played
	sum.GoalsAgainstPerMatch = float64(s.GoalsAgainst) / played
	sum.PointsPerMatch = float64(3*s.Wins+s.Draws) / played
	return sum
}
