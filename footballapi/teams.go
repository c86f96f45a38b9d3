package footballapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"football-trends/apperr"
)

// GetTeams lists the clubs of a league season
func (c *Client) GetTeams(ctx context.Context, league, season int) ([]TeamEntry, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(league))
	params.Set("season", strconv.Itoa(season))

	var teams []TeamEntry
	if _, err := c.get(ctx, "/teams", params, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// GetTeamStatistics retrieves the season statistics of a team in a league
func (c *Client) GetTeamStatistics(ctx context.Context, league, season, team int) (*TeamStatistics, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(league))
	params.Set("season", strconv.Itoa(season))
	params.Set("team", strconv.Itoa(team))

	var stats TeamStatistics
	n, err := c.get(ctx, "/teams/statistics", params, &stats)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("statistics for team %d in league %d/%d: %w", team, league, season, apperr.ErrNotFound)
	}
	return &stats, nil
}
