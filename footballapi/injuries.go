package footballapi

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// InjuryQuery selects injuries either by fixture or by team and date
type InjuryQuery struct {
	Fixture int
	League  int
	Season  int
	Team    int
	Date    time.Time
}

func (q InjuryQuery) values() url.Values {
	params := url.Values{}
	if q.Fixture > 0 {
		params.Set("fixture", strconv.Itoa(q.Fixture))
	}
	if q.League > 0 {
		params.Set("league", strconv.Itoa(q.League))
	}
	if q.Season > 0 {
		params.Set("season", strconv.Itoa(q.Season))
	}
	if q.Team > 0 {
		params.Set("team", strconv.Itoa(q.Team))
	}
	if !q.Date.IsZero() {
		params.Set("date", q.Date.Format("2006-01-02"))
	}
	return params
}

// GetInjuries lists unavailable players matching the query
func (c *Client) GetInjuries(ctx context.Context, q InjuryQuery) ([]Injury, error) {
	var injuries []Injury
	if _, err := c.get(ctx, "/injuries", q.values(), &injuries); err != nil {
		return nil, err
	}
	return injuries, nil
}
