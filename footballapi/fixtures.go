package footballapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"football-trends/apperr"
)

// FixtureQuery represents options for listing fixtures
type FixtureQuery struct {
	League int
	Season int
	Team   int
	Next   int
	Last   int
	From   time.Time
	To     time.Time
	Status string // e.g. NS, FT, "NS-PST"
}

func (q FixtureQuery) values() url.Values {
	params := url.Values{}
	if q.League > 0 {
		params.Set("league", strconv.Itoa(q.League))
	}
	if q.Season > 0 {
		params.Set("season", strconv.Itoa(q.Season))
	}
	if q.Team > 0 {
		params.Set("team", strconv.Itoa(q.Team))
	}
	if q.Next > 0 {
		params.Set("next", strconv.Itoa(q.Next))
	}
	if q.Last > 0 {
		params.Set("last", strconv.Itoa(q.Last))
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.Format("2006-01-02"))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format("2006-01-02"))
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	return params
}

// GetFixtures retrieves a list of fixtures
func (c *Client) GetFixtures(ctx context.Context, q FixtureQuery) ([]Fixture, error) {
	var fixtures []Fixture
	if _, err := c.get(ctx, "/fixtures", q.values(), &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// GetFixture retrieves a single fixture by id
func (c *Client) GetFixture(ctx context.Context, id int) (*Fixture, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(id))

	var fixtures []Fixture
	if _, err := c.get(ctx, "/fixtures", params, &fixtures); err != nil {
		return nil, err
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("fixture %d: %w", id, apperr.ErrNotFound)
	}
	return &fixtures[0], nil
}

// GetHeadToHead retrieves previous meetings of two teams, newest first when last > 0
func (c *Client) GetHeadToHead(ctx context.Context, teamA, teamB, last int) ([]Fixture, error) {
	params := url.Values{}
	params.Set("h2h", fmt.Sprintf("%d-%d", teamA, teamB))
	if last > 0 {
		params.Set("last", strconv.Itoa(last))
	}

	var fixtures []Fixture
	if _, err := c.get(ctx, "/fixtures/headtohead", params, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}
