package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"football-trends/analysis"
	"football-trends/apperr"
	"football-trends/footballapi"
)

func newTestProvider(src StatsSource) *StatsProvider {
	p := NewStatsProvider(src, NewQueryCache(time.Hour), analysis.DefaultFormWindow)
	p.now = func() time.Time { return time.Date(2024, 9, 1, 15, 30, 0, 0, time.UTC) }
	return p
}

func TestToTeamStatistics(t *testing.T) {
	raw := &footballapi.TeamStatistics{Form: "LLWDWWDLW"}
	raw.Fixtures.Played.Total = 9
	raw.Fixtures.Wins.Total = 4
	raw.Fixtures.Draws.Total = 2
	raw.Fixtures.Loses.Total = 3
	raw.Goals.For.Total.Total = 12
	raw.Goals.Against.Total.Total = 10

	got := ToTeamStatistics(raw, 5)
	assert.Equal(t, analysis.TeamStatistics{
		MatchesPlayed: 9, Wins: 4, Draws: 2, Losses: 3,
		GoalsFor: 12, GoalsAgainst: 10, RecentForm: "WWDLW",
	}, got)
}

func TestInjuryReportFor(t *testing.T) {
	src := newFakeSource()
	src.addInjury(33, 1, "A")
	src.addInjury(33, 1, "A")
	src.addInjury(33, 2, "B")
	src.addInjury(36, 3, "C")

	r := InjuryReportFor(src.injuries, 33)
	assert.True(t, r.Known)
	assert.Equal(t, 2, r.Count)
	assert.Equal(t, analysis.Injuries(2), r.InjuryCount())

	none := InjuryReportFor(nil, 40)
	assert.Equal(t, 0, none.Count)
	assert.Equal(t, analysis.Injuries(0), none.InjuryCount())

	assert.Equal(t, analysis.UnknownInjuries, InjuryReport{}.InjuryCount())
}

func TestTeamStatsIsCached(t *testing.T) {
	src := newFakeSource()
	src.addTeam(33, "Manchester United", "WWDLW", 10, 6, 2, 2, 20, 10)
	p := newTestProvider(src)

	for i := 0; i < 3; i++ {
		snap, err := p.TeamStats(context.Background(), 39, 2024, 33)
		require.NoError(t, err)
		assert.Equal(t, "Manchester United", snap.Team.Name)
		assert.Equal(t, 10, snap.Stats.MatchesPlayed)
	}
	assert.Equal(t, 1, src.callCount("stats"))
}

func TestTeamStatsNotFound(t *testing.T) {
	p := newTestProvider(newFakeSource())
	_, err := p.TeamStats(context.Background(), 39, 2024, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSeasonInjuriesFailureIsUnknown(t *testing.T) {
	src := newFakeSource()
	src.injuryErr = errors.New("connection reset")
	p := newTestProvider(src)

	r := p.SeasonInjuries(context.Background(), 39, 2024, 33)
	assert.False(t, r.Known)
	assert.Equal(t, analysis.UnknownInjuries, r.InjuryCount())
}

func TestFixtureInjuriesSplitsBySide(t *testing.T) {
	src := newFakeSource()
	src.addInjury(33, 1, "A")
	src.addInjury(36, 2, "B")
	src.addInjury(36, 3, "C")
	p := newTestProvider(src)

	home, away := p.FixtureInjuries(context.Background(), 99, 33, 36)
	assert.Equal(t, 1, home.Count)
	assert.Equal(t, 2, away.Count)
	assert.Equal(t, 1, src.callCount("injuries"))
}

func TestInvalidate(t *testing.T) {
	src := newFakeSource()
	src.addTeam(33, "A", "W", 1, 1, 0, 0, 1, 0)
	src.addTeam(36, "B", "L", 1, 0, 0, 1, 0, 1)
	src.addFixture(99, 33, 36)
	p := newTestProvider(src)
	ctx := context.Background()

	_, err := p.TeamStats(ctx, 39, 2024, 33)
	require.NoError(t, err)
	_, err = p.Fixture(ctx, 99)
	require.NoError(t, err)
	p.FixtureInjuries(ctx, 99, 33, 36)

	assert.Equal(t, 2, p.Invalidate(99, 33, 36))
	_, err = p.TeamStats(ctx, 39, 2024, 33)
	require.NoError(t, err)
	assert.Equal(t, 2, src.callCount("stats"))
}

func TestInvalidateFixtureIsExact(t *testing.T) {
	src := newFakeSource()
	src.addTeam(33, "A", "W", 1, 1, 0, 0, 1, 0)
	src.addTeam(36, "B", "L", 1, 0, 0, 1, 0, 1)
	p := newTestProvider(src)
	ctx := context.Background()

	p.FixtureInjuries(ctx, 1, 33, 36)
	p.FixtureInjuries(ctx, 10, 33, 36)
	p.FixtureInjuries(ctx, 100, 33, 36)
	require.Equal(t, 3, src.callCount("injuries"))

	assert.Equal(t, 1, p.Invalidate(1))

	p.FixtureInjuries(ctx, 10, 33, 36)
	p.FixtureInjuries(ctx, 100, 33, 36)
	assert.Equal(t, 3, src.callCount("injuries"))
	p.FixtureInjuries(ctx, 1, 33, 36)
	assert.Equal(t, 4, src.callCount("injuries"))
}

func TestUpstreamErr(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, upstreamErr(ctx, nil))
	assert.ErrorIs(t, upstreamErr(ctx, errors.New("dial tcp: refused")), apperr.ErrUpstream)
	assert.ErrorIs(t, upstreamErr(ctx, &footballapi.APIError{StatusCode: 500}), apperr.ErrUpstream)
	assert.ErrorIs(t, upstreamErr(ctx, context.DeadlineExceeded), apperr.ErrUpstream)

	notFound := upstreamErr(ctx, apperr.ErrNotFound)
	assert.ErrorIs(t, notFound, apperr.ErrNotFound)
	assert.NotErrorIs(t, notFound, apperr.ErrUpstream)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := upstreamErr(cancelled, context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, apperr.ErrUpstream)
}

func TestUpstreamTimeoutIsBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.Write([]byte(`{"errors":[],"results":0,"response":[]}`))
	}))
	defer srv.Close()

	client := footballapi.NewClientWithConfig(footballapi.Config{
		BaseURL: srv.URL,
		APIKey:  "test_key",
		Timeout: 50 * time.Millisecond,
	})
	p := NewStatsProvider(client, NewQueryCache(time.Hour), analysis.DefaultFormWindow)

	_, err := p.Fixtures(context.Background(), footballapi.FixtureQuery{League: 39, Season: 2024})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, apperr.HTTPStatus(err))
}
