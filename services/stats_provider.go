package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"football-trends/analysis"
	"football-trends/apperr"
	"football-trends/footballapi"
	"football-trends/logger"
)

// StatsSource is the upstream API surface the service reads from.
// *footballapi.Client satisfies it.
type StatsSource interface {
	GetTeams(ctx context.Context, league, season int) ([]footballapi.TeamEntry, error)
	GetTeamStatistics(ctx context.Context, league, season, team int) (*footballapi.TeamStatistics, error)
	GetInjuries(ctx context.Context, q footballapi.InjuryQuery) ([]footballapi.Injury, error)
	GetFixtures(ctx context.Context, q footballapi.FixtureQuery) ([]footballapi.Fixture, error)
	GetFixture(ctx context.Context, id int) (*footballapi.Fixture, error)
	GetHeadToHead(ctx context.Context, teamA, teamB, last int) ([]footballapi.Fixture, error)
}

// TeamSnapshot is one team's season as the analysis core sees it.
type TeamSnapshot struct {
	Team   footballapi.Team        `json:"team"`
	League footballapi.League      `json:"league"`
	Stats  analysis.TeamStatistics `json:"stats"`
}

// Absence is a display-only record of an unavailable player.
type Absence struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Reason   string `json:"reason"`
}

// InjuryReport pairs the count used by the model with the names behind it.
type InjuryReport struct {
	Known    bool      `json:"known"`
	Count    int       `json:"count"`
	Absences []Absence `json:"absences"`
}

// InjuryCount converts the report for the model.
func (r InjuryReport) InjuryCount() analysis.InjuryCount {
	if !r.Known {
		return analysis.UnknownInjuries
	}
	return analysis.Injuries(r.Count)
}

// StatsProvider fetches through the cache and maps upstream payloads into core types.
type StatsProvider struct {
	source     StatsSource
	cache      *QueryCache
	formWindow int
	now        func() time.Time
	log        *logrus.Entry
}

// NewStatsProvider wires a source to a cache. formWindow limits the form string.
func NewStatsProvider(source StatsSource, cache *QueryCache, formWindow int) *StatsProvider {
	return &StatsProvider{
		source:     source,
		cache:      cache,
		formWindow: formWindow,
		now:        time.Now,
		log:        logger.With("stats"),
	}
}

// Teams lists the clubs of a league season.
func (p *StatsProvider) Teams(ctx context.Context, league, season int) ([]footballapi.TeamEntry, error) {
	key := fmt.Sprintf("teams:%d:%d", league, season)
	return cachedAs(p.cache, key, func() ([]footballapi.TeamEntry, error) {
		v, err := p.source.GetTeams(ctx, league, season)
		return v, upstreamErr(ctx, err)
	})
}

// TeamStats returns a team's season statistics.
func (p *StatsProvider) TeamStats(ctx context.Context, league, season, team int) (TeamSnapshot, error) {
	key := fmt.Sprintf("stats:team:%d:%d:%d", team, league, season)
	raw, err := cachedAs(p.cache, key, func() (*footballapi.TeamStatistics, error) {
		v, err := p.source.GetTeamStatistics(ctx, league, season, team)
		return v, upstreamErr(ctx, err)
	})
	if err != nil {
		return TeamSnapshot{}, err
	}
	return TeamSnapshot{
		Team:   raw.Team,
		League: raw.League,
		Stats:  ToTeamStatistics(raw, p.formWindow),
	}, nil
}

// SeasonInjuries reports the team's absences as of today. Lookup failures
// give an unknown report so the team is not penalised.
func (p *StatsProvider) SeasonInjuries(ctx context.Context, league, season, team int) InjuryReport {
	date := p.now().UTC().Truncate(24 * time.Hour)
	key := fmt.Sprintf("injuries:team:%d:%d:%d:%s", team, league, season, date.Format("2006-01-02"))
	injuries, err := cachedAs(p.cache, key, func() ([]footballapi.Injury, error) {
		v, err := p.source.GetInjuries(ctx, footballapi.InjuryQuery{League: league, Season: season, Team: team, Date: date})
		return v, upstreamErr(ctx, err)
	})
	if err != nil {
		p.log.WithError(err).WithField("team", team).Warn("injury lookup failed, assuming full squad")
		return InjuryReport{}
	}
	return InjuryReportFor(injuries, team)
}

// FixtureInjuries reports absences for both sides of a fixture with a single lookup.
func (p *StatsProvider) FixtureInjuries(ctx context.Context, fixture, home, away int) (InjuryReport, InjuryReport) {
	key := fmt.Sprintf("injuries:fixture:%d", fixture)
	injuries, err := cachedAs(p.cache, key, func() ([]footballapi.Injury, error) {
		v, err := p.source.GetInjuries(ctx, footballapi.InjuryQuery{Fixture: fixture})
		return v, upstreamErr(ctx, err)
	})
	if err != nil {
		p.log.WithError(err).WithField("fixture", fixture).Warn("injury lookup failed, assuming full squads")
		return InjuryReport{}, InjuryReport{}
	}
	return InjuryReportFor(injuries, home), InjuryReportFor(injuries, away)
}

// Fixtures lists fixtures matching q.
func (p *StatsProvider) Fixtures(ctx context.Context, q footballapi.FixtureQuery) ([]footballapi.Fixture, error) {
	return cachedAs(p.cache, GenerateCacheKey("fixtures", q), func() ([]footballapi.Fixture, error) {
		v, err := p.source.GetFixtures(ctx, q)
		return v, upstreamErr(ctx, err)
	})
}

// Fixture returns one fixture.
func (p *StatsProvider) Fixture(ctx context.Context, id int) (*footballapi.Fixture, error) {
	return cachedAs(p.cache, fmt.Sprintf("fixture:%d", id), func() (*footballapi.Fixture, error) {
		v, err := p.source.GetFixture(ctx, id)
		return v, upstreamErr(ctx, err)
	})
}

// HeadToHead returns the last meetings of two teams.
func (p *StatsProvider) HeadToHead(ctx context.Context, teamA, teamB, last int) ([]footballapi.Fixture, error) {
	key := fmt.Sprintf("h2h:%d-%d:%d", teamA, teamB, last)
	return cachedAs(p.cache, key, func() ([]footballapi.Fixture, error) {
		v, err := p.source.GetHeadToHead(ctx, teamA, teamB, last)
		return v, upstreamErr(ctx, err)
	})
}

// Invalidate drops cached data touched by a live update.
func (p *StatsProvider) Invalidate(fixtureID int, teamIDs ...int) int {
	n := 0
	if fixtureID > 0 {
		p.cache.Delete(fmt.Sprintf("fixture:%d", fixtureID))
		if p.cache.Delete(fmt.Sprintf("injuries:fixture:%d", fixtureID)) {
			n++
		}
	}
	for _, id := range teamIDs {
		if id <= 0 {
			continue
		}
		n += p.cache.DeletePrefix(fmt.Sprintf("stats:team:%d:", id))
		n += p.cache.DeletePrefix(fmt.Sprintf("injuries:team:%d:", id))
	}
	return n
}

// ToTeamStatistics maps an upstream statistics payload onto the core record.
func ToTeamStatistics(s *footballapi.TeamStatistics, formWindow int) analysis.TeamStatistics {
	return analysis.TeamStatistics{
		MatchesPlayed: s.Fixtures.Played.Total,
		Wins:          s.Fixtures.Wins.Total,
		Draws:         s.Fixtures.Draws.Total,
		Losses:        s.Fixtures.Loses.Total,
		GoalsFor:      s.Goals.For.Total.Total,
		GoalsAgainst:  s.Goals.Against.Total.Total,
		RecentForm:    analysis.Form(s.Form).Last(formWindow),
	}
}

// InjuryReportFor counts distinct injured players of team.
func InjuryReportFor(injuries []footballapi.Injury, team int) InjuryReport {
	report := InjuryReport{Known: true, Absences: []Absence{}}
	seen := make(map[int]bool)
	for _, inj := range injuries {
		if inj.Team.ID != team {
			continue
		}
		if inj.Player.ID != 0 {
			if seen[inj.Player.ID] {
				continue
			}
			seen[inj.Player.ID] = true
		}
		report.Absences = append(report.Absences, Absence{
			PlayerID: inj.Player.ID,
			Name:     inj.Player.Name,
			Type:     inj.Player.Type,
			Reason:   inj.Player.Reason,
		})
	}
	report.Count = len(report.Absences)
	return report
}

// upstreamErr tags transport failures so callers can tell them from bad input.
// Errors pass through untagged only when the caller's own context ended;
// an upstream timeout is still an upstream failure.
func upstreamErr(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrUpstream), errors.Is(err, apperr.ErrNotFound):
		return err
	case ctx.Err() != nil:
		return err
	}
	return fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
}
