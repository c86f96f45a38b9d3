package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"football-trends/analysis"
	"football-trends/apperr"
	"football-trends/footballapi"
	"football-trends/logger"
)

// TeamQuery selects one team's season.
type TeamQuery struct {
	League int
	Season int
	Team   int
	Side   analysis.Side
}

// CompareQuery selects two teams of the same league season.
type CompareQuery struct {
	League     int
	Season     int
	Home       int
	Away       int
	HeadToHead int
}

// TeamReport is the single-team view.
type TeamReport struct {
	TeamSnapshot
	Summary  analysis.Summary    `json:"summary"`
	Injuries InjuryReport        `json:"injuries"`
	Rating   analysis.TeamRating `json:"rating"`
}

// MatchReport is the head-to-head view.
type MatchReport struct {
	FixtureID   int                      `json:"fixture_id,omitempty"`
	Fixture     *footballapi.Fixture     `json:"fixture,omitempty"`
	League      int                      `json:"league"`
	Season      int                      `json:"season"`
	Home        TeamReport               `json:"home"`
	Away        TeamReport               `json:"away"`
	Prediction  analysis.MatchPrediction `json:"prediction"`
	HeadToHead  []footballapi.Fixture    `json:"head_to_head,omitempty"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// AnalysisService joins the stats provider, the model and the sinks.
type AnalysisService struct {
	stats  *StatsProvider
	model  *analysis.Model
	sink   PredictionSink
	league int
	season int
	now    func() time.Time
	log    *logrus.Entry
}

// NewAnalysisService creates the service. defaultLeague and defaultSeason
// fill queries that leave them out. sink may be nil.
func NewAnalysisService(stats *StatsProvider, model *analysis.Model, sink PredictionSink, defaultLeague, defaultSeason int) *AnalysisService {
	return &AnalysisService{
		stats:  stats,
		model:  model,
		sink:   sink,
		league: defaultLeague,
		season: defaultSeason,
		now:    time.Now,
		log:    logger.With("analysis"),
	}
}

// Model returns the scoring model in use.
func (s *AnalysisService) Model() *analysis.Model {
	return s.model
}

func (s *AnalysisService) leagueSeason(league, season int) (int, int) {
	if league <= 0 {
		league = s.league
	}
	if season <= 0 {
		season = s.season
	}
	return league, season
}

// Teams lists the clubs of a league season.
func (s *AnalysisService) Teams(ctx context.Context, league, season int) ([]footballapi.TeamEntry, error) {
	league, season = s.leagueSeason(league, season)
	teams, err := s.stats.Teams(ctx, league, season)
	if err != nil {
		return nil, fmt.Errorf("listing teams for %d/%d: %w", league, season, err)
	}
	return teams, nil
}

// TeamReport rates one team on its own.
func (s *AnalysisService) TeamReport(ctx context.Context, q TeamQuery) (*TeamReport, error) {
	if q.Team <= 0 {
		return nil, apperr.Invalid("team id is required")
	}
	if q.Side == "" {
		q.Side = analysis.Home
	}
	if q.Side != analysis.Home && q.Side != analysis.Away {
		return nil, apperr.Invalid("side must be home or away")
	}
	q.League, q.Season = s.leagueSeason(q.League, q.Season)

	snap, err := s.stats.TeamStats(ctx, q.League, q.Season, q.Team)
	if err != nil {
		return nil, fmt.Errorf("team %d statistics: %w", q.Team, err)
	}
	injuries := s.stats.SeasonInjuries(ctx, q.League, q.Season, q.Team)
	report := s.buildTeamReport(snap, injuries, q.Side)
	return &report, nil
}

// Compare predicts a match between two teams of the same league season.
func (s *AnalysisService) Compare(ctx context.Context, q CompareQuery) (*MatchReport, error) {
	if q.Home <= 0 || q.Away <= 0 {
		return nil, apperr.Invalid("home and away team ids are required")
	}
	if q.Home == q.Away {
		return nil, apperr.Invalid("home and away must be different teams")
	}
	if q.HeadToHead < 0 {
		return nil, apperr.Invalid("h2h must not be negative")
	}
	q.League, q.Season = s.leagueSeason(q.League, q.Season)

	var (
		home, away       TeamSnapshot
		homeInj, awayInj InjuryReport
		h2h              []footballapi.Fixture
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if home, err = s.stats.TeamStats(gctx, q.League, q.Season, q.Home); err != nil {
			return fmt.Errorf("home team %d statistics: %w", q.Home, err)
		}
		homeInj = s.stats.SeasonInjuries(gctx, q.League, q.Season, q.Home)
		return nil
	})
	g.Go(func() error {
		var err error
		if away, err = s.stats.TeamStats(gctx, q.League, q.Season, q.Away); err != nil {
			return fmt.Errorf("away team %d statistics: %w", q.Away, err)
		}
		awayInj = s.stats.SeasonInjuries(gctx, q.League, q.Season, q.Away)
		return nil
	})
	if q.HeadToHead > 0 {
		g.Go(func() error {
			var err error
			if h2h, err = s.stats.HeadToHead(gctx, q.Home, q.Away, q.HeadToHead); err != nil {
				// head-to-head is decoration, the prediction does not depend on it
				s.log.WithError(err).Warn("head-to-head lookup failed")
				h2h = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := s.buildMatchReport(home, away, homeInj, awayInj)
	report.League, report.Season = q.League, q.Season
	report.HeadToHead = h2h
	s.publish(ctx, KindCompare, report)
	return report, nil
}

// PredictFixture predicts a scheduled fixture using its own home/away sides
// and the injuries reported for it.
func (s *AnalysisService) PredictFixture(ctx context.Context, fixtureID int) (*MatchReport, error) {
	if fixtureID <= 0 {
		return nil, apperr.Invalid("fixture id is required")
	}
	fx, err := s.stats.Fixture(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("fixture %d: %w", fixtureID, err)
	}
	league, season := fx.League.ID, fx.League.Season
	homeID, awayID := fx.Teams.Home.ID, fx.Teams.Away.ID

	var home, away TeamSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if home, err = s.stats.TeamStats(gctx, league, season, homeID); err != nil {
			return fmt.Errorf("home team %d statistics: %w", homeID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if away, err = s.stats.TeamStats(gctx, league, season, awayID); err != nil {
			return fmt.Errorf("away team %d statistics: %w", awayID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	homeInj, awayInj := s.stats.FixtureInjuries(ctx, fixtureID, homeID, awayID)

	report := s.buildMatchReport(home, away, homeInj, awayInj)
	report.FixtureID = fixtureID
	report.Fixture = fx
	report.League, report.Season = league, season
	s.publish(ctx, KindFixture, report)
	return report, nil
}

// UpcomingFixtures lists the next fixtures of a league season.
func (s *AnalysisService) UpcomingFixtures(ctx context.Context, q footballapi.FixtureQuery) ([]footballapi.Fixture, error) {
	q.League, q.Season = s.leagueSeason(q.League, q.Season)
	if q.Next <= 0 && q.Last <= 0 && q.From.IsZero() && q.To.IsZero() {
		q.Next = 10
	}
	fixtures, err := s.stats.Fixtures(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing fixtures: %w", err)
	}
	return fixtures, nil
}

// Invalidate forwards live-update invalidation to the stats cache.
func (s *AnalysisService) Invalidate(fixtureID int, teamIDs ...int) int {
	return s.stats.Invalidate(fixtureID, teamIDs...)
}

func (s *AnalysisService) buildTeamReport(snap TeamSnapshot, injuries InjuryReport, side analysis.Side) TeamReport {
	rating := s.model.Rate(analysis.TeamInput{Stats: snap.Stats, Injuries: injuries.InjuryCount()}, side)
	return TeamReport{
		TeamSnapshot: snap,
		Summary:      analysis.Summarize(snap.Stats),
		Injuries:     injuries,
		Rating:       rating,
	}
}

func (s *AnalysisService) buildMatchReport(home, away TeamSnapshot, homeInj, awayInj InjuryReport) *MatchReport {
	result := s.model.Analyze(
		analysis.TeamInput{Stats: home.Stats, Injuries: homeInj.InjuryCount()},
		analysis.TeamInput{Stats: away.Stats, Injuries: awayInj.InjuryCount()},
	)
	return &MatchReport{
		Home: TeamReport{
			TeamSnapshot: home,
			Summary:      analysis.Summarize(home.Stats),
			Injuries:     homeInj,
			Rating:       result.Home,
		},
		Away: TeamReport{
			TeamSnapshot: away,
			Summary:      analysis.Summarize(away.Stats),
			Injuries:     awayInj,
			Rating:       result.Away,
		},
		Prediction:  result.Prediction,
		GeneratedAt: s.now().UTC(),
	}
}

// publish hands the prediction to the sinks. Failures are logged only.
func (s *AnalysisService) publish(ctx context.Context, kind string, r *MatchReport) {
	if s.sink == nil {
		return
	}
	ev := PredictionEvent{
		Kind:         kind,
		FixtureID:    r.FixtureID,
		League:       r.League,
		Season:       r.Season,
		Home:         TeamRef{ID: r.Home.Team.ID, Name: r.Home.Team.Name},
		Away:         TeamRef{ID: r.Away.Team.ID, Name: r.Away.Team.Name},
		HomeScore:    r.Home.Rating.Score,
		AwayScore:    r.Away.Rating.Score,
		HomeFeatures: r.Home.Rating.Features,
		AwayFeatures: r.Away.Rating.Features,
		Prediction:   r.Prediction,
		CreatedAt:    r.GeneratedAt,
	}
	if err := s.sink.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"kind": kind,
			"home": ev.Home.ID,
			"away": ev.Away.ID,
		}).Error("publishing prediction failed")
	}
}
