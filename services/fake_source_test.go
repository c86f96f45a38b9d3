package services

import (
	"context"
	"fmt"
	"sync"

	"football-trends/apperr"
	"football-trends/footballapi"
)

// fakeSource is an in-memory StatsSource that counts calls.
type fakeSource struct {
	mu        sync.Mutex
	stats     map[int]*footballapi.TeamStatistics
	injuries  []footballapi.Injury
	injuryErr error
	fixtures  map[int]*footballapi.Fixture
	calls     map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		stats:    make(map[int]*footballapi.TeamStatistics),
		fixtures: make(map[int]*footballapi.Fixture),
		calls:    make(map[string]int),
	}
}

func (f *fakeSource) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeSource) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) addTeam(id int, name, form string, played, wins, draws, losses, gf, ga int) {
	s := &footballapi.TeamStatistics{}
	s.Team = footballapi.Team{ID: id, Name: name}
	s.League = footballapi.League{ID: 39, Season: 2024}
	s.Form = form
	s.Fixtures.Played.Total = played
	s.Fixtures.Wins.Total = wins
	s.Fixtures.Draws.Total = draws
	s.Fixtures.Loses.Total = losses
	s.Goals.For.Total.Total = gf
	s.Goals.Against.Total.Total = ga
	f.stats[id] = s
}

func (f *fakeSource) addInjury(team, player int, name string) {
	inj := footballapi.Injury{}
	inj.Team.ID = team
	inj.Player.ID = player
	inj.Player.Name = name
	inj.Player.Reason = "Knock"
	f.injuries = append(f.injuries, inj)
}

func (f *fakeSource) GetTeams(ctx context.Context, league, season int) ([]footballapi.TeamEntry, error) {
	f.count("teams")
	var out []footballapi.TeamEntry
	for _, s := range f.stats {
		out = append(out, footballapi.TeamEntry{Team: s.Team})
	}
	return out, nil
}

func (f *fakeSource) GetTeamStatistics(ctx context.Context, league, season, team int) (*footballapi.TeamStatistics, error) {
	f.count("stats")
	s, ok := f.stats[team]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", team, apperr.ErrNotFound)
	}
	return s, nil
}

func (f *fakeSource) GetInjuries(ctx context.Context, q footballapi.InjuryQuery) ([]footballapi.Injury, error) {
	f.count("injuries")
	if f.injuryErr != nil {
		return nil, f.injuryErr
	}
	return f.injuries, nil
}

func (f *fakeSource) GetFixtures(ctx context.Context, q footballapi.FixtureQuery) ([]footballapi.Fixture, error) {
	f.count("fixtures")
	var out []footballapi.Fixture
	for _, fx := range f.fixtures {
		out = append(out, *fx)
	}
	return out, nil
}

func (f *fakeSource) GetFixture(ctx context.Context, id int) (*footballapi.Fixture, error) {
	f.count("fixture")
	fx, ok := f.fixtures[id]
	if !ok {
		return nil, fmt.Errorf("fixture %d: %w", id, apperr.ErrNotFound)
	}
	return fx, nil
}

func (f *fakeSource) GetHeadToHead(ctx context.Context, teamA, teamB, last int) ([]footballapi.Fixture, error) {
	f.count("h2h")
	return []footballapi.Fixture{}, nil
}

func (f *fakeSource) addFixture(id, home, away int) {
	fx := &footballapi.Fixture{}
	fx.Fixture.ID = id
	fx.League = footballapi.League{ID: 39, Season: 2024}
	fx.Teams.Home = footballapi.FixtureTeam{ID: home, Name: f.stats[home].Team.Name}
	fx.Teams.Away = footballapi.FixtureTeam{ID: away, Name: f.stats[away].Team.Name}
	f.fixtures[id] = fx
}

// recordingSink keeps published events.
type recordingSink struct {
	mu     sync.Mutex
	events []PredictionEvent
	err    error
}

func (r *recordingSink) Publish(ctx context.Context, ev PredictionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}
