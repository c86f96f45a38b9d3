package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"football-trends/analysis"
	"football-trends/apperr"
	"football-trends/footballapi"
)

func newTestService(src *fakeSource, sink PredictionSink) *AnalysisService {
	svc := NewAnalysisService(newTestProvider(src), analysis.DefaultModel(), sink, 39, 2024)
	svc.now = func() time.Time { return time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func seededSource() *fakeSource {
	src := newFakeSource()
	src.addTeam(33, "Manchester United", "WWDLW", 10, 6, 2, 2, 20, 10)
	src.addTeam(36, "Fulham", "LDLWL", 10, 2, 3, 5, 9, 18)
	return src
}

func TestTeamReport(t *testing.T) {
	src := seededSource()
	src.addInjury(33, 1, "A")
	svc := newTestService(src, nil)

	r, err := svc.TeamReport(context.Background(), TeamQuery{Team: 33})
	require.NoError(t, err)
	assert.Equal(t, analysis.Home, r.Rating.Side)
	assert.InDelta(t, 0.73, r.Rating.Score, 1e-9)
	assert.Equal(t, 1, r.Injuries.Count)
	assert.InDelta(t, 0.6, r.Summary.WinRate, 1e-12)

	away, err := svc.TeamReport(context.Background(), TeamQuery{Team: 33, Side: analysis.Away})
	require.NoError(t, err)
	assert.InDelta(t, 0.58, away.Rating.Score, 1e-9)
}

func TestTeamReportValidation(t *testing.T) {
	svc := newTestService(seededSource(), nil)

	_, err := svc.TeamReport(context.Background(), TeamQuery{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.TeamReport(context.Background(), TeamQuery{Team: 33, Side: "neutral"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCompare(t *testing.T) {
	src := seededSource()
	src.addInjury(33, 1, "A")
	sink := &recordingSink{}
	svc := newTestService(src, sink)

	r, err := svc.Compare(context.Background(), CompareQuery{Home: 33, Away: 36, HeadToHead: 5})
	require.NoError(t, err)

	assert.Equal(t, 39, r.League)
	assert.Equal(t, 2024, r.Season)
	assert.InDelta(t, 0.73, r.Home.Rating.Score, 1e-9)
	assert.False(t, r.Prediction.IsDraw)
	assert.Equal(t, analysis.Home, r.Prediction.Winner)
	assert.InDelta(t, 1.0, r.Prediction.HomeProbability+r.Prediction.AwayProbability, 1e-12)
	assert.NotNil(t, r.HeadToHead)
	assert.Equal(t, 1, src.callCount("h2h"))

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, KindCompare, ev.Kind)
	assert.Equal(t, TeamRef{ID: 33, Name: "Manchester United"}, ev.Home)
	assert.Equal(t, r.Prediction, ev.Prediction)
	assert.Len(t, ev.HomeFeatures, len(analysis.Features))
}

func TestCompareValidation(t *testing.T) {
	svc := newTestService(seededSource(), nil)
	ctx := context.Background()

	for _, q := range []CompareQuery{
		{Home: 33},
		{Home: 33, Away: 33},
		{Home: 33, Away: 36, HeadToHead: -1},
	} {
		_, err := svc.Compare(ctx, q)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "%+v", q)
	}
}

func TestCompareMissingTeam(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(seededSource(), sink)

	_, err := svc.Compare(context.Background(), CompareQuery{Home: 33, Away: 999})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, sink.events)
}

func TestCompareSinkFailureIsNotFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	svc := newTestService(seededSource(), sink)

	_, err := svc.Compare(context.Background(), CompareQuery{Home: 33, Away: 36})
	require.NoError(t, err)
	assert.Len(t, sink.events, 1)
}

func TestPredictFixture(t *testing.T) {
	src := seededSource()
	src.addFixture(1035037, 36, 33)
	src.addInjury(33, 1, "A")
	src.addInjury(33, 2, "B")
	sink := &recordingSink{}
	svc := newTestService(src, sink)

	r, err := svc.PredictFixture(context.Background(), 1035037)
	require.NoError(t, err)

	assert.Equal(t, 1035037, r.FixtureID)
	assert.Equal(t, 36, r.Home.Team.ID)
	assert.Equal(t, 33, r.Away.Team.ID)
	assert.Equal(t, 0, r.Home.Injuries.Count)
	assert.Equal(t, 2, r.Away.Injuries.Count)
	availability, _ := r.Away.Rating.Features.Get(analysis.FeaturePlayerAvailability)
	assert.InDelta(t, 0.6, availability, 1e-12)

	require.Len(t, sink.events, 1)
	assert.Equal(t, KindFixture, sink.events[0].Kind)
	assert.Equal(t, 1035037, sink.events[0].FixtureID)
}

func TestPredictFixtureNotFound(t *testing.T) {
	svc := newTestService(seededSource(), nil)

	_, err := svc.PredictFixture(context.Background(), 5)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.PredictFixture(context.Background(), 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPredictFixtureIsIdempotent(t *testing.T) {
	src := seededSource()
	src.addFixture(7, 33, 36)
	svc := newTestService(src, nil)

	a, err := svc.PredictFixture(context.Background(), 7)
	require.NoError(t, err)
	b, err := svc.PredictFixture(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUpcomingFixturesDefaults(t *testing.T) {
	src := seededSource()
	src.addFixture(7, 33, 36)
	svc := newTestService(src, nil)

	fixtures, err := svc.UpcomingFixtures(context.Background(), footballapi.FixtureQuery{})
	require.NoError(t, err)
	assert.Len(t, fixtures, 1)
}

func TestMultiSink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("b failed")}
	c := &recordingSink{}

	err := MultiSink{a, nil, b, c}.Publish(context.Background(), PredictionEvent{Kind: KindFixture})
	assert.EqualError(t, err, "b failed")
	assert.Len(t, a.events, 1)
	assert.Len(t, c.events, 1)

	assert.NoError(t, MultiSink{}.Publish(context.Background(), PredictionEvent{}))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "prediction.fixture", RoutingKey(PredictionEvent{Kind: KindFixture}))
	assert.Equal(t, "prediction.unknown", RoutingKey(PredictionEvent{}))
}

func TestPredictionEventInvolves(t *testing.T) {
	ev := PredictionEvent{Home: TeamRef{ID: 33}, Away: TeamRef{ID: 36}}
	assert.True(t, ev.Involves(36))
	assert.False(t, ev.Involves(40))
}
