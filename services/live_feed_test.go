package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type invalidation struct {
	fixture int
	teams   []int
}

type recordingInvalidator struct {
	calls []invalidation
}

func (r *recordingInvalidator) Invalidate(fixtureID int, teamIDs ...int) int {
	r.calls = append(r.calls, invalidation{fixtureID, teamIDs})
	return 0
}

func TestLiveFeedNestedPayload(t *testing.T) {
	inv := &recordingInvalidator{}
	f := NewLiveFeed(LiveFeedConfig{}, inv)

	f.HandleMessage("football/live", []byte(`{"fixture":{"id":1035037},"teams":{"home":{"id":33},"away":{"id":36}}}`))

	assert.Equal(t, []invalidation{{1035037, []int{33, 36}}}, inv.calls)
}

func TestLiveFeedFlatPayload(t *testing.T) {
	inv := &recordingInvalidator{}
	f := NewLiveFeed(LiveFeedConfig{}, inv)

	f.HandleMessage("football/live", []byte(`{"fixture_id":12,"home_team_id":1,"away_team_id":2}`))

	assert.Equal(t, []invalidation{{12, []int{1, 2}}}, inv.calls)
}

func TestLiveFeedTopicFallback(t *testing.T) {
	inv := &recordingInvalidator{}
	f := NewLiveFeed(LiveFeedConfig{}, inv)

	f.HandleMessage("football/live/998877", []byte(`not json`))
	f.HandleMessage("football/live/score", nil)

	assert.Equal(t, []invalidation{{998877, []int{0, 0}}}, inv.calls)
}

func TestTopicFixtureID(t *testing.T) {
	assert.Equal(t, 42, topicFixtureID("football/live/42/"))
	assert.Equal(t, 0, topicFixtureID("football/live/-3"))
	assert.Equal(t, 0, topicFixtureID(""))
}
