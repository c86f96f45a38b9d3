package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestNewScorerRejectsBadWeights(t *testing.T) {
	short := DefaultWeights()
	delete(short, FeatureManagerRate)

	heavy := DefaultWeights()
	heavy[FeatureForm] = 0.35

	negative := DefaultWeights()
	negative[FeatureForm] = -0.25
	negative[FeatureLocation] = 0.65

	renamed := DefaultWeights()
	delete(renamed, FeatureManagerRate)
	renamed["coachRate"] = 0.10

	for name, w := range map[string]Weights{
		"missing":  short,
		"sum":      heavy,
		"negative": negative,
		"unknown":  renamed,
	} {
		_, err := NewScorer(w)
		assert.ErrorIs(t, err, ErrInvalidWeights, name)
	}
}

func TestScorerCopiesWeights(t *testing.T) {
	w := DefaultWeights()
	s, err := NewScorer(w)
	require.NoError(t, err)

	w[FeatureForm] = 0.9
	assert.Equal(t, 0.25, s.Weight(FeatureForm))
}

func TestScore(t *testing.T) {
	s, err := NewScorer(DefaultWeights())
	require.NoError(t, err)

	ones := FeatureVector{}
	for _, f := range Features {
		ones = append(ones, FeatureValue{f, 1})
	}
	assert.InDelta(t, 1.0, s.Score(ones), 1e-12)
	assert.Equal(t, 0.0, s.Score(FeatureVector{}))

	fv := FeatureVector{
		{FeatureLocation, 1},
		{FeatureForm, 0.5},
		{FeatureGoalsFor, 0.5},
		{FeatureGoalsAgainst, 0.5},
		{FeaturePlayerAvailability, 1},
		{FeatureManagerRate, 0},
	}
	assert.InDelta(t, 0.15+0.125+0.10+0.075+0.15, s.Score(fv), 1e-12)
}
