package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quorum/internal/signal"
)

func TestScoreEmptyVotesIsNeutral(t *testing.T) {
	res := Score("technical", nil, 6.3)
	assert.Equal(t, Neutral, res.Signal)
	assert.Equal(t, 50, res.Confidence)
	assert.False(t, res.Abstained)
}

func TestScoreTieIsNeutral(t *testing.T) {
	votes := []signal.Vote{
		{Direction: signal.Buy, Weight: 1.2, Reason: "a"},
		{Direction: signal.Sell, Weight: 1.2, Reason: "b"},
	}
	res := Score("technical", votes, 6.3)
	assert.Equal(t, Neutral, res.Signal)
	assert.Equal(t, 50, res.Confidence)
	// 理由保留，供聚合层展示
	assert.Equal(t, []string{"a", "b"}, res.Reasons)
}

func TestScoreConfidenceDilutedByFullWeight(t *testing.T) {
	// 只有 SMA 一族发声：1.0 / 6.3 → floor(15.87) = 15
	votes := []signal.Vote{{Direction: signal.Buy, Weight: 1.0}}
	res := Score("technical", votes, 6.3)
	assert.Equal(t, Buy, res.Signal)
	assert.Equal(t, 15, res.Confidence)
}

func TestScoreConfidenceMonotonic(t *testing.T) {
	one := Score("t", []signal.Vote{{Direction: signal.Buy, Weight: 1.0}}, 6.3)
	two := Score("t", []signal.Vote{
		{Direction: signal.Buy, Weight: 1.0},
		{Direction: signal.Buy, Weight: 1.5},
	}, 6.3)
	assert.Greater(t, two.Confidence, one.Confidence)
}

func TestScoreCapAt99(t *testing.T) {
	votes := []signal.Vote{{Direction: signal.Sell, Weight: 6.3}}
	res := Score("t", votes, 6.3)
	assert.Equal(t, Sell, res.Signal)
	assert.Equal(t, 99, res.Confidence)
}

func TestScoreZeroTotalFallsBackToVotedWeight(t *testing.T) {
	votes := []signal.Vote{
		{Direction: signal.Buy, Weight: 3.0},
		{Direction: signal.Sell, Weight: 1.0},
	}
	res := Score("t", votes, 0)
	assert.Equal(t, Buy, res.Signal)
	assert.Equal(t, 75, res.Confidence)
}
