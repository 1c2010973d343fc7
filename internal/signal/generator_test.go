package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"quorum/internal/indicator"
)

func baseSet(n int) indicator.Set {
	nan := make([]float64, n)
	for i := range nan {
		nan[i] = math.NaN()
	}
	clone := func() []float64 { return append([]float64(nil), nan...) }
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
	}
	return indicator.Set{
		SMAShort:    clone(),
		SMALong:     clone(),
		EMAShort:    clone(),
		EMALong:     clone(),
		RSI:         clone(),
		MACD:        clone(),
		MACDSignal:  clone(),
		MACDHist:    clone(),
		BollUpper:   clone(),
		BollMiddle:  clone(),
		BollLower:   clone(),
		VolumeRatio: clone(),
		Closes:      closes,
		Volumes:     make([]float64, n),
		Count:       n,
	}
}

func TestGenerateGoldenCross(t *testing.T) {
	set := baseSet(3)
	set.SMAShort[1], set.SMALong[1] = 9, 10
	set.SMAShort[2], set.SMALong[2] = 11, 10

	votes := Generate(set, indicator.DefaultConfig())
	assert.Len(t, votes, 1)
	assert.Equal(t, Buy, votes[0].Direction)
	assert.InDelta(t, 1.0, votes[0].Weight, 1e-9)
	assert.Contains(t, votes[0].Reason, "SMA")
}

func TestGenerateNoRepeatWhileAbove(t *testing.T) {
	// 快线持续在慢线上方，没有穿越就不发票
	set := baseSet(3)
	set.SMAShort[1], set.SMALong[1] = 11, 10
	set.SMAShort[2], set.SMALong[2] = 12, 10

	votes := Generate(set, indicator.DefaultConfig())
	assert.Empty(t, votes)
}

func TestGenerateDeathCrossAtEquality(t *testing.T) {
	// prev 相等、last 跌破，按 >= 判定视为死叉
	set := baseSet(3)
	set.EMAShort[1], set.EMALong[1] = 10, 10
	set.EMAShort[2], set.EMALong[2] = 9, 10

	votes := Generate(set, indicator.DefaultConfig())
	assert.Len(t, votes, 1)
	assert.Equal(t, Sell, votes[0].Direction)
	assert.InDelta(t, 1.5, votes[0].Weight, 1e-9)
}

func TestGenerateRSIThresholds(t *testing.T) {
	set := baseSet(3)
	set.RSI[2] = 25
	votes := Generate(set, indicator.DefaultConfig())
	assert.Len(t, votes, 1)
	assert.Equal(t, Buy, votes[0].Direction)

	set.RSI[2] = 75
	votes = Generate(set, indicator.DefaultConfig())
	assert.Len(t, votes, 1)
	assert.Equal(t, Sell, votes[0].Direction)

	// 正好在阈值上不触发
	set.RSI[2] = 30
	assert.Empty(t, Generate(set, indicator.DefaultConfig()))
}

func TestGenerateBollingerBreakout(t *testing.T) {
	set := baseSet(3)
	set.BollUpper[2], set.BollLower[2] = 110, 90
	set.Closes[2] = 85
	votes := Generate(set, indicator.DefaultConfig())
	assert.Len(t, votes, 1)
	assert.Equal(t, Buy, votes[0].Direction)
	assert.InDelta(t, 0.9, votes[0].Weight, 1e-9)
}

func TestGenerateVolumeSpikeFollowsPrice(t *testing.T) {
	set := baseSet(3)
	set.VolumeRatio[2] = 2.0
	set.Closes[1] = 100
	set.Closes[2] = 105
	votes := Generate(set, indicator.DefaultConfig())
	assert.Len(t, votes, 1)
	assert.Equal(t, Buy, votes[0].Direction)
	assert.InDelta(t, 0.7, votes[0].Weight, 1e-9)

	// 放量但价格持平不发票
	set.Closes[2] = 100
	assert.Empty(t, Generate(set, indicator.DefaultConfig()))
}

func TestGenerateTooFewRows(t *testing.T) {
	set := baseSet(1)
	assert.Nil(t, Generate(set, indicator.DefaultConfig()))
}

func TestGenerateVoteOrderIsStable(t *testing.T) {
	set := baseSet(3)
	set.SMAShort[1], set.SMALong[1] = 9, 10
	set.SMAShort[2], set.SMALong[2] = 11, 10
	set.RSI[2] = 20
	set.VolumeRatio[2] = 2.0
	set.Closes[1], set.Closes[2] = 100, 105

	votes := Generate(set, indicator.DefaultConfig())
	assert.Len(t, votes, 3)
	assert.Contains(t, votes[0].Reason, "SMA")
	assert.Contains(t, votes[1].Reason, "RSI")
	assert.Contains(t, votes[2].Reason, "放量")
}
