package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"quorum/internal/market"
)

func makeCandles(closes []float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			OpenTime:  int64(i) * 60_000,
			CloseTime: int64(i)*60_000 + 59_999,
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    100,
		}
	}
	return out
}

func TestSMAConstantSeries(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5, 5}
	sma := SMA(values, 3)
	assert.Len(t, sma, len(values))
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	for i := 2; i < len(sma); i++ {
		assert.InDelta(t, 5.0, sma[i], 1e-9)
	}
}

func TestSMAWarmupBoundary(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	sma := SMA(values, 3)
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 3.0, sma[3], 1e-9)
}

func TestEMASeedIsFirstClose(t *testing.T) {
	values := []float64{10, 12, 14}
	ema := EMA(values, 2)
	// k = 2/(n+1) = 2/3
	assert.InDelta(t, 10.0, ema[0], 1e-9)
	assert.InDelta(t, 10+2.0/3.0*(12-10), ema[1], 1e-9)
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	rsi := RSI(values, 14)
	// 需要 n+1 个值才有第一个有效点
	assert.True(t, math.IsNaN(rsi[13]))
	assert.InDelta(t, 100.0, rsi[14], 1e-9)
	assert.InDelta(t, 100.0, rsi[len(rsi)-1], 1e-9)
}

func TestRSIBalancedMovesIsFifty(t *testing.T) {
	// 涨跌幅完全对称，平均涨=平均跌 → RSI 50
	values := make([]float64, 0, 21)
	v := 100.0
	values = append(values, v)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			v += 1
		} else {
			v -= 1
		}
		values = append(values, v)
	}
	rsi := RSI(values, 14)
	assert.InDelta(t, 50.0, rsi[len(rsi)-1], 1e-9)
}

func TestBollingerPopulationStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	upper, middle, lower := Bollinger(values, 8, 2)
	// 均值 5，总体标准差 2
	assert.InDelta(t, 5.0, middle[7], 1e-9)
	assert.InDelta(t, 9.0, upper[7], 1e-9)
	assert.InDelta(t, 1.0, lower[7], 1e-9)
}

func TestVolumeRatio(t *testing.T) {
	volumes := make([]float64, 25)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[24] = 300
	ratio := VolumeRatio(volumes, 20)
	// 窗口含当前值：SMA=(19*100+300)/20=110
	assert.InDelta(t, 300.0/110.0, ratio[24], 1e-6)
}

func TestComputeInsufficientData(t *testing.T) {
	cfg := DefaultConfig()
	candles := makeCandles(make([]float64, cfg.MinCandles()-1))
	for i := range candles {
		candles[i].Close = 100
	}
	_, err := Compute(candles, cfg)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeFullSet(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	set, err := Compute(makeCandles(closes), DefaultConfig())
	assert.NoError(t, err)
	assert.Equal(t, 40, set.Count)
	assert.False(t, math.IsNaN(set.SMALong[39]))
	assert.False(t, math.IsNaN(set.RSI[39]))
	assert.False(t, math.IsNaN(set.BollUpper[39]))
}

func TestMinCandlesIsMaxLookback(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30, cfg.MinCandles())
}
