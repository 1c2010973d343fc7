package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func c(openTime int64, close float64) Candle {
	return Candle{OpenTime: openTime, CloseTime: openTime + 59_999, Close: close}
}

func TestNormalizeSortsAndDedupes(t *testing.T) {
	in := []Candle{c(120_000, 3), c(0, 1), c(60_000, 2), c(60_000, 2.5)}
	out := Normalize(in)

	assert.Len(t, out, 3)
	assert.Equal(t, int64(0), out[0].OpenTime)
	assert.Equal(t, int64(60_000), out[1].OpenTime)
	// 同戳保留后到的数据
	assert.InDelta(t, 2.5, out[1].Close, 1e-9)
	assert.Equal(t, int64(120_000), out[2].OpenTime)
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]Candle{c(0, 1), c(60_000, 2)}))
	assert.Error(t, Validate([]Candle{c(60_000, 2), c(0, 1)}))
	assert.Error(t, Validate([]Candle{c(0, 1), c(0, 1)}))
}

func TestCandleCachePutMergesAndTrims(t *testing.T) {
	cache := NewCandleCache(3)
	cache.Put("BTCUSDT", "1h", []Candle{c(0, 1), c(60_000, 2)})
	cache.Put("BTCUSDT", "1h", []Candle{c(120_000, 3), c(180_000, 4)})

	got := cache.Get("BTCUSDT", "1h")
	assert.Len(t, got, 3)
	// 只保留最近 3 根
	assert.Equal(t, int64(60_000), got[0].OpenTime)
	assert.Equal(t, int64(180_000), got[2].OpenTime)
}

func TestCandleCacheGetReturnsCopy(t *testing.T) {
	cache := NewCandleCache(10)
	cache.Put("BTCUSDT", "1h", []Candle{c(0, 1)})
	got := cache.Get("BTCUSDT", "1h")
	got[0].Close = 999
	assert.InDelta(t, 1.0, cache.Get("BTCUSDT", "1h")[0].Close, 1e-9)
}

func TestCandleCacheMissingKey(t *testing.T) {
	cache := NewCandleCache(10)
	assert.Nil(t, cache.Get("ETHUSDT", "1h"))
}

func TestSeriesExtractors(t *testing.T) {
	candles := []Candle{
		{Close: 1, Volume: 10, High: 2, Low: 0.5},
		{Close: 2, Volume: 20, High: 3, Low: 1.5},
	}
	assert.Equal(t, []float64{1, 2}, Closes(candles))
	assert.Equal(t, []float64{10, 20}, Volumes(candles))
	assert.Equal(t, []float64{2, 3}, Highs(candles))
	assert.Equal(t, []float64{0.5, 1.5}, Lows(candles))
}
