package report

import (
	"os"
	"testing"
	"time"

	"quorum/internal/decision"
	"quorum/internal/indicator"
	"quorum/internal/market"

	"github.com/stretchr/testify/assert"
)

func reportCandles(n int) []market.Candle {
	candles := make([]market.Candle, n)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := range candles {
		close := 100 + float64(i%7)
		candles[i] = market.Candle{
			OpenTime:  base + int64(i)*3_600_000,
			CloseTime: base + int64(i+1)*3_600_000 - 1,
			Open:      close - 1,
			High:      close + 2,
			Low:       close - 2,
			Close:     close,
			Volume:    500 + float64(i),
		}
	}
	return candles
}

func TestRenderWritesHTML(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	assert.NoError(t, err)

	candles := reportCandles(40)
	set, err := indicator.Compute(candles, indicator.DefaultConfig())
	assert.NoError(t, err)

	path, err := r.Render(Input{
		Symbol:   "BTCUSDT",
		Interval: "1h",
		Candles:  candles,
		Set:      &set,
		Decision: decision.Decision{
			Signal:        decision.Buy,
			Confidence:    70,
			ConflictScore: 10,
			Contributing:  []string{"technical"},
		},
	})
	assert.NoError(t, err)
	assert.FileExists(t, path)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "BTCUSDT")
}

func TestRenderWithoutIndicators(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	assert.NoError(t, err)

	path, err := r.Render(Input{
		Symbol:   "ETHUSDT",
		Interval: "4h",
		Candles:  reportCandles(10),
		Decision: decision.Decision{Signal: decision.Hold},
	})
	assert.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRenderRejectsEmptyInput(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	assert.NoError(t, err)

	_, err = r.Render(Input{Interval: "1h", Candles: reportCandles(5)})
	assert.Error(t, err)

	_, err = r.Render(Input{Symbol: "BTCUSDT", Interval: "1h"})
	assert.Error(t, err)
}
