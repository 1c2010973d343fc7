package decisionlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quorum/internal/analyst"
	"quorum/internal/decision"
	"quorum/internal/risk"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "decisions.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(symbol string, ts time.Time) Record {
	return Record{
		Decision: decision.Decision{
			Symbol:        symbol,
			Interval:      "1h",
			Signal:        decision.Buy,
			Confidence:    72,
			ConflictScore: 20,
			Contributing:  []string{"funding", "technical"},
			Dissenting:    []string{"sentiment"},
			Reasoning:     "金叉; 空头付费",
			Price:         45000,
			TraceID:       "trace-" + symbol,
			DecidedAt:     ts,
		},
		Results: []analyst.Result{
			{Agent: "technical", Signal: analyst.Buy, Confidence: 80, Reasons: []string{"金叉"}, Metrics: map[string]float64{"rsi": 61.2}},
			{Agent: "sentiment", Signal: analyst.Sell, Confidence: 55, Reasons: []string{"市场贪婪"}},
		},
		Estimates: []risk.Estimate{{Method: risk.RiskBased, Size: 4500}},
		Narration: "多头占优",
	}
}

func TestRecordWritesAggregateAndPerAgentRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	assert.NoError(t, s.Record(ctx, sampleRecord("BTCUSDT", time.Now())))

	entries, err := s.List(ctx, Query{Symbol: "BTCUSDT"})
	assert.NoError(t, err)
	// 聚合行 + 两条分析师行
	assert.Len(t, entries, 3)

	agg, err := s.List(ctx, Query{Agent: "aggregate"})
	assert.NoError(t, err)
	assert.Len(t, agg, 1)
	assert.Equal(t, "BUY", agg[0].Signal)
	assert.Equal(t, 72, agg[0].Confidence)
	assert.Equal(t, "多头占优", agg[0].Narration)
	assert.Contains(t, string(agg[0].Details), "estimates")

	tech, err := s.List(ctx, Query{Agent: "technical"})
	assert.NoError(t, err)
	assert.Len(t, tech, 1)
	assert.Equal(t, "trace-BTCUSDT", tech[0].TraceID)
	assert.Equal(t, "金叉", tech[0].Reason)
}

func TestLatestReturnsNewestAggregate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old := sampleRecord("BTCUSDT", base)
	old.Decision.Signal = decision.Sell
	assert.NoError(t, s.Record(ctx, old))
	assert.NoError(t, s.Record(ctx, sampleRecord("BTCUSDT", base.Add(time.Hour))))
	assert.NoError(t, s.Record(ctx, sampleRecord("ETHUSDT", base.Add(2*time.Hour))))

	latest, err := s.Latest(ctx, "BTCUSDT")
	assert.NoError(t, err)
	assert.Equal(t, "BUY", latest.Signal)
	assert.Equal(t, base.Add(time.Hour).UnixMilli(), latest.Timestamp)

	// 不带 symbol 时取全局最新
	latest, err = s.Latest(ctx, "")
	assert.NoError(t, err)
	assert.Equal(t, "ETHUSDT", latest.Symbol)
}

func TestLatestEmptyStore(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Latest(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListFiltersAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := sampleRecord("BTCUSDT", base.Add(time.Duration(i)*time.Hour))
		rec.Decision.TraceID = "t5"
		assert.NoError(t, s.Record(ctx, rec))
	}

	entries, err := s.List(ctx, Query{Agent: "aggregate", Limit: 2})
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	// 最新在前
	assert.Equal(t, base.Add(4*time.Hour).UnixMilli(), entries[0].Timestamp)

	byTrace, err := s.List(ctx, Query{TraceID: "t5", Agent: "technical"})
	assert.NoError(t, err)
	assert.Len(t, byTrace, 5)
}
