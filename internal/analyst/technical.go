package analyst

import (
	"context"
	"fmt"
	"math"

	"quorum/internal/indicator"
	"quorum/internal/market"
	"quorum/internal/signal"

	talib "github.com/markcheno/go-talib"
)

const atrPeriod = 14

// TechnicalAnalyst 技术面分析师：K 线 → 指标 → 规则投票 → 加权评分。
type TechnicalAnalyst struct {
	source market.Source
	cache  *market.CandleCache
	cfg    indicator.Config
	limit  int
}

// NewTechnical 构造技术面分析师。cache 可为 nil，表示每轮直接拉取。
func NewTechnical(source market.Source, cache *market.CandleCache, cfg indicator.Config, limit int) *TechnicalAnalyst {
	if limit <= 0 {
		limit = 100
	}
	return &TechnicalAnalyst{
		source: source,
		cache:  cache,
		cfg:    cfg.Sanitize(),
		limit:  limit,
	}
}

func (a *TechnicalAnalyst) Name() string { return "technical" }

// Analyze 输出技术面结论。数据不足或取数失败时返回错误，由 Runner 转为弃权。
func (a *TechnicalAnalyst) Analyze(ctx context.Context, symbol, interval string) (Result, error) {
	candles, err := a.candles(ctx, symbol, interval)
	if err != nil {
		return Result{}, err
	}
	set, err := indicator.Compute(candles, a.cfg)
	if err != nil {
		return Result{}, fmt.Errorf("technical %s %s: %w", symbol, interval, err)
	}
	votes := signal.Generate(set, a.cfg)
	res := Score(a.Name(), votes, a.cfg.Weights.Total())
	res.Metrics = a.metrics(candles, set)
	return res, nil
}

func (a *TechnicalAnalyst) candles(ctx context.Context, symbol, interval string) ([]market.Candle, error) {
	if a.cache != nil {
		if cached := a.cache.Get(symbol, interval); len(cached) >= a.limit {
			return cached, nil
		}
	}
	candles, err := a.source.FetchHistory(ctx, symbol, interval, a.limit)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Put(symbol, interval, candles)
	}
	return candles, nil
}

// metrics 附带的辅助数值，进决策日志与叙事，不参与投票。
func (a *TechnicalAnalyst) metrics(candles []market.Candle, set indicator.Set) map[string]float64 {
	last := set.Count - 1
	m := map[string]float64{
		"close": set.Closes[last],
	}
	put := func(key string, v float64) {
		if !math.IsNaN(v) {
			m[key] = v
		}
	}
	put("rsi", set.RSI[last])
	put("macd_hist", set.MACDHist[last])
	put("volume_ratio", set.VolumeRatio[last])
	put("boll_upper", set.BollUpper[last])
	put("boll_lower", set.BollLower[last])
	if len(candles) > atrPeriod {
		atr := talib.Atr(market.Highs(candles), market.Lows(candles), set.Closes, atrPeriod)
		put("atr", atr[len(atr)-1])
	}
	return m
}
