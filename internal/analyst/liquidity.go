package analyst

import (
	"context"
	"fmt"
	"math"

	"quorum/internal/indicator"
	"quorum/internal/market"
	"quorum/internal/signal"
)

// LiquidityConfig 流动性判定参数。
type LiquidityConfig struct {
	MinQuoteVolumeUSD float64 `toml:"min_quote_volume_usd"` // 24h 计价量下限
	SurgeRatio        float64 `toml:"surge_ratio"`          // 量能放大倍数
	SurgeW            float64 `toml:"surge_weight"`
	ThinW             float64 `toml:"thin_weight"`
}

func (c LiquidityConfig) sanitize() LiquidityConfig {
	if c.MinQuoteVolumeUSD <= 0 {
		c.MinQuoteVolumeUSD = 2e7
	}
	if c.SurgeRatio <= 1 {
		c.SurgeRatio = 1.5
	}
	if c.SurgeW <= 0 {
		c.SurgeW = 1.0
	}
	if c.ThinW <= 0 {
		c.ThinW = 0.5
	}
	return c
}

func (c LiquidityConfig) totalWeight() float64 { return c.SurgeW + c.ThinW }

// LiquidityAnalyst 流动性分析师：24h 深度够不够、量能有没有配合方向。
// 深度不足时只压低方向票，不直接弃权——这是真实数据算出的含义。
type LiquidityAnalyst struct {
	source market.Source
	cache  *market.CandleCache
	cfg    LiquidityConfig
	volCfg int // 均量窗口
}

func NewLiquidity(source market.Source, cache *market.CandleCache, cfg LiquidityConfig) *LiquidityAnalyst {
	return &LiquidityAnalyst{source: source, cache: cache, cfg: cfg.sanitize(), volCfg: 20}
}

func (a *LiquidityAnalyst) Name() string { return "liquidity" }

func (a *LiquidityAnalyst) Analyze(ctx context.Context, symbol, interval string) (Result, error) {
	ticker, err := a.source.GetTicker(ctx, symbol)
	if err != nil {
		return Result{}, err
	}
	candles := a.candles(ctx, symbol, interval)

	var votes []signal.Vote
	deep := ticker.QuoteVolume >= a.cfg.MinQuoteVolumeUSD
	if deep && len(candles) > a.volCfg {
		ratios := indicator.VolumeRatio(market.Volumes(candles), a.volCfg)
		last := len(candles) - 1
		if ratio := ratios[last]; !math.IsNaN(ratio) && ratio > a.cfg.SurgeRatio {
			prevClose := candles[last-1].Close
			lastClose := candles[last].Close
			switch {
			case lastClose > prevClose:
				votes = append(votes, signal.Vote{
					Direction: signal.Buy,
					Weight:    a.cfg.SurgeW,
					Reason:    fmt.Sprintf("深度充足且放量 %.1f 倍上行", ratio),
				})
			case lastClose < prevClose:
				votes = append(votes, signal.Vote{
					Direction: signal.Sell,
					Weight:    a.cfg.SurgeW,
					Reason:    fmt.Sprintf("深度充足但放量 %.1f 倍下行", ratio),
				})
			}
		}
	}
	res := Score(a.Name(), votes, a.cfg.totalWeight())
	res.Metrics = map[string]float64{
		"quote_volume_usd": ticker.QuoteVolume,
	}
	if !deep && len(res.Reasons) == 0 {
		res.Reasons = []string{fmt.Sprintf("24h 计价量 %.0f 低于 %.0f，深度不足不出方向票", ticker.QuoteVolume, a.cfg.MinQuoteVolumeUSD)}
	}
	return res, nil
}

func (a *LiquidityAnalyst) candles(ctx context.Context, symbol, interval string) []market.Candle {
	if a.cache != nil {
		if cached := a.cache.Get(symbol, interval); len(cached) > 0 {
			return cached
		}
	}
	if a.source == nil {
		return nil
	}
	fetched, err := a.source.FetchHistory(ctx, symbol, interval, a.volCfg*2)
	if err != nil {
		return nil
	}
	return fetched
}
