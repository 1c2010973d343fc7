package analyst

import (
	"context"
	"fmt"

	"quorum/internal/market"
	"quorum/internal/signal"
)

// OpenInterestConfig 持仓量趋势判定参数。
type OpenInterestConfig struct {
	Window    int     `toml:"window"`     // 对比窗口（OI 点数）
	ChangePct float64 `toml:"change_pct"` // 视为显著变化的百分比
	ConfirmW  float64 `toml:"confirm_weight"`
	FadeW     float64 `toml:"fade_weight"`
}

func (c OpenInterestConfig) sanitize() OpenInterestConfig {
	if c.Window <= 0 {
		c.Window = 6
	}
	if c.ChangePct <= 0 {
		c.ChangePct = 2
	}
	if c.ConfirmW <= 0 {
		c.ConfirmW = 1.0
	}
	if c.FadeW <= 0 {
		c.FadeW = 0.5
	}
	return c
}

func (c OpenInterestConfig) totalWeight() float64 { return c.ConfirmW + c.FadeW }

// OpenInterestAnalyst 持仓量分析师：OI 变化方向与价格方向组合判断。
// 增仓顺价是趋势确认，增仓逆价是对手方主导，缩仓给弱票。
type OpenInterestAnalyst struct {
	derivatives *market.DerivativesService
	source      market.Source
	cache       *market.CandleCache
	cfg         OpenInterestConfig
}

func NewOpenInterest(derivatives *market.DerivativesService, source market.Source, cache *market.CandleCache, cfg OpenInterestConfig) *OpenInterestAnalyst {
	return &OpenInterestAnalyst{derivatives: derivatives, source: source, cache: cache, cfg: cfg.sanitize()}
}

func (a *OpenInterestAnalyst) Name() string { return "openinterest" }

func (a *OpenInterestAnalyst) Analyze(ctx context.Context, symbol, interval string) (Result, error) {
	data, err := a.derivatives.Get(symbol)
	if err != nil {
		return Result{}, err
	}
	n := len(data.OIHistory)
	if n < 2 {
		return Result{}, market.Unavailable(fmt.Errorf("oi history too short for %s", symbol))
	}
	window := a.cfg.Window
	if window >= n {
		window = n - 1
	}
	latest := data.OIHistory[n-1].SumOpenInterest
	past := data.OIHistory[n-1-window].SumOpenInterest
	if past <= 0 || latest <= 0 {
		return Result{}, market.Unavailable(fmt.Errorf("oi data degenerate for %s", symbol))
	}
	oiChange := (latest - past) / past * 100

	priceUp, err := a.priceDirection(ctx, symbol, interval, window)
	if err != nil {
		return Result{}, err
	}

	var votes []signal.Vote
	significant := oiChange >= a.cfg.ChangePct || oiChange <= -a.cfg.ChangePct
	if significant {
		switch {
		case oiChange > 0 && priceUp:
			votes = append(votes, signal.Vote{
				Direction: signal.Buy,
				Weight:    a.cfg.ConfirmW,
				Reason:    fmt.Sprintf("持仓量 %+.1f%% 且价格上行，增仓确认趋势", oiChange),
			})
		case oiChange > 0 && !priceUp:
			votes = append(votes, signal.Vote{
				Direction: signal.Sell,
				Weight:    a.cfg.ConfirmW,
				Reason:    fmt.Sprintf("持仓量 %+.1f%% 且价格下行，空头增仓主导", oiChange),
			})
		case oiChange < 0 && priceUp:
			votes = append(votes, signal.Vote{
				Direction: signal.Sell,
				Weight:    a.cfg.FadeW,
				Reason:    fmt.Sprintf("持仓量 %+.1f%%，上涨缺乏增仓支撑", oiChange),
			})
		default:
			votes = append(votes, signal.Vote{
				Direction: signal.Buy,
				Weight:    a.cfg.FadeW,
				Reason:    fmt.Sprintf("持仓量 %+.1f%%，下跌抛压衰减", oiChange),
			})
		}
	}
	res := Score(a.Name(), votes, a.cfg.totalWeight())
	res.Metrics = map[string]float64{
		"oi_change_pct": oiChange,
		"oi_latest":     latest,
	}
	return res, nil
}

// priceDirection 判断窗口内价格方向，优先用缓存，不足时自行拉取。
func (a *OpenInterestAnalyst) priceDirection(ctx context.Context, symbol, interval string, window int) (bool, error) {
	var candles []market.Candle
	if a.cache != nil {
		candles = a.cache.Get(symbol, interval)
	}
	if len(candles) < window+1 && a.source != nil {
		fetched, err := a.source.FetchHistory(ctx, symbol, interval, window+2)
		if err != nil {
			return false, err
		}
		candles = fetched
	}
	if len(candles) < 2 {
		return false, market.Unavailable(fmt.Errorf("no candles for %s %s", symbol, interval))
	}
	idx := len(candles) - 1 - window
	if idx < 0 {
		idx = 0
	}
	return candles[len(candles)-1].Close > candles[idx].Close, nil
}
