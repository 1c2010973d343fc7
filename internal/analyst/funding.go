package analyst

import (
	"context"
	"fmt"

	"quorum/internal/market"
	"quorum/internal/signal"
)

// FundingConfig 资金费率阈值（8 小时口径，0.0001 即 0.01%）。
type FundingConfig struct {
	HighRate     float64 `toml:"high_rate"`     // 多头极度拥挤
	ModerateRate float64 `toml:"moderate_rate"` // 多头偏拥挤
	NegativeRate float64 `toml:"negative_rate"` // 空头付费
	ExtremeW     float64 `toml:"extreme_weight"`
	ModerateW    float64 `toml:"moderate_weight"`
}

func (c FundingConfig) sanitize() FundingConfig {
	if c.HighRate <= 0 {
		c.HighRate = 0.0003
	}
	if c.ModerateRate <= 0 || c.ModerateRate >= c.HighRate {
		c.ModerateRate = 0.0001
	}
	if c.NegativeRate >= 0 {
		c.NegativeRate = -0.0001
	}
	if c.ExtremeW <= 0 {
		c.ExtremeW = 1.0
	}
	if c.ModerateW <= 0 {
		c.ModerateW = 0.5
	}
	return c
}

func (c FundingConfig) totalWeight() float64 { return c.ExtremeW + c.ModerateW }

// FundingAnalyst 资金费率分析师：费率极端时反向押注拥挤方。
type FundingAnalyst struct {
	derivatives *market.DerivativesService
	cfg         FundingConfig
}

func NewFunding(derivatives *market.DerivativesService, cfg FundingConfig) *FundingAnalyst {
	return &FundingAnalyst{derivatives: derivatives, cfg: cfg.sanitize()}
}

func (a *FundingAnalyst) Name() string { return "funding" }

func (a *FundingAnalyst) Analyze(ctx context.Context, symbol, interval string) (Result, error) {
	data, err := a.derivatives.Get(symbol)
	if err != nil {
		return Result{}, err
	}
	rate := data.FundingRate
	var votes []signal.Vote
	switch {
	case rate >= a.cfg.HighRate:
		votes = append(votes, signal.Vote{
			Direction: signal.Sell,
			Weight:    a.cfg.ExtremeW,
			Reason:    fmt.Sprintf("资金费率 %.4f%% 偏高，多头拥挤", rate*100),
		})
	case rate >= a.cfg.ModerateRate:
		votes = append(votes, signal.Vote{
			Direction: signal.Sell,
			Weight:    a.cfg.ModerateW,
			Reason:    fmt.Sprintf("资金费率 %.4f%% 温和偏多", rate*100),
		})
	case rate <= a.cfg.NegativeRate:
		votes = append(votes, signal.Vote{
			Direction: signal.Buy,
			Weight:    a.cfg.ExtremeW,
			Reason:    fmt.Sprintf("资金费率 %.4f%% 为负，空头付费", rate*100),
		})
	}
	res := Score(a.Name(), votes, a.cfg.totalWeight())
	res.Metrics = map[string]float64{"funding_rate": rate}
	return res, nil
}
