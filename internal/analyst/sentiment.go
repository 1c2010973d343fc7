package analyst

import (
	"context"
	"fmt"

	"quorum/internal/market"
	"quorum/internal/signal"
)

// SentimentConfig 恐惧贪婪指数的反向交易阈值。
type SentimentConfig struct {
	FearBuy    int     `toml:"fear_buy"`    // 低于该值视为极度恐惧，逆向看多
	GreedSell  int     `toml:"greed_sell"`  // 高于该值视为极度贪婪，逆向看空
	SwingDelta int     `toml:"swing_delta"` // 单日摆动超过该值追加一票
	ExtremeW   float64 `toml:"extreme_weight"`
	SwingW     float64 `toml:"swing_weight"`
}

func (c SentimentConfig) sanitize() SentimentConfig {
	if c.FearBuy <= 0 {
		c.FearBuy = 25
	}
	if c.GreedSell <= c.FearBuy {
		c.GreedSell = 75
	}
	if c.SwingDelta <= 0 {
		c.SwingDelta = 10
	}
	if c.ExtremeW <= 0 {
		c.ExtremeW = 1.0
	}
	if c.SwingW <= 0 {
		c.SwingW = 0.5
	}
	return c
}

func (c SentimentConfig) totalWeight() float64 { return c.ExtremeW + c.SwingW }

// SentimentAnalyst 情绪面分析师，基于恐惧贪婪指数做逆向判断。
// 指数是全市场口径，与 symbol 无关。
type SentimentAnalyst struct {
	svc *market.FearGreedService
	cfg SentimentConfig
}

func NewSentiment(svc *market.FearGreedService, cfg SentimentConfig) *SentimentAnalyst {
	return &SentimentAnalyst{svc: svc, cfg: cfg.sanitize()}
}

func (a *SentimentAnalyst) Name() string { return "sentiment" }

func (a *SentimentAnalyst) Analyze(ctx context.Context, symbol, interval string) (Result, error) {
	data, err := a.svc.Latest(ctx)
	if err != nil {
		return Result{}, err
	}
	votes := make([]signal.Vote, 0, 2)
	switch {
	case data.Value <= a.cfg.FearBuy:
		votes = append(votes, signal.Vote{
			Direction: signal.Buy,
			Weight:    a.cfg.ExtremeW,
			Reason:    fmt.Sprintf("恐惧贪婪指数 %d（%s），极度恐惧逆向看多", data.Value, data.Classification),
		})
	case data.Value >= a.cfg.GreedSell:
		votes = append(votes, signal.Vote{
			Direction: signal.Sell,
			Weight:    a.cfg.ExtremeW,
			Reason:    fmt.Sprintf("恐惧贪婪指数 %d（%s），极度贪婪逆向看空", data.Value, data.Classification),
		})
	}
	if len(data.History) >= 2 {
		delta := data.History[0].Value - data.History[1].Value
		switch {
		case delta >= a.cfg.SwingDelta:
			votes = append(votes, signal.Vote{
				Direction: signal.Buy,
				Weight:    a.cfg.SwingW,
				Reason:    fmt.Sprintf("情绪单日回暖 %+d", delta),
			})
		case delta <= -a.cfg.SwingDelta:
			votes = append(votes, signal.Vote{
				Direction: signal.Sell,
				Weight:    a.cfg.SwingW,
				Reason:    fmt.Sprintf("情绪单日转冷 %+d", delta),
			})
		}
	}
	res := Score(a.Name(), votes, a.cfg.totalWeight())
	res.Metrics = map[string]float64{"fear_greed": float64(data.Value)}
	return res, nil
}
