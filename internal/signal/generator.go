// Package signal 将指标序列按阈值/交叉规则转成带权重的方向投票。
package signal

import (
	"fmt"
	"math"

	"quorum/internal/indicator"
)

// Direction 投票方向。
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Vote 单个指标族发出的投票。每族每轮最多一票。
type Vote struct {
	Direction Direction
	Weight    float64
	Reason    string
}

// Generate 依次检查各指标族（SMA、EMA、RSI、MACD、布林、量能），
// 输出顺序固定，方便下游理由串保持稳定。
// 有效行不足 2 行时返回空列表，由下游给出 NEUTRAL，绝不报错。
func Generate(set indicator.Set, cfg indicator.Config) []Vote {
	cfg = cfg.Sanitize()
	if set.Count < 2 {
		return nil
	}
	last := set.Count - 1
	prev := last - 1
	votes := make([]Vote, 0, 6)

	// SMA 快慢线交叉
	if dir, ok := crossover(set.SMAShort, set.SMALong, prev, last); ok {
		votes = append(votes, Vote{
			Direction: dir,
			Weight:    cfg.Weights.SMA,
			Reason:    crossReason("SMA", cfg.SMAShort, cfg.SMALong, dir),
		})
	}

	// EMA 快慢线交叉
	if dir, ok := crossover(set.EMAShort, set.EMALong, prev, last); ok {
		votes = append(votes, Vote{
			Direction: dir,
			Weight:    cfg.Weights.EMA,
			Reason:    crossReason("EMA", cfg.EMAShort, cfg.EMALong, dir),
		})
	}

	// RSI 超买超卖
	if rsi := set.RSI[last]; !math.IsNaN(rsi) {
		switch {
		case rsi < cfg.RSIOversold:
			votes = append(votes, Vote{
				Direction: Buy,
				Weight:    cfg.Weights.RSI,
				Reason:    fmt.Sprintf("RSI(%d)=%.1f 低于 %.0f，超卖", cfg.RSIPeriod, rsi, cfg.RSIOversold),
			})
		case rsi > cfg.RSIOverbought:
			votes = append(votes, Vote{
				Direction: Sell,
				Weight:    cfg.Weights.RSI,
				Reason:    fmt.Sprintf("RSI(%d)=%.1f 高于 %.0f，超买", cfg.RSIPeriod, rsi, cfg.RSIOverbought),
			})
		}
	}

	// MACD 线与信号线交叉
	if dir, ok := crossover(set.MACD, set.MACDSignal, prev, last); ok {
		reason := "MACD 上穿信号线（金叉）"
		if dir == Sell {
			reason = "MACD 下穿信号线（死叉）"
		}
		votes = append(votes, Vote{Direction: dir, Weight: cfg.Weights.MACD, Reason: reason})
	}

	// 布林带突破
	close := set.Closes[last]
	if upper, lower := set.BollUpper[last], set.BollLower[last]; !math.IsNaN(upper) && !math.IsNaN(lower) {
		switch {
		case close < lower:
			votes = append(votes, Vote{
				Direction: Buy,
				Weight:    cfg.Weights.Bollinger,
				Reason:    fmt.Sprintf("收盘 %.2f 跌破布林下轨 %.2f", close, lower),
			})
		case close > upper:
			votes = append(votes, Vote{
				Direction: Sell,
				Weight:    cfg.Weights.Bollinger,
				Reason:    fmt.Sprintf("收盘 %.2f 突破布林上轨 %.2f", close, upper),
			})
		}
	}

	// 放量配合价格方向
	if ratio := set.VolumeRatio[last]; !math.IsNaN(ratio) && ratio > cfg.VolumeSpike {
		prevClose := set.Closes[prev]
		switch {
		case close > prevClose:
			votes = append(votes, Vote{
				Direction: Buy,
				Weight:    cfg.Weights.Volume,
				Reason:    fmt.Sprintf("放量 %.1f 倍均量且价格上行", ratio),
			})
		case close < prevClose:
			votes = append(votes, Vote{
				Direction: Sell,
				Weight:    cfg.Weights.Volume,
				Reason:    fmt.Sprintf("放量 %.1f 倍均量且价格下行", ratio),
			})
		}
	}

	return votes
}

// crossover 检测 a 相对 b 在 prev→last 之间是否发生穿越。
// 持续在上方/下方不重复触发，只有穿越当根才发票。
func crossover(a, b []float64, prev, last int) (Direction, bool) {
	if prev < 0 || last >= len(a) || last >= len(b) {
		return "", false
	}
	pa, pb := a[prev], b[prev]
	la, lb := a[last], b[last]
	if math.IsNaN(pa) || math.IsNaN(pb) || math.IsNaN(la) || math.IsNaN(lb) {
		return "", false
	}
	if pa <= pb && la > lb {
		return Buy, true
	}
	if pa >= pb && la < lb {
		return Sell, true
	}
	return "", false
}

func crossReason(family string, short, long int, dir Direction) string {
	if dir == Buy {
		return fmt.Sprintf("%s(%d) 上穿 %s(%d)（金叉）", family, short, family, long)
	}
	return fmt.Sprintf("%s(%d) 下穿 %s(%d)（死叉）", family, short, family, long)
}
