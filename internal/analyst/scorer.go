package analyst

import (
	"math"

	"quorum/internal/signal"
)

const maxConfidence = 99

// Score 加权投票评分。
// 无票或多空权重打平时给 NEUTRAL、置信度 50；否则取权重大的一方，
// 置信度 = floor(min(99, 胜方权重 / 全量配置权重 × 100))。
// 分母固定用全量配置权重：只有一两个指标族发声时置信度被稀释，有意为之。
func Score(agent string, votes []signal.Vote, totalWeight float64) Result {
	res := Result{
		Agent:      agent,
		Signal:     Neutral,
		Confidence: 50,
	}
	if len(votes) == 0 {
		return res
	}

	buyWeight, sellWeight := 0.0, 0.0
	reasons := make([]string, 0, len(votes))
	for _, v := range votes {
		if v.Weight <= 0 {
			continue
		}
		switch v.Direction {
		case signal.Buy:
			buyWeight += v.Weight
		case signal.Sell:
			sellWeight += v.Weight
		default:
			continue
		}
		if v.Reason != "" {
			reasons = append(reasons, v.Reason)
		}
	}
	res.Reasons = reasons

	if buyWeight == sellWeight {
		return res
	}
	winning := buyWeight
	res.Signal = Buy
	if sellWeight > buyWeight {
		winning = sellWeight
		res.Signal = Sell
	}
	if totalWeight <= 0 {
		totalWeight = buyWeight + sellWeight
	}
	conf := math.Floor(winning / totalWeight * 100)
	if conf > maxConfidence {
		conf = maxConfidence
	}
	if conf < 0 {
		conf = 0
	}
	res.Confidence = int(conf)
	return res
}
