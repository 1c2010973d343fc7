// Package analyst 定义分析师输出与加权投票评分。
// 五个领域分析师（技术、情绪、资金费率、持仓量、流动性）共用同一套评分算法。
package analyst

import "strings"

// Signal 分析师结论方向。
type Signal string

const (
	Buy     Signal = "BUY"
	Sell    Signal = "SELL"
	Neutral Signal = "NEUTRAL"
)

// Result 单个分析师在一个分析周期内的归一化输出。
// Confidence 恒在 [0,99]：99 是显式上限，永不给 100，避免虚假确定性。
// Abstained 区分“无数据弃权”与“有数据但算出中性”：
// 弃权不参与多空分组，也不进入贡献/反对名单。
type Result struct {
	Agent      string             `json:"agent"`
	Signal     Signal             `json:"signal"`
	Confidence int                `json:"confidence"`
	Reasons    []string           `json:"reasons,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Abstained  bool               `json:"abstained,omitempty"`
}

// Abstain 构造一条弃权结果。
func Abstain(agent, why string) Result {
	res := Result{
		Agent:      strings.TrimSpace(agent),
		Signal:     Neutral,
		Confidence: 0,
		Abstained:  true,
	}
	if why = strings.TrimSpace(why); why != "" {
		res.Reasons = []string{why}
	}
	return res
}
