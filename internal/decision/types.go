// Package decision 将多个分析师的结论合成一条最终交易建议。
package decision

import (
	"time"

	"quorum/internal/analyst"
)

// Signal 最终建议方向。与分析师不同，中性结论对外叫 HOLD。
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// Decision 一个分析周期的最终输出，生成后不再修改。
type Decision struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`

	Signal        Signal `json:"signal"`
	Confidence    int    `json:"confidence"`     // [0,100]
	ConflictScore int    `json:"conflict_score"` // [0,100]，胜方与败方的分歧度

	Contributing []string `json:"contributing_agents,omitempty"`
	Dissenting   []string `json:"dissenting_agents,omitempty"`
	Abstained    []string `json:"abstained_agents,omitempty"`

	Reasoning string  `json:"reasoning"`
	Price     float64 `json:"price,omitempty"`

	TraceID   string    `json:"trace_id,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// FromAnalyst 把分析师方向映射为决策方向。
func FromAnalyst(s analyst.Signal) Signal {
	switch s {
	case analyst.Buy:
		return Buy
	case analyst.Sell:
		return Sell
	default:
		return Hold
	}
}
