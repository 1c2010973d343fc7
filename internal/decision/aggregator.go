package decision

import (
	"math"
	"sort"
	"strings"
	"time"

	"quorum/internal/analyst"
)

const noInputReasoning = "no analyst input available"

type voteGroup struct {
	total  float64
	agents []string
	reason map[string]string // agent -> 首条理由
}

func newVoteGroup() *voteGroup {
	return &voteGroup{reason: make(map[string]string)}
}

func (g *voteGroup) add(r analyst.Result) {
	g.total += float64(r.Confidence)
	g.agents = append(g.agents, r.Agent)
	if len(r.Reasons) > 0 {
		g.reason[r.Agent] = r.Reasons[0]
	}
}

func (g *voteGroup) sortedAgents() []string {
	if len(g.agents) == 0 {
		return nil
	}
	out := append([]string(nil), g.agents...)
	sort.Strings(out)
	return out
}

// Aggregate 多数加权合议。对输入顺序不敏感。
//
// 流程：按方向分组（弃权单列）→ 按置信度总和定胜方（打平给 HOLD，
// 绝不在平局时偏向任何方向）→ 置信度按 胜/(胜+负+中性票) 计算，
// 无反对方时退化为胜方均值并封顶 99 → 分歧度 = 败方/(胜+负)。
// 空输入返回 HOLD/0/0 与固定理由，永不报错。
func Aggregate(results []analyst.Result) Decision {
	d := Decision{
		Signal:    Hold,
		Reasoning: noInputReasoning,
		DecidedAt: time.Now(),
	}
	if len(results) == 0 {
		return d
	}

	buys, sells := newVoteGroup(), newVoteGroup()
	abstainTotal := 0.0
	var abstained []string
	for _, r := range results {
		if r.Abstained {
			abstained = append(abstained, r.Agent)
			continue
		}
		switch r.Signal {
		case analyst.Buy:
			buys.add(r)
		case analyst.Sell:
			sells.add(r)
		default:
			abstainTotal += float64(r.Confidence)
		}
	}
	sort.Strings(abstained)
	d.Abstained = abstained

	winner, loser := buys, sells
	d.Signal = Buy
	switch {
	case sells.total > buys.total:
		winner, loser = sells, buys
		d.Signal = Sell
	case sells.total == buys.total:
		// 平局：不取方向，双方都不进贡献/反对名单
		d.Signal = Hold
	}

	d.Confidence = aggregateConfidence(winner, loser, abstainTotal)
	d.ConflictScore = conflictScore(winner.total, loser.total)

	if d.Signal == Hold {
		d.Reasoning = holdReasoning(buys.total, sells.total, abstainTotal)
		return d
	}

	d.Contributing = winner.sortedAgents()
	d.Dissenting = loser.sortedAgents()
	parts := make([]string, 0, len(d.Contributing))
	for _, agent := range d.Contributing {
		if r := winner.reason[agent]; r != "" {
			parts = append(parts, r)
		}
	}
	if len(parts) > 0 {
		d.Reasoning = strings.Join(parts, "; ")
	} else {
		d.Reasoning = string(d.Signal)
	}
	return d
}

// aggregateConfidence 通用公式 round(胜/(胜+负+中性票)×100) 截断到 [0,100]；
// 无反对方（全体一致）时取胜方均值、封顶 99，与单分析师口径一致。
func aggregateConfidence(winner, loser *voteGroup, abstainTotal float64) int {
	if loser.total == 0 && winner.total > 0 && len(winner.agents) > 0 {
		mean := winner.total / float64(len(winner.agents))
		if mean > 99 {
			mean = 99
		}
		return int(math.Round(mean))
	}
	denom := winner.total + loser.total + abstainTotal
	if denom <= 0 {
		return 0
	}
	conf := math.Round(winner.total / denom * 100)
	if conf > 100 {
		conf = 100
	}
	if conf < 0 {
		conf = 0
	}
	return int(conf)
}

// conflictScore 量化败方的反对力度，与最终置信度相互独立。
func conflictScore(winTotal, loseTotal float64) int {
	if winTotal <= 0 || loseTotal <= 0 {
		return 0
	}
	return int(math.Round(100 * loseTotal / (winTotal + loseTotal)))
}

func holdReasoning(buyTotal, sellTotal, abstainTotal float64) string {
	switch {
	case buyTotal == 0 && sellTotal == 0 && abstainTotal == 0:
		return "全部分析师弃权，无可用信号"
	case buyTotal == 0 && sellTotal == 0:
		return "各分析师均为中性，观望"
	default:
		return "多空置信度持平，保持观望"
	}
}
