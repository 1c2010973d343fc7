package decision

import (
	"fmt"
	"strings"

	"quorum/internal/analyst"
)

// Summary 渲染多行文本摘要，供 logger.InfoBlock 逐行输出。
func Summary(d Decision, results []analyst.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s %s 决策 ==\n", d.Symbol, d.Interval)
	fmt.Fprintf(&b, "方向=%s 置信度=%d 分歧度=%d\n", d.Signal, d.Confidence, d.ConflictScore)
	for _, r := range results {
		mark := "·"
		switch {
		case r.Abstained:
			mark = "弃权"
		case contains(d.Contributing, r.Agent):
			mark = "支持"
		case contains(d.Dissenting, r.Agent):
			mark = "反对"
		}
		fmt.Fprintf(&b, "  [%s] %s %s conf=%d", mark, r.Agent, r.Signal, r.Confidence)
		if len(r.Reasons) > 0 {
			fmt.Fprintf(&b, " | %s", TrimTo(r.Reasons[0], 60))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "理由: %s", TrimTo(d.Reasoning, 200))
	return b.String()
}

// TrimTo 按字符数截断，超长追加省略号。
// 理由串以中文为主，必须按 rune 截断，否则会把多字节字符切成半个。
func TrimTo(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
