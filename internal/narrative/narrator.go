// Package narrative 把聚合决策翻译成一段给人看的文字说明。
//
// 主路径走 OpenAI 兼容接口，失败时退回纯模板渲染，保证叙述永远可用。
package narrative

import (
	"context"
	"fmt"
	"strings"

	"quorum/internal/analyst"
	"quorum/internal/decision"
)

// Narrator 生成面向人类的决策叙述。
type Narrator interface {
	Narrate(ctx context.Context, d decision.Decision, results []analyst.Result) (string, error)
}

// TemplateNarrator 不依赖外部服务的兜底实现，永不返回错误。
type TemplateNarrator struct{}

func NewTemplate() *TemplateNarrator { return &TemplateNarrator{} }

func (t *TemplateNarrator) Narrate(_ context.Context, d decision.Decision, results []analyst.Result) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s 周期裁决为 %s（置信度 %d，分歧度 %d）。",
		d.Symbol, d.Interval, d.Signal, d.Confidence, d.ConflictScore)
	if len(d.Contributing) > 0 {
		fmt.Fprintf(&b, " 支持方：%s。", strings.Join(d.Contributing, "、"))
	}
	if len(d.Dissenting) > 0 {
		fmt.Fprintf(&b, " 反对方：%s。", strings.Join(d.Dissenting, "、"))
	}
	if len(d.Abstained) > 0 {
		fmt.Fprintf(&b, " 弃权：%s。", strings.Join(d.Abstained, "、"))
	}
	if r := firstReason(results, d.Contributing); r != "" {
		fmt.Fprintf(&b, " 关键依据：%s。", r)
	}
	return b.String(), nil
}

func firstReason(results []analyst.Result, contributing []string) string {
	for _, agent := range contributing {
		for _, res := range results {
			if res.Agent != agent || len(res.Reasons) == 0 {
				continue
			}
			return res.Reasons[0]
		}
	}
	return ""
}

// WithFallback 组合主叙述器与模板兜底。
type WithFallback struct {
	primary  Narrator
	fallback Narrator
}

func NewWithFallback(primary Narrator) *WithFallback {
	return &WithFallback{primary: primary, fallback: NewTemplate()}
}

func (w *WithFallback) Narrate(ctx context.Context, d decision.Decision, results []analyst.Result) (string, error) {
	if w.primary != nil {
		if text, err := w.primary.Narrate(ctx, d, results); err == nil {
			return text, nil
		}
	}
	return w.fallback.Narrate(ctx, d, results)
}
