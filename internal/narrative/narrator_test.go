package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"quorum/internal/analyst"
	"quorum/internal/decision"
)

func sampleDecision() decision.Decision {
	return decision.Decision{
		Symbol:        "BTCUSDT",
		Interval:      "1h",
		Signal:        decision.Buy,
		Confidence:    72,
		ConflictScore: 18,
		Contributing:  []string{"funding", "technical"},
		Dissenting:    []string{"sentiment"},
	}
}

func TestTemplateNarratorNeverFails(t *testing.T) {
	text, err := NewTemplate().Narrate(context.Background(), sampleDecision(), []analyst.Result{
		{Agent: "technical", Signal: analyst.Buy, Confidence: 80, Reasons: []string{"金叉"}},
	})
	assert.NoError(t, err)
	assert.Contains(t, text, "BTCUSDT")
	assert.Contains(t, text, "BUY")
	assert.Contains(t, text, "technical")
}

func TestTemplateNarratorUsesContributorReason(t *testing.T) {
	text, err := NewTemplate().Narrate(context.Background(), sampleDecision(), []analyst.Result{
		{Agent: "sentiment", Signal: analyst.Sell, Confidence: 40, Reasons: []string{"贪婪指数过高"}},
		{Agent: "funding", Signal: analyst.Buy, Confidence: 70, Reasons: []string{"空头付费"}},
	})
	assert.NoError(t, err)
	// 取贡献名单里第一个有理由的分析师
	assert.Contains(t, text, "空头付费")
	assert.NotContains(t, text, "贪婪指数过高")
}

type failingNarrator struct{}

func (failingNarrator) Narrate(context.Context, decision.Decision, []analyst.Result) (string, error) {
	return "", errors.New("boom")
}

func TestWithFallbackFallsThrough(t *testing.T) {
	text, err := NewWithFallback(failingNarrator{}).Narrate(context.Background(), sampleDecision(), nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestValidateNarration(t *testing.T) {
	assert.NoError(t, ValidateNarration(`{"summary": "看多", "stance": "bullish"}`))
	assert.NoError(t, ValidateNarration(`{"summary": "观望"}`))
	assert.Error(t, ValidateNarration(`{"stance": "bullish"}`))
	assert.Error(t, ValidateNarration(`{"summary": ""}`))
	assert.Error(t, ValidateNarration(`{"summary": "x", "stance": "sideways"}`))
	assert.Error(t, ValidateNarration(`not json`))
}

func TestChatEndpointNormalization(t *testing.T) {
	assert.Equal(t, "https://api.x.com/v1/chat/completions", chatEndpoint("https://api.x.com/v1"))
	assert.Equal(t, "https://api.x.com/v1/chat/completions", chatEndpoint("https://api.x.com/v1/"))
	assert.Equal(t, "https://api.x.com/v1/chat/completions", chatEndpoint("https://api.x.com/v1/chat/completions"))
}
