package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"quorum/internal/analyst"
	"quorum/internal/decision"
	"quorum/internal/logger"
	"quorum/internal/pkg/jsonutil"
)

// LLMConfig OpenAI 兼容叙述后端配置。
type LLMConfig struct {
	BaseURL     string        `toml:"base_url"`
	APIKey      string        `toml:"api_key"`
	Model       string        `toml:"model"`
	Timeout     time.Duration `toml:"timeout"`
	MaxRetries  int           `toml:"max_retries"`
	Temperature float64       `toml:"temperature"`
}

func (c *LLMConfig) withDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
}

// LLMNarrator 调用 OpenAI 兼容的 chat/completions，要求模型回 JSON，
// 校验通过后取 summary 字段作为叙述。任何一步失败都返回错误，
// 由 WithFallback 退回模板。
type LLMNarrator struct {
	cfg    LLMConfig
	client *http.Client
}

func NewLLM(cfg LLMConfig) *LLMNarrator {
	cfg.withDefaults()
	return &LLMNarrator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (n *LLMNarrator) Narrate(ctx context.Context, d decision.Decision, results []analyst.Result) (string, error) {
	raw, err := n.call(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(d, results)},
	})
	if err != nil {
		return "", err
	}
	obj, ok := jsonutil.ExtractObject(raw)
	if !ok {
		return "", fmt.Errorf("响应里找不到 JSON 对象")
	}
	if err := ValidateNarration(obj); err != nil {
		return "", fmt.Errorf("叙述 JSON 校验失败: %w", err)
	}
	summary := gjson.Get(obj, "summary").String()
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("summary 字段为空")
	}
	return summary, nil
}

// call 走 OpenAI 兼容端点，429/5xx 退避重试。
func (n *LLMNarrator) call(ctx context.Context, messages []chatMessage) (string, error) {
	endpoint := chatEndpoint(n.cfg.BaseURL)
	body, err := json.Marshal(chatRequest{
		Model:       n.cfg.Model,
		Messages:    messages,
		Temperature: n.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < n.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if n.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
		}

		resp, err := n.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("LLM 接口返回 %d: %s", resp.StatusCode, truncate(string(data), 200))
			logger.Warnf("叙述请求失败（第 %d 次）: %v", attempt+1, lastErr)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("LLM 接口返回 %d: %s", resp.StatusCode, truncate(string(data), 200))
		}

		var parsed chatResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", fmt.Errorf("解析响应失败: %w", err)
		}
		if parsed.Error != nil {
			return "", fmt.Errorf("LLM 返回错误: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("响应没有 choices")
		}
		return parsed.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("重试 %d 次仍失败: %w", n.cfg.MaxRetries, lastErr)
}

// chatEndpoint 兼容用户把完整路径填进 base_url 的习惯。
func chatEndpoint(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

const systemPrompt = `你是加密货币交易台的值班分析师。根据给定的多路分析结论，写一段简短中文总结。
只输出一个 JSON 对象，形如 {"summary": "...", "stance": "bullish|bearish|neutral"}，不要多余文字。`

func buildUserPrompt(d decision.Decision, results []analyst.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "标的: %s  周期: %s\n", d.Symbol, d.Interval)
	fmt.Fprintf(&b, "裁决: %s  置信度: %d  分歧度: %d\n", d.Signal, d.Confidence, d.ConflictScore)
	if d.Price > 0 {
		fmt.Fprintf(&b, "现价: %.4f\n", d.Price)
	}
	b.WriteString("各路结论:\n")
	for _, r := range results {
		if r.Abstained {
			fmt.Fprintf(&b, "- %s: 弃权（%s）\n", r.Agent, strings.Join(r.Reasons, "; "))
			continue
		}
		fmt.Fprintf(&b, "- %s: %s 置信度 %d（%s）\n", r.Agent, r.Signal, r.Confidence, strings.Join(r.Reasons, "; "))
	}
	return b.String()
}
