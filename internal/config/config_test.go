package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
app:
  symbols: [btcusdt]
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.App.Symbols)
	assert.Equal(t, "1h", cfg.App.Interval)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, defaultMarketREST, cfg.Market.RESTBaseURL)
	assert.Equal(t, defaultKlineMaxCached, cfg.Kline.MaxCached)
	assert.Equal(t, defaultAnalystTimeout, cfg.Analysts.TimeoutSeconds)
	assert.True(t, cfg.Analysts.Sentiment)
	assert.InDelta(t, defaultPortfolioValue, cfg.Portfolio.Value, 1e-9)
	// 整节缺失时指标配置退回缺省
	assert.Equal(t, 30, cfg.Indicator.MinCandles())
}

func TestLoadExplicitValuesSurviveDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
app:
  symbols: [ETHUSDT]
  interval: 15m
  log_level: debug
analysts:
  sentiment_enabled: false
indicator:
  sma_long: 50
  weights:
    sma: 2.0
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "15m", cfg.App.Interval)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.False(t, cfg.Analysts.Sentiment)
	assert.True(t, cfg.Analysts.Funding)
	assert.Equal(t, 50, cfg.Indicator.SMALong)
	assert.InDelta(t, 2.0, cfg.Indicator.Weights.SMA, 1e-9)
}

func TestLoadIncludeMergeOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
app:
  log_level: debug
  interval: 4h
`)
	path := writeFile(t, dir, "config.yaml", `
include:
  - base.yaml
app:
  symbols: [BTCUSDT]
  interval: 1h
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	// 主文件后加载，覆盖 include 的值
	assert.Equal(t, "1h", cfg.App.Interval)
	// include 里的值未被覆盖时保留
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "include: [b.yaml]\n")
	writeFile(t, dir, "b.yaml", "include: [a.yaml]\n")
	_, err := Load(filepath.Join(dir, "a.yaml"))
	assert.ErrorContains(t, err, "cycle")
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
app:
  symbols: [BTCUSDT]
  interval: nonsense
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "interval")

	path = writeFile(t, dir, "bad_narrative.yaml", `
app:
  symbols: [BTCUSDT]
narrative:
  enabled: true
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "narrative")
}

func TestDumpMasksAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
app:
  symbols: [BTCUSDT]
narrative:
  enabled: false
  llm:
    api_key: super-secret
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	out, err := Dump(cfg)
	assert.NoError(t, err)
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, "***")
}

func TestDumpUsesConfigFileKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
app:
  symbols: [BTCUSDT]
  decision_offset_seconds: 15
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	out, err := Dump(cfg)
	assert.NoError(t, err)
	// 键名与配置文件一致，输出可以直接拷回配置用
	assert.Contains(t, out, "decision_offset_seconds: 15")
	assert.Contains(t, out, "rest_base_url:")
	assert.Contains(t, out, "log_level:")
	assert.NotContains(t, out, "offsetseconds")
	assert.NotContains(t, out, "restbaseurl")
	assert.NotContains(t, out, "loglevel")
}
