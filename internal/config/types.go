package config

import (
	"strings"

	"quorum/internal/analyst"
	"quorum/internal/indicator"
	"quorum/internal/narrative"
	"quorum/internal/risk"
)

// Config 是主配置载体，各节用 toml tag 与 YAML 键对应。
type Config struct {
	App       AppConfig        `toml:"app"`
	Market    MarketConfig     `toml:"market"`
	Kline     KlineConfig      `toml:"kline"`
	Indicator indicator.Config `toml:"indicator"`
	Analysts  AnalystsConfig   `toml:"analysts"`
	Risk      risk.Config      `toml:"risk"`
	Portfolio PortfolioConfig  `toml:"portfolio"`
	Narrative NarrativeConfig  `toml:"narrative"`
	Report    ReportConfig     `toml:"report"`
	Store     StoreConfig      `toml:"store"`
}

type AppConfig struct {
	Env            string   `toml:"env"`
	LogLevel       string   `toml:"log_level"`
	HTTPAddr       string   `toml:"http_addr"`
	LogPath        string   `toml:"log_path"`
	Symbols        []string `toml:"symbols"`
	Interval       string   `toml:"interval"`
	OffsetSeconds  int      `toml:"decision_offset_seconds"`
	RunImmediately bool     `toml:"run_immediately"`
}

type MarketConfig struct {
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type KlineConfig struct {
	MaxCached    int `toml:"max_cached"`
	HistoryLimit int `toml:"history_limit"`
}

// AnalystsConfig 控制评估小组的组成与各自阈值。
type AnalystsConfig struct {
	TimeoutSeconds int  `toml:"timeout_seconds"`
	Sentiment      bool `toml:"sentiment_enabled"`
	Funding        bool `toml:"funding_enabled"`
	OpenInterest   bool `toml:"open_interest_enabled"`
	Liquidity      bool `toml:"liquidity_enabled"`

	SentimentCfg    analyst.SentimentConfig    `toml:"sentiment"`
	FundingCfg      analyst.FundingConfig      `toml:"funding"`
	OpenInterestCfg analyst.OpenInterestConfig `toml:"open_interest"`
	LiquidityCfg    analyst.LiquidityConfig    `toml:"liquidity"`
}

// PortfolioConfig 描述仓位估算的账户口径，纸面交易用固定值即可。
type PortfolioConfig struct {
	Value   float64   `toml:"value"`
	Cash    float64   `toml:"cash"`
	Weights []float64 `toml:"weights"`
}

type NarrativeConfig struct {
	Enabled bool                `toml:"enabled"`
	LLM     narrative.LLMConfig `toml:"llm"`
}

type ReportConfig struct {
	Enabled bool   `toml:"enabled"`
	OutDir  string `toml:"out_dir"`
}

type StoreConfig struct {
	DecisionLogPath string `toml:"decision_log_path"`
	KlineRoot       string `toml:"kline_root"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
