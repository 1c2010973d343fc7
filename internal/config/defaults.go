package config

import (
	"strings"

	"quorum/internal/indicator"
)

// 默认值常量
const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9992"
	defaultAppLogPath    = "data/logs/quorum.log"
	defaultAppInterval   = "1h"
	defaultAppSymbol     = "BTCUSDT"
	defaultDecisionDelay = 10

	defaultMarketREST    = "https://fapi.binance.com"
	defaultMarketTimeout = 15

	defaultKlineMaxCached    = 300
	defaultKlineHistoryLimit = 200

	defaultAnalystTimeout = 30

	defaultPortfolioValue = 10000.0

	defaultReportDir   = "data/reports"
	defaultDecisionDB  = "data/db/decisions.db"
	defaultKlineDBRoot = "data/klines"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Kline.applyDefaults(keys)
	c.Analysts.applyDefaults(keys)
	c.Portfolio.applyDefaults(keys)
	c.Report.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	// indicator/risk 自带 sanitize，这里只兜底整节缺失的情况
	if !keys.isSet("indicator.weights.sma") && c.Indicator.Weights.Total() <= 0 {
		c.Indicator = indicator.DefaultConfig()
	} else {
		c.Indicator = c.Indicator.Sanitize()
	}
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.interval", &a.Interval, defaultAppInterval),
		fieldDefault{
			key:   "app.decision_offset_seconds",
			need:  func() bool { return a.OffsetSeconds <= 0 },
			apply: func() { a.OffsetSeconds = defaultDecisionDelay },
		},
		fieldDefault{
			key:   "app.symbols",
			need:  func() bool { return len(a.Symbols) == 0 },
			apply: func() { a.Symbols = []string{defaultAppSymbol} },
		},
	)
	out := a.Symbols[:0]
	for _, s := range a.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	a.Symbols = out
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.rest_base_url", &m.RESTBaseURL, defaultMarketREST),
		fieldDefault{
			key:   "market.timeout_seconds",
			need:  func() bool { return m.TimeoutSeconds <= 0 },
			apply: func() { m.TimeoutSeconds = defaultMarketTimeout },
		},
	)
}

func (k *KlineConfig) applyDefaults(keys keySet) {
	if k == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "kline.max_cached",
			need:  func() bool { return k.MaxCached <= 0 },
			apply: func() { k.MaxCached = defaultKlineMaxCached },
		},
		fieldDefault{
			key:   "kline.history_limit",
			need:  func() bool { return k.HistoryLimit <= 0 },
			apply: func() { k.HistoryLimit = defaultKlineHistoryLimit },
		},
	)
}

func (a *AnalystsConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "analysts.timeout_seconds",
			need:  func() bool { return a.TimeoutSeconds <= 0 },
			apply: func() { a.TimeoutSeconds = defaultAnalystTimeout },
		},
		boolFieldDefault("analysts.sentiment_enabled", &a.Sentiment, true),
		boolFieldDefault("analysts.funding_enabled", &a.Funding, true),
		boolFieldDefault("analysts.open_interest_enabled", &a.OpenInterest, true),
		boolFieldDefault("analysts.liquidity_enabled", &a.Liquidity, true),
	)
}

func (p *PortfolioConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "portfolio.value",
			need:  func() bool { return p.Value <= 0 },
			apply: func() { p.Value = defaultPortfolioValue },
		},
		fieldDefault{
			key:   "portfolio.cash",
			need:  func() bool { return p.Cash <= 0 },
			apply: func() { p.Cash = defaultPortfolioValue },
		},
	)
}

func (r *ReportConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("report.out_dir", &r.OutDir, defaultReportDir),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.decision_log_path", &s.DecisionLogPath, defaultDecisionDB),
		stringFieldDefault("store.kline_root", &s.KlineRoot, defaultKlineDBRoot),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
