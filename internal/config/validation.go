package config

import (
	"fmt"
	"strings"

	"quorum/internal/scheduler"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Kline.validate(); err != nil {
		return err
	}
	if err := c.Narrative.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	if len(a.Symbols) == 0 {
		return fmt.Errorf("app.symbols requires at least one symbol")
	}
	if _, ok := scheduler.ParseIntervalDuration(a.Interval); !ok {
		return fmt.Errorf("app.interval is not a valid interval: %s", a.Interval)
	}
	if a.OffsetSeconds < 0 {
		return fmt.Errorf("app.decision_offset_seconds must be >= 0")
	}
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %s", a.LogLevel)
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if strings.TrimSpace(m.RESTBaseURL) == "" {
		return fmt.Errorf("market.rest_base_url cannot be empty")
	}
	return nil
}

func (k *KlineConfig) validate() error {
	if k.HistoryLimit > 1500 {
		return fmt.Errorf("kline.history_limit exceeds exchange limit 1500")
	}
	return nil
}

func (n *NarrativeConfig) validate() error {
	if !n.Enabled {
		return nil
	}
	if strings.TrimSpace(n.LLM.BaseURL) == "" {
		return fmt.Errorf("narrative.llm.base_url required when narrative enabled")
	}
	if strings.TrimSpace(n.LLM.Model) == "" {
		return fmt.Errorf("narrative.llm.model required when narrative enabled")
	}
	return nil
}
