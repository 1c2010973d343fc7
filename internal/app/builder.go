package app

import (
	"context"
	"fmt"
	"time"

	"quorum/internal/analyst"
	qcfg "quorum/internal/config"
	"quorum/internal/gateway/binance"
	"quorum/internal/logger"
	"quorum/internal/market"
	"quorum/internal/narrative"
	"quorum/internal/report"
	"quorum/internal/risk"
	"quorum/internal/store/decisionlog"
	"quorum/internal/store/klinedb"
	transporthttp "quorum/internal/transport/http"
)

// AppBuilder 把配置装配成可运行的 App。字段化的构造函数便于测试替换。
type AppBuilder struct {
	cfg *qcfg.Config

	sourceFn   func(qcfg.MarketConfig) market.Source
	logsFn     func(string) (*decisionlog.Store, error)
	klineDBFn  func(string) (*klinedb.Store, error)
	httpFn     func(qcfg.AppConfig, *decisionlog.Store) (*transporthttp.Server, error)
	narratorFn func(qcfg.NarrativeConfig) narrative.Narrator
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *qcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		sourceFn:   buildMarketSource,
		logsFn:     decisionlog.Open,
		klineDBFn:  klinedb.NewStore,
		httpFn:     buildHTTPServer,
		narratorFn: buildNarrator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithSource 替换行情源，测试用。
func WithSource(src market.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		b.sourceFn = func(qcfg.MarketConfig) market.Source { return src }
	}
}

func buildMarketSource(cfg qcfg.MarketConfig) market.Source {
	return binance.New(binance.Config{
		RESTBaseURL: cfg.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}

func buildHTTPServer(app qcfg.AppConfig, logs *decisionlog.Store) (*transporthttp.Server, error) {
	return transporthttp.NewServer(transporthttp.ServerConfig{
		Addr: app.HTTPAddr,
		Logs: logs,
	})
}

func buildNarrator(cfg qcfg.NarrativeConfig) narrative.Narrator {
	if !cfg.Enabled {
		return narrative.NewTemplate()
	}
	return narrative.NewWithFallback(narrative.NewLLM(cfg.LLM))
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	source := b.sourceFn(cfg.Market)
	cache := market.NewCandleCache(cfg.Kline.MaxCached)
	derivatives := market.NewDerivativesService(source)
	fearGreed := market.NewFearGreedService()

	analysts := b.buildAnalysts(source, cache, derivatives, fearGreed)
	runner := analyst.NewRunner(time.Duration(cfg.Analysts.TimeoutSeconds)*time.Second, analysts...)
	logger.Infof("✓ 评估小组就绪，共 %d 路分析器", len(analysts))

	logs, err := b.logsFn(cfg.Store.DecisionLogPath)
	if err != nil {
		return nil, fmt.Errorf("打开决策日志失败: %w", err)
	}
	klines, err := b.klineDBFn(cfg.Store.KlineRoot)
	if err != nil {
		return nil, fmt.Errorf("打开 K 线存储失败: %w", err)
	}

	var renderer *report.Renderer
	if cfg.Report.Enabled {
		renderer, err = report.NewRenderer(cfg.Report.OutDir)
		if err != nil {
			return nil, fmt.Errorf("初始化报表目录失败: %w", err)
		}
	}

	httpSrv, err := b.httpFn(cfg.App, logs)
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}

	svc := &evalService{
		cfg:         cfg,
		source:      source,
		cache:       cache,
		derivatives: derivatives,
		runner:      runner,
		sizer:       risk.NewSizer(cfg.Risk),
		narrator:    b.narratorFn(cfg.Narrative),
		logs:        logs,
		klines:      klines,
		renderer:    renderer,
	}

	return &App{
		cfg:     cfg,
		service: svc,
		httpSrv: httpSrv,
		logs:    logs,
		klines:  klines,
		source:  source,
	}, nil
}

func (b *AppBuilder) buildAnalysts(
	source market.Source,
	cache *market.CandleCache,
	derivatives *market.DerivativesService,
	fearGreed *market.FearGreedService,
) []analyst.Analyst {
	cfg := b.cfg
	out := []analyst.Analyst{
		analyst.NewTechnical(source, cache, cfg.Indicator, cfg.Kline.HistoryLimit),
	}
	if cfg.Analysts.Sentiment {
		out = append(out, analyst.NewSentiment(fearGreed, cfg.Analysts.SentimentCfg))
	}
	if cfg.Analysts.Funding {
		out = append(out, analyst.NewFunding(derivatives, cfg.Analysts.FundingCfg))
	}
	if cfg.Analysts.OpenInterest {
		out = append(out, analyst.NewOpenInterest(derivatives, source, cache, cfg.Analysts.OpenInterestCfg))
	}
	if cfg.Analysts.Liquidity {
		out = append(out, analyst.NewLiquidity(source, cache, cfg.Analysts.LiquidityCfg))
	}
	return out
}
