package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quorum/internal/analyst"
	qcfg "quorum/internal/config"
	"quorum/internal/decision"
	"quorum/internal/indicator"
	"quorum/internal/logger"
	"quorum/internal/market"
	"quorum/internal/metrics"
	"quorum/internal/narrative"
	"quorum/internal/report"
	"quorum/internal/risk"
	"quorum/internal/store/decisionlog"
	"quorum/internal/store/klinedb"
)

// evalService 持有一轮评估需要的全部依赖，runCycle 串起完整流水线。
type evalService struct {
	cfg         *qcfg.Config
	source      market.Source
	cache       *market.CandleCache
	derivatives *market.DerivativesService
	runner      *analyst.Runner
	sizer       *risk.Sizer
	narrator    narrative.Narrator
	logs        *decisionlog.Store
	klines      *klinedb.Store
	renderer    *report.Renderer
}

// warmup 用本地落盘的 K 线预热内存缓存，避免冷启动时全部走网络。
func (s *evalService) warmup(ctx context.Context) {
	interval := s.cfg.App.Interval
	for _, symbol := range s.cfg.App.Symbols {
		candles, err := s.klines.Load(ctx, symbol, interval, s.cfg.Kline.MaxCached)
		if err != nil {
			logger.Warnf("预热 %s@%s 失败: %v", symbol, interval, err)
			continue
		}
		if len(candles) > 0 {
			s.cache.Put(symbol, interval, candles)
			logger.Infof("✓ 预热 %s@%s，共 %d 根 K 线", symbol, interval, len(candles))
		}
	}
	s.derivatives.Refresh(ctx, s.cfg.App.Symbols)
}

func (s *evalService) runCycle(ctx context.Context) {
	s.derivatives.Refresh(ctx, s.cfg.App.Symbols)
	for _, symbol := range s.cfg.App.Symbols {
		s.evaluateSymbol(ctx, symbol)
	}
}

func (s *evalService) evaluateSymbol(ctx context.Context, symbol string) {
	interval := s.cfg.App.Interval
	traceID := uuid.NewString()
	started := time.Now()

	candles := s.refreshCandles(ctx, symbol, interval)

	results := s.runner.Run(ctx, symbol, interval)
	for _, r := range results {
		if r.Abstained {
			metrics.Abstentions.WithLabelValues(symbol, r.Agent).Inc()
		}
	}

	d := decision.Aggregate(results)
	d.Symbol = symbol
	d.Interval = interval
	d.TraceID = traceID
	d.DecidedAt = time.Now()
	if len(candles) > 0 {
		d.Price = candles[len(candles)-1].Close
	}

	estimates := s.sizeEstimates(d, results)

	narration, err := s.narrator.Narrate(ctx, d, results)
	if err != nil {
		logger.Warnf("[%s] 叙述生成失败: %v", symbol, err)
	}

	if err := s.logs.Record(ctx, decisionlog.Record{
		Decision:  d,
		Results:   results,
		Estimates: estimates,
		Narration: narration,
	}); err != nil {
		logger.Errorf("[%s] 决策落盘失败: %v", symbol, err)
	}

	s.renderReport(symbol, interval, candles, d)

	metrics.EvalCycles.WithLabelValues(symbol, string(d.Signal)).Inc()
	metrics.CycleDuration.WithLabelValues(symbol).Observe(time.Since(started).Seconds())
	metrics.LastConfidence.WithLabelValues(symbol).Set(float64(d.Confidence))
	metrics.LastConflict.WithLabelValues(symbol).Set(float64(d.ConflictScore))

	logger.InfoBlock(decision.Summary(d, results))
	if narration != "" {
		logger.Infof("[%s] %s", symbol, narration)
	}
}

// refreshCandles 拉最新 K 线并同步缓存与落盘，失败时退回缓存数据。
func (s *evalService) refreshCandles(ctx context.Context, symbol, interval string) []market.Candle {
	candles, err := s.source.FetchHistory(ctx, symbol, interval, s.cfg.Kline.HistoryLimit)
	if err != nil {
		metrics.DataFetchErrors.WithLabelValues(symbol, "kline").Inc()
		logger.Warnf("[%s] 拉取 K 线失败，使用缓存: %v", symbol, err)
		return s.cache.Get(symbol, interval)
	}
	s.cache.Put(symbol, interval, candles)
	if _, err := s.klines.Save(ctx, symbol, interval, candles); err != nil {
		logger.Warnf("[%s] K 线落盘失败: %v", symbol, err)
	}
	return s.cache.Get(symbol, interval)
}

// sizeEstimates 对非 HOLD 裁决给出仓位建议。止损价用 ATR 推导。
func (s *evalService) sizeEstimates(d decision.Decision, results []analyst.Result) []risk.Estimate {
	if d.Signal == decision.Hold || d.Price <= 0 {
		return nil
	}
	var atr float64
	for _, r := range results {
		if r.Agent != "technical" || r.Abstained {
			continue
		}
		atr = r.Metrics["atr"]
	}
	if atr <= 0 {
		return nil
	}
	stop := d.Price - 2*atr
	if d.Signal == decision.Sell {
		stop = d.Price + 2*atr
	}
	in := risk.Input{
		EntryPrice:      d.Price,
		StopLoss:        stop,
		PortfolioValue:  s.cfg.Portfolio.Value,
		CashBalance:     s.cfg.Portfolio.Cash,
		AssetDailyVol:   atr / d.Price,
		PositionWeights: s.cfg.Portfolio.Weights,
	}
	estimates, err := s.sizer.Estimates(in)
	if err != nil {
		fallback := s.sizer.Fallback(in)
		logger.Warnf("[%s] 仓位估算失败（%v），退回保守仓位 %.2f", d.Symbol, err, fallback)
		return []risk.Estimate{{Method: "fallback", Size: fallback, Warning: err.Error()}}
	}
	blended := s.sizer.Blend(estimates, in)
	logger.Infof("[%s] 建议仓位 %.2f（共 %d 路估算）", d.Symbol, blended, len(estimates))
	return estimates
}

func (s *evalService) renderReport(symbol, interval string, candles []market.Candle, d decision.Decision) {
	if s.renderer == nil || len(candles) == 0 {
		return
	}
	var set *indicator.Set
	if computed, err := indicator.Compute(candles, s.cfg.Indicator); err == nil {
		set = &computed
	}
	path, err := s.renderer.Render(report.Input{
		Symbol:   symbol,
		Interval: interval,
		Candles:  candles,
		Set:      set,
		Decision: d,
	})
	if err != nil {
		logger.Warnf("[%s] 报表渲染失败: %v", symbol, err)
		return
	}
	logger.Debugf("[%s] 报表已生成: %s", symbol, path)
}
