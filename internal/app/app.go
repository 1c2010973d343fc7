// Package app 负责应用级编排：装配依赖、启动评估循环与 HTTP 服务。
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	qcfg "quorum/internal/config"
	"quorum/internal/logger"
	"quorum/internal/market"
	"quorum/internal/scheduler"
	"quorum/internal/store/decisionlog"
	"quorum/internal/store/klinedb"
	transporthttp "quorum/internal/transport/http"
)

type App struct {
	cfg     *qcfg.Config
	service *evalService
	httpSrv *transporthttp.Server
	logs    *decisionlog.Store
	klines  *klinedb.Store
	source  market.Source
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *qcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动评估循环与 HTTP 服务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	a.service.warmup(ctx)

	interval, ok := scheduler.ParseIntervalDuration(a.cfg.App.Interval)
	if !ok {
		return fmt.Errorf("invalid interval: %s", a.cfg.App.Interval)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		sched := scheduler.NewAlignedScheduler(ctx, interval,
			time.Duration(a.cfg.App.OffsetSeconds)*time.Second)
		sched.RunImmediately = a.cfg.App.RunImmediately
		sched.Start(func() { a.service.runCycle(ctx) })
		return nil
	})

	return group.Wait()
}

// Close 释放持久化与网络资源。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.klines != nil {
		_ = a.klines.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	if a.source != nil {
		_ = a.source.Close()
	}
}
