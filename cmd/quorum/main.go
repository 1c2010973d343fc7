package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"quorum/internal/app"
	qcfg "quorum/internal/config"
	"quorum/internal/logger"
)

func main() {
	// .env 不存在时静默跳过，便于容器里用环境变量注入密钥
	_ = godotenv.Load()

	printConfig := flag.Bool("print-config", false, "输出合并默认值后的有效配置并退出")
	flag.Parse()

	cfgPath := os.Getenv("QUORUM_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	watcher, err := qcfg.NewWatcher(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	cfg := watcher.Current()
	if *printConfig {
		out, err := qcfg.Dump(cfg)
		if err != nil {
			log.Fatalf("导出配置失败: %v", err)
		}
		fmt.Print(out)
		return
	}

	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，标的=%v，周期=%s）",
		cfg.App.Env, cfg.App.Symbols, cfg.App.Interval)

	// 热更新只调日志级别，结构性改动需要重启
	watcher.Subscribe(func(next *qcfg.Config) {
		logger.SetLevel(next.App.LogLevel)
		logger.Infof("日志级别已更新为 %s，其余配置重启后生效", next.App.LogLevel)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	if err := application.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("运行失败: %v", err)
	}
	logger.Infof("已退出")
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
