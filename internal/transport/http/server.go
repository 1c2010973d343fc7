// Package transporthttp 提供决策查询与监控指标的 HTTP 服务。
package transporthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"quorum/internal/logger"
	"quorum/internal/store/decisionlog"
)

// Server 暴露 /healthz、/api/decisions 与 /metrics。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 HTTP 服务依赖。
type ServerConfig struct {
	Addr string
	Logs *decisionlog.Store
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Logs == nil {
		return nil, errors.New("http server 需要 decision log store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/decisions", handleDecisions(cfg.Logs))
	api.GET("/decisions/latest", handleLatest(cfg.Logs))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func handleDecisions(logs *decisionlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 100)
		offset := queryInt(c, "offset", 0)
		entries, err := logs.List(c.Request.Context(), decisionlog.Query{
			Symbol:  c.Query("symbol"),
			Agent:   c.Query("agent"),
			TraceID: c.Query("trace_id"),
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decisions": entries, "count": len(entries)})
	}
}

func handleLatest(logs *decisionlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := logs.Latest(c.Request.Context(), c.Query("symbol"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no decisions recorded"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// requestLogger 记录接口调用，便于追踪前端刷新与人工查询。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start 启动 HTTP 服务，直到 ctx 取消或出错。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Infof("HTTP 服务监听 %s", s.addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler 暴露底层 router，测试用。
func (s *Server) Handler() http.Handler { return s.router }

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
