package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quorum/internal/market"
	symbolpkg "quorum/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2/futures"
)

const maxHistoryLimit = 1500

// Config 描述 Binance 数据源参数。
type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.RESTBaseURL) == "" {
		c.RESTBaseURL = "https://fapi.binance.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

// Source 基于 go-binance SDK 实现 market.Source（仅 REST，无订阅流）。
type Source struct {
	cfg    Config
	client *futures.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

// FetchHistory 拉取最近 limit 根 K 线，升序返回。
func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	// 币安要求无分隔符格式（ETH/USDT -> ETHUSDT）
	binanceSymbol := symbolpkg.Parse(symbol).Binance()
	if binanceSymbol == "" {
		return nil, fmt.Errorf("invalid symbol: %q", symbol)
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := s.client.NewKlinesService().Symbol(binanceSymbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, market.Unavailable(fmt.Errorf("%s %s klines: %w", symbol, interval, err))
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return market.Normalize(out), nil
}

// GetFundingRate 获取最新资金费率（例如 0.0001 即 0.01%）。
func (s *Source) GetFundingRate(ctx context.Context, sym string) (float64, error) {
	if s == nil || s.client == nil {
		return 0, fmt.Errorf("binance source not initialized")
	}
	binanceSymbol := symbolpkg.Parse(sym).Binance()
	if binanceSymbol == "" {
		return 0, fmt.Errorf("invalid symbol: %q", sym)
	}
	res, err := s.client.NewPremiumIndexService().Symbol(binanceSymbol).Do(ctx)
	if err != nil {
		return 0, market.Unavailable(fmt.Errorf("%s premium index: %w", sym, err))
	}
	for _, entry := range res {
		if entry == nil {
			continue
		}
		if strings.EqualFold(entry.Symbol, binanceSymbol) {
			return parseFloat(entry.LastFundingRate), nil
		}
	}
	if len(res) > 0 {
		return parseFloat(res[0].LastFundingRate), nil
	}
	return 0, market.Unavailable(fmt.Errorf("funding rate not available for %s", sym))
}

// GetOpenInterestHistory 获取 OI 历史数据。
func (s *Source) GetOpenInterestHistory(ctx context.Context, sym, period string, limit int) ([]market.OpenInterestPoint, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("binance source not initialized")
	}
	if limit <= 0 {
		limit = 30
	}
	if limit > 500 {
		limit = 500
	}
	binanceSymbol := symbolpkg.Parse(sym).Binance()
	period = strings.ToLower(strings.TrimSpace(period))
	if binanceSymbol == "" || period == "" {
		return nil, fmt.Errorf("symbol and period are required")
	}
	stats, err := s.client.NewOpenInterestStatisticsService().Symbol(binanceSymbol).Period(period).Limit(limit).Do(ctx)
	if err != nil {
		return nil, market.Unavailable(fmt.Errorf("%s open interest: %w", sym, err))
	}
	points := make([]market.OpenInterestPoint, 0, len(stats))
	for _, item := range stats {
		if item == nil {
			continue
		}
		points = append(points, market.OpenInterestPoint{
			Symbol:               item.Symbol,
			SumOpenInterest:      parseFloat(item.SumOpenInterest),
			SumOpenInterestValue: parseFloat(item.SumOpenInterestValue),
			Timestamp:            item.Timestamp,
		})
	}
	return points, nil
}

// GetTicker 返回 24h 行情摘要，用于流动性判断。
func (s *Source) GetTicker(ctx context.Context, sym string) (market.Ticker, error) {
	if s == nil || s.client == nil {
		return market.Ticker{}, fmt.Errorf("binance source not initialized")
	}
	binanceSymbol := symbolpkg.Parse(sym).Binance()
	if binanceSymbol == "" {
		return market.Ticker{}, fmt.Errorf("invalid symbol: %q", sym)
	}
	stats, err := s.client.NewListPriceChangeStatsService().Symbol(binanceSymbol).Do(ctx)
	if err != nil {
		return market.Ticker{}, market.Unavailable(fmt.Errorf("%s ticker: %w", sym, err))
	}
	for _, st := range stats {
		if st == nil {
			continue
		}
		if strings.EqualFold(st.Symbol, binanceSymbol) {
			return market.Ticker{
				Symbol:      sym,
				LastPrice:   parseFloat(st.LastPrice),
				QuoteVolume: parseFloat(st.QuoteVolume),
				Volume:      parseFloat(st.Volume),
			}, nil
		}
	}
	return market.Ticker{}, market.Unavailable(fmt.Errorf("ticker not available for %s", sym))
}

func (s *Source) Close() error { return nil }

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
