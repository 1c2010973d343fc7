package market

import (
	"context"
	"errors"
	"fmt"
)

// ErrDataUnavailable 表示外部行情边界取数失败。
// 下游分析师遇到该错误时应弃权（abstain），而不是让整个周期崩溃。
var ErrDataUnavailable = errors.New("market data unavailable")

// Unavailable 将底层错误标记为 ErrDataUnavailable，保留原始原因。
func Unavailable(err error) error {
	if err == nil {
		return ErrDataUnavailable
	}
	return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
}

// OpenInterestPoint 单个时间点的合约持仓量。
type OpenInterestPoint struct {
	Symbol               string  `json:"symbol"`
	SumOpenInterest      float64 `json:"sumOpenInterest"`
	SumOpenInterestValue float64 `json:"sumOpenInterestValue"`
	Timestamp            int64   `json:"timestamp"`
}

// Ticker 24 小时行情摘要，用于流动性评估。
type Ticker struct {
	Symbol      string
	LastPrice   float64
	QuoteVolume float64
	Volume      float64
}

// Source 行情数据源。实现方负责把底层错误收敛为 ErrDataUnavailable。
type Source interface {
	// FetchHistory 拉取最近 limit 根 K 线，升序返回。
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	// GetFundingRate 返回最近一次资金费率（8 小时口径）。
	GetFundingRate(ctx context.Context, symbol string) (float64, error)

	// GetOpenInterestHistory 拉取持仓量历史。
	GetOpenInterestHistory(ctx context.Context, symbol, period string, limit int) ([]OpenInterestPoint, error)

	// GetTicker 返回 24h 行情摘要。
	GetTicker(ctx context.Context, symbol string) (Ticker, error)

	Close() error
}
