// Package indicator 计算技术指标全序列。
// 约定：预热期内的值为 NaN，下游以 NaN 判定“未定义”，不会输出半截指标。
package indicator

import (
	"errors"
	"fmt"
	"math"

	"quorum/internal/market"
)

// ErrInsufficientData K 线数量不足以计算全部配置指标。
// 调用方应视为硬失败（该分析师本轮弃权），不能退化成部分指标。
var ErrInsufficientData = errors.New("insufficient candle data")

// Set 一次计算得到的全部指标序列，与输入 K 线逐根对齐。
type Set struct {
	Count int

	SMAShort []float64
	SMALong  []float64

	EMAShort []float64
	EMALong  []float64

	RSI []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	BollUpper  []float64
	BollMiddle []float64
	BollLower  []float64

	VolumeRatio []float64

	Closes  []float64
	Volumes []float64
}

// Compute 对整段 K 线计算指标。K 线必须升序且数量不少于 cfg.MinCandles()。
func Compute(candles []market.Candle, cfg Config) (Set, error) {
	cfg = cfg.Sanitize()
	need := cfg.MinCandles()
	if len(candles) < need {
		return Set{}, fmt.Errorf("%w: need %d candles, got %d", ErrInsufficientData, need, len(candles))
	}
	if err := market.Validate(candles); err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	closes := market.Closes(candles)
	volumes := market.Volumes(candles)

	macd, macdSignal, macdHist := MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	bollUpper, bollMiddle, bollLower := Bollinger(closes, cfg.BollPeriod, cfg.BollK)

	return Set{
		Count:       len(candles),
		SMAShort:    SMA(closes, cfg.SMAShort),
		SMALong:     SMA(closes, cfg.SMALong),
		EMAShort:    EMA(closes, cfg.EMAShort),
		EMALong:     EMA(closes, cfg.EMALong),
		RSI:         RSI(closes, cfg.RSIPeriod),
		MACD:        macd,
		MACDSignal:  macdSignal,
		MACDHist:    macdHist,
		BollUpper:   bollUpper,
		BollMiddle:  bollMiddle,
		BollLower:   bollLower,
		VolumeRatio: VolumeRatio(volumes, cfg.VolumePeriod),
		Closes:      closes,
		Volumes:     volumes,
	}, nil
}

// SMA 简单移动平均，前 n-1 个值为 NaN。
func SMA(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if n <= 0 || len(values) < n {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMA 指数移动平均，EMA_0 = values_0，逐根递推（无偏差修正）。
func EMA(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if n <= 0 || len(values) == 0 {
		return out
	}
	k := 2.0 / float64(n+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema += k * (values[i] - ema)
		out[i] = ema
	}
	return out
}

// RSI 相对强弱指标：最近 n 个涨跌幅的简单滚动均值（非 Wilder 平滑）。
// 平均跌幅为零时直接给 100（完全超买），不往下游传 NaN。
func RSI(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if n <= 0 || len(values) <= n {
		return out
	}
	for i := n; i < len(values); i++ {
		gains, losses := 0.0, 0.0
		for j := i - n + 1; j <= i; j++ {
			diff := values[j] - values[j-1]
			if diff > 0 {
				gains += diff
			} else {
				losses -= diff
			}
		}
		avgGain := gains / float64(n)
		avgLoss := losses / float64(n)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD 返回 MACD 线、信号线与柱体。
func MACD(values []float64, fast, slow, signal int) (macd, signalLine, hist []float64) {
	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)
	macd = nanSeries(len(values))
	for i := range values {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(macd, signal)
	hist = nanSeries(len(values))
	for i := range values {
		hist[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, hist
}

// Bollinger 布林带：中轨 SMA(n)，上下轨 ±k 倍总体标准差。
func Bollinger(values []float64, n int, k float64) (upper, middle, lower []float64) {
	middle = SMA(values, n)
	upper = nanSeries(len(values))
	lower = nanSeries(len(values))
	if n <= 1 || len(values) < n {
		return upper, middle, lower
	}
	for i := n - 1; i < len(values); i++ {
		mean := middle[i]
		variance := 0.0
		for j := i - n + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(n))
		upper[i] = mean + k*std
		lower[i] = mean - k*std
	}
	return upper, middle, lower
}

// VolumeRatio 当前成交量相对近 n 根均量的倍数。
func VolumeRatio(volumes []float64, n int) []float64 {
	avg := SMA(volumes, n)
	out := nanSeries(len(volumes))
	for i := range volumes {
		if math.IsNaN(avg[i]) || avg[i] == 0 {
			continue
		}
		out[i] = volumes[i] / avg[i]
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
