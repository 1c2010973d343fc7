package market

import (
	"fmt"
	"sort"
)

// Candle 单根 K 线，时间戳为毫秒。
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades"`
}

// Closes 提取收盘价序列。
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes 提取成交量序列。
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// Highs 提取最高价序列。
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows 提取最低价序列。
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Normalize 按开盘时间升序排序并去重（保留后到的同戳数据）。
// 上游推送偶见乱序或重复，统一在入口处收敛。
func Normalize(candles []Candle) []Candle {
	if len(candles) == 0 {
		return nil
	}
	out := make([]Candle, len(candles))
	copy(out, candles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime })
	dedup := out[:0]
	for _, c := range out {
		if n := len(dedup); n > 0 && dedup[n-1].OpenTime == c.OpenTime {
			dedup[n-1] = c
			continue
		}
		dedup = append(dedup, c)
	}
	return dedup
}

// Validate 检查序列是否升序且无重复时间戳。
func Validate(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime == candles[i-1].OpenTime {
			return fmt.Errorf("duplicate candle open_time %d", candles[i].OpenTime)
		}
		if candles[i].OpenTime < candles[i-1].OpenTime {
			return fmt.Errorf("candles out of order at index %d", i)
		}
	}
	return nil
}
