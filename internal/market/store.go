package market

import (
	"strings"
	"sync"
)

// CandleCache 按 symbol@interval 缓存最近 K 线，超出 max 时裁掉旧数据。
// 分析周期内各分析师读取的是副本，互不影响。
type CandleCache struct {
	mu   sync.RWMutex
	max  int
	data map[string][]Candle
}

func NewCandleCache(max int) *CandleCache {
	if max <= 0 {
		max = 500
	}
	return &CandleCache{
		max:  max,
		data: make(map[string][]Candle),
	}
}

func cacheKey(symbol, interval string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "@" + strings.ToLower(strings.TrimSpace(interval))
}

// Put 合并写入：同时间戳覆盖，新时间戳追加，最后裁剪到 max。
func (c *CandleCache) Put(symbol, interval string, candles []Candle) {
	if symbol == "" || interval == "" || len(candles) == 0 {
		return
	}
	k := cacheKey(symbol, interval)
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.data[k]
	for _, candle := range candles {
		if n := len(cur); n > 0 && cur[n-1].OpenTime == candle.OpenTime {
			cur[n-1] = candle
			continue
		}
		cur = append(cur, candle)
	}
	cur = Normalize(cur)
	if len(cur) > c.max {
		cur = cur[len(cur)-c.max:]
	}
	c.data[k] = cur
}

// Get 返回缓存副本，不存在时返回 nil。
func (c *CandleCache) Get(symbol, interval string) []Candle {
	k := cacheKey(symbol, interval)
	c.mu.RLock()
	defer c.mu.RUnlock()
	cur := c.data[k]
	if len(cur) == 0 {
		return nil
	}
	out := make([]Candle, len(cur))
	copy(out, cur)
	return out
}
