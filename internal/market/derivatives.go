package market

import (
	"context"
	"strings"
	"sync"
	"time"

	"quorum/internal/logger"
)

// DerivativesData 某个 symbol 的衍生品快照：资金费率与持仓量历史。
type DerivativesData struct {
	Symbol      string
	FundingRate float64
	OIHistory   []OpenInterestPoint
	LastUpdate  time.Time
}

// DerivativesService 周期性刷新资金费率与 OI，供资金费率/持仓量分析师读取缓存。
// 决策周期内不强制打外部 API。
type DerivativesService struct {
	source    Source
	oiPeriod  string
	oiLimit   int
	staleness time.Duration

	mu    sync.RWMutex
	cache map[string]DerivativesData
}

func NewDerivativesService(source Source) *DerivativesService {
	return &DerivativesService{
		source:    source,
		oiPeriod:  "1h",
		oiLimit:   30,
		staleness: 10 * time.Minute,
		cache:     make(map[string]DerivativesData),
	}
}

// Refresh 刷新给定 symbol 的衍生品数据，单个失败只告警不中断。
func (s *DerivativesService) Refresh(ctx context.Context, symbols []string) {
	if s == nil || s.source == nil {
		return
	}
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		funding, err := s.source.GetFundingRate(ctx, sym)
		if err != nil {
			logger.Warnf("[derivatives] %s 资金费率刷新失败: %v", sym, err)
			continue
		}
		oi, err := s.source.GetOpenInterestHistory(ctx, sym, s.oiPeriod, s.oiLimit)
		if err != nil {
			logger.Warnf("[derivatives] %s OI 刷新失败: %v", sym, err)
			continue
		}
		s.mu.Lock()
		s.cache[sym] = DerivativesData{
			Symbol:      sym,
			FundingRate: funding,
			OIHistory:   oi,
			LastUpdate:  time.Now(),
		}
		s.mu.Unlock()
	}
}

// Get 返回缓存快照。过期或缺失时返回 ErrDataUnavailable，让对应分析师弃权。
func (s *DerivativesService) Get(symbol string) (DerivativesData, error) {
	if s == nil {
		return DerivativesData{}, Unavailable(nil)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.RLock()
	data, ok := s.cache[symbol]
	s.mu.RUnlock()
	if !ok || time.Since(data.LastUpdate) > s.staleness {
		return DerivativesData{}, Unavailable(nil)
	}
	return data, nil
}
