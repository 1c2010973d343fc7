package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	fearGreedEndpoint       = "https://api.alternative.me/fng/?limit=8"
	fearGreedFallbackExpiry = 12 * time.Hour
)

// FearGreedPoint 单日恐惧贪婪指数。
type FearGreedPoint struct {
	Value          int
	Classification string
	Timestamp      time.Time
}

// FearGreedData 最新指数及近几日历史（History[0] 为最新）。
type FearGreedData struct {
	Value          int
	Classification string
	History        []FearGreedPoint
	LastUpdate     time.Time
}

// FearGreedService 拉取 alternative.me 恐惧贪婪指数并缓存到下一次官方更新时间。
type FearGreedService struct {
	endpoint string
	client   *http.Client

	mu         sync.Mutex
	data       FearGreedData
	nextUpdate time.Time
}

func NewFearGreedService() *FearGreedService {
	return &FearGreedService{
		endpoint: fearGreedEndpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Latest 返回当前指数，必要时先刷新。失败且无缓存时返回 ErrDataUnavailable。
func (s *FearGreedService) Latest(ctx context.Context) (FearGreedData, error) {
	if s == nil {
		return FearGreedData{}, Unavailable(fmt.Errorf("fear & greed service not initialized"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if !s.data.LastUpdate.IsZero() && now.Before(s.nextUpdate) {
		return s.data, nil
	}
	data, next, err := s.fetch(ctx)
	if err != nil {
		if !s.data.LastUpdate.IsZero() {
			// 刷新失败但有缓存：继续用旧值，等下个周期再试
			return s.data, nil
		}
		return FearGreedData{}, Unavailable(err)
	}
	s.data = data
	s.nextUpdate = next
	return s.data, nil
}

type fearGreedResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
		TimeUntilUpdate     string `json:"time_until_update"`
	} `json:"data"`
	Metadata struct {
		Error any `json:"error"`
	} `json:"metadata"`
}

func (s *FearGreedService) fetch(ctx context.Context) (FearGreedData, time.Time, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return FearGreedData{}, time.Time{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return FearGreedData{}, time.Time{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FearGreedData{}, time.Time{}, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var payload fearGreedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FearGreedData{}, time.Time{}, err
	}
	if payload.Metadata.Error != nil {
		return FearGreedData{}, time.Time{}, fmt.Errorf("api error: %v", payload.Metadata.Error)
	}
	points := make([]FearGreedPoint, 0, len(payload.Data))
	for _, item := range payload.Data {
		value, err := strconv.Atoi(strings.TrimSpace(item.Value))
		if err != nil {
			continue
		}
		var ts time.Time
		if sec, err := strconv.ParseInt(strings.TrimSpace(item.Timestamp), 10, 64); err == nil {
			ts = time.Unix(sec, 0).UTC()
		}
		points = append(points, FearGreedPoint{
			Value:          value,
			Classification: strings.TrimSpace(item.ValueClassification),
			Timestamp:      ts,
		})
	}
	if len(points) == 0 {
		return FearGreedData{}, time.Time{}, fmt.Errorf("api data empty")
	}

	now := time.Now()
	next := now.Add(fearGreedFallbackExpiry)
	if raw := strings.TrimSpace(payload.Data[0].TimeUntilUpdate); raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
			next = now.Add(time.Duration(secs) * time.Second)
		}
	}
	data := FearGreedData{
		Value:          points[0].Value,
		Classification: points[0].Classification,
		History:        points,
		LastUpdate:     now,
	}
	return data, next, nil
}
