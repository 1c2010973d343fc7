package transporthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"quorum/internal/analyst"
	"quorum/internal/decision"
	"quorum/internal/store/decisionlog"

	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) (*Server, *decisionlog.Store) {
	t.Helper()
	logs, err := decisionlog.Open(filepath.Join(t.TempDir(), "decisions.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = logs.Close() })

	srv, err := NewServer(ServerConfig{Logs: logs})
	assert.NoError(t, err)
	return srv, logs
}

func doGet(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doGet(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doGet(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestDecisionsEndpoint(t *testing.T) {
	srv, logs := newTestServer(t)
	err := logs.Record(context.Background(), decisionlog.Record{
		Decision: decision.Decision{
			Symbol:     "BTCUSDT",
			Interval:   "1h",
			Signal:     decision.Buy,
			Confidence: 70,
			Reasoning:  "金叉",
			TraceID:    "t1",
			DecidedAt:  time.Now(),
		},
		Results: []analyst.Result{{Agent: "technical", Signal: analyst.Buy, Confidence: 70}},
	})
	assert.NoError(t, err)

	rec := doGet(t, srv, "/api/decisions?symbol=BTCUSDT")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Decisions []decisionlog.Entry `json:"decisions"`
		Count     int                 `json:"count"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rec = doGet(t, srv, "/api/decisions?agent=aggregate")
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "BUY", body.Decisions[0].Signal)

	// 非法 limit 落回默认值而不是报错
	rec = doGet(t, srv, "/api/decisions?limit=abc")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLatestEndpoint(t *testing.T) {
	srv, logs := newTestServer(t)

	rec := doGet(t, srv, "/api/decisions/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	err := logs.Record(context.Background(), decisionlog.Record{
		Decision: decision.Decision{
			Symbol:     "ETHUSDT",
			Interval:   "1h",
			Signal:     decision.Hold,
			Confidence: 50,
			Reasoning:  "各分析师均为中性，观望",
			DecidedAt:  time.Now(),
		},
	})
	assert.NoError(t, err)

	rec = doGet(t, srv, "/api/decisions/latest?symbol=ETHUSDT")
	assert.Equal(t, http.StatusOK, rec.Code)
	var entry decisionlog.Entry
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "HOLD", entry.Signal)
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}
