// Package decisionlog 持久化每轮裁决与各分析器结论，方便复盘。
package decisionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"quorum/internal/analyst"
	"quorum/internal/decision"
	"quorum/internal/risk"
)

const aggregateAgent = "aggregate"

type decisionModel struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	TraceID       string         `gorm:"column:trace_id;index"`
	Timestamp     int64          `gorm:"column:timestamp;index"`
	Symbol        string         `gorm:"column:symbol;index"`
	Interval      string         `gorm:"column:interval"`
	Agent         string         `gorm:"column:agent;index"`
	Signal        string         `gorm:"column:signal"`
	Confidence    int            `gorm:"column:confidence"`
	ConflictScore int            `gorm:"column:conflict_score"`
	Abstained     bool           `gorm:"column:abstained"`
	Price         float64        `gorm:"column:price"`
	Reason        string         `gorm:"column:reason;type:TEXT"`
	Narration     string         `gorm:"column:narration;type:TEXT"`
	DetailsJSON   datatypes.JSON `gorm:"column:details_json;type:TEXT"`
}

func (decisionModel) TableName() string { return "decision_log" }

// Entry 是对外返回的一条日志。
type Entry struct {
	ID            int64           `json:"id"`
	TraceID       string          `json:"trace_id"`
	Timestamp     int64           `json:"ts"`
	Symbol        string          `json:"symbol"`
	Interval      string          `json:"interval"`
	Agent         string          `json:"agent"`
	Signal        string          `json:"signal"`
	Confidence    int             `json:"confidence"`
	ConflictScore int             `json:"conflict_score"`
	Abstained     bool            `json:"abstained"`
	Price         float64         `json:"price"`
	Reason        string          `json:"reason"`
	Narration     string          `json:"narration,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// Store 基于 SQLite 的决策日志。
type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("decision log path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&decisionModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

// Record 写入一轮完整评估：聚合裁决一行、每路分析器各一行，共享 trace id。
type Record struct {
	Decision  decision.Decision
	Results   []analyst.Result
	Estimates []risk.Estimate
	Narration string
}

func (s *Store) Record(ctx context.Context, rec Record) error {
	d := rec.Decision
	ts := d.DecidedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	rows := make([]decisionModel, 0, len(rec.Results)+1)

	details, _ := json.Marshal(map[string]any{
		"contributing": d.Contributing,
		"dissenting":   d.Dissenting,
		"abstained":    d.Abstained,
		"estimates":    rec.Estimates,
	})
	rows = append(rows, decisionModel{
		TraceID:       d.TraceID,
		Timestamp:     ts.UnixMilli(),
		Symbol:        d.Symbol,
		Interval:      d.Interval,
		Agent:         aggregateAgent,
		Signal:        string(d.Signal),
		Confidence:    d.Confidence,
		ConflictScore: d.ConflictScore,
		Price:         d.Price,
		Reason:        d.Reasoning,
		Narration:     rec.Narration,
		DetailsJSON:   datatypes.JSON(details),
	})

	for _, r := range rec.Results {
		var detail []byte
		if len(r.Metrics) > 0 {
			detail, _ = json.Marshal(r.Metrics)
		}
		rows = append(rows, decisionModel{
			TraceID:     d.TraceID,
			Timestamp:   ts.UnixMilli(),
			Symbol:      d.Symbol,
			Interval:    d.Interval,
			Agent:       r.Agent,
			Signal:      string(r.Signal),
			Confidence:  r.Confidence,
			Abstained:   r.Abstained,
			Price:       d.Price,
			Reason:      joinReasons(r.Reasons),
			DetailsJSON: datatypes.JSON(detail),
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// Query 筛选日志。
type Query struct {
	Symbol  string
	Agent   string
	TraceID string
	Limit   int
	Offset  int
}

func (s *Store) List(ctx context.Context, q Query) ([]Entry, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}
	tx := s.db.WithContext(ctx).Model(&decisionModel{}).Order("timestamp DESC, id DESC")
	if q.Symbol != "" {
		tx = tx.Where("symbol = ?", q.Symbol)
	}
	if q.Agent != "" {
		tx = tx.Where("agent = ?", q.Agent)
	}
	if q.TraceID != "" {
		tx = tx.Where("trace_id = ?", q.TraceID)
	}
	var models []decisionModel
	if err := tx.Limit(q.Limit).Offset(q.Offset).Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, toEntry(m))
	}
	return entries, nil
}

// Latest 返回最近一条聚合裁决，没有记录时返回 gorm.ErrRecordNotFound。
func (s *Store) Latest(ctx context.Context, symbol string) (Entry, error) {
	tx := s.db.WithContext(ctx).Model(&decisionModel{}).
		Where("agent = ?", aggregateAgent).
		Order("timestamp DESC, id DESC")
	if symbol != "" {
		tx = tx.Where("symbol = ?", symbol)
	}
	var m decisionModel
	if err := tx.First(&m).Error; err != nil {
		return Entry{}, err
	}
	return toEntry(m), nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toEntry(m decisionModel) Entry {
	return Entry{
		ID:            m.ID,
		TraceID:       m.TraceID,
		Timestamp:     m.Timestamp,
		Symbol:        m.Symbol,
		Interval:      m.Interval,
		Agent:         m.Agent,
		Signal:        m.Signal,
		Confidence:    m.Confidence,
		ConflictScore: m.ConflictScore,
		Abstained:     m.Abstained,
		Price:         m.Price,
		Reason:        m.Reason,
		Narration:     m.Narration,
		Details:       json.RawMessage(m.DetailsJSON),
	}
}

func joinReasons(reasons []string) string {
	switch len(reasons) {
	case 0:
		return ""
	case 1:
		return reasons[0]
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
