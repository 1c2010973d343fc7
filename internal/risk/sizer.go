// Package risk 仓位估算：三种估算器加权混合，结果受现金与集中度上限约束。
package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Method 估算方法标识。
type Method string

const (
	RiskBased   Method = "risk_based"
	Kelly       Method = "kelly"
	VolAdjusted Method = "volatility_adjusted"
)

// ValidationError 输入退化（entry==stop、组合净值非正等）。
// 调用方应回落到保守默认仓位，而不是中断。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("risk validation: %s %s", e.Field, e.Reason)
}

// Estimate 单个估算器的输出。Warning 非空表示该估算给出了保守降级。
type Estimate struct {
	Method  Method  `json:"method"`
	Size    float64 `json:"size"` // 以计价货币（USD）计
	Warning string  `json:"warning,omitempty"`
}

// Config 仓位估算参数。
type Config struct {
	RiskTolerance    float64 `toml:"risk_tolerance"`     // 单笔风险占组合比例
	KellyWinRate     float64 `toml:"kelly_win_rate"`     // 缺省胜率
	KellyRewardRatio float64 `toml:"kelly_reward_ratio"` // 缺省盈亏比
	TargetDailyVol   float64 `toml:"target_daily_vol"`   // 目标日波动
	MaxConcentration float64 `toml:"max_concentration"`  // 单仓占组合上限

	BlendRisk  float64 `toml:"blend_risk"`
	BlendKelly float64 `toml:"blend_kelly"`
	BlendVol   float64 `toml:"blend_vol"`

	// 组合集中度（HHI）超过阈值时改用的权重，风险估算占比上调
	HHIThreshold   float64 `toml:"hhi_threshold"`
	HighConcRisk   float64 `toml:"high_conc_risk"`
	HighConcKelly  float64 `toml:"high_conc_kelly"`
	HighConcVol    float64 `toml:"high_conc_vol"`
	FallbackPct    float64 `toml:"fallback_pct"` // 校验失败时的保守仓位
}

// DefaultConfig 返回缺省仓位参数。
func DefaultConfig() Config {
	return Config{
		RiskTolerance:    0.02,
		KellyWinRate:     0.55,
		KellyRewardRatio: 2.0,
		TargetDailyVol:   0.02,
		MaxConcentration: 0.30,
		BlendRisk:        0.40,
		BlendKelly:       0.30,
		BlendVol:         0.30,
		HHIThreshold:     0.50,
		HighConcRisk:     0.50,
		HighConcKelly:    0.20,
		HighConcVol:      0.30,
		FallbackPct:      0.01,
	}
}

func (c Config) sanitize() Config {
	def := DefaultConfig()
	if c.RiskTolerance <= 0 || c.RiskTolerance >= 1 {
		c.RiskTolerance = def.RiskTolerance
	}
	if c.KellyWinRate <= 0 || c.KellyWinRate >= 1 {
		c.KellyWinRate = def.KellyWinRate
	}
	if c.KellyRewardRatio <= 0 {
		c.KellyRewardRatio = def.KellyRewardRatio
	}
	if c.TargetDailyVol <= 0 {
		c.TargetDailyVol = def.TargetDailyVol
	}
	if c.MaxConcentration <= 0 || c.MaxConcentration > 1 {
		c.MaxConcentration = def.MaxConcentration
	}
	if c.BlendRisk <= 0 || c.BlendKelly < 0 || c.BlendVol < 0 || c.BlendRisk+c.BlendKelly+c.BlendVol <= 0 {
		c.BlendRisk, c.BlendKelly, c.BlendVol = def.BlendRisk, def.BlendKelly, def.BlendVol
	}
	if c.HHIThreshold <= 0 || c.HHIThreshold > 1 {
		c.HHIThreshold = def.HHIThreshold
	}
	if c.HighConcRisk <= 0 || c.HighConcRisk+c.HighConcKelly+c.HighConcVol <= 0 {
		c.HighConcRisk, c.HighConcKelly, c.HighConcVol = def.HighConcRisk, def.HighConcKelly, def.HighConcVol
	}
	if c.FallbackPct <= 0 || c.FallbackPct >= 1 {
		c.FallbackPct = def.FallbackPct
	}
	return c
}

// Input 一次估算的全部输入。
type Input struct {
	EntryPrice     float64
	StopLoss       float64
	PortfolioValue float64
	CashBalance    float64

	// WinRate/RewardRatio 为 0 时用 Config 缺省值
	WinRate     float64
	RewardRatio float64

	// AssetDailyVol 资产日波动率（如 ATR/价格）；<=0 时跳过波动率估算器
	AssetDailyVol float64

	// PositionWeights 现有持仓占组合的权重，用来算 HHI 集中度
	PositionWeights []float64
}

// Sizer 组合三种估算器。无内部状态，可并发使用。
type Sizer struct {
	cfg Config
}

func NewSizer(cfg Config) *Sizer {
	return &Sizer{cfg: cfg.sanitize()}
}

// Estimates 执行全部可用的估算器。输入退化时返回 ValidationError。
func (s *Sizer) Estimates(in Input) ([]Estimate, error) {
	if in.PortfolioValue <= 0 {
		return nil, &ValidationError{Field: "portfolio_value", Reason: "must be positive"}
	}
	if in.EntryPrice <= 0 {
		return nil, &ValidationError{Field: "entry_price", Reason: "must be positive"}
	}
	if in.EntryPrice == in.StopLoss {
		return nil, &ValidationError{Field: "stop_loss", Reason: "equals entry price"}
	}

	out := make([]Estimate, 0, 3)
	out = append(out, s.riskBased(in))
	out = append(out, s.kelly(in))
	if in.AssetDailyVol > 0 {
		out = append(out, s.volAdjusted(in))
	}
	return out, nil
}

// riskBased 固定比例风险：单笔最多亏组合的 RiskTolerance。
func (s *Sizer) riskBased(in Input) Estimate {
	maxRisk := in.PortfolioValue * s.cfg.RiskTolerance
	perUnit := math.Abs(in.EntryPrice - in.StopLoss)
	qty := maxRisk / perUnit
	return Estimate{Method: RiskBased, Size: qty * in.EntryPrice}
}

// kelly 四分之一凯利：f 先封顶 0.5 再减半，负 f 直接弃赌。
func (s *Sizer) kelly(in Input) Estimate {
	winRate := in.WinRate
	if winRate <= 0 || winRate >= 1 {
		winRate = s.cfg.KellyWinRate
	}
	reward := in.RewardRatio
	if reward <= 0 {
		reward = s.cfg.KellyRewardRatio
	}
	f := (winRate*reward - (1 - winRate)) / reward
	if f < 0 {
		return Estimate{Method: Kelly, Size: 0, Warning: "凯利比例为负，该笔交易期望不利"}
	}
	if f > 0.5 {
		f = 0.5
	}
	return Estimate{Method: Kelly, Size: f / 2 * in.PortfolioValue}
}

// volAdjusted 目标波动率缩放，封顶组合的 MaxConcentration。
func (s *Sizer) volAdjusted(in Input) Estimate {
	size := s.cfg.TargetDailyVol / in.AssetDailyVol * in.PortfolioValue
	limit := s.cfg.MaxConcentration * in.PortfolioValue
	warning := ""
	if size > limit {
		size = limit
		warning = "波动率估算触及集中度上限"
	}
	return Estimate{Method: VolAdjusted, Size: size, Warning: warning}
}

// Blend 按配置权重混合估算值，集中度高时上调风险估算占比，
// 最终受 min(混合值, 现金, MaxConcentration×组合) 约束。
// 上限比较用 decimal 做，避免临界值上的浮点毛刺。
func (s *Sizer) Blend(estimates []Estimate, in Input) float64 {
	if len(estimates) == 0 {
		return 0
	}
	wRisk, wKelly, wVol := s.cfg.BlendRisk, s.cfg.BlendKelly, s.cfg.BlendVol
	if HHI(in.PositionWeights) > s.cfg.HHIThreshold {
		wRisk, wKelly, wVol = s.cfg.HighConcRisk, s.cfg.HighConcKelly, s.cfg.HighConcVol
	}
	weightOf := func(m Method) float64 {
		switch m {
		case RiskBased:
			return wRisk
		case Kelly:
			return wKelly
		case VolAdjusted:
			return wVol
		default:
			return 0
		}
	}
	sum, weightSum := 0.0, 0.0
	for _, e := range estimates {
		w := weightOf(e.Method)
		if w <= 0 {
			continue
		}
		sum += w * e.Size
		weightSum += w
	}
	if weightSum <= 0 {
		return 0
	}
	blended := decimal.NewFromFloat(sum / weightSum)
	caps := []decimal.Decimal{
		decimal.NewFromFloat(in.CashBalance),
		decimal.NewFromFloat(s.cfg.MaxConcentration).Mul(decimal.NewFromFloat(in.PortfolioValue)),
	}
	for _, c := range caps {
		if blended.GreaterThan(c) {
			blended = c
		}
	}
	if blended.IsNegative() {
		return 0
	}
	out, _ := blended.Float64()
	return out
}

// Fallback 校验失败时的保守仓位：组合的固定小比例，再受现金约束。
func (s *Sizer) Fallback(in Input) float64 {
	size := in.PortfolioValue * s.cfg.FallbackPct
	if size > in.CashBalance {
		size = in.CashBalance
	}
	if size < 0 {
		return 0
	}
	return size
}

// HHI 赫芬达尔指数：Σw²，衡量组合集中度。
func HHI(weights []float64) float64 {
	sum := 0.0
	for _, w := range weights {
		if w <= 0 {
			continue
		}
		sum += w * w
	}
	return sum
}
