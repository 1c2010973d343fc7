package indicator

// Weights 各指标族的投票权重。
type Weights struct {
	SMA       float64 `toml:"sma"`
	EMA       float64 `toml:"ema"`
	RSI       float64 `toml:"rsi"`
	MACD      float64 `toml:"macd"`
	Bollinger float64 `toml:"bollinger"`
	Volume    float64 `toml:"volume"`
}

// Total 返回全部配置权重之和。置信度分母始终用全量权重，
// 只有一两个指标族发声时置信度会被稀释，这是有意为之。
func (w Weights) Total() float64 {
	return w.SMA + w.EMA + w.RSI + w.MACD + w.Bollinger + w.Volume
}

// Config 技术指标参数，一次性注入，不做全局可变状态。
type Config struct {
	SMAShort int `toml:"sma_short"`
	SMALong  int `toml:"sma_long"`

	EMAShort int `toml:"ema_short"`
	EMALong  int `toml:"ema_long"`

	RSIPeriod     int     `toml:"rsi_period"`
	RSIOversold   float64 `toml:"rsi_oversold"`
	RSIOverbought float64 `toml:"rsi_overbought"`

	MACDFast   int `toml:"macd_fast"`
	MACDSlow   int `toml:"macd_slow"`
	MACDSignal int `toml:"macd_signal"`

	BollPeriod int     `toml:"boll_period"`
	BollK      float64 `toml:"boll_k"`

	VolumePeriod int     `toml:"volume_period"`
	VolumeSpike  float64 `toml:"volume_spike"`

	Weights Weights `toml:"weights"`
}

// DefaultConfig 返回缺省参数。
func DefaultConfig() Config {
	return Config{
		SMAShort:      10,
		SMALong:       30,
		EMAShort:      9,
		EMALong:       21,
		RSIPeriod:     14,
		RSIOversold:   30,
		RSIOverbought: 70,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		BollPeriod:    20,
		BollK:         2,
		VolumePeriod:  20,
		VolumeSpike:   1.5,
		Weights: Weights{
			SMA:       1.0,
			EMA:       1.5,
			RSI:       1.0,
			MACD:      1.2,
			Bollinger: 0.9,
			Volume:    0.7,
		},
	}
}

// Sanitize 将非法/缺省字段替换为默认值，返回新值不修改原配置。
func (c Config) Sanitize() Config {
	def := DefaultConfig()
	if c.SMAShort <= 0 {
		c.SMAShort = def.SMAShort
	}
	if c.SMALong <= c.SMAShort {
		c.SMALong = def.SMALong
	}
	if c.EMAShort <= 0 {
		c.EMAShort = def.EMAShort
	}
	if c.EMALong <= c.EMAShort {
		c.EMALong = def.EMALong
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = def.RSIPeriod
	}
	if c.RSIOversold <= 0 || c.RSIOversold >= 100 {
		c.RSIOversold = def.RSIOversold
	}
	if c.RSIOverbought <= c.RSIOversold || c.RSIOverbought >= 100 {
		c.RSIOverbought = def.RSIOverbought
	}
	if c.MACDFast <= 0 {
		c.MACDFast = def.MACDFast
	}
	if c.MACDSlow <= c.MACDFast {
		c.MACDSlow = def.MACDSlow
	}
	if c.MACDSignal <= 0 {
		c.MACDSignal = def.MACDSignal
	}
	if c.BollPeriod <= 1 {
		c.BollPeriod = def.BollPeriod
	}
	if c.BollK <= 0 {
		c.BollK = def.BollK
	}
	if c.VolumePeriod <= 0 {
		c.VolumePeriod = def.VolumePeriod
	}
	if c.VolumeSpike <= 1 {
		c.VolumeSpike = def.VolumeSpike
	}
	if c.Weights.Total() <= 0 {
		c.Weights = def.Weights
	}
	return c
}

// MinCandles 返回计算全部指标所需的最小 K 线数量（最长回溯窗口）。
func (c Config) MinCandles() int {
	min := c.SMALong
	for _, n := range []int{c.SMAShort, c.EMALong, c.RSIPeriod + 1, c.MACDSlow, c.BollPeriod, c.VolumePeriod} {
		if n > min {
			min = n
		}
	}
	return min
}
