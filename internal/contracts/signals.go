package contracts

// Trend 尾盘趋势
type Trend string

const (
	TrendUnknown  Trend = "unknown"
	TrendDown     Trend = "down"
	TrendStable   Trend = "stable"
	TrendUp       Trend = "up"
	TrendStrongUp Trend = "strong_up"
)

// Rank orders trends: down < stable < up < strong_up; unknown ranks lowest
func (t Trend) Rank() int {
	switch t {
	case TrendDown:
		return 1
	case TrendStable:
		return 2
	case TrendUp:
		return 3
	case TrendStrongUp:
		return 4
	default:
		return 0
	}
}

// Rising reports whether the tail is up or strong_up
func (t Trend) Rising() bool {
	return t == TrendUp || t == TrendStrongUp
}

// TailTrend 尾盘趋势指标
type TailTrend struct {
	Trend           Trend   `json:"trend"`
	TailChange      float64 `json:"tail_change"`       // %
	TailVolumeRatio float64 `json:"tail_volume_ratio"` // %
	Strength        float64 `json:"strength"`          // [-100, 100]
}

// FlowStrength 资金流强度
type FlowStrength string

const (
	FlowStrongIn  FlowStrength = "strong_in"
	FlowWeakIn    FlowStrength = "weak_in"
	FlowNeutral   FlowStrength = "neutral"
	FlowWeakOut   FlowStrength = "weak_out"
	FlowStrongOut FlowStrength = "strong_out"
	FlowUnknown   FlowStrength = "unknown"
)

// CapitalFlow 资金流估算 (NetInflow 单位: 亿元)
type CapitalFlow struct {
	Strength       FlowStrength `json:"strength"`
	PriceMomentum  float64      `json:"price_momentum"`
	AmountMomentum float64      `json:"amount_momentum"`
	NetInflow      float64      `json:"net_inflow"`
	IsInflow       bool         `json:"is_inflow"`
}

// UpsideSpace 距涨停空间
type UpsideSpace struct {
	LimitPct   float64 `json:"limit_pct"`
	LimitPrice float64 `json:"limit_price"`
	UpsidePct  float64 `json:"upside_pct"`
	Touched    bool    `json:"touched"` // 盘中触及涨停
	Sealed     bool    `json:"sealed"`  // 现价封板
}

// IntradayFlags 分时异常形态
type IntradayFlags struct {
	FlashCrash   bool    `json:"flash_crash"`
	FlashDropPct float64 `json:"flash_drop_pct,omitempty"`
	TailTrap     bool    `json:"tail_trap"`
	FakePump     bool    `json:"fake_pump"`
	FakePumpWhy  string  `json:"fake_pump_reason,omitempty"`
}

// Rebound 超跌反弹确认
type Rebound struct {
	Recovery    float64 `json:"recovery"`     // 近 N 日收盘回升 %
	VolumeGain  float64 `json:"volume_gain"`  // 近 N 日均量相对 20 日均量 %
	VolumeRatio float64 `json:"volume_ratio"` // 同上，倍数
}

// TechnicalRisk 日 K 技术面风险
type TechnicalRisk struct {
	Available   bool     `json:"available"`
	RSI         float64  `json:"rsi"`
	DIF         float64  `json:"dif"`
	DEA         float64  `json:"dea"`
	GoldenCross bool     `json:"golden_cross"`
	Phase       float64  `json:"phase"` // 20 日阶段涨幅 %
	BullRun     int      `json:"bull_run"`
	UnfilledGap bool     `json:"unfilled_gap"`
	VolumeSurge float64  `json:"volume_surge"` // 当日量 / 5 日均量
	Rebound     *Rebound `json:"rebound,omitempty"`
}

// PatternSignal 技术形态 (阶梯放量 + 站稳5日线)
type PatternSignal struct {
	LadderVolume bool    `json:"ladder_volume"`
	AboveMA5High bool    `json:"above_ma5_high"`
	Support      float64 `json:"support"`
}

// Qualified reports whether both pattern checks pass
func (p PatternSignal) Qualified() bool {
	return p.LadderVolume && p.AboveMA5High
}

// NewsCheck 负面消息检查结果
type NewsCheck struct {
	Checked  bool     `json:"checked"`
	Negative []string `json:"negative,omitempty"`
	Severe   []string `json:"severe,omitempty"`
}
