package strategyconfig

import "time"

// Config 尾盘 T+1 选股策略的全部可调参数
// ⭐ SSOT: 所有阈值、权重、关键词表只在这里定义
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Criteria  Criteria  `yaml:"criteria" json:"criteria"`
	Intraday  Intraday  `yaml:"intraday" json:"intraday"`
	Technical Technical `yaml:"technical" json:"technical"`
	Pattern   Pattern   `yaml:"pattern" json:"pattern"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Selection Selection `yaml:"selection" json:"selection"`
	TradePlan TradePlan `yaml:"trade_plan" json:"trade_plan"`
	Keywords  Keywords  `yaml:"keywords" json:"keywords"`
}

// Meta 元信息
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Criteria 粗筛条件 (流通市值单位: 亿元)
type Criteria struct {
	ChangePctMin   float64 `yaml:"change_pct_min" json:"change_pct_min"`
	ChangePctMax   float64 `yaml:"change_pct_max" json:"change_pct_max"`
	VolumeRatioMin float64 `yaml:"volume_ratio_min" json:"volume_ratio_min"`
	VolumeRatioMax float64 `yaml:"volume_ratio_max" json:"volume_ratio_max"`
	FloatCapMin    float64 `yaml:"float_cap_min" json:"float_cap_min"`
	FloatCapMax    float64 `yaml:"float_cap_max" json:"float_cap_max"`
	Limit          int     `yaml:"limit" json:"limit"`
}

// Intraday 分时形态参数
type Intraday struct {
	WindowBars int `yaml:"window_bars" json:"window_bars"` // 尾盘分析保留的分钟数
	TailBars   int `yaml:"tail_bars" json:"tail_bars"`
	MinBars    int `yaml:"min_bars" json:"min_bars"`

	StrongUpChange      float64 `yaml:"strong_up_change" json:"strong_up_change"`
	StrongUpVolumeRatio float64 `yaml:"strong_up_volume_ratio" json:"strong_up_volume_ratio"`
	UpChange            float64 `yaml:"up_change" json:"up_change"`
	DownChange          float64 `yaml:"down_change" json:"down_change"`

	Flow       FlowParams       `yaml:"flow" json:"flow"`
	FlashCrash FlashCrashParams `yaml:"flash_crash" json:"flash_crash"`
	TailTrap   TailTrapParams   `yaml:"tail_trap" json:"tail_trap"`
	FakePump   FakePumpParams   `yaml:"fake_pump" json:"fake_pump"`
}

// FlowParams 资金流估算 (金额单位: 亿元)
type FlowParams struct {
	PriceMomentum      float64 `yaml:"price_momentum" json:"price_momentum"`
	StrongAmountGrowth float64 `yaml:"strong_amount_growth" json:"strong_amount_growth"`
	FlatAmountGrowth   float64 `yaml:"flat_amount_growth" json:"flat_amount_growth"`
	StrongMultiplier   float64 `yaml:"strong_multiplier" json:"strong_multiplier"`
	WeakMultiplier     float64 `yaml:"weak_multiplier" json:"weak_multiplier"`
	ReducedMultiplier  float64 `yaml:"reduced_multiplier" json:"reduced_multiplier"`
	InflowThreshold    float64 `yaml:"inflow_threshold" json:"inflow_threshold"`
}

type FlashCrashParams struct {
	WindowBars int     `yaml:"window_bars" json:"window_bars"`
	DropPct    float64 `yaml:"drop_pct" json:"drop_pct"`
}

type TailTrapParams struct {
	DepressedPct float64 `yaml:"depressed_pct" json:"depressed_pct"`
	TailRisePct  float64 `yaml:"tail_rise_pct" json:"tail_rise_pct"`
	RangePct     float64 `yaml:"range_pct" json:"range_pct"`
}

type FakePumpParams struct {
	OpeningBars       int     `yaml:"opening_bars" json:"opening_bars"`
	SpikePct          float64 `yaml:"spike_pct" json:"spike_pct"`
	FallbackChangePct float64 `yaml:"fallback_change_pct" json:"fallback_change_pct"`
	MinTailVolumePct  float64 `yaml:"min_tail_volume_pct" json:"min_tail_volume_pct"`
}

// Technical 日 K 技术面风险参数
type Technical struct {
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
	RSIPeriod    int `yaml:"rsi_period" json:"rsi_period"`
	MACDFast     int `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow     int `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal   int `yaml:"macd_signal" json:"macd_signal"`

	PhaseBars     int     `yaml:"phase_bars" json:"phase_bars"`
	PhaseSevere   float64 `yaml:"phase_severe" json:"phase_severe"`
	PhaseModerate float64 `yaml:"phase_moderate" json:"phase_moderate"`
	OversoldPhase float64 `yaml:"oversold_phase" json:"oversold_phase"`

	ReboundDays           int     `yaml:"rebound_days" json:"rebound_days"`
	ReboundMinRecovery    float64 `yaml:"rebound_min_recovery" json:"rebound_min_recovery"`
	ReboundMinVolumeGain  float64 `yaml:"rebound_min_volume_gain" json:"rebound_min_volume_gain"`
	ReboundVolumeBaseBars int     `yaml:"rebound_volume_base_bars" json:"rebound_volume_base_bars"`

	RunSevere   int `yaml:"run_severe" json:"run_severe"`
	RunModerate int `yaml:"run_moderate" json:"run_moderate"`

	GapBars int     `yaml:"gap_bars" json:"gap_bars"`
	GapPct  float64 `yaml:"gap_pct" json:"gap_pct"`

	SurgeBaseBars int     `yaml:"surge_base_bars" json:"surge_base_bars"`
	SurgeSevere   float64 `yaml:"surge_severe" json:"surge_severe"`
	SurgeModerate float64 `yaml:"surge_moderate" json:"surge_moderate"`
}

// Pattern 技术形态补充池 (阶梯放量 + 站稳5日线)
type Pattern struct {
	LadderBars       int     `yaml:"ladder_bars" json:"ladder_bars"`
	LadderSteps      int     `yaml:"ladder_steps" json:"ladder_steps"`
	LadderStepFactor float64 `yaml:"ladder_step_factor" json:"ladder_step_factor"`
	LadderLastFactor float64 `yaml:"ladder_last_factor" json:"ladder_last_factor"`
	MA5Tolerance     float64 `yaml:"ma5_tolerance" json:"ma5_tolerance"`
	HighBars         int     `yaml:"high_bars" json:"high_bars"`
	NearHighFactor   float64 `yaml:"near_high_factor" json:"near_high_factor"`
	SupportBars      int     `yaml:"support_bars" json:"support_bars"`
}

// Scoring 评分规则权重
type Scoring struct {
	TailWeights      []TailWeightStep `yaml:"tail_weights" json:"tail_weights"`
	AfterCloseWeight float64          `yaml:"after_close_weight" json:"after_close_weight"`

	TailTrend   TailTrendPoints   `yaml:"tail_trend" json:"tail_trend"`
	UpsideRoom  []Band            `yaml:"upside_room" json:"upside_room"`
	CapitalFlow CapitalFlowPoints `yaml:"capital_flow" json:"capital_flow"`
	Turnover    []Band            `yaml:"turnover" json:"turnover"`
	VolumeRatio []Band            `yaml:"volume_ratio" json:"volume_ratio"`
	ChangePct   []Band            `yaml:"change_pct" json:"change_pct"`
	News        NewsPoints        `yaml:"news" json:"news"`
	Market      MarketPoints      `yaml:"market" json:"market"`
	LimitUp     LimitUpPoints     `yaml:"limit_up" json:"limit_up"`
	Fraud       FraudPoints       `yaml:"fraud" json:"fraud"`
	Technical   TechnicalPoints   `yaml:"technical" json:"technical"`
	Expectation Expectation       `yaml:"expectation" json:"expectation"`
	Risk        RiskLevels        `yaml:"risk" json:"risk"`
}

// TailWeightStep 在 Before (HH:MM) 之前使用 Weight
type TailWeightStep struct {
	Before string  `yaml:"before" json:"before"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Band 半开区间 [Min, Max) 内得 Points 分
type Band struct {
	Min    float64 `yaml:"min" json:"min"`
	Max    float64 `yaml:"max" json:"max"`
	Points int     `yaml:"points" json:"points"`
}

// Contains reports whether v falls in [Min, Max)
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v < b.Max
}

// Lookup returns the points of the first band containing v
func Lookup(bands []Band, v float64) (int, bool) {
	for _, b := range bands {
		if b.Contains(v) {
			return b.Points, true
		}
	}
	return 0, false
}

type TailTrendPoints struct {
	StrongUp int `yaml:"strong_up" json:"strong_up"`
	Up       int `yaml:"up" json:"up"`
	Down     int `yaml:"down" json:"down"`
}

type CapitalFlowPoints struct {
	Strong       int     `yaml:"strong" json:"strong"`
	Weak         int     `yaml:"weak" json:"weak"`
	PreferFactor float64 `yaml:"prefer_factor" json:"prefer_factor"`
}

type NewsPoints struct {
	Clean    int `yaml:"clean" json:"clean"`
	Negative int `yaml:"negative" json:"negative"`
	Severe   int `yaml:"severe" json:"severe"`
	Days     int `yaml:"days" json:"days"`
}

// MarketPoints 大盘情绪 (按指数当日涨跌幅分档)
type MarketPoints struct {
	StrongChange  float64 `yaml:"strong_change" json:"strong_change"`
	WeakChange    float64 `yaml:"weak_change" json:"weak_change"`
	PanicChange   float64 `yaml:"panic_change" json:"panic_change"`
	Strong        int     `yaml:"strong" json:"strong"`
	Positive      int     `yaml:"positive" json:"positive"`
	Weak          int     `yaml:"weak" json:"weak"`
	Panic         int     `yaml:"panic" json:"panic"`
	TrendBonus    int     `yaml:"trend_bonus" json:"trend_bonus"`
	TrendPenalty  int     `yaml:"trend_penalty" json:"trend_penalty"`
	IndexLookback int     `yaml:"index_lookback" json:"index_lookback"`
}

type LimitUpPoints struct {
	Opened  int     `yaml:"opened" json:"opened"`
	Sealed  int     `yaml:"sealed" json:"sealed"`
	Near    int     `yaml:"near" json:"near"`
	NearPct float64 `yaml:"near_pct" json:"near_pct"`
}

type FraudPoints struct {
	FlashCrash int `yaml:"flash_crash" json:"flash_crash"`
	TailTrap   int `yaml:"tail_trap" json:"tail_trap"`
	FakePump   int `yaml:"fake_pump" json:"fake_pump"`
}

type TechnicalPoints struct {
	PhaseSevere        int     `yaml:"phase_severe" json:"phase_severe"`
	PhaseModerate      int     `yaml:"phase_moderate" json:"phase_moderate"`
	ReboundBase        int     `yaml:"rebound_base" json:"rebound_base"`
	ReboundRecovery    int     `yaml:"rebound_recovery" json:"rebound_recovery"`
	ReboundRecoveryPct float64 `yaml:"rebound_recovery_pct" json:"rebound_recovery_pct"`
	ReboundVolume      int     `yaml:"rebound_volume" json:"rebound_volume"`
	ReboundVolumeRatio float64 `yaml:"rebound_volume_ratio" json:"rebound_volume_ratio"`
	ReboundRSI         int     `yaml:"rebound_rsi" json:"rebound_rsi"`
	ReboundRSIBelow    float64 `yaml:"rebound_rsi_below" json:"rebound_rsi_below"`
	ReboundGoldenCross int     `yaml:"rebound_golden_cross" json:"rebound_golden_cross"`
	RunSevere          int     `yaml:"run_severe" json:"run_severe"`
	RunModerate        int     `yaml:"run_moderate" json:"run_moderate"`
	Gap                int     `yaml:"gap" json:"gap"`
	SurgeSevere        int     `yaml:"surge_severe" json:"surge_severe"`
	SurgeModerate      int     `yaml:"surge_moderate" json:"surge_moderate"`
}

// Expectation 次日预期收益估算
type Expectation struct {
	ScoreDivisor     float64 `yaml:"score_divisor" json:"score_divisor"`
	Offset           float64 `yaml:"offset" json:"offset"`
	MinReturn        float64 `yaml:"min_return" json:"min_return"`
	MaxReturn        float64 `yaml:"max_return" json:"max_return"`
	ConfidenceFactor float64 `yaml:"confidence_factor" json:"confidence_factor"`
	HotChangePct     float64 `yaml:"hot_change_pct" json:"hot_change_pct"`
	HighTurnover     float64 `yaml:"high_turnover" json:"high_turnover"`
	TightUpside      float64 `yaml:"tight_upside" json:"tight_upside"`
	AmpleUpside      float64 `yaml:"ample_upside" json:"ample_upside"`
	LowValueReturn   float64 `yaml:"low_value_return" json:"low_value_return"`
	LowValuePenalty  int     `yaml:"low_value_penalty" json:"low_value_penalty"`
	ReturnAdjustment float64 `yaml:"return_adjustment" json:"return_adjustment"`
	ConfidenceAdjust float64 `yaml:"confidence_adjust" json:"confidence_adjust"`
}

// RiskLevels 风险等级判定
type RiskLevels struct {
	HighConfidenceBelow  float64 `yaml:"high_confidence_below" json:"high_confidence_below"`
	HighWarnings         int     `yaml:"high_warnings" json:"high_warnings"`
	LowConfidenceAtLeast float64 `yaml:"low_confidence_at_least" json:"low_confidence_at_least"`
}

// Selection 排序与分散化
type Selection struct {
	BaseThreshold     int     `yaml:"base_threshold" json:"base_threshold"`
	StressThreshold   int     `yaml:"stress_threshold" json:"stress_threshold"`
	StressIndexChange float64 `yaml:"stress_index_change" json:"stress_index_change"`
	MaxPicks          int     `yaml:"max_picks" json:"max_picks"`
	SegmentCap        int     `yaml:"segment_cap" json:"segment_cap"`
	ConceptCap        int     `yaml:"concept_cap" json:"concept_cap"`
	AnalyzeTop        int     `yaml:"analyze_top" json:"analyze_top"`

	Final      FinalPick  `yaml:"final" json:"final"`
	Supplement Supplement `yaml:"supplement" json:"supplement"`
	Heat       Heat       `yaml:"heat" json:"heat"`
}

type FinalPick struct {
	AIPicks     int `yaml:"ai_picks" json:"ai_picks"`
	Supplements int `yaml:"supplements" json:"supplements"`
	Max         int `yaml:"max" json:"max"`
}

// Supplement 补充候选的打分
type Supplement struct {
	InflowPerUnit float64 `yaml:"inflow_per_unit" json:"inflow_per_unit"`
	InflowCap     float64 `yaml:"inflow_cap" json:"inflow_cap"`
	VolumeRatio   Band    `yaml:"volume_ratio" json:"volume_ratio"`
	Turnover      Band    `yaml:"turnover" json:"turnover"`
	NewSegment    int     `yaml:"new_segment" json:"new_segment"`
	NewConcept    int     `yaml:"new_concept" json:"new_concept"`
}

// Heat 热门概念判定 (金额单位: 亿元)
type Heat struct {
	MinInflow float64 `yaml:"min_inflow" json:"min_inflow"`
	MinCount  int     `yaml:"min_count" json:"min_count"`
}

// TradePlan 止损止盈
type TradePlan struct {
	Base StopTarget `yaml:"base" json:"base"`
	High StopTarget `yaml:"high" json:"high"`
	Low  StopTarget `yaml:"low" json:"low"`

	RaiseExpectedAt  float64 `yaml:"raise_expected_at" json:"raise_expected_at"`
	RaiseMargin      float64 `yaml:"raise_margin" json:"raise_margin"`
	CapExpectedBelow float64 `yaml:"cap_expected_below" json:"cap_expected_below"`
	CapTarget        float64 `yaml:"cap_target" json:"cap_target"`
	HighTurnover     float64 `yaml:"high_turnover" json:"high_turnover"`
	HighTurnoverStop float64 `yaml:"high_turnover_stop" json:"high_turnover_stop"`
	LowTurnover      float64 `yaml:"low_turnover" json:"low_turnover"`
	LowTurnoverStop  float64 `yaml:"low_turnover_stop" json:"low_turnover_stop"`
	HighOpenPct      float64 `yaml:"high_open_pct" json:"high_open_pct"`
	LowOpenPct       float64 `yaml:"low_open_pct" json:"low_open_pct"`
}

// StopTarget 百分比 (止损为负)
type StopTarget struct {
	StopPct   float64 `yaml:"stop_pct" json:"stop_pct"`
	TargetPct float64 `yaml:"target_pct" json:"target_pct"`
}

// Keywords 关键词表，顺序即匹配优先级
type Keywords struct {
	RiskMarkers  []string  `yaml:"risk_markers" json:"risk_markers"`
	Concepts     []Concept `yaml:"concepts" json:"concepts"`
	OtherConcept string    `yaml:"other_concept" json:"other_concept"`
	NegativeNews []string  `yaml:"negative_news" json:"negative_news"`
	SevereNews   []string  `yaml:"severe_news" json:"severe_news"`
}

// Concept 概念标签及其名称关键词
type Concept struct {
	Tag      string   `yaml:"tag" json:"tag"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Location returns the exchange timezone, falling back to UTC+8
func (m Meta) Location() *time.Location {
	if m.Timezone != "" {
		if loc, err := time.LoadLocation(m.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("CST", 8*3600)
}
