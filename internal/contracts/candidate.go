package contracts

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ScoreDelta is one rule's contribution to a candidate
type ScoreDelta struct {
	Amount  int
	Reason  string
	Warning string
}

// Candidate is a security carried through one pipeline run
// ⭐ SSOT: 候选股只属于一次运行，分析期间独占，不跨运行共享
type Candidate struct {
	Quote    Quote
	Segment  Segment
	Concepts []string

	Candles []Candle
	Minutes MinuteWindow
	Market  MarketEnvironment

	// 派生指标
	TailTrend TailTrend
	Flow      CapitalFlow
	Upside    UpsideSpace
	Flags     IntradayFlags
	Technical TechnicalRisk
	Pattern   PatternSignal
	News      NewsCheck

	// 累加器
	Score    int
	Reasons  []string
	Warnings []string

	Expected   float64
	Confidence float64
	Risk       RiskLevel
	Plan       *TradePlan
}

// NewCandidate wraps a quote
func NewCandidate(q Quote, segment Segment, concepts []string) *Candidate {
	return &Candidate{
		Quote:    q,
		Segment:  segment,
		Concepts: concepts,
		TailTrend: TailTrend{
			Trend: TrendUnknown,
		},
		Flow: CapitalFlow{
			Strength: FlowUnknown,
		},
		Market: MarketEnvironment{
			Sentiment: SentimentUnknown,
		},
		Technical: TechnicalRisk{
			RSI: 50,
		},
	}
}

// Apply folds a rule result into the accumulator
func (c *Candidate) Apply(d ScoreDelta) {
	c.Score += d.Amount
	if d.Reason != "" {
		c.Reasons = append(c.Reasons, d.Reason)
	}
	if d.Warning != "" {
		c.Warnings = append(c.Warnings, d.Warning)
	}
}

// HasConcept reports whether the candidate carries tag
func (c *Candidate) HasConcept(tag string) bool {
	for _, t := range c.Concepts {
		if t == tag {
			return true
		}
	}
	return false
}

// Contingency 次日开盘应对
type Contingency struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
}

// TradePlan 交易计划
type TradePlan struct {
	Entry         float64       `json:"entry"`
	StopLoss      float64       `json:"stop_loss"`
	TakeProfit    float64       `json:"take_profit"`
	StopPct       float64       `json:"stop_pct"`
	TargetPct     float64       `json:"target_pct"`
	Contingencies []Contingency `json:"contingencies"`
}

// PickSource 入选来源
type PickSource string

const (
	SourceRanked     PickSource = "ranked"
	SourceSupplement PickSource = "supplement"
)

// CandidateSummary is the outward view of a scored candidate
type CandidateSummary struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Segment     Segment           `json:"segment"`
	Concepts    []string          `json:"concepts"`
	Price       float64           `json:"price"`
	ChangePct   float64           `json:"change_pct"`
	Turnover    float64           `json:"turnover_rate"`
	VolumeRatio float64           `json:"volume_ratio"`
	FloatCapYi  float64           `json:"float_cap_yi"`
	Score       int               `json:"score"`
	Reasons     []string          `json:"reasons"`
	Warnings    []string          `json:"warnings"`
	Expected    float64           `json:"expected_return"`
	Confidence  float64           `json:"confidence"`
	Risk        RiskLevel         `json:"risk_level"`
	TailTrend   TailTrend         `json:"tail_trend"`
	Flow        CapitalFlow       `json:"capital_flow"`
	Upside      UpsideSpace       `json:"upside"`
	Flags       IntradayFlags     `json:"intraday_flags"`
	Technical   TechnicalRisk     `json:"technical"`
	Pattern     PatternSignal     `json:"pattern"`
	Market      MarketEnvironment `json:"market"`
	Plan        *TradePlan        `json:"trade_plan,omitempty"`
	Source      PickSource        `json:"source,omitempty"`
	Hot         bool              `json:"hot,omitempty"`
}

// Summary snapshots the candidate for presentation
func (c *Candidate) Summary() CandidateSummary {
	return CandidateSummary{
		Code:        c.Quote.Code,
		Name:        c.Quote.Name,
		Segment:     c.Segment,
		Concepts:    append([]string(nil), c.Concepts...),
		Price:       c.Quote.Price,
		ChangePct:   c.Quote.ChangePct,
		Turnover:    c.Quote.TurnoverRate,
		VolumeRatio: c.Quote.VolumeRatio,
		FloatCapYi:  c.Quote.FloatCapYi(),
		Score:       c.Score,
		Reasons:     append([]string(nil), c.Reasons...),
		Warnings:    append([]string(nil), c.Warnings...),
		Expected:    c.Expected,
		Confidence:  c.Confidence,
		Risk:        c.Risk,
		TailTrend:   c.TailTrend,
		Flow:        c.Flow,
		Upside:      c.Upside,
		Flags:       c.Flags,
		Technical:   c.Technical,
		Pattern:     c.Pattern,
		Market:      c.Market,
		Plan:        c.Plan,
		Source:      SourceRanked,
	}
}
