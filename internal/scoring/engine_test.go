package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

var cst = time.FixedZone("CST", 8*3600)

func at(hhmm string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02 15:04", "2026-03-10 "+hhmm, cst)
	return t
}

// strongCandidate passes every positive rule with weight 1.0
func strongCandidate() *contracts.Candidate {
	c := contracts.NewCandidate(contracts.Quote{
		Code:         "600001",
		Name:         "样本股份",
		Price:        10.40,
		PrevClose:    10.00,
		High:         10.50,
		ChangePct:    4,
		TurnoverRate: 5,
		VolumeRatio:  2,
	}, contracts.SegmentMainSH, []string{"other"})

	c.TailTrend = contracts.TailTrend{Trend: contracts.TrendStrongUp, TailChange: 0.8, TailVolumeRatio: 40}
	c.Upside = contracts.UpsideSpace{LimitPct: 10, LimitPrice: 11, UpsidePct: 5.77}
	c.Flow = contracts.CapitalFlow{Strength: contracts.FlowStrongIn, NetInflow: 3.17, IsInflow: true}
	c.News = contracts.NewsCheck{Checked: true}
	c.Market = contracts.MarketEnvironment{
		IndexCode: "sh000001",
		Price:     3000,
		ChangePct: 0.5,
		AboveMA5:  true,
		Change5D:  1,
		Sentiment: contracts.SentimentPositive,
	}
	c.Technical = contracts.TechnicalRisk{Available: true, RSI: 55, Phase: 10}
	return c
}

func TestTailWeight(t *testing.T) {
	cfg := strategyconfig.Default()

	tests := []struct {
		now        time.Time
		afterClose bool
		want       float64
	}{
		{at("10:15"), false, 0.4},
		{at("13:29"), false, 0.4},
		{at("13:30"), false, 0.6},
		{at("14:10"), false, 0.8},
		{at("14:45"), false, 1.0},
		{at("15:05"), false, 1.2},
		{at("14:45"), true, 1.2},
		{time.Date(2026, 3, 10, 6, 45, 0, 0, time.UTC), false, 1.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TailWeight(tt.now, tt.afterClose, cfg), "now=%s afterClose=%v", tt.now, tt.afterClose)
	}
}

func TestEngine_StrongCandidate(t *testing.T) {
	e := NewEngine(strategyconfig.Default(), Params{TailWeight: 1.0}, logger.Nop())
	c := strongCandidate()

	e.Score(c)

	assert.Equal(t, 135, c.Score)
	assert.Len(t, c.Reasons, 9)
	assert.Empty(t, c.Warnings)
	assert.Equal(t, 5.0, c.Expected)
	assert.Equal(t, 100.0, c.Confidence)
	assert.Equal(t, contracts.RiskLow, c.Risk)
}

func TestEngine_MissingDataDegrades(t *testing.T) {
	e := NewEngine(strategyconfig.Default(), Params{TailWeight: 1.0}, logger.Nop())
	c := contracts.NewCandidate(contracts.Quote{
		Code:        "000001",
		Price:       10,
		PrevClose:   9.95,
		ChangePct:   0.5,
		VolumeRatio: 1,
	}, contracts.SegmentMainSZ, nil)

	e.Score(c)

	assert.Equal(t, -25, c.Score)
	assert.Contains(t, c.Warnings, "分时数据不可用")
	assert.Contains(t, c.Warnings, "公告数据不可用")
	assert.Contains(t, c.Warnings, "大盘数据不可用")
	assert.Contains(t, c.Warnings, "日K数据不可用")
	assert.Equal(t, -1.75, c.Expected)
	assert.Zero(t, c.Confidence)
	assert.Equal(t, contracts.RiskHigh, c.Risk)
}

func TestRules_TailWeightScalesTailAndFlowOnly(t *testing.T) {
	cfg := strategyconfig.Default()
	c := strongCandidate()

	early := NewEngine(cfg, Params{TailWeight: 0.4}, logger.Nop())
	late := NewEngine(cfg, Params{TailWeight: 1.2}, logger.Nop())

	byName := func(e *Engine) map[string]int {
		out := map[string]int{}
		for _, r := range e.rules {
			out[r.Name()] = r.Evaluate(c).Amount
		}
		return out
	}
	a, b := byName(early), byName(late)

	assert.Equal(t, 12, a["tail_trend"])
	assert.Equal(t, 36, b["tail_trend"])
	assert.Equal(t, 12, a["capital_flow"])
	assert.Equal(t, 36, b["capital_flow"])
	for _, name := range []string{"upside_room", "turnover", "volume_ratio", "change_pct", "news", "market_sentiment"} {
		assert.Equal(t, a[name], b[name], name)
	}
}

func TestRules_PreferTailInflowDoublesFlow(t *testing.T) {
	cfg := strategyconfig.Default()
	c := strongCandidate()

	rule := capitalFlowRule(cfg.Scoring.CapitalFlow, Params{TailWeight: 1.0, PreferTailInflow: true})
	assert.Equal(t, 60, rule(c).Amount)

	c.Flow = contracts.CapitalFlow{Strength: contracts.FlowWeakOut, NetInflow: -0.4}
	d := rule(c)
	assert.Equal(t, -30, d.Amount)
	assert.NotEmpty(t, d.Warning)
}

func TestRules_OverextendedPhase(t *testing.T) {
	cfg := strategyconfig.Default()
	c := strongCandidate()
	c.Technical = contracts.TechnicalRisk{Available: true, RSI: 80, Phase: 65}

	d := phaseRule(cfg.Technical, cfg.Scoring.Technical)(c)
	assert.Equal(t, -30, d.Amount)
	assert.Contains(t, d.Warning, "高位风险")

	assert.Zero(t, reboundRule(cfg.Scoring.Technical)(c).Amount)

	c.Technical.Phase = 45
	assert.Equal(t, -15, phaseRule(cfg.Technical, cfg.Scoring.Technical)(c).Amount)
}

func TestRules_ReboundSuppressesBullRun(t *testing.T) {
	cfg := strategyconfig.Default()
	c := strongCandidate()
	c.Technical = contracts.TechnicalRisk{
		Available:   true,
		RSI:         30,
		GoldenCross: true,
		Phase:       -20,
		BullRun:     7,
		Rebound:     &contracts.Rebound{Recovery: 4.44, VolumeGain: 50, VolumeRatio: 1.5},
	}

	rebound := reboundRule(cfg.Scoring.Technical)(c)
	assert.Equal(t, 26, rebound.Amount)
	assert.Contains(t, rebound.Reason, "超跌反弹")
	assert.Zero(t, bullRunRule(cfg.Technical, cfg.Scoring.Technical)(c).Amount)

	c.Technical.Rebound = nil
	assert.Equal(t, -20, bullRunRule(cfg.Technical, cfg.Scoring.Technical)(c).Amount)
	c.Technical.BullRun = 5
	assert.Equal(t, -10, bullRunRule(cfg.Technical, cfg.Scoring.Technical)(c).Amount)
}

func TestRules_LimitUp(t *testing.T) {
	cfg := strategyconfig.Default()
	rule := limitUpRule(cfg.Scoring.LimitUp)

	tests := []struct {
		name   string
		upside contracts.UpsideSpace
		want   int
	}{
		{"sealed", contracts.UpsideSpace{LimitPrice: 11, Touched: true, Sealed: true}, -10},
		{"opened", contracts.UpsideSpace{LimitPrice: 11, UpsidePct: 2.8, Touched: true}, -20},
		{"near", contracts.UpsideSpace{LimitPrice: 11, UpsidePct: 0.5}, -5},
		{"room", contracts.UpsideSpace{LimitPrice: 11, UpsidePct: 5}, 0},
		{"unknown limit", contracts.UpsideSpace{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := strongCandidate()
			c.Upside = tt.upside
			assert.Equal(t, tt.want, rule(c).Amount)
		})
	}
}

func TestRules_News(t *testing.T) {
	rule := newsRule(strategyconfig.Default().Scoring.News)
	c := strongCandidate()

	c.News = contracts.NewsCheck{Checked: true, Severe: []string{"立案调查"}, Negative: []string{"减持"}}
	assert.Equal(t, -45, rule(c).Amount)

	c.News = contracts.NewsCheck{Checked: true, Negative: []string{"减持"}}
	assert.Equal(t, -25, rule(c).Amount)

	c.News = contracts.NewsCheck{Checked: true}
	assert.Equal(t, 10, rule(c).Amount)
}

func TestRules_FraudFlags(t *testing.T) {
	cfg := strategyconfig.Default()
	e := NewEngine(cfg, Params{TailWeight: 1.0}, logger.Nop())
	clean := strongCandidate()
	e.Score(clean)

	flagged := strongCandidate()
	flagged.Flags = contracts.IntradayFlags{
		FlashCrash:   true,
		FlashDropPct: 4,
		TailTrap:     true,
		FakePump:     true,
		FakePumpWhy:  "尾盘拉升但量能仅占10%",
	}
	e.Score(flagged)

	require.Len(t, flagged.Warnings, 3)
	assert.Equal(t, clean.Score-50, flagged.Score)
}

func TestEstimate_Adjustments(t *testing.T) {
	p := strategyconfig.Default().Scoring.Expectation

	c := strongCandidate()
	c.Score = 60
	c.Quote.ChangePct = 6
	c.TailTrend.Trend = contracts.TrendStable

	exp := Estimate(c, p)
	assert.Equal(t, 1.5, exp.Return)
	assert.Equal(t, 38.0, exp.Confidence)
	assert.False(t, exp.LowValue)

	c.Quote.TurnoverRate = 20
	c.Flow.IsInflow = false
	exp = Estimate(c, p)
	assert.Equal(t, 1.0, exp.Return)
	assert.False(t, exp.LowValue)

	c.Upside.UpsidePct = 2
	exp = Estimate(c, p)
	assert.Equal(t, 0.5, exp.Return)
	assert.True(t, exp.LowValue)
}

func TestEstimate_Bounds(t *testing.T) {
	p := strategyconfig.Default().Scoring.Expectation
	c := strongCandidate()

	for _, score := range []int{-200, -40, 0, 40, 80, 120, 400} {
		c.Score = score
		exp := Estimate(c, p)
		assert.GreaterOrEqual(t, exp.Return, p.MinReturn)
		assert.LessOrEqual(t, exp.Return, p.MaxReturn)
		assert.GreaterOrEqual(t, exp.Confidence, 0.0)
		assert.LessOrEqual(t, exp.Confidence, 100.0)
	}
}

func TestRiskLevel(t *testing.T) {
	p := strategyconfig.Default().Scoring.Risk
	c := strongCandidate()

	c.Confidence = 50
	assert.Equal(t, contracts.RiskMedium, RiskLevel(c, p))

	c.Warnings = []string{"a", "b", "c"}
	assert.Equal(t, contracts.RiskHigh, RiskLevel(c, p))

	c.Warnings = nil
	c.Confidence = 30
	assert.Equal(t, contracts.RiskHigh, RiskLevel(c, p))

	c.Confidence = 70
	assert.Equal(t, contracts.RiskLow, RiskLevel(c, p))
}
