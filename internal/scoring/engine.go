package scoring

import (
	"math"
	"time"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// Engine folds the ordered rules into each candidate, then estimates
// next-day expectation and risk
// ⭐ SSOT: 候选股得分只在这里累加
type Engine struct {
	cfg    *strategyconfig.Config
	params Params
	rules  []Rule
	logger *logger.Logger
}

// NewEngine creates a scoring engine for one run
func NewEngine(cfg *strategyconfig.Config, p Params, log *logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		params: p,
		rules:  Rules(cfg, p),
		logger: log,
	}
}

// Params returns the adaptive inputs the engine was built with
func (e *Engine) Params() Params {
	return e.params
}

// Score applies every rule in order, then the expectation estimator
func (e *Engine) Score(c *contracts.Candidate) {
	for _, r := range e.rules {
		c.Apply(r.Evaluate(c))
	}

	exp := Estimate(c, e.cfg.Scoring.Expectation)
	c.Expected = exp.Return
	c.Confidence = exp.Confidence
	if exp.LowValue {
		c.Apply(delta(e.cfg.Scoring.Expectation.LowValuePenalty, "预期收益偏低，持有价值不足"))
	}
	c.Risk = RiskLevel(c, e.cfg.Scoring.Risk)

	e.logger.WithFields(map[string]interface{}{
		"code":       c.Quote.Code,
		"score":      c.Score,
		"expected":   c.Expected,
		"confidence": c.Confidence,
		"risk":       c.Risk,
		"warnings":   len(c.Warnings),
	}).Debug("Scored candidate")
}

// TailWeight returns the multiplier for tail-trend and capital-flow points.
// Earlier in the session intraday signals are noisier and weigh less.
func TailWeight(now time.Time, afterClose bool, cfg *strategyconfig.Config) float64 {
	s := cfg.Scoring
	if afterClose || len(s.TailWeights) == 0 {
		return s.AfterCloseWeight
	}

	clock := now.In(cfg.Meta.Location()).Format("15:04")
	for _, step := range s.TailWeights {
		if clock < step.Before {
			return step.Weight
		}
	}
	return s.AfterCloseWeight
}

// Expectation is the next-day estimate
type Expectation struct {
	Return     float64
	Confidence float64
	LowValue   bool
}

// Estimate maps the running score to a bounded expected return and confidence
func Estimate(c *contracts.Candidate, p strategyconfig.Expectation) Expectation {
	ret := float64(c.Score)/p.ScoreDivisor + p.Offset
	conf := float64(c.Score) * p.ConfidenceFactor

	adjust := func(sign float64) {
		ret += sign * p.ReturnAdjustment
		conf += sign * p.ConfidenceAdjust
	}

	if c.Quote.ChangePct >= p.HotChangePct && !c.TailTrend.Trend.Rising() {
		adjust(-1)
	}
	if c.Quote.TurnoverRate >= p.HighTurnover && !c.Flow.IsInflow {
		adjust(-1)
	}
	if c.Upside.LimitPrice > 0 && c.Upside.UpsidePct < p.TightUpside {
		adjust(-1)
	}
	if c.TailTrend.Trend == contracts.TrendStrongUp && c.Flow.IsInflow && c.Upside.UpsidePct >= p.AmpleUpside {
		adjust(1)
	}

	ret = math.Round(clampF(ret, p.MinReturn, p.MaxReturn)*100) / 100
	conf = math.Round(clampF(conf, 0, 100)*10) / 10

	return Expectation{
		Return:     ret,
		Confidence: conf,
		LowValue:   ret < p.LowValueReturn,
	}
}

// RiskLevel classifies a scored candidate
func RiskLevel(c *contracts.Candidate, p strategyconfig.RiskLevels) contracts.RiskLevel {
	switch {
	case c.Confidence < p.HighConfidenceBelow || len(c.Warnings) >= p.HighWarnings:
		return contracts.RiskHigh
	case c.Confidence >= p.LowConfidenceAtLeast:
		return contracts.RiskLow
	default:
		return contracts.RiskMedium
	}
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
