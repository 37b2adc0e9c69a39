package plan

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// Generator maps a scored candidate to stop-loss, take-profit and
// next-day open contingencies
// ⭐ SSOT: 止损止盈比例只在这里计算
type Generator struct {
	cfg strategyconfig.TradePlan
}

// NewGenerator creates a new trade plan generator
func NewGenerator(cfg strategyconfig.TradePlan) *Generator {
	return &Generator{cfg: cfg}
}

// Ratios returns the stop and target percentages for the inputs
func (g *Generator) Ratios(risk contracts.RiskLevel, expected, turnover float64) (stopPct, targetPct float64) {
	st := g.cfg.Base
	switch risk {
	case contracts.RiskHigh:
		st = g.cfg.High
	case contracts.RiskLow:
		st = g.cfg.Low
	}
	stopPct, targetPct = st.StopPct, st.TargetPct

	if expected >= g.cfg.RaiseExpectedAt {
		targetPct = math.Max(targetPct, expected+g.cfg.RaiseMargin)
	} else if expected < g.cfg.CapExpectedBelow {
		targetPct = math.Min(targetPct, g.cfg.CapTarget)
	}

	if turnover > g.cfg.HighTurnover {
		stopPct = math.Max(stopPct, g.cfg.HighTurnoverStop)
	} else if turnover < g.cfg.LowTurnover {
		stopPct = math.Min(stopPct, g.cfg.LowTurnoverStop)
	}
	return stopPct, targetPct
}

// Generate builds the plan for an entry at price
func (g *Generator) Generate(price float64, risk contracts.RiskLevel, expected, turnover float64) *contracts.TradePlan {
	stopPct, targetPct := g.Ratios(risk, expected, turnover)
	stop := universe.ApplyPct(price, stopPct)
	target := universe.ApplyPct(price, targetPct)

	return &contracts.TradePlan{
		Entry:      universe.RoundTick(price),
		StopLoss:   stop,
		TakeProfit: target,
		StopPct:    stopPct,
		TargetPct:  targetPct,
		Contingencies: []contracts.Contingency{
			{
				Condition: fmt.Sprintf("高开≥%.0f%%", g.cfg.HighOpenPct),
				Action:    "冲高减半仓位，剩余仓位设保本止损",
			},
			{
				Condition: fmt.Sprintf("低开≤%.0f%%", g.cfg.LowOpenPct),
				Action:    fmt.Sprintf("观察开盘30分钟，跌破%.2f止损离场", stop),
			},
			{
				Condition: "平开",
				Action:    fmt.Sprintf("按计划执行: 止损%.2f 止盈%.2f", stop, target),
			},
		},
	}
}

// Apply attaches a plan to the candidate from its price, risk and expectation
func (g *Generator) Apply(c *contracts.Candidate) {
	c.Plan = g.Generate(c.Quote.Price, c.Risk, c.Expected, c.Quote.TurnoverRate)
}
