package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

func newGenerator() *Generator {
	return NewGenerator(strategyconfig.Default().TradePlan)
}

func TestRatios(t *testing.T) {
	g := newGenerator()

	tests := []struct {
		name       string
		risk       contracts.RiskLevel
		expected   float64
		turnover   float64
		wantStop   float64
		wantTarget float64
	}{
		{"base", contracts.RiskMedium, 2.0, 8, -2.0, 3.0},
		{"high risk", contracts.RiskHigh, 2.0, 8, -1.5, 2.0},
		{"low risk", contracts.RiskLow, 2.0, 8, -2.5, 4.0},
		{"raised target", contracts.RiskMedium, 4.0, 8, -2.0, 4.5},
		{"raise never lowers", contracts.RiskLow, 3.0, 8, -2.5, 4.0},
		{"capped target", contracts.RiskLow, 1.0, 8, -2.5, 2.0},
		{"hot turnover tightens stop", contracts.RiskLow, 2.0, 20, -1.5, 4.0},
		{"quiet turnover loosens stop", contracts.RiskHigh, 2.0, 3, -2.5, 2.0},
		{"turnover boundaries unchanged", contracts.RiskMedium, 2.0, 15, -2.0, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop, target := g.Ratios(tt.risk, tt.expected, tt.turnover)
			assert.Equal(t, tt.wantStop, stop)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestGenerate_RoundTrip(t *testing.T) {
	g := newGenerator()

	for _, price := range []float64{3.27, 10.00, 18.66, 57.31, 1688.00} {
		for _, risk := range []contracts.RiskLevel{contracts.RiskLow, contracts.RiskMedium, contracts.RiskHigh} {
			p := g.Generate(price, risk, 2.0, 8)

			// 价格精确到分，反推比例误差不超过一个价位
			tolerance := 0.01 / price * 100
			assert.InDelta(t, p.StopPct, (p.StopLoss/p.Entry-1)*100, tolerance, "price=%v risk=%s", price, risk)
			assert.InDelta(t, p.TargetPct, (p.TakeProfit/p.Entry-1)*100, tolerance, "price=%v risk=%s", price, risk)
		}
	}
}

func TestGenerate_Contingencies(t *testing.T) {
	p := newGenerator().Generate(10.00, contracts.RiskMedium, 2.0, 8)

	assert.Equal(t, 9.80, p.StopLoss)
	assert.Equal(t, 10.30, p.TakeProfit)
	require.Len(t, p.Contingencies, 3)
	assert.Equal(t, "高开≥3%", p.Contingencies[0].Condition)
	assert.Equal(t, "低开≤-2%", p.Contingencies[1].Condition)
	assert.Contains(t, p.Contingencies[1].Action, "9.80")
	assert.Contains(t, p.Contingencies[2].Action, "10.30")
}

func TestApply(t *testing.T) {
	c := contracts.NewCandidate(contracts.Quote{Code: "600001", Price: 20, PrevClose: 19.3, TurnoverRate: 8}, contracts.SegmentMainSH, nil)
	c.Risk = contracts.RiskLow
	c.Expected = 2.0

	newGenerator().Apply(c)

	require.NotNil(t, c.Plan)
	assert.Equal(t, 19.50, c.Plan.StopLoss)
	assert.Equal(t, 20.80, c.Plan.TakeProfit)
}
