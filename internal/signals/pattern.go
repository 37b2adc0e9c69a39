package signals

import (
	"math"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

// PatternDetector checks the ladder-volume and MA5 breakout pattern
type PatternDetector struct {
	cfg strategyconfig.Pattern
}

// NewPatternDetector creates a new pattern detector
func NewPatternDetector(cfg strategyconfig.Pattern) *PatternDetector {
	return &PatternDetector{cfg: cfg}
}

// Detect evaluates candles (oldest first) against the current price
func (d *PatternDetector) Detect(candles []contracts.Candle, price float64) contracts.PatternSignal {
	return contracts.PatternSignal{
		LadderVolume: d.LadderVolume(candles),
		AboveMA5High: d.AboveMA5High(candles, price),
		Support:      d.Support(candles),
	}
}

// LadderVolume reports stepwise rising volume with the latest day above average
func (d *PatternDetector) LadderVolume(candles []contracts.Candle) bool {
	if len(candles) < d.cfg.LadderBars || d.cfg.LadderBars <= 0 {
		return false
	}

	recent := candles[len(candles)-d.cfg.LadderBars:]
	avg := meanVolume(recent)
	if avg <= 0 {
		return false
	}

	steps := recent[max(0, len(recent)-d.cfg.LadderSteps):]
	increasing := 0
	for i := 1; i < len(steps); i++ {
		if steps[i].Volume > steps[i-1].Volume*d.cfg.LadderStepFactor {
			increasing++
		}
	}

	return increasing >= 1 && recent[len(recent)-1].Volume/avg > d.cfg.LadderLastFactor
}

// AboveMA5High reports a price holding the 5-day average and near the recent high
func (d *PatternDetector) AboveMA5High(candles []contracts.Candle, price float64) bool {
	if len(candles) < d.cfg.HighBars || d.cfg.HighBars < 5 {
		return false
	}

	recent := candles[len(candles)-d.cfg.HighBars:]
	ma5 := MA5(recent)

	// 排除最近一天
	var high float64
	for _, c := range recent[:len(recent)-1] {
		high = math.Max(high, c.High)
	}

	return price > ma5*d.cfg.MA5Tolerance && price >= high*d.cfg.NearHighFactor
}

// MA5 is the mean close of the last five bars, 0 when there are fewer
func MA5(candles []contracts.Candle) float64 {
	if len(candles) < 5 {
		return 0
	}
	var sum float64
	for _, c := range candles[len(candles)-5:] {
		sum += c.Close
	}
	return sum / 5
}

// Support is the lowest low of the recent bars
func (d *PatternDetector) Support(candles []contracts.Candle) float64 {
	if len(candles) < d.cfg.SupportBars || d.cfg.SupportBars <= 0 {
		return 0
	}
	recent := candles[len(candles)-d.cfg.SupportBars:]
	low := recent[0].Low
	for _, c := range recent[1:] {
		low = math.Min(low, c.Low)
	}
	return round2(low)
}
