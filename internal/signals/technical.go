package signals

import (
	"math"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// TechnicalCalculator derives daily-candle risk indicators.
// Candles are ordered oldest first.
// ⭐ SSOT: 技术指标计算只在这里
type TechnicalCalculator struct {
	cfg    strategyconfig.Technical
	logger *logger.Logger
}

// NewTechnicalCalculator creates a new technical calculator
func NewTechnicalCalculator(cfg strategyconfig.Technical, log *logger.Logger) *TechnicalCalculator {
	return &TechnicalCalculator{
		cfg:    cfg,
		logger: log,
	}
}

// Calculate computes the technical risk summary for a candle series
func (c *TechnicalCalculator) Calculate(code string, candles []contracts.Candle) contracts.TechnicalRisk {
	risk := contracts.TechnicalRisk{RSI: 50}
	if len(candles) == 0 {
		return risk
	}

	closes := closesOf(candles)
	risk.Available = true
	risk.RSI = RSI(closes, c.cfg.RSIPeriod)
	risk.DIF, risk.DEA, risk.GoldenCross = MACD(closes, c.cfg.MACDFast, c.cfg.MACDSlow, c.cfg.MACDSignal)
	risk.Phase = c.phase(closes)
	risk.BullRun = BullRun(candles)
	risk.UnfilledGap = c.unfilledGap(candles)
	risk.VolumeSurge = c.volumeSurge(candles)

	// 超跌区才检查反弹
	if len(closes) > c.cfg.PhaseBars && risk.Phase <= c.cfg.OversoldPhase {
		risk.Rebound = c.rebound(candles)
	}

	c.logger.WithFields(map[string]interface{}{
		"code":         code,
		"candles":      len(candles),
		"rsi":          risk.RSI,
		"dif":          risk.DIF,
		"dea":          risk.DEA,
		"golden_cross": risk.GoldenCross,
		"phase":        risk.Phase,
		"bull_run":     risk.BullRun,
		"unfilled_gap": risk.UnfilledGap,
		"volume_surge": risk.VolumeSurge,
		"rebound":      risk.Rebound != nil,
	}).Debug("Calculated technical risk")

	return risk
}

// RSI returns the relative strength index over the last period changes.
// Neutral 50 with too little data, 100 when there were no losses.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50.0
	}

	var gains, losses float64
	recent := closes[len(closes)-period-1:]
	for i := 1; i < len(recent); i++ {
		change := recent[i] - recent[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50.0
		}
		return 100.0
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	rs := avgGain / avgLoss
	return round2(100 - 100/(1+rs))
}

// EMA returns the exponential moving average series seeded with the first value
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MACD returns the latest DIF and DEA and whether DIF crossed above DEA on the last bar
func MACD(closes []float64, fast, slow, signal int) (dif, dea float64, golden bool) {
	if len(closes) < slow || fast >= slow {
		return 0, 0, false
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	difs := make([]float64, len(closes))
	for i := range closes {
		difs[i] = fastEMA[i] - slowEMA[i]
	}
	deas := EMA(difs, signal)

	n := len(closes)
	dif, dea = difs[n-1], deas[n-1]
	golden = n >= 2 && difs[n-2] <= deas[n-2] && dif > dea
	return round4(dif), round4(dea), golden
}

// BullRun counts consecutive bullish candles ending at the latest bar
func BullRun(candles []contracts.Candle) int {
	run := 0
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].Close <= candles[i].Open {
			break
		}
		run++
	}
	return run
}

// phase is the percent change over the last PhaseBars bars
func (c *TechnicalCalculator) phase(closes []float64) float64 {
	n := len(closes)
	if n <= c.cfg.PhaseBars {
		return 0
	}
	base := closes[n-1-c.cfg.PhaseBars]
	if base <= 0 {
		return 0
	}
	return round2((closes[n-1] - base) / base * 100)
}

// unfilledGap looks for an up-gap in the recent bars that no later low traded back into
func (c *TechnicalCalculator) unfilledGap(candles []contracts.Candle) bool {
	n := len(candles)
	start := max(1, n-c.cfg.GapBars)
	for i := start; i < n; i++ {
		prevHigh := candles[i-1].High
		gapTop := candles[i].Low
		if prevHigh <= 0 || gapTop <= prevHigh*(1+c.cfg.GapPct/100) {
			continue
		}
		filled := false
		for _, later := range candles[i+1:] {
			if later.Low < gapTop {
				filled = true
				break
			}
		}
		if !filled {
			return true
		}
	}
	return false
}

// volumeSurge is the latest volume over the average of the preceding bars
func (c *TechnicalCalculator) volumeSurge(candles []contracts.Candle) float64 {
	n := len(candles)
	if n <= c.cfg.SurgeBaseBars {
		return 0
	}
	base := meanVolume(candles[n-1-c.cfg.SurgeBaseBars : n-1])
	if base <= 0 {
		return 0
	}
	return round2(candles[n-1].Volume / base)
}

// rebound confirms an oversold bounce: recovery over the last few days,
// a gain on the latest day and volume above the base average
func (c *TechnicalCalculator) rebound(candles []contracts.Candle) *contracts.Rebound {
	n := len(candles)
	days := c.cfg.ReboundDays
	if n < days+c.cfg.ReboundVolumeBaseBars+1 {
		return nil
	}

	from := candles[n-1-days].Close
	last := candles[n-1].Close
	if from <= 0 || last <= candles[n-2].Close {
		return nil
	}
	recovery := (last - from) / from * 100
	if recovery < c.cfg.ReboundMinRecovery {
		return nil
	}

	recentVol := meanVolume(candles[n-days:])
	baseVol := meanVolume(candles[n-days-c.cfg.ReboundVolumeBaseBars : n-days])
	if baseVol <= 0 {
		return nil
	}
	ratio := recentVol / baseVol
	gain := (ratio - 1) * 100
	if gain < c.cfg.ReboundMinVolumeGain {
		return nil
	}

	return &contracts.Rebound{
		Recovery:    round2(recovery),
		VolumeGain:  round2(gain),
		VolumeRatio: round2(ratio),
	}
}

func closesOf(candles []contracts.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func meanVolume(candles []contracts.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	var sum float64
	for _, c := range candles {
		sum += c.Volume
	}
	return sum / float64(len(candles))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
