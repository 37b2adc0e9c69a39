package signals

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// IntradayAnalyzer derives tail-session signals from minute bars
// ⭐ SSOT: 分时形态计算只在这里
type IntradayAnalyzer struct {
	cfg    strategyconfig.Intraday
	logger *logger.Logger
}

// NewIntradayAnalyzer creates a new intraday analyzer
func NewIntradayAnalyzer(cfg strategyconfig.Intraday, log *logger.Logger) *IntradayAnalyzer {
	return &IntradayAnalyzer{
		cfg:    cfg,
		logger: log,
	}
}

// Analyze fills the candidate's tail trend, capital flow and intraday flags
func (a *IntradayAnalyzer) Analyze(c *contracts.Candidate) {
	bars := c.Minutes.Bars
	c.TailTrend = a.TailTrend(bars)
	c.Flow = a.CapitalFlow(bars)

	var flags contracts.IntradayFlags
	flags.FlashCrash, flags.FlashDropPct = a.FlashCrash(bars)
	flags.TailTrap = a.TailTrap(bars, c.Quote.PrevClose)
	flags.FakePump, flags.FakePumpWhy = a.FakePump(bars, c.Quote, c.TailTrend)
	c.Flags = flags

	a.logger.WithFields(map[string]interface{}{
		"code":        c.Quote.Code,
		"bars":        len(bars),
		"tail_trend":  c.TailTrend.Trend,
		"tail_change": c.TailTrend.TailChange,
		"flow":        c.Flow.Strength,
		"net_inflow":  c.Flow.NetInflow,
		"flash_crash": flags.FlashCrash,
		"tail_trap":   flags.TailTrap,
		"fake_pump":   flags.FakePump,
	}).Debug("Analyzed intraday pattern")
}

// window returns the most recent WindowBars bars
func (a *IntradayAnalyzer) window(bars []contracts.MinuteBar) []contracts.MinuteBar {
	if len(bars) > a.cfg.WindowBars {
		return bars[len(bars)-a.cfg.WindowBars:]
	}
	return bars
}

// TailTrend compares the tail VWAP against the early part of the window
func (a *IntradayAnalyzer) TailTrend(bars []contracts.MinuteBar) contracts.TailTrend {
	w := a.window(bars)
	if len(w) < a.cfg.MinBars {
		return contracts.TailTrend{Trend: contracts.TrendUnknown}
	}

	early, tail := w[:len(w)-a.cfg.TailBars], w[len(w)-a.cfg.TailBars:]
	earlyVWAP := VWAP(early)
	if earlyVWAP <= 0 {
		return contracts.TailTrend{Trend: contracts.TrendUnknown}
	}

	tailChange := (VWAP(tail) - earlyVWAP) / earlyVWAP * 100
	var tailRatio float64
	if total := totalVolume(w); total > 0 {
		tailRatio = totalVolume(tail) / total * 100
	}

	trend := ClassifyTail(tailChange, tailRatio, a.cfg)
	strength := clamp(math.Abs(tailChange)*40+tailRatio*0.5, 0, 100)
	switch trend {
	case contracts.TrendDown:
		strength = -strength
	case contracts.TrendStable:
		strength = clamp(tailChange*40+tailRatio*0.5, 0, 100)
	}

	return contracts.TailTrend{
		Trend:           trend,
		TailChange:      round2(tailChange),
		TailVolumeRatio: round2(tailRatio),
		Strength:        round2(strength),
	}
}

// ClassifyTail maps tail change and tail volume share to a trend.
// For a fixed volume share a larger change never yields a lower trend.
func ClassifyTail(tailChange, tailVolumeRatio float64, cfg strategyconfig.Intraday) contracts.Trend {
	switch {
	case tailChange > cfg.StrongUpChange && tailVolumeRatio > cfg.StrongUpVolumeRatio:
		return contracts.TrendStrongUp
	case tailChange > cfg.UpChange:
		return contracts.TrendUp
	case tailChange < cfg.DownChange:
		return contracts.TrendDown
	default:
		return contracts.TrendStable
	}
}

// CapitalFlow estimates net inflow by comparing the two halves of the window
func (a *IntradayAnalyzer) CapitalFlow(bars []contracts.MinuteBar) contracts.CapitalFlow {
	w := a.window(bars)
	if len(w) < a.cfg.MinBars {
		return contracts.CapitalFlow{Strength: contracts.FlowUnknown}
	}

	half := len(w) / 2
	early, late := w[:half], w[half:]
	earlyVWAP, lateVWAP := VWAP(early), VWAP(late)
	earlyAmt, lateAmt := totalAmount(early), totalAmount(late)
	if earlyVWAP <= 0 {
		return contracts.CapitalFlow{Strength: contracts.FlowUnknown}
	}

	priceMomentum := (lateVWAP - earlyVWAP) / earlyVWAP * 100
	var amountMomentum float64
	if earlyAmt > 0 {
		amountMomentum = (lateAmt - earlyAmt) / earlyAmt * 100
	}

	strength, multiplier := classifyFlow(priceMomentum, amountMomentum, a.cfg.Flow)
	net := multiplier * (earlyAmt + lateAmt) / 1e8

	return contracts.CapitalFlow{
		Strength:       strength,
		PriceMomentum:  round2(priceMomentum),
		AmountMomentum: round2(amountMomentum),
		NetInflow:      round2(net),
		IsInflow:       round2(net) >= a.cfg.Flow.InflowThreshold,
	}
}

// classifyFlow is the price/amount decision table; the multiplier is signed
func classifyFlow(priceMomentum, amountMomentum float64, p strategyconfig.FlowParams) (contracts.FlowStrength, float64) {
	switch {
	case priceMomentum > p.PriceMomentum:
		switch {
		case amountMomentum >= p.StrongAmountGrowth:
			return contracts.FlowStrongIn, p.StrongMultiplier
		case amountMomentum >= 0:
			return contracts.FlowWeakIn, p.WeakMultiplier
		default:
			return contracts.FlowWeakIn, p.ReducedMultiplier
		}
	case priceMomentum < -p.PriceMomentum:
		switch {
		case amountMomentum >= p.StrongAmountGrowth:
			return contracts.FlowStrongOut, -p.StrongMultiplier
		case amountMomentum >= 0:
			return contracts.FlowWeakOut, -p.WeakMultiplier
		default:
			return contracts.FlowWeakOut, -p.ReducedMultiplier
		}
	case amountMomentum >= p.FlatAmountGrowth:
		return contracts.FlowWeakIn, p.ReducedMultiplier
	default:
		return contracts.FlowNeutral, 0
	}
}

// FlashCrash slides a window over the session and reports the worst drop
func (a *IntradayAnalyzer) FlashCrash(bars []contracts.MinuteBar) (bool, float64) {
	n := a.cfg.FlashCrash.WindowBars
	var worst float64
	for i := 0; i+n <= len(bars); i++ {
		start := bars[i].Price
		if start <= 0 {
			continue
		}
		low := start
		for _, b := range bars[i : i+n] {
			low = math.Min(low, b.Price)
		}
		worst = math.Max(worst, (start-low)/start*100)
	}
	return worst > a.cfg.FlashCrash.DropPct, round2(worst)
}

// TailTrap flags a session spent depressed below the midday average
// that is then lifted sharply into the close over a wide range
func (a *IntradayAnalyzer) TailTrap(bars []contracts.MinuteBar, prevClose float64) bool {
	if len(bars) < a.cfg.MinBars*2 || prevClose <= 0 {
		return false
	}

	third := len(bars) / 3
	midAvg := meanPrice(bars[third : 2*third])
	sessionAvg := meanPrice(bars)
	sessionMin, sessionMax := priceRange(bars)
	if midAvg <= 0 {
		return false
	}

	depressed := (midAvg-sessionMin)/midAvg*100 > a.cfg.TailTrap.DepressedPct && sessionAvg < midAvg

	tailStart := bars[len(bars)-a.cfg.TailBars].Price
	last := bars[len(bars)-1].Price
	tailRise := tailStart > 0 && (last-tailStart)/tailStart*100 > a.cfg.TailTrap.TailRisePct

	wide := (sessionMax-sessionMin)/prevClose*100 > a.cfg.TailTrap.RangePct

	return depressed && tailRise && wide
}

// FakePump flags a faded opening spike or a tail rise on thin volume
func (a *IntradayAnalyzer) FakePump(bars []contracts.MinuteBar, q contracts.Quote, tail contracts.TailTrend) (bool, string) {
	p := a.cfg.FakePump
	if len(bars) > 0 && q.PrevClose > 0 {
		opening := bars[:min(p.OpeningBars, len(bars))]
		_, openHigh := priceRange(opening)
		spike := (openHigh - q.PrevClose) / q.PrevClose * 100
		if spike > p.SpikePct && q.ChangePct < p.FallbackChangePct {
			return true, fmt.Sprintf("早盘冲高%.1f%%后回落至%.1f%%", spike, q.ChangePct)
		}
	}

	if tail.Trend.Rising() && tail.TailVolumeRatio < p.MinTailVolumePct {
		return true, fmt.Sprintf("尾盘拉升但量能仅占%.0f%%", tail.TailVolumeRatio)
	}
	return false, ""
}

// VWAP returns the volume-weighted price, or the mean price when volume is zero
func VWAP(bars []contracts.MinuteBar) float64 {
	var pv, v float64
	for _, b := range bars {
		pv += b.Price * b.Volume
		v += b.Volume
	}
	if v > 0 {
		return pv / v
	}
	return meanPrice(bars)
}

func totalVolume(bars []contracts.MinuteBar) float64 {
	var v float64
	for _, b := range bars {
		v += b.Volume
	}
	return v
}

func totalAmount(bars []contracts.MinuteBar) float64 {
	var amt float64
	for _, b := range bars {
		amt += b.Notional()
	}
	return amt
}

func meanPrice(bars []contracts.MinuteBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += b.Price
	}
	return sum / float64(len(bars))
}

func priceRange(bars []contracts.MinuteBar) (lo, hi float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	lo, hi = bars[0].Price, bars[0].Price
	for _, b := range bars[1:] {
		lo = math.Min(lo, b.Price)
		hi = math.Max(hi, b.Price)
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
