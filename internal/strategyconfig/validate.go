package strategyconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError 校验失败 (拒绝加载)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 不推荐的取值 (只告警)
type Warning struct {
	Code    string
	Message string
}

var hhmmPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}

	// === Criteria ===
	c := cfg.Criteria
	if c.ChangePctMin > c.ChangePctMax {
		return ValidationError{"criteria.change_pct", "min must be <= max"}
	}
	if c.VolumeRatioMin > c.VolumeRatioMax {
		return ValidationError{"criteria.volume_ratio", "min must be <= max"}
	}
	if c.FloatCapMin > c.FloatCapMax {
		return ValidationError{"criteria.float_cap", "min must be <= max"}
	}
	if c.Limit <= 0 {
		return ValidationError{"criteria.limit", "must be > 0"}
	}

	// === Intraday ===
	in := cfg.Intraday
	if in.TailBars <= 0 || in.TailBars >= in.WindowBars {
		return ValidationError{"intraday.tail_bars", "must be in (0, window_bars)"}
	}
	if in.MinBars <= in.TailBars || in.MinBars > in.WindowBars {
		return ValidationError{"intraday.min_bars", "must be in (tail_bars, window_bars]"}
	}
	if !(in.StrongUpChange >= in.UpChange && in.UpChange > in.DownChange) {
		return ValidationError{"intraday", "strong_up_change >= up_change > down_change required"}
	}
	for field, m := range map[string]float64{
		"intraday.flow.strong_multiplier":  in.Flow.StrongMultiplier,
		"intraday.flow.weak_multiplier":    in.Flow.WeakMultiplier,
		"intraday.flow.reduced_multiplier": in.Flow.ReducedMultiplier,
	} {
		if m <= 0 || m > 1 {
			return ValidationError{field, "must be in (0, 1]"}
		}
	}
	if in.FlashCrash.WindowBars < 2 {
		return ValidationError{"intraday.flash_crash.window_bars", "must be >= 2"}
	}

	// === Technical ===
	t := cfg.Technical
	if t.RSIPeriod <= 0 {
		return ValidationError{"technical.rsi_period", "must be > 0"}
	}
	if !(t.MACDFast > 0 && t.MACDFast < t.MACDSlow && t.MACDSignal > 0) {
		return ValidationError{"technical.macd", "0 < macd_fast < macd_slow and macd_signal > 0 required"}
	}
	if t.PhaseModerate > t.PhaseSevere {
		return ValidationError{"technical.phase_moderate", "must be <= phase_severe"}
	}
	if t.RunModerate > t.RunSevere {
		return ValidationError{"technical.run_moderate", "must be <= run_severe"}
	}
	if t.SurgeModerate > t.SurgeSevere {
		return ValidationError{"technical.surge_moderate", "must be <= surge_severe"}
	}
	if t.LookbackDays < t.PhaseBars+1 {
		return ValidationError{"technical.lookback_days", "must cover phase_bars"}
	}

	// === Scoring ===
	if err := validateTailWeights(cfg.Scoring.TailWeights); err != nil {
		return err
	}
	for field, bands := range map[string][]Band{
		"scoring.upside_room":  cfg.Scoring.UpsideRoom,
		"scoring.turnover":     cfg.Scoring.Turnover,
		"scoring.volume_ratio": cfg.Scoring.VolumeRatio,
		"scoring.change_pct":   cfg.Scoring.ChangePct,
	} {
		if err := validateBands(bands); err != nil {
			return ValidationError{field, err.Error()}
		}
	}
	e := cfg.Scoring.Expectation
	if e.ScoreDivisor <= 0 {
		return ValidationError{"scoring.expectation.score_divisor", "must be > 0"}
	}
	if e.MinReturn >= e.MaxReturn {
		return ValidationError{"scoring.expectation", "min_return must be < max_return"}
	}

	// === Selection ===
	s := cfg.Selection
	if s.MaxPicks <= 0 {
		return ValidationError{"selection.max_picks", "must be > 0"}
	}
	if s.SegmentCap <= 0 || s.ConceptCap <= 0 {
		return ValidationError{"selection", "segment_cap and concept_cap must be > 0"}
	}
	if s.Final.Max <= 0 || s.Final.AIPicks+s.Final.Supplements < s.Final.Max {
		return ValidationError{"selection.final", "ai_picks + supplements must be >= max > 0"}
	}
	if s.Heat.MinCount <= 0 {
		return ValidationError{"selection.heat.min_count", "must be > 0"}
	}

	// === Trade plan ===
	for field, st := range map[string]StopTarget{
		"trade_plan.base": cfg.TradePlan.Base,
		"trade_plan.high": cfg.TradePlan.High,
		"trade_plan.low":  cfg.TradePlan.Low,
	} {
		if st.StopPct >= 0 || st.TargetPct <= 0 {
			return ValidationError{field, "stop_pct must be < 0 and target_pct > 0"}
		}
	}

	// === Keywords ===
	if cfg.Keywords.OtherConcept == "" {
		return ValidationError{"keywords.other_concept", "required"}
	}
	seen := make(map[string]bool)
	for i, concept := range cfg.Keywords.Concepts {
		if concept.Tag == "" || len(concept.Keywords) == 0 {
			return ValidationError{fmt.Sprintf("keywords.concepts[%d]", i), "tag and keywords required"}
		}
		if seen[concept.Tag] || concept.Tag == cfg.Keywords.OtherConcept {
			return ValidationError{fmt.Sprintf("keywords.concepts[%d].tag", i), "duplicate tag " + concept.Tag}
		}
		seen[concept.Tag] = true
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Criteria.ChangePctMax > 7 {
		warnings = append(warnings, Warning{
			Code:    "CHASING_HIGH",
			Message: "涨幅上限 > 7%: 次日追高风险大",
		})
	}

	if cfg.Selection.BaseThreshold < 50 {
		warnings = append(warnings, Warning{
			Code:    "LOW_THRESHOLD",
			Message: "入选分数线 < 50: 候选质量偏低",
		})
	}

	for _, m := range cfg.Keywords.RiskMarkers {
		if strings.TrimSpace(m) == "" {
			warnings = append(warnings, Warning{
				Code:    "EMPTY_RISK_MARKER",
				Message: "风险警示标记为空字符串",
			})
			break
		}
	}

	return warnings
}

// === Helper Functions ===

func validateHHMM(s string) error {
	if !hhmmPattern.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}

func validateTailWeights(steps []TailWeightStep) error {
	if len(steps) == 0 {
		return ValidationError{"scoring.tail_weights", "must not be empty"}
	}
	var prev string
	for i, step := range steps {
		field := fmt.Sprintf("scoring.tail_weights[%d]", i)
		if err := validateHHMM(step.Before); err != nil {
			return ValidationError{field + ".before", err.Error()}
		}
		if prev != "" && step.Before <= prev {
			return ValidationError{field + ".before", "must be strictly increasing"}
		}
		if step.Weight <= 0 {
			return ValidationError{field + ".weight", "must be > 0"}
		}
		prev = step.Before
	}
	return nil
}

func validateBands(bands []Band) error {
	for i, b := range bands {
		if b.Min >= b.Max {
			return fmt.Errorf("band %d: min must be < max", i)
		}
	}
	return nil
}
