package selection

import (
	"sort"
	"strings"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/internal/universe"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// Screener implements the criteria filter (hard cut)
// ⭐ SSOT: 条件粗筛逻辑只在这里
type Screener struct {
	logger *logger.Logger
}

// Criteria defines the range and exclusion rules
// SSOT: strategyconfig criteria + keywords.risk_markers
type Criteria struct {
	ChangePctMin   float64
	ChangePctMax   float64
	VolumeRatioMin float64
	VolumeRatioMax float64
	FloatCapMin    float64 // 亿元
	FloatCapMax    float64 // 亿元

	IncludeHighVolatility bool     // 创业板/科创板
	RiskMarkers           []string // 名称含有即排除 (不区分大小写)
	Limit                 int      // <= 0 不截断
}

// CriteriaFromStrategy builds Criteria from the strategy document
func CriteriaFromStrategy(cfg *strategyconfig.Config, includeHighVolatility bool) Criteria {
	return Criteria{
		ChangePctMin:          cfg.Criteria.ChangePctMin,
		ChangePctMax:          cfg.Criteria.ChangePctMax,
		VolumeRatioMin:        cfg.Criteria.VolumeRatioMin,
		VolumeRatioMax:        cfg.Criteria.VolumeRatioMax,
		FloatCapMin:           cfg.Criteria.FloatCapMin,
		FloatCapMax:           cfg.Criteria.FloatCapMax,
		IncludeHighVolatility: includeHighVolatility,
		RiskMarkers:           cfg.Keywords.RiskMarkers,
		Limit:                 cfg.Criteria.Limit,
	}
}

// Overrides replaces single criteria for one request; nil keeps the strategy value
type Overrides struct {
	ChangePctMin   *float64 `json:"change_min,omitempty"`
	ChangePctMax   *float64 `json:"change_max,omitempty"`
	VolumeRatioMin *float64 `json:"volume_ratio_min,omitempty"`
	VolumeRatioMax *float64 `json:"volume_ratio_max,omitempty"`
	FloatCapMin    *float64 `json:"market_cap_min,omitempty"`
	FloatCapMax    *float64 `json:"market_cap_max,omitempty"`
	Limit          *int     `json:"limit,omitempty"`
}

// Empty reports whether no criterion is overridden
func (o Overrides) Empty() bool {
	return o == Overrides{}
}

// Apply returns c with every set override in place
func (c Criteria) Apply(o Overrides) Criteria {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.ChangePctMin, o.ChangePctMin)
	set(&c.ChangePctMax, o.ChangePctMax)
	set(&c.VolumeRatioMin, o.VolumeRatioMin)
	set(&c.VolumeRatioMax, o.VolumeRatioMax)
	set(&c.FloatCapMin, o.FloatCapMin)
	set(&c.FloatCapMax, o.FloatCapMax)
	if o.Limit != nil {
		c.Limit = *o.Limit
	}
	return c
}

// TopByAmount returns up to n valid quotes with the highest traded amount.
// Ties keep code order so repeated calls agree.
func TopByAmount(quotes []contracts.Quote, n int) []contracts.Quote {
	out := make([]contracts.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Valid() {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Code < out[j].Code
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ScreenResult holds the passed quotes and per-reason exclusion counts
type ScreenResult struct {
	Passed   []contracts.Quote `json:"passed"`
	Filtered map[string]int    `json:"filtered"`
	Total    int               `json:"total"`
}

// NewScreener creates a new screener
func NewScreener(log *logger.Logger) *Screener {
	return &Screener{
		logger: log.WithField("stage", contracts.StageFilter.String()),
	}
}

// Screen keeps quotes inside every range, sorted by change% descending.
// Same input and criteria always produce the same output.
func (s *Screener) Screen(quotes []contracts.Quote, c Criteria) ScreenResult {
	passed := make([]contracts.Quote, 0)
	filtered := make(map[string]int)

	markers := make([]string, 0, len(c.RiskMarkers))
	for _, m := range c.RiskMarkers {
		if m = strings.TrimSpace(m); m != "" {
			markers = append(markers, strings.ToUpper(m))
		}
	}

	for _, q := range quotes {
		reason := checkConditions(q, c, markers)
		if reason == "" {
			passed = append(passed, q)
		} else {
			filtered[reason]++
		}
	}

	sort.SliceStable(passed, func(i, j int) bool {
		if passed[i].ChangePct != passed[j].ChangePct {
			return passed[i].ChangePct > passed[j].ChangePct
		}
		return passed[i].Code < passed[j].Code
	})

	if c.Limit > 0 && len(passed) > c.Limit {
		filtered["limit"] += len(passed) - c.Limit
		passed = passed[:c.Limit]
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(quotes),
		"passed":       len(passed),
		"filtered_out": len(quotes) - len(passed),
		"filters":      filtered,
	}).Info("Screening completed")

	return ScreenResult{Passed: passed, Filtered: filtered, Total: len(quotes)}
}

// checkConditions returns the first failed rule, or "" when q passes
func checkConditions(q contracts.Quote, c Criteria, markers []string) string {
	if !q.Valid() {
		return "invalid_price"
	}

	name := strings.ToUpper(q.Name)
	for _, m := range markers {
		if strings.Contains(name, m) {
			return "risk_warning"
		}
	}

	if !c.IncludeHighVolatility && universe.SegmentOf(q.Code).HighVolatility() {
		return "high_volatility_segment"
	}

	if q.ChangePct < c.ChangePctMin || q.ChangePct > c.ChangePctMax {
		return "change_pct"
	}

	if q.VolumeRatio < c.VolumeRatioMin || q.VolumeRatio > c.VolumeRatioMax {
		return "volume_ratio"
	}

	if floatCap := q.FloatCapYi(); floatCap < c.FloatCapMin || floatCap > c.FloatCapMax {
		return "float_cap"
	}

	return ""
}
