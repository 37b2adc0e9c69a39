package selection

import (
	"math"
	"sort"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// FinalPicker blends the top ranked picks with a diversity-scored
// supplement from the technical-pattern pool, then reorders by concept heat
type FinalPicker struct {
	cfg          strategyconfig.Selection
	otherConcept string
	logger       *logger.Logger
}

// NewFinalPicker creates a new final picker
func NewFinalPicker(cfg strategyconfig.Selection, otherConcept string, logger *logger.Logger) *FinalPicker {
	return &FinalPicker{
		cfg:          cfg,
		otherConcept: otherConcept,
		logger:       logger,
	}
}

// Pick returns at most Final.Max summaries. ranked is the ranked shortlist,
// pool the pattern-qualified candidates, analyzed every scored candidate
// (used for concept heat).
func (f *FinalPicker) Pick(ranked, pool, analyzed []*contracts.Candidate) []contracts.CandidateSummary {
	fc := f.cfg.Final
	ai := ranked[:min(len(ranked), fc.AIPicks, fc.Max)]

	chosen := make(map[string]bool, fc.Max)
	out := make([]contracts.CandidateSummary, 0, fc.Max)
	for _, c := range ai {
		chosen[c.Quote.Code] = true
		out = append(out, c.Summary())
	}

	for _, c := range f.supplements(ai, pool, chosen) {
		if len(out) >= fc.Max {
			break
		}
		chosen[c.Quote.Code] = true
		s := c.Summary()
		s.Source = contracts.SourceSupplement
		out = append(out, s)
	}

	// 补充池不足时用排名候选补位
	for _, c := range ranked[len(ai):] {
		if len(out) >= fc.Max {
			break
		}
		if chosen[c.Quote.Code] {
			continue
		}
		chosen[c.Quote.Code] = true
		out = append(out, c.Summary())
	}

	out = f.ReorderByHeat(out, analyzed)

	f.logger.WithFields(map[string]interface{}{
		"ranked":    len(ranked),
		"pool":      len(pool),
		"ai_picks":  len(ai),
		"final":     len(out),
		"hot_first": len(out) > 0 && out[0].Hot,
	}).Info("Final picks selected")

	return out
}

// supplements scores the pool against the AI picks and returns the best
// Final.Supplements candidates, highest score first, pool order on ties
func (f *FinalPicker) supplements(ai, pool []*contracts.Candidate, chosen map[string]bool) []*contracts.Candidate {
	segs := make(map[contracts.Segment]bool)
	tags := make(map[string]bool)
	for _, c := range ai {
		segs[c.Segment] = true
		for _, t := range c.Concepts {
			tags[t] = true
		}
	}

	type scored struct {
		c     *contracts.Candidate
		score float64
	}
	var cands []scored
	for _, c := range pool {
		if chosen[c.Quote.Code] {
			continue
		}
		cands = append(cands, scored{c, f.SupplementScore(c, segs, tags)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	out := make([]*contracts.Candidate, 0, f.cfg.Final.Supplements)
	for _, s := range cands[:min(len(cands), f.cfg.Final.Supplements)] {
		out = append(out, s.c)
	}
	return out
}

// SupplementScore rewards inflow, moderate volume ratio and turnover, and
// a segment or concept not yet represented
func (f *FinalPicker) SupplementScore(c *contracts.Candidate, segs map[contracts.Segment]bool, tags map[string]bool) float64 {
	s := f.cfg.Supplement
	score := math.Min(math.Max(c.Flow.NetInflow, 0)*s.InflowPerUnit, s.InflowCap)

	if s.VolumeRatio.Contains(c.Quote.VolumeRatio) {
		score += float64(s.VolumeRatio.Points)
	}
	if s.Turnover.Contains(c.Quote.TurnoverRate) {
		score += float64(s.Turnover.Points)
	}
	if !segs[c.Segment] {
		score += float64(s.NewSegment)
	}
	for _, t := range c.Concepts {
		if !tags[t] {
			score += float64(s.NewConcept)
			break
		}
	}
	return score
}

// HotConcepts returns each hot concept's aggregate net inflow
func (f *FinalPicker) HotConcepts(analyzed []*contracts.Candidate) map[string]float64 {
	inflow := make(map[string]float64)
	count := make(map[string]int)
	strong := make(map[string]bool)
	for _, c := range analyzed {
		for _, t := range c.Concepts {
			if t == f.otherConcept {
				continue
			}
			inflow[t] += c.Flow.NetInflow
			count[t]++
			if c.Flow.Strength == contracts.FlowStrongIn {
				strong[t] = true
			}
		}
	}

	hot := make(map[string]float64)
	for t, amt := range inflow {
		if amt >= f.cfg.Heat.MinInflow || (count[t] >= f.cfg.Heat.MinCount && strong[t]) {
			hot[t] = amt
		}
	}
	return hot
}

// ReorderByHeat moves hot-concept picks to the front, then by heat,
// keeping the original order among ties
func (f *FinalPicker) ReorderByHeat(picks []contracts.CandidateSummary, analyzed []*contracts.Candidate) []contracts.CandidateSummary {
	hot := f.HotConcepts(analyzed)
	heat := make([]float64, len(picks))
	for i := range picks {
		for _, t := range picks[i].Concepts {
			if amt, ok := hot[t]; ok {
				if !picks[i].Hot || amt > heat[i] {
					heat[i] = amt
				}
				picks[i].Hot = true
			}
		}
	}

	idx := make([]int, len(picks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if picks[i].Hot != picks[j].Hot {
			return picks[i].Hot
		}
		return heat[i] > heat[j]
	})

	out := make([]contracts.CandidateSummary, len(picks))
	for k, i := range idx {
		out[k] = picks[i]
	}
	return out
}
