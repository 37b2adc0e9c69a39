package selection

import (
	"sort"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// Ranker orders scored candidates, applies the score threshold and
// enforces segment/concept concentration limits
// ⭐ SSOT: 排序与分散化只在这里
type Ranker struct {
	cfg    strategyconfig.Selection
	logger *logger.Logger
}

// RankOptions are the per-run ranking toggles
type RankOptions struct {
	PreferTailInflow  bool
	StrictRiskControl bool
}

// NewRanker creates a new ranker
func NewRanker(cfg strategyconfig.Selection, logger *logger.Logger) *Ranker {
	return &Ranker{
		cfg:    cfg,
		logger: logger,
	}
}

// Threshold returns the minimum qualifying score for the given broad-market
// snapshot; a stressed market raises the bar
func (r *Ranker) Threshold(market contracts.MarketEnvironment) int {
	if market.Available() && market.ChangePct <= r.cfg.StressIndexChange {
		return r.cfg.StressThreshold
	}
	return r.cfg.BaseThreshold
}

// CandidateThreshold is the bar for one candidate: the run threshold, raised
// when the candidate's own reference index is under stress
func (r *Ranker) CandidateThreshold(c *contracts.Candidate, threshold int) int {
	return max(threshold, r.Threshold(c.Market))
}

// Sort orders candidates in place. Ties keep their input order.
func (r *Ranker) Sort(cands []*contracts.Candidate, preferInflow bool) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if preferInflow {
			if a.Flow.IsInflow != b.Flow.IsInflow {
				return a.Flow.IsInflow
			}
			if a.Flow.NetInflow != b.Flow.NetInflow {
				return a.Flow.NetInflow > b.Flow.NetInflow
			}
		}
		return a.Score > b.Score
	})
}

// Ranking is the outcome of one ranking pass
type Ranking struct {
	Qualified []*contracts.Candidate // sorted, at or above threshold
	Picks     []*contracts.Candidate
}

// Rank sorts, thresholds and caps the candidate list. The input slice is not reordered.
func (r *Ranker) Rank(cands []*contracts.Candidate, threshold int, opts RankOptions) Ranking {
	sorted := append([]*contracts.Candidate(nil), cands...)
	r.Sort(sorted, opts.PreferTailInflow)

	qualified := make([]*contracts.Candidate, 0, len(sorted))
	for _, c := range sorted {
		if c.Score >= r.CandidateThreshold(c, threshold) {
			qualified = append(qualified, c)
		}
	}

	var picks []*contracts.Candidate
	if opts.StrictRiskControl {
		picks = r.Diversify(qualified)
	} else {
		picks = qualified[:min(len(qualified), r.cfg.MaxPicks)]
	}

	r.logger.WithFields(map[string]interface{}{
		"candidates": len(cands),
		"threshold":  threshold,
		"qualified":  len(qualified),
		"picked":     len(picks),
		"strict":     opts.StrictRiskControl,
		"prefer":     opts.PreferTailInflow,
	}).Info("Ranking completed")

	return Ranking{
		Qualified: qualified,
		Picks:     picks,
	}
}

// Diversify walks an ordered list and admits a candidate only while its
// segment and every one of its concept tags are under their caps
func (r *Ranker) Diversify(ordered []*contracts.Candidate) []*contracts.Candidate {
	segments := make(map[contracts.Segment]int)
	concepts := make(map[string]int)
	picks := make([]*contracts.Candidate, 0, r.cfg.MaxPicks)

	for _, c := range ordered {
		if len(picks) >= r.cfg.MaxPicks {
			break
		}
		if segments[c.Segment] >= r.cfg.SegmentCap {
			continue
		}
		full := false
		for _, tag := range c.Concepts {
			if concepts[tag] >= r.cfg.ConceptCap {
				full = true
				break
			}
		}
		if full {
			continue
		}

		picks = append(picks, c)
		segments[c.Segment]++
		for _, tag := range c.Concepts {
			concepts[tag]++
		}
	}
	return picks
}
