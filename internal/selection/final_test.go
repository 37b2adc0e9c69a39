package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

func newFinalPicker() *FinalPicker {
	cfg := strategyconfig.Default()
	return NewFinalPicker(cfg.Selection, cfg.Keywords.OtherConcept, logger.Nop())
}

func summaryCodes(s []contracts.CandidateSummary) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Code
	}
	return out
}

func withActivity(c *contracts.Candidate, volRatio, turnover float64) *contracts.Candidate {
	c.Quote.VolumeRatio = volRatio
	c.Quote.TurnoverRate = turnover
	return c
}

func TestPick_SupplementRewardsDiversity(t *testing.T) {
	f := newFinalPicker()

	a := scored("A", contracts.SegmentMainSH, 100, 0, "ai")
	b := scored("B", contracts.SegmentMainSH, 90, 0, "ai")
	c := scored("C", contracts.SegmentMainSZ, 80, 0, "semiconductor")
	p1 := withActivity(scored("P1", contracts.SegmentMainSH, 40, 0.5, "ai"), 2, 5)
	p2 := withActivity(scored("P2", contracts.SegmentChiNext, 30, 0.5, "new_energy"), 2, 5)

	ranked := []*contracts.Candidate{a, b, c}
	picks := f.Pick(ranked, []*contracts.Candidate{p1, p2}, []*contracts.Candidate{a, b, c, p1, p2})

	require.Len(t, picks, 3)
	assert.Equal(t, []string{"A", "B", "P2"}, summaryCodes(picks))
	assert.Equal(t, contracts.SourceRanked, picks[0].Source)
	assert.Equal(t, contracts.SourceSupplement, picks[2].Source)
}

func TestPick_FillsFromRankedWithoutPool(t *testing.T) {
	f := newFinalPicker()

	a := scored("A", contracts.SegmentMainSH, 100, 0, "ai")
	b := scored("B", contracts.SegmentMainSH, 90, 0, "ai")
	c := scored("C", contracts.SegmentMainSZ, 80, 0, "semiconductor")
	d := scored("D", contracts.SegmentMainSZ, 70, 0, "finance")
	ranked := []*contracts.Candidate{a, b, c, d}

	picks := f.Pick(ranked, nil, ranked)

	assert.Equal(t, []string{"A", "B", "C"}, summaryCodes(picks))
}

func TestPick_SupplementSkipsAlreadyChosen(t *testing.T) {
	f := newFinalPicker()

	a := scored("A", contracts.SegmentMainSH, 100, 0, "ai")
	picks := f.Pick([]*contracts.Candidate{a}, []*contracts.Candidate{a}, []*contracts.Candidate{a})

	assert.Equal(t, []string{"A"}, summaryCodes(picks))
}

func TestSupplementScore(t *testing.T) {
	f := newFinalPicker()
	segs := map[contracts.Segment]bool{contracts.SegmentMainSH: true}
	tags := map[string]bool{"ai": true}

	same := withActivity(scored("P1", contracts.SegmentMainSH, 40, 0.5, "ai"), 2, 5)
	assert.Equal(t, 25.0, f.SupplementScore(same, segs, tags))

	fresh := withActivity(scored("P2", contracts.SegmentChiNext, 30, 0.5, "new_energy"), 2, 5)
	assert.Equal(t, 55.0, f.SupplementScore(fresh, segs, tags))

	capped := withActivity(scored("P3", contracts.SegmentMainSH, 30, 9, "ai"), 0.5, 20)
	assert.Equal(t, 20.0, f.SupplementScore(capped, segs, tags))

	outflow := withActivity(scored("P4", contracts.SegmentMainSH, 30, -2, "ai"), 0.5, 20)
	assert.Zero(t, f.SupplementScore(outflow, segs, tags))
}

func TestHotConcepts(t *testing.T) {
	f := newFinalPicker()

	strong := scored("F1", contracts.SegmentMainSH, 50, 0.2, "finance")
	strong.Flow.Strength = contracts.FlowStrongIn

	analyzed := []*contracts.Candidate{
		scored("N1", contracts.SegmentMainSH, 50, 1.0, "new_energy"),
		scored("N2", contracts.SegmentMainSZ, 50, 1.0, "new_energy"),
		strong,
		scored("F2", contracts.SegmentMainSZ, 50, 0.2, "finance"),
		scored("H1", contracts.SegmentMainSH, 50, 1.0, "healthcare"),
		scored("O1", contracts.SegmentMainSH, 50, 9.0, "other"),
	}

	hot := f.HotConcepts(analyzed)

	assert.InDelta(t, 2.0, hot["new_energy"], 0.0001)
	assert.Contains(t, hot, "finance")
	assert.NotContains(t, hot, "healthcare")
	assert.NotContains(t, hot, "other")
}

func TestReorderByHeat_Stable(t *testing.T) {
	f := newFinalPicker()

	a := scored("A", contracts.SegmentMainSH, 100, 0, "ai")
	b := scored("B", contracts.SegmentMainSH, 90, 0, "ai")
	n := scored("N", contracts.SegmentChiNext, 30, 0.5, "new_energy")
	m := scored("M", contracts.SegmentMainSZ, 30, 0.5, "finance")
	analyzed := []*contracts.Candidate{
		a, b, n, m,
		scored("N2", contracts.SegmentMainSZ, 50, 1.5, "new_energy"),
		scored("M2", contracts.SegmentMainSZ, 50, 1.2, "finance"),
	}

	picks := []contracts.CandidateSummary{a.Summary(), b.Summary(), m.Summary(), n.Summary()}
	out := f.ReorderByHeat(picks, analyzed)

	assert.Equal(t, []string{"N", "M", "A", "B"}, summaryCodes(out))
	assert.True(t, out[0].Hot)
	assert.True(t, out[1].Hot)
	assert.False(t, out[2].Hot)

	cold := f.ReorderByHeat([]contracts.CandidateSummary{b.Summary(), a.Summary()}, []*contracts.Candidate{a, b})
	assert.Equal(t, []string{"B", "A"}, summaryCodes(cold))
}
