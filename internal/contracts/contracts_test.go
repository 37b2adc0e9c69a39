package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuote_Valid(t *testing.T) {
	tests := []struct {
		name  string
		quote Quote
		want  bool
	}{
		{"normal", Quote{Price: 10, PrevClose: 9.8}, true},
		{"halted", Quote{Price: 0, PrevClose: 9.8}, false},
		{"no prev close", Quote{Price: 10, PrevClose: 0}, false},
		{"negative", Quote{Price: -1, PrevClose: 9.8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.quote.Valid())
		})
	}
}

func TestQuote_FloatCapYi(t *testing.T) {
	assert.InDelta(t, 123.4, Quote{FloatCap: 123.4e8}.FloatCapYi(), 1e-9)
}

func TestCandle_Valid(t *testing.T) {
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	assert.True(t, Candle{Date: day, Open: 10, Close: 10.5, High: 10.8, Low: 9.9, Volume: 100}.Valid())
	assert.False(t, Candle{Open: 10, Close: 10.5, High: 10.4, Low: 9.9}.Valid(), "high below close")
	assert.False(t, Candle{Open: 10, Close: 10.5, High: 10.8, Low: 10.1}.Valid(), "low above open")
	assert.False(t, Candle{Open: 10, Close: 10.5, High: 10.8, Low: 9.9, Volume: -1}.Valid())
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodDaily, "daily": PeriodDaily, "weekly": PeriodWeekly, "monthly": PeriodMonthly} {
		got, err := ParsePeriod(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePeriod("5min")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSegment_HighVolatility(t *testing.T) {
	assert.True(t, SegmentChiNext.HighVolatility())
	assert.True(t, SegmentSTAR.HighVolatility())
	assert.False(t, SegmentMainSH.HighVolatility())
	assert.False(t, SegmentMainSZ.HighVolatility())
}

func TestTrend_RankIsOrdered(t *testing.T) {
	order := []Trend{TrendDown, TrendStable, TrendUp, TrendStrongUp}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Rank(), order[i-1].Rank())
	}
	assert.Less(t, TrendUnknown.Rank(), TrendDown.Rank())
	assert.True(t, TrendStrongUp.Rising())
	assert.False(t, TrendStable.Rising())
}

func TestCandidate_Apply(t *testing.T) {
	c := NewCandidate(Quote{Code: "600519", Price: 10, PrevClose: 9.7}, SegmentMainSH, []string{"other"})
	c.Apply(ScoreDelta{Amount: 15, Reason: "换手适中"})
	c.Apply(ScoreDelta{Amount: -20, Warning: "尾盘下跌"})
	c.Apply(ScoreDelta{Warning: "消息面数据不可用"})

	assert.Equal(t, -5, c.Score)
	assert.Equal(t, []string{"换手适中"}, c.Reasons)
	assert.Len(t, c.Warnings, 2)
	assert.Equal(t, TrendUnknown, c.TailTrend.Trend)
	assert.Equal(t, 50.0, c.Technical.RSI)
}

func TestCandidate_SummaryCopiesSlices(t *testing.T) {
	c := NewCandidate(Quote{Code: "000001", Name: "平安银行", Price: 11, PrevClose: 10.6}, SegmentMainSZ, []string{"finance"})
	c.Apply(ScoreDelta{Amount: 5, Reason: "a"})

	s := c.Summary()
	c.Reasons[0] = "mutated"

	assert.Equal(t, "a", s.Reasons[0])
	assert.Equal(t, SourceRanked, s.Source)
	assert.True(t, c.HasConcept("finance"))
	assert.False(t, c.HasConcept("ai"))
}

func TestMinuteBar_Notional(t *testing.T) {
	assert.Equal(t, 5000.0, MinuteBar{Price: 10, Volume: 5, Amount: 5000}.Notional())
	assert.Equal(t, 5000.0, MinuteBar{Price: 10, Volume: 5}.Notional())
}
