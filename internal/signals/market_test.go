package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

func TestMarketEnvironment(t *testing.T) {
	p := strategyconfig.Default().Scoring.Market
	candles := candlesFrom([]float64{3000, 3010, 3020, 3030, 3040, 3050, 2980}, 1e6)

	env := MarketEnvironment("sh000001", candles, p)

	assert.Equal(t, "sh000001", env.IndexCode)
	assert.Equal(t, 2980.0, env.Price)
	assert.InDelta(t, -2.30, env.ChangePct, 0.001)
	assert.False(t, env.AboveMA5)
	assert.InDelta(t, -1.0, env.Change5D, 0.001)
	assert.Equal(t, contracts.SentimentPanic, env.Sentiment)
	assert.True(t, env.Available())
}

func TestMarketEnvironment_Unavailable(t *testing.T) {
	p := strategyconfig.Default().Scoring.Market

	env := MarketEnvironment("sz399006", candlesFrom([]float64{2000}, 1e6), p)

	assert.Equal(t, contracts.SentimentUnknown, env.Sentiment)
	assert.False(t, env.Available())
}

func TestSentiment(t *testing.T) {
	p := strategyconfig.Default().Scoring.Market

	tests := []struct {
		change float64
		want   contracts.Sentiment
	}{
		{2.5, contracts.SentimentStrong},
		{1.0, contracts.SentimentStrong},
		{0.0, contracts.SentimentPositive},
		{-0.5, contracts.SentimentNeutral},
		{-1.0, contracts.SentimentWeak},
		{-1.5, contracts.SentimentWeak},
		{-2.0, contracts.SentimentPanic},
		{-4.0, contracts.SentimentPanic},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Sentiment(tt.change, p), "change=%v", tt.change)
	}
}

func TestUpside(t *testing.T) {
	tests := []struct {
		name    string
		quote   contracts.Quote
		seg     contracts.Segment
		limit   float64
		upside  float64
		touched bool
		sealed  bool
	}{
		{
			name:   "main board room",
			quote:  contracts.Quote{Price: 10.40, PrevClose: 10.00, High: 10.50},
			seg:    contracts.SegmentMainSH,
			limit:  11.00,
			upside: 5.77,
		},
		{
			name:    "sealed at limit",
			quote:   contracts.Quote{Price: 11.00, PrevClose: 10.00, High: 11.00},
			seg:     contracts.SegmentMainSZ,
			limit:   11.00,
			touched: true,
			sealed:  true,
		},
		{
			name:    "touched then opened",
			quote:   contracts.Quote{Price: 10.70, PrevClose: 10.00, High: 11.00},
			seg:     contracts.SegmentMainSZ,
			limit:   11.00,
			upside:  2.80,
			touched: true,
		},
		{
			name:   "chinext twenty percent",
			quote:  contracts.Quote{Price: 10.40, PrevClose: 10.00, High: 10.50},
			seg:    contracts.SegmentChiNext,
			limit:  12.00,
			upside: 15.38,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := Upside(tt.quote, tt.seg)
			assert.InDelta(t, tt.limit, u.LimitPrice, 0.001)
			assert.InDelta(t, tt.upside, u.UpsidePct, 0.001)
			assert.Equal(t, tt.touched, u.Touched)
			assert.Equal(t, tt.sealed, u.Sealed)
		})
	}
}
