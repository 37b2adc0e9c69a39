package signals

import (
	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
)

// MarketEnvironment builds an index snapshot from daily index candles
// (oldest first). Fewer than two candles yields an unknown environment.
func MarketEnvironment(indexCode string, candles []contracts.Candle, p strategyconfig.MarketPoints) contracts.MarketEnvironment {
	env := contracts.MarketEnvironment{
		IndexCode: indexCode,
		Sentiment: contracts.SentimentUnknown,
	}

	n := len(candles)
	if n < 2 || candles[n-2].Close <= 0 {
		return env
	}

	closes := closesOf(candles)
	last, prev := closes[n-1], closes[n-2]
	env.Price = last
	env.ChangePct = round2((last - prev) / prev * 100)

	window := closes[max(0, n-5):]
	var sum float64
	for _, c := range window {
		sum += c
	}
	env.AboveMA5 = last > sum/float64(len(window))

	if n >= 6 && closes[n-6] > 0 {
		env.Change5D = round2((last - closes[n-6]) / closes[n-6] * 100)
	}

	env.Sentiment = Sentiment(env.ChangePct, p)
	return env
}

// Sentiment buckets an index change
func Sentiment(changePct float64, p strategyconfig.MarketPoints) contracts.Sentiment {
	switch {
	case changePct >= p.StrongChange:
		return contracts.SentimentStrong
	case changePct >= 0:
		return contracts.SentimentPositive
	case changePct <= p.PanicChange:
		return contracts.SentimentPanic
	case changePct <= p.WeakChange:
		return contracts.SentimentWeak
	default:
		return contracts.SentimentNeutral
	}
}
