package pipeline

import (
	"context"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/signals"
)

// marketMemo caches index environments for one run, keyed by index code.
// Candidates of different segments map to different indices.
type marketMemo struct {
	p    *Pipeline
	envs map[string]contracts.MarketEnvironment
}

func newMarketMemo(p *Pipeline) *marketMemo {
	return &marketMemo{
		p:    p,
		envs: make(map[string]contracts.MarketEnvironment),
	}
}

func (m *marketMemo) get(ctx context.Context, indexCode string) contracts.MarketEnvironment {
	if env, ok := m.envs[indexCode]; ok {
		return env
	}

	params := m.p.strategy.Scoring.Market
	candles, err := callWithTimeout(ctx, m.p.cfg.CallTimeout, func(ctx context.Context) ([]contracts.Candle, error) {
		return m.p.providers.Indices.FetchIndexCandles(ctx, indexCode, params.IndexLookback)
	})
	if err != nil {
		m.p.logger.WithError(err).WithField("index", indexCode).Warn("Index candles unavailable")
	}

	env := signals.MarketEnvironment(indexCode, candles, params)
	m.envs[indexCode] = env
	return env
}
