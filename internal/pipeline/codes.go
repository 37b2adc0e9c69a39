package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/selection"
	"github.com/wonny/aegis-t1/backend/internal/signals"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

const (
	codePickLimit     = 3  // 精选最多 3 只
	codeFillMinHits   = 2  // 不足 3 只时, 满足 2 项即补入
	codeMinCandles    = 10 // 日线不足则跳过
	codeWindowCandles = 20
)

// CodeAnalysis is the pattern check of one caller-supplied code
type CodeAnalysis struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	ChangePct    float64  `json:"change_pct"`
	VolumeRatio  float64  `json:"volume_ratio"`
	FloatCapYi   float64  `json:"float_cap_yi"`
	Turnover     float64  `json:"turnover_rate"`
	Amount       float64  `json:"amount"`
	MA5          float64  `json:"ma5"`
	Support      float64  `json:"support"`
	LadderVolume bool     `json:"ladder_volume"`
	AboveMA5High bool     `json:"above_ma5_high"`
	InConcept    bool     `json:"in_concept"`
	Concepts     []string `json:"concepts"`
	Qualified    bool     `json:"qualified"`
}

// Hits counts the satisfied conditions
func (a CodeAnalysis) Hits() int {
	n := 0
	for _, ok := range []bool{a.LadderVolume, a.AboveMA5High, a.InConcept} {
		if ok {
			n++
		}
	}
	return n
}

// CodesResult is the outcome of AnalyzeCodes
type CodesResult struct {
	Requested int            `json:"total_analyzed"`
	Picks     []CodeAnalysis `json:"data"`
	All       []CodeAnalysis `json:"all_analysis"`
}

// Hot returns the n valid universe quotes with the highest traded amount
func (p *Pipeline) Hot(ctx context.Context, n int) ([]contracts.Quote, error) {
	fetched, err := p.coordinator.FetchAll(ctx, p.universe)
	if err != nil {
		return nil, err
	}
	return selection.TopByAmount(fetched.Quotes, n), nil
}

// AnalyzeCodes checks ladder volume, the MA5/high position and concept
// membership for each code. Codes meeting all three are picked first; with
// fewer than three picks, codes meeting two are admitted in input order.
// Codes without a quote or enough daily bars are skipped.
func (p *Pipeline) AnalyzeCodes(ctx context.Context, codes []string) (*CodesResult, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("analyze codes: %w", contracts.ErrNoCodes)
	}

	fetched, err := p.coordinator.FetchAll(ctx, codes)
	if err != nil {
		return nil, err
	}
	quotes := make(map[string]contracts.Quote, len(fetched.Quotes))
	for _, q := range fetched.Quotes {
		quotes[q.Code] = q
	}

	result := &CodesResult{Requested: len(codes)}
	for _, code := range codes {
		q, ok := quotes[code]
		if !ok {
			continue
		}
		a, ok := p.analyzeCode(ctx, q)
		if !ok {
			continue
		}
		result.All = append(result.All, a)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze codes: %w", err)
	}

	picked := make(map[string]bool)
	for _, a := range result.All {
		if a.Qualified {
			result.Picks = append(result.Picks, a)
			picked[a.Code] = true
		}
	}
	if len(result.Picks) < codePickLimit {
		for _, a := range result.All {
			if !picked[a.Code] && a.Hits() >= codeFillMinHits {
				result.Picks = append(result.Picks, a)
			}
		}
	}
	if len(result.Picks) > codePickLimit {
		result.Picks = result.Picks[:codePickLimit]
	}

	p.logger.WithFields(map[string]interface{}{
		"requested": len(codes),
		"analyzed":  len(result.All),
		"picked":    len(result.Picks),
	}).Info("Code analysis completed")

	return result, nil
}

func (p *Pipeline) analyzeCode(ctx context.Context, q contracts.Quote) (CodeAnalysis, bool) {
	candles, err := callWithTimeout(ctx, p.cfg.CallTimeout, func(ctx context.Context) ([]contracts.Candle, error) {
		return p.providers.Candles.FetchDailyCandles(ctx, q.Code, p.strategy.Technical.LookbackDays)
	})
	if err != nil || len(candles) < codeMinCandles {
		p.logger.WithField("code", q.Code).WithField("candles", len(candles)).Debug("Code skipped")
		return CodeAnalysis{}, false
	}
	if len(candles) > codeWindowCandles {
		candles = candles[len(candles)-codeWindowCandles:]
	}

	sig := p.pattern.Detect(candles, q.Price)
	a := CodeAnalysis{
		Code:         q.Code,
		Name:         strings.TrimSpace(q.Name),
		Price:        q.Price,
		ChangePct:    q.ChangePct,
		VolumeRatio:  q.VolumeRatio,
		FloatCapYi:   universe.RoundTick(q.FloatCapYi()),
		Turnover:     q.TurnoverRate,
		Amount:       q.Amount,
		MA5:          universe.RoundTick(signals.MA5(candles)),
		Support:      sig.Support,
		LadderVolume: sig.LadderVolume,
		AboveMA5High: sig.AboveMA5High,
		InConcept:    p.tagger.InConcept(q.Name),
		Concepts:     p.tagger.Tags(q.Name),
	}
	a.Qualified = a.Hits() == 3
	return a, true
}
