package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/fetch"
	"github.com/wonny/aegis-t1/backend/internal/plan"
	"github.com/wonny/aegis-t1/backend/internal/scoring"
	"github.com/wonny/aegis-t1/backend/internal/selection"
	"github.com/wonny/aegis-t1/backend/internal/signals"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/internal/universe"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// Options are the per-run toggles
type Options = contracts.RunOptions

// Providers are the data collaborators. News is optional.
type Providers struct {
	Quotes        contracts.QuoteFetcher
	Candles       contracts.CandleFetcher
	Indices       contracts.IndexFetcher
	Minutes       contracts.MinuteFetcher
	Announcements contracts.AnnouncementFetcher
	News          contracts.NewsSearcher
}

// Config holds fetch limits
type Config struct {
	Fetch       fetch.Config
	CallTimeout time.Duration // per-candidate call timeout
}

// Pipeline runs fetch → filter → analyze → score → select → plan
// ⭐ SSOT: 选股流程编排只在这里
type Pipeline struct {
	providers Providers
	strategy  *strategyconfig.Config
	hash      string
	opts      Options
	overrides selection.Overrides
	cfg       Config

	coordinator *fetch.Coordinator
	screener    *selection.Screener
	intraday    *signals.IntradayAnalyzer
	technical   *signals.TechnicalCalculator
	pattern     *signals.PatternDetector
	tagger      *signals.ConceptTagger
	news        *signals.NewsClassifier
	ranker      *selection.Ranker
	finalPicker *selection.FinalPicker
	planner     *plan.Generator

	universe []string
	now      func() time.Time
	logger   *logger.Logger
}

// New creates a pipeline for one strategy and option set
func New(p Providers, strategy *strategyconfig.Config, opts Options, cfg Config, log *logger.Logger) *Pipeline {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 8 * time.Second
	}
	if cfg.Fetch.CallTimeout <= 0 {
		cfg.Fetch.CallTimeout = cfg.CallTimeout
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		log.WithError(err).Warn("Failed to hash strategy config")
	}

	return &Pipeline{
		providers:   p,
		strategy:    strategy,
		hash:        hash,
		opts:        opts,
		cfg:         cfg,
		coordinator: fetch.NewCoordinator(p.Quotes, cfg.Fetch, log),
		screener:    selection.NewScreener(log.WithField("stage", contracts.StageFilter.String())),
		intraday:    signals.NewIntradayAnalyzer(strategy.Intraday, log.WithField("stage", contracts.StageAnalyze.String())),
		technical:   signals.NewTechnicalCalculator(strategy.Technical, log.WithField("stage", contracts.StageAnalyze.String())),
		pattern:     signals.NewPatternDetector(strategy.Pattern),
		tagger:      signals.NewConceptTagger(strategy.Keywords),
		news:        signals.NewNewsClassifier(strategy.Keywords),
		ranker:      selection.NewRanker(strategy.Selection, log.WithField("stage", contracts.StageSelect.String())),
		finalPicker: selection.NewFinalPicker(strategy.Selection, strategy.Keywords.OtherConcept, log.WithField("stage", contracts.StageSelect.String())),
		planner:     plan.NewGenerator(strategy.TradePlan),
		universe:    universe.All(),
		now:         time.Now,
		logger:      log,
	}
}

// WithOptions returns a copy of the pipeline using opts
func (p *Pipeline) WithOptions(opts Options) *Pipeline {
	cp := *p
	cp.opts = opts
	return &cp
}

// WithCriteria returns a copy of the pipeline screening with o applied
func (p *Pipeline) WithCriteria(o selection.Overrides) *Pipeline {
	cp := *p
	cp.overrides = o
	return &cp
}

// WithUniverse returns a copy of the pipeline screening only codes
func (p *Pipeline) WithUniverse(codes []string) *Pipeline {
	cp := *p
	cp.universe = codes
	return &cp
}

// WithClock returns a copy of the pipeline reading time from now
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	cp := *p
	cp.now = now
	return &cp
}

// Options returns the run toggles
func (p *Pipeline) Options() Options {
	return p.opts
}

// Strategy returns the active strategy and its fingerprint
func (p *Pipeline) Strategy() (*strategyconfig.Config, string) {
	return p.strategy, p.hash
}

// FilterResult is the outcome of fetch + criteria filter only
type FilterResult struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Options     Options             `json:"options"`
	Stats       contracts.RunStats  `json:"stats"`
	Criteria    selection.Overrides `json:"criteria"`
	Passed      []contracts.Quote   `json:"passed"`
	Filtered    map[string]int      `json:"filtered"`
}

// Filter fetches the universe and applies the criteria filter
func (p *Pipeline) Filter(ctx context.Context) (*FilterResult, error) {
	start := p.now()
	stats := contracts.RunStats{UniverseSize: len(p.universe)}

	screened, err := p.fetchAndScreen(ctx, &stats)
	if err != nil {
		return nil, err
	}
	stats.Duration = p.now().Sub(start)

	return &FilterResult{
		GeneratedAt: start,
		Options:     p.opts,
		Stats:       stats,
		Criteria:    p.overrides,
		Passed:      screened.Passed,
		Filtered:    screened.Filtered,
	}, nil
}

// Run executes the whole pipeline. Only an empty universe fetch is fatal.
func (p *Pipeline) Run(ctx context.Context) (*contracts.ScreenResult, error) {
	start := p.now()
	stats := contracts.RunStats{UniverseSize: len(p.universe)}

	screened, err := p.fetchAndScreen(ctx, &stats)
	if err != nil {
		return nil, err
	}

	// Analyze
	passed := screened.Passed
	if n := p.strategy.Selection.AnalyzeTop; n > 0 && len(passed) > n {
		passed = passed[:n]
	}
	markets := newMarketMemo(p)
	candidates := make([]*contracts.Candidate, 0, len(passed))
	afterClose := false
	for _, q := range passed {
		c := p.analyze(ctx, q, markets)
		afterClose = afterClose || c.Minutes.AfterClose
		candidates = append(candidates, c)
	}
	stats.Analyzed = len(candidates)
	// 单次调用超时降级为默认值; 整个运行被取消则整体失败
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("screening run: %w", err)
	}

	// Score
	tailWeight := scoring.TailWeight(start, afterClose, p.strategy)
	engine := scoring.NewEngine(p.strategy, scoring.Params{
		TailWeight:       tailWeight,
		PreferTailInflow: p.opts.PreferTailInflow,
	}, p.logger.WithField("stage", contracts.StageScore.String()))
	for _, c := range candidates {
		engine.Score(c)
	}

	// Select
	broad := markets.get(ctx, universe.IndexShanghai)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("screening run: %w", err)
	}
	threshold := p.ranker.Threshold(broad)
	ranking := p.ranker.Rank(candidates, threshold, selection.RankOptions{
		PreferTailInflow:  p.opts.PreferTailInflow,
		StrictRiskControl: p.opts.StrictRiskControl,
	})

	var pool []*contracts.Candidate
	for _, c := range candidates {
		if c.Pattern.Qualified() {
			pool = append(pool, c)
		}
	}

	// Plan
	for _, c := range candidates {
		p.planner.Apply(c)
	}
	p.logger.WithFields(map[string]interface{}{
		"stage":      contracts.StagePlan.String(),
		"candidates": len(candidates),
	}).Debug("Trade plans generated")

	finalPicks := p.finalPicker.Pick(ranking.Picks, pool, candidates)

	stats.Qualified = len(ranking.Qualified)
	stats.Picked = len(ranking.Picks)
	stats.PatternPool = len(pool)
	stats.Duration = p.now().Sub(start)

	result := &contracts.ScreenResult{
		RunID:       uuid.NewString(),
		GeneratedAt: start,
		StrategyID:  p.strategy.Meta.StrategyID,
		ConfigHash:  p.hash,
		Options:     p.opts,
		Threshold:   threshold,
		TailWeight:  tailWeight,
		Market:      broad,
		Stats:       stats,
		Candidates:  summaries(ranking.Qualified),
		Picks:       summaries(ranking.Picks),
		FinalPicks:  finalPicks,
	}

	p.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"universe":    stats.UniverseSize,
		"quotes":      stats.Quotes,
		"filtered":    stats.Filtered,
		"analyzed":    stats.Analyzed,
		"qualified":   stats.Qualified,
		"picked":      stats.Picked,
		"final":       len(finalPicks),
		"threshold":   threshold,
		"tail_weight": tailWeight,
		"duration_ms": stats.Duration.Milliseconds(),
	}).Info("Screening run completed")

	return result, nil
}

// Markets returns the environment of every reference index
func (p *Pipeline) Markets(ctx context.Context) []contracts.MarketEnvironment {
	memo := newMarketMemo(p)
	codes := []string{universe.IndexShanghai, universe.IndexShenzhen, universe.IndexChiNext}
	out := make([]contracts.MarketEnvironment, 0, len(codes))
	for _, code := range codes {
		out = append(out, memo.get(ctx, code))
	}
	return out
}

func (p *Pipeline) fetchAndScreen(ctx context.Context, stats *contracts.RunStats) (selection.ScreenResult, error) {
	fetched, err := p.coordinator.FetchAll(ctx, p.universe)
	if fetched != nil {
		stats.BatchesAttempted = fetched.BatchesAttempted
		stats.BatchesSucceeded = fetched.BatchesSucceeded
	}
	if err != nil {
		return selection.ScreenResult{}, err
	}
	stats.Quotes = len(fetched.Quotes)

	criteria := selection.CriteriaFromStrategy(p.strategy, p.opts.IncludeHighVolatilitySegments).Apply(p.overrides)
	screened := p.screener.Screen(fetched.Quotes, criteria)
	stats.Filtered = len(screened.Passed)
	return screened, nil
}

func summaries(cands []*contracts.Candidate) []contracts.CandidateSummary {
	out := make([]contracts.CandidateSummary, len(cands))
	for i, c := range cands {
		out[i] = c.Summary()
	}
	return out
}
