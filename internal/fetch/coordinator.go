package fetch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/universe"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// Coordinator fans quote batches out over a bounded worker pool
// ⭐ SSOT: 全市场行情批量拉取只在这里
type Coordinator struct {
	fetcher contracts.QuoteFetcher
	config  Config
	logger  *logger.Logger
}

// Config holds coordinator configuration
type Config struct {
	BatchSize   int           // codes per request
	Concurrency int           // in-flight batches
	CallTimeout time.Duration // per-batch timeout
}

// Result is the merged outcome; failed batches are absent, not fatal
type Result struct {
	Quotes           []contracts.Quote
	BatchesAttempted int
	BatchesSucceeded int
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(fetcher contracts.QuoteFetcher, cfg Config, log *logger.Logger) *Coordinator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 80
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	return &Coordinator{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.WithField("stage", contracts.StageFetch.String()),
	}
}

// FetchAll fetches every code. Batches that fail or time out are dropped;
// only a run with zero usable quotes returns contracts.ErrNoData.
func (c *Coordinator) FetchAll(ctx context.Context, codes []string) (*Result, error) {
	batches := universe.Batches(codes, c.config.BatchSize)
	slots := make([][]contracts.Quote, len(batches))
	ok := make([]bool, len(batches))

	c.logger.WithFields(map[string]interface{}{
		"codes":       len(codes),
		"batches":     len(batches),
		"concurrency": c.config.Concurrency,
	}).Info("Starting quote fan-out")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			quotes, err := c.fetchBatch(gctx, batch)
			if err != nil {
				c.logger.WithError(err).WithFields(map[string]interface{}{
					"batch": i,
					"size":  len(batch),
				}).Debug("Quote batch dropped")
				return nil
			}
			slots[i] = quotes
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	// merge in batch order so the result does not depend on scheduling
	result := &Result{BatchesAttempted: len(batches)}
	seen := make(map[string]bool, len(codes))
	for i, quotes := range slots {
		if ok[i] {
			result.BatchesSucceeded++
		}
		for _, q := range quotes {
			if !q.Valid() || seen[q.Code] {
				continue
			}
			seen[q.Code] = true
			result.Quotes = append(result.Quotes, q)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"attempted": result.BatchesAttempted,
		"succeeded": result.BatchesSucceeded,
		"quotes":    len(result.Quotes),
	}).Info("Quote fan-out completed")

	if len(result.Quotes) == 0 {
		return result, contracts.ErrNoData
	}
	return result, nil
}

func (c *Coordinator) fetchBatch(ctx context.Context, batch []string) ([]contracts.Quote, error) {
	if c.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
		defer cancel()
	}
	return c.fetcher.FetchQuotes(ctx, batch)
}
