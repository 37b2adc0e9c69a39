package commands

import (
	"fmt"
	"time"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/external/eastmoney"
	"github.com/wonny/aegis-t1/backend/internal/external/sina"
	"github.com/wonny/aegis-t1/backend/internal/external/tencent"
	"github.com/wonny/aegis-t1/backend/internal/fetch"
	"github.com/wonny/aegis-t1/backend/internal/notify"
	"github.com/wonny/aegis-t1/backend/internal/pipeline"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/config"
	"github.com/wonny/aegis-t1/backend/pkg/httputil"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
	"github.com/wonny/aegis-t1/backend/pkg/redis"
)

// deps holds everything a command needs
type deps struct {
	cfg       *config.Config
	log       *logger.Logger
	strategy  *strategyconfig.Config
	eastmoney *eastmoney.Client
	sina      *sina.Client
	tencent   *tencent.Client
	pipeline  *pipeline.Pipeline
	publisher contracts.ResultPublisher
	redis     *redis.Client
}

// Close releases connections held by deps
func (d *deps) Close() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			d.log.WithError(err).Warn("Failed to close publisher")
		}
	}
	if d.redis != nil {
		d.redis.Close()
	}
}

// loadDeps wires config, logger, providers and the pipeline
// ⭐ SSOT: 依赖装配只在这里
func loadDeps(opts pipeline.Options) (*deps, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyPath = strategyFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy
	strategy := strategyconfig.Default()
	if cfg.StrategyPath != "" {
		strategy, _, err = strategyconfig.Load(cfg.StrategyPath)
		if err != nil {
			return nil, fmt.Errorf("load strategy: %w", err)
		}
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	// 4. Connect to Redis (optional, shared rate limit)
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Create external API clients, one HTTP client per provider
	newHTTP := func(provider string) *httputil.Client {
		c := httputil.NewWithTimeout(cfg, log.WithField("provider", provider), cfg.Fetch.CallTimeout)
		if rdb.Enabled() {
			limit := int(cfg.Fetch.RatePerSec)
			if limit < 1 {
				limit = 1
			}
			c.WithRateLimiter(redis.NewRateLimiter(rdb), redis.RateLimitConfig{
				Key:    provider,
				Limit:  limit,
				Window: time.Second,
			})
		}
		return c
	}
	em := eastmoney.NewClient(newHTTP("eastmoney"), cfg.Eastmoney, log)
	sn := sina.NewClient(newHTTP("sina"), cfg.Sina, log)
	tc := tencent.NewClient(newHTTP("tencent"), cfg.Tencent, log)

	// 6. Create pipeline
	providers := pipeline.Providers{
		Quotes:        em,
		Candles:       em,
		Indices:       em,
		Minutes:       tc,
		Announcements: em,
		News:          sn,
	}
	pcfg := pipeline.Config{
		Fetch: fetch.Config{
			BatchSize:   cfg.Fetch.BatchSize,
			Concurrency: cfg.Fetch.Concurrency,
			CallTimeout: cfg.Fetch.CallTimeout,
		},
		CallTimeout: cfg.Fetch.CallTimeout,
	}
	p := pipeline.New(providers, strategy, opts, pcfg, log)

	// 7. Result sink
	pub := notify.New(cfg.Kafka, log)

	return &deps{
		cfg:       cfg,
		log:       log,
		strategy:  strategy,
		eastmoney: em,
		sina:      sn,
		tencent:   tc,
		pipeline:  p,
		publisher: pub,
		redis:     rdb,
	}, nil
}
