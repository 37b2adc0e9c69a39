package pipeline

import (
	"context"
	"time"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/signals"
	"github.com/wonny/aegis-t1/backend/internal/universe"
)

// analyze gathers per-candidate data and derives every indicator.
// Each fetch has its own timeout; a failed fetch leaves the neutral value.
func (p *Pipeline) analyze(ctx context.Context, q contracts.Quote, markets *marketMemo) *contracts.Candidate {
	seg := universe.SegmentOf(q.Code)
	c := contracts.NewCandidate(q, seg, p.tagger.Tags(q.Name))
	log := p.logger.WithFields(map[string]interface{}{
		"stage": contracts.StageAnalyze.String(),
		"code":  q.Code,
	})

	if candles, err := callWithTimeout(ctx, p.cfg.CallTimeout, func(ctx context.Context) ([]contracts.Candle, error) {
		return p.providers.Candles.FetchDailyCandles(ctx, q.Code, p.strategy.Technical.LookbackDays)
	}); err != nil {
		log.WithError(err).Warn("Daily candles unavailable")
	} else {
		c.Candles = candles
	}

	if window, err := callWithTimeout(ctx, p.cfg.CallTimeout, func(ctx context.Context) (contracts.MinuteWindow, error) {
		return p.providers.Minutes.FetchMinuteBars(ctx, q.Code)
	}); err != nil {
		log.WithError(err).Warn("Minute bars unavailable")
	} else {
		c.Minutes = window
	}

	c.News = p.checkNews(ctx, q)
	c.Market = markets.get(ctx, universe.ReferenceIndex(seg))

	p.intraday.Analyze(c)
	c.Upside = signals.Upside(q, seg)
	c.Technical = p.technical.Calculate(q.Code, c.Candles)
	c.Pattern = p.pattern.Detect(c.Candles, q.Price)

	return c
}

// checkNews classifies announcements plus, when enabled, external news.
// The check counts as done if either source answered.
func (p *Pipeline) checkNews(ctx context.Context, q contracts.Quote) contracts.NewsCheck {
	var items []contracts.Announcement
	answered := false

	anns, err := callWithTimeout(ctx, p.cfg.CallTimeout, func(ctx context.Context) ([]contracts.Announcement, error) {
		return p.providers.Announcements.FetchAnnouncements(ctx, q.Code, p.strategy.Scoring.News.Days)
	})
	if err != nil {
		p.logger.WithError(err).WithField("code", q.Code).Warn("Announcements unavailable")
	} else {
		items = append(items, anns...)
		answered = true
	}

	if p.opts.EnableNewsSearch && p.providers.News != nil {
		news, err := callWithTimeout(ctx, p.cfg.CallTimeout, func(ctx context.Context) ([]contracts.Announcement, error) {
			return p.providers.News.SearchNews(ctx, q.Name)
		})
		if err != nil {
			p.logger.WithError(err).WithField("code", q.Code).Warn("News search unavailable")
		} else {
			items = append(items, news...)
			answered = true
		}
	}

	if !answered {
		return contracts.NewsCheck{}
	}
	return p.news.Check(items)
}

// callWithTimeout bounds one collaborator call independently of the run
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}
