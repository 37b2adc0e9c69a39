package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/internal/fetch"
	"github.com/wonny/aegis-t1/backend/internal/selection"
	"github.com/wonny/aegis-t1/backend/internal/strategyconfig"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// fakeMarket serves every collaborator from memory
type fakeMarket struct {
	mu          sync.Mutex
	quotes      map[string]contracts.Quote
	quoteErr    error
	candles     []contracts.Candle
	byCode      map[string][]contracts.Candle
	minutes     contracts.MinuteWindow
	blockMinute bool
	annErr      error
	news        []contracts.Announcement
	indexCalls  map[string]int
	onCandles   func()
}

func (f *fakeMarket) FetchQuotes(ctx context.Context, codes []string) ([]contracts.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	var out []contracts.Quote
	for _, code := range codes {
		if q, ok := f.quotes[code]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeMarket) FetchDailyCandles(ctx context.Context, code string, lookbackDays int) ([]contracts.Candle, error) {
	if f.onCandles != nil {
		f.onCandles()
		return nil, ctx.Err()
	}
	if c, ok := f.byCode[code]; ok {
		return c, nil
	}
	return f.candles, nil
}

func (f *fakeMarket) FetchIndexCandles(ctx context.Context, indexCode string, lookbackDays int) ([]contracts.Candle, error) {
	f.mu.Lock()
	f.indexCalls[indexCode]++
	f.mu.Unlock()
	return series(10, 3000, 10, 1e8), nil
}

func (f *fakeMarket) FetchMinuteBars(ctx context.Context, code string) (contracts.MinuteWindow, error) {
	if f.blockMinute {
		<-ctx.Done()
		return contracts.MinuteWindow{}, ctx.Err()
	}
	return f.minutes, nil
}

func (f *fakeMarket) FetchAnnouncements(ctx context.Context, code string, days int) ([]contracts.Announcement, error) {
	return nil, f.annErr
}

func (f *fakeMarket) SearchNews(ctx context.Context, query string) ([]contracts.Announcement, error) {
	return f.news, nil
}

func series(n int, from, step, volume float64) []contracts.Candle {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	out := make([]contracts.Candle, n)
	for i := range out {
		c := from + step*float64(i)
		out[i] = contracts.Candle{Date: start.AddDate(0, 0, i), Open: c, Close: c, High: c + 1, Low: c - 1, Volume: volume}
	}
	return out
}

func tailBars() contracts.MinuteWindow {
	var bars []contracts.MinuteBar
	for i := 0; i < 30; i++ {
		price, vol := 10.00, 30.0
		if i >= 20 {
			price, vol = 10.08, 40
		}
		bars = append(bars, contracts.MinuteBar{Clock: fmt.Sprintf("14:%02d", 15+i), Price: price, Volume: vol})
	}
	return contracts.MinuteWindow{Bars: bars}
}

func newFakeMarket() *fakeMarket {
	q := func(code, name string, change float64) contracts.Quote {
		return contracts.Quote{
			Code:         code,
			Name:         name,
			Price:        10.40,
			PrevClose:    10.00,
			High:         10.50,
			ChangePct:    change,
			TurnoverRate: 5,
			VolumeRatio:  2,
			FloatCap:     100e8,
		}
	}
	return &fakeMarket{
		quotes: map[string]contracts.Quote{
			"600001": q("600001", "样本科技", 4),
			"600002": q("600002", "ST样本", 4),
			"000001": q("000001", "样本银行", 9),
			"300001": q("300001", "样本创业", 4),
		},
		candles:    series(30, 10, 0, 1000),
		minutes:    tailBars(),
		news:       []contracts.Announcement{{Title: "样本科技收到立案调查通知"}},
		indexCalls: map[string]int{},
	}
}

func newPipeline(f *fakeMarket, opts Options) *Pipeline {
	providers := Providers{
		Quotes:        f,
		Candles:       f,
		Indices:       f,
		Minutes:       f,
		Announcements: f,
		News:          f,
	}
	cfg := Config{
		Fetch:       fetch.Config{BatchSize: 2, Concurrency: 2, CallTimeout: time.Second},
		CallTimeout: 50 * time.Millisecond,
	}
	clock := func() time.Time {
		return time.Date(2026, 3, 10, 14, 45, 0, 0, time.FixedZone("CST", 8*3600))
	}
	return New(providers, strategyconfig.Default(), opts, cfg, logger.Nop()).
		WithUniverse([]string{"600001", "600002", "000001", "300001"}).
		WithClock(clock)
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFakeMarket()

	result, err := newPipeline(f, Options{StrictRiskControl: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Stats.UniverseSize)
	assert.Equal(t, 2, result.Stats.BatchesAttempted)
	assert.Equal(t, 2, result.Stats.BatchesSucceeded)
	assert.Equal(t, 4, result.Stats.Quotes)
	assert.Equal(t, 1, result.Stats.Filtered)
	assert.Equal(t, 1, result.Stats.Analyzed)
	assert.Equal(t, 60, result.Threshold)
	assert.Equal(t, 1.0, result.TailWeight)
	assert.Equal(t, "sh000001", result.Market.IndexCode)
	assert.NotEmpty(t, result.ConfigHash)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)

	require.Len(t, result.FinalPicks, 1)
	pick := result.FinalPicks[0]
	assert.Equal(t, "600001", pick.Code)
	assert.Equal(t, contracts.SourceRanked, pick.Source)
	assert.Equal(t, 135, pick.Score)
	assert.Equal(t, contracts.TrendStrongUp, pick.TailTrend.Trend)
	assert.Equal(t, contracts.RiskLow, pick.Risk)
	require.NotNil(t, pick.Plan)
	assert.Equal(t, 10.14, pick.Plan.StopLoss)

	// 同一指数只拉取一次
	assert.Equal(t, 1, f.indexCalls["sh000001"])
}

func TestRun_NewsSearchToggle(t *testing.T) {
	f := newFakeMarket()

	off, err := newPipeline(f, Options{}).Run(context.Background())
	require.NoError(t, err)
	on, err := newPipeline(f, Options{EnableNewsSearch: true}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, off.Candidates, 1)
	require.Len(t, on.Candidates, 1)
	// 无负面 +10 被重大负面 -45 取代
	assert.Equal(t, off.Candidates[0].Score-55, on.Candidates[0].Score)
	assert.Contains(t, on.Candidates[0].Warnings[0], "重大负面")
}

func TestRun_CancelledRunFailsWhole(t *testing.T) {
	f := newFakeMarket()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.onCandles = cancel

	result, err := newPipeline(f, Options{}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestRun_DegradesOnCollaboratorFailure(t *testing.T) {
	f := newFakeMarket()
	f.blockMinute = true
	f.annErr = errors.New("announcement service down")

	result, err := newPipeline(f, Options{}).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, result.Stats.Analyzed)
	var warnings []string
	for _, c := range result.Candidates {
		warnings = append(warnings, c.Warnings...)
	}
	for _, c := range result.FinalPicks {
		warnings = append(warnings, c.Warnings...)
	}
	assert.Contains(t, warnings, "分时数据不可用")
	assert.Contains(t, warnings, "公告数据不可用")
}

func TestRun_NoData(t *testing.T) {
	f := newFakeMarket()
	f.quoteErr = errors.New("upstream down")

	_, err := newPipeline(f, Options{}).Run(context.Background())
	assert.ErrorIs(t, err, contracts.ErrNoData)
}

func TestFilter(t *testing.T) {
	f := newFakeMarket()

	result, err := newPipeline(f, Options{IncludeHighVolatilitySegments: true}).Filter(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Passed, 2)
	assert.Equal(t, 1, result.Filtered["risk_warning"])
	assert.Equal(t, 1, result.Filtered["change_pct"])
}

func TestFilter_CriteriaOverrides(t *testing.T) {
	f := newFakeMarket()
	changeMax := 10.0
	p := newPipeline(f, Options{IncludeHighVolatilitySegments: true}).
		WithCriteria(selection.Overrides{ChangePctMax: &changeMax})

	result, err := p.Filter(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Passed, 3)
	assert.Zero(t, result.Filtered["change_pct"])
	require.NotNil(t, result.Criteria.ChangePctMax)
	assert.Equal(t, 10.0, *result.Criteria.ChangePctMax)
}

func TestMarkets(t *testing.T) {
	f := newFakeMarket()

	envs := newPipeline(f, Options{}).Markets(context.Background())

	require.Len(t, envs, 3)
	assert.Equal(t, "sh000001", envs[0].IndexCode)
	assert.Equal(t, "sz399001", envs[1].IndexCode)
	assert.Equal(t, "sz399006", envs[2].IndexCode)
	for _, env := range envs {
		assert.Equal(t, contracts.SentimentPositive, env.Sentiment)
	}
}

func TestWithOptions_DoesNotMutate(t *testing.T) {
	p := newPipeline(newFakeMarket(), Options{})
	cp := p.WithOptions(Options{StrictRiskControl: true})

	assert.False(t, p.Options().StrictRiskControl)
	assert.True(t, cp.Options().StrictRiskControl)
}
