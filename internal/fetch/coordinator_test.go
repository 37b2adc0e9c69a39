package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// fakeFetcher returns one valid quote per code unless the batch is rigged to fail
type fakeFetcher struct {
	mu       sync.Mutex
	failOn   map[string]bool // first code of batch -> fail
	slowOn   map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) FetchQuotes(ctx context.Context, codes []string) ([]contracts.Quote, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	fail, slow := f.failOn[codes[0]], f.slowOn[codes[0]]
	f.mu.Unlock()

	if slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	time.Sleep(2 * time.Millisecond)
	if fail {
		return nil, errors.New("transport error")
	}

	out := make([]contracts.Quote, 0, len(codes))
	for _, c := range codes {
		out = append(out, contracts.Quote{Code: c, Price: 10, PrevClose: 9.8})
	}
	// a halted record must never leak through
	out = append(out, contracts.Quote{Code: "halted", Price: 0, PrevClose: 9})
	return out, nil
}

func codes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%06d", i)
	}
	return out
}

func TestFetchAll_PartialSuccessIsSuccess(t *testing.T) {
	f := &fakeFetcher{failOn: map[string]bool{"000010": true}, slowOn: map[string]bool{"000020": true}}
	c := NewCoordinator(f, Config{BatchSize: 10, Concurrency: 3, CallTimeout: 50 * time.Millisecond}, logger.Nop())

	result, err := c.FetchAll(context.Background(), codes(35))
	require.NoError(t, err)

	assert.Equal(t, 4, result.BatchesAttempted)
	assert.Equal(t, 2, result.BatchesSucceeded)
	assert.Len(t, result.Quotes, 15)
	assert.Equal(t, "000000", result.Quotes[0].Code, "batch order is preserved")
	for _, q := range result.Quotes {
		assert.True(t, q.Valid())
	}
}

func TestFetchAll_BoundedConcurrency(t *testing.T) {
	f := &fakeFetcher{}
	c := NewCoordinator(f, Config{BatchSize: 1, Concurrency: 4}, logger.Nop())

	_, err := c.FetchAll(context.Background(), codes(40))
	require.NoError(t, err)
	assert.LessOrEqual(t, f.peak.Load(), int32(4))
}

func TestFetchAll_NoData(t *testing.T) {
	f := &fakeFetcher{failOn: map[string]bool{"000000": true}}
	c := NewCoordinator(f, Config{BatchSize: 10, Concurrency: 2}, logger.Nop())

	result, err := c.FetchAll(context.Background(), codes(5))
	assert.ErrorIs(t, err, contracts.ErrNoData)
	assert.Equal(t, 1, result.BatchesAttempted)
	assert.Zero(t, result.BatchesSucceeded)
}
