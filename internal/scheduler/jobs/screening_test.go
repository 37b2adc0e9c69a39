package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

type fakeRunner struct {
	result *contracts.ScreenResult
	err    error
}

func (r *fakeRunner) Run(ctx context.Context) (*contracts.ScreenResult, error) {
	return r.result, r.err
}

type fakePublisher struct {
	published []*contracts.ScreenResult
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, result *contracts.ScreenResult) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, result)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func sampleResult() *contracts.ScreenResult {
	return &contracts.ScreenResult{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 10, 14, 50, 0, 0, time.UTC),
		StrategyID:  "t1-tail",
		FinalPicks:  []contracts.CandidateSummary{{Code: "600001", Score: 88}},
	}
}

func TestScreeningJob_Run(t *testing.T) {
	pub := &fakePublisher{}
	job := NewScreeningJob(&fakeRunner{result: sampleResult()}, pub, "0 50 14 * * MON-FRI", logger.Nop())

	assert.Equal(t, "tail_screening", job.Name())
	assert.Equal(t, "0 50 14 * * MON-FRI", job.Schedule())
	assert.Nil(t, job.Latest())

	result, err := job.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	assert.Same(t, result, pub.published[0])
	require.NotNil(t, job.Latest())
	assert.Equal(t, "600001", job.Latest().FinalPicks[0].Code)
}

func TestScreeningJob_RunError(t *testing.T) {
	pub := &fakePublisher{}
	job := NewScreeningJob(&fakeRunner{err: errors.New("no data")}, pub, "@daily", logger.Nop())

	result, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "no data")
	assert.Empty(t, pub.published)
	assert.Nil(t, job.Latest())
}

func TestScreeningJob_PublishErrorKeepsResult(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	job := NewScreeningJob(&fakeRunner{result: sampleResult()}, pub, "@daily", logger.Nop())

	result, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-1")
	require.NotNil(t, result)
	assert.Same(t, result, job.Latest())
}

func TestScreeningJob_NilPublisher(t *testing.T) {
	job := NewScreeningJob(&fakeRunner{result: sampleResult()}, nil, "@daily", logger.Nop())
	_, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, job.Latest())
}
