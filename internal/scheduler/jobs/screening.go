package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// Runner executes one screening run
type Runner interface {
	Run(ctx context.Context) (*contracts.ScreenResult, error)
}

// ScreeningJob runs the tail-session screen and publishes the result
// ⭐ SSOT: 尾盘定时选股任务
type ScreeningJob struct {
	runner    Runner
	publisher contracts.ResultPublisher
	schedule  string
	logger    *logger.Logger

	mu     sync.RWMutex
	latest *contracts.ScreenResult
}

// NewScreeningJob creates a new screening job
func NewScreeningJob(runner Runner, publisher contracts.ResultPublisher, schedule string, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		runner:    runner,
		publisher: publisher,
		schedule:  schedule,
		logger:    log.WithComponent("screening_job"),
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "tail_screening"
}

// Schedule returns the cron schedule
func (j *ScreeningJob) Schedule() string {
	return j.schedule
}

// Run executes the screen. A publish failure does not discard the result:
// it is kept as Latest and returned along with the error.
func (j *ScreeningJob) Run(ctx context.Context) (*contracts.ScreenResult, error) {
	result, err := j.runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("screening run: %w", err)
	}

	j.mu.Lock()
	j.latest = result
	j.mu.Unlock()

	j.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"config_hash": result.ConfigHash,
		"candidates":  len(result.Candidates),
		"final_picks": len(result.FinalPicks),
	}).Info("Screening job finished")

	if j.publisher == nil {
		return result, nil
	}
	if err := j.publisher.Publish(ctx, result); err != nil {
		return result, fmt.Errorf("publish result %s: %w", result.RunID, err)
	}
	return result, nil
}

// Latest returns the most recent successful result, or nil
func (j *ScreeningJob) Latest() *contracts.ScreenResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.latest
}
