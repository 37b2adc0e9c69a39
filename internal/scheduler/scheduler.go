package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
	"github.com/wonny/aegis-t1/backend/pkg/logger"
)

// Scheduler manages scheduled jobs
// ⭐ SSOT: 定时任务只由这个调度器管理
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*runLog
	mu      sync.RWMutex

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
	runTimeout time.Duration
}

// Options configures retries and the per-run deadline
type Options struct {
	Location   *time.Location
	MaxRetries int
	RetryDelay time.Duration
	RunTimeout time.Duration
}

// New creates a new scheduler. Cron specs carry a seconds field.
func New(opts Options, log *logger.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(opts.Location)),
		logger:     log.WithComponent("scheduler"),
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*runLog),
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		runTimeout: opts.RunTimeout,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()

	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = id
	s.history[jobName] = &runLog{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(s.entries[jobName])
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a specific job immediately (outside of schedule)
func (s *Scheduler) RunJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	go s.runJob(job)
	return nil
}

// NextRun returns the next scheduled time of a job
func (s *Scheduler) NextRun(jobName string) (time.Time, error) {
	s.mu.RLock()
	id, exists := s.entries[jobName]
	s.mu.RUnlock()

	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", jobName)
	}
	return s.cron.Entry(id).Next, nil
}

// runJob executes a job with retry logic and records the outcome
func (s *Scheduler) runJob(job Job) {
	log := s.logger.WithField("job", job.Name())
	rec := RunRecord{JobName: job.Name(), StartedAt: time.Now()}
	log.Info("Job started")

	var result *contracts.ScreenResult
	var err error
	for rec.Attempts = 1; ; rec.Attempts++ {
		result, err = s.attempt(job)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", rec.Attempts).Warn("Job execution failed")
		if rec.Attempts > s.maxRetries {
			break
		}
		time.Sleep(s.retryDelay)
	}
	rec.Duration = time.Since(rec.StartedAt)
	rec.capture(result, err)

	s.mu.Lock()
	if l, ok := s.history[job.Name()]; ok {
		l.add(rec)
	}
	s.mu.Unlock()

	fields := map[string]interface{}{
		"run_id":      rec.RunID,
		"attempts":    rec.Attempts,
		"final_picks": rec.FinalPicks,
		"duration_ms": rec.Duration.Milliseconds(),
	}
	if err != nil {
		log.WithError(err).WithFields(fields).Error("Job failed after all retries")
		return
	}
	log.WithFields(fields).Info("Job completed successfully")
}

// attempt bounds one run by the scheduler deadline
func (s *Scheduler) attempt(job Job) (*contracts.ScreenResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()
	return job.Run(ctx)
}

// History returns a copy of the retained records of a job, oldest first
func (s *Scheduler) History(jobName string) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}
	return l.snapshot(), nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all registered jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))
	for jobName, job := range s.jobs {
		stats[jobName] = s.history[jobName].stats(job)
	}
	return stats
}
