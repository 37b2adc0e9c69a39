package scheduler

import (
	"context"
	"time"

	"github.com/wonny/aegis-t1/backend/internal/contracts"
)

// Job is one scheduled screening task
// ⭐ SSOT: 定时任务接口只在这里定义
type Job interface {
	Name() string

	// Schedule is a cron spec with seconds, e.g. "0 40,50 14 * * MON-FRI"
	Schedule() string

	// Run performs one screening run. A non-nil result with an error means
	// the run finished but a downstream step (publish) failed.
	Run(ctx context.Context) (*contracts.ScreenResult, error)
}

// RunRecord is one scheduled execution, retries included
type RunRecord struct {
	JobName    string        `json:"job_name"`
	RunID      string        `json:"run_id,omitempty"`
	ConfigHash string        `json:"config_hash,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Attempts   int           `json:"attempts"`
	Qualified  int           `json:"qualified"`
	FinalPicks []string      `json:"final_picks,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Success reports whether the last attempt returned no error
func (r RunRecord) Success() bool {
	return r.Error == ""
}

// capture copies the identifying parts of the last attempt
func (r *RunRecord) capture(result *contracts.ScreenResult, err error) {
	if err != nil {
		r.Error = err.Error()
	}
	if result == nil {
		return
	}
	r.RunID = result.RunID
	r.ConfigHash = result.ConfigHash
	r.Qualified = result.Stats.Qualified
	r.FinalPicks = make([]string, len(result.FinalPicks))
	for i, p := range result.FinalPicks {
		r.FinalPicks[i] = p.Code
	}
}

// maxHistory bounds the retained records per job
const maxHistory = 100

// runLog is a bounded per-job record list, oldest first.
// Guarded by the owning Scheduler.
type runLog struct {
	records []RunRecord
}

func (l *runLog) add(r RunRecord) {
	l.records = append(l.records, r)
	if len(l.records) > maxHistory {
		l.records = l.records[len(l.records)-maxHistory:]
	}
}

func (l *runLog) snapshot() []RunRecord {
	return append([]RunRecord(nil), l.records...)
}

func (l *runLog) last() (RunRecord, bool) {
	if len(l.records) == 0 {
		return RunRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

// lastWhere returns the start of the newest record matching ok
func (l *runLog) lastWhere(ok func(RunRecord) bool) *time.Time {
	for i := len(l.records) - 1; i >= 0; i-- {
		if ok(l.records[i]) {
			t := l.records[i].StartedAt
			return &t
		}
	}
	return nil
}

func (l *runLog) failures() int {
	n := 0
	for _, r := range l.records {
		if !r.Success() {
			n++
		}
	}
	return n
}

// JobStats summarizes the retained records of one job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"` // 0..1
	LastRunID    string     `json:"last_run_id,omitempty"`
	LastPicks    []string   `json:"last_picks,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

func (l *runLog) stats(job Job) JobStats {
	st := JobStats{
		JobName:      job.Name(),
		Schedule:     job.Schedule(),
		TotalRuns:    len(l.records),
		FailureCount: l.failures(),
		LastSuccess:  l.lastWhere(RunRecord.Success),
		LastFailure:  l.lastWhere(func(r RunRecord) bool { return !r.Success() }),
	}
	if st.TotalRuns > 0 {
		st.SuccessRate = float64(st.TotalRuns-st.FailureCount) / float64(st.TotalRuns)
	}
	if last, ok := l.last(); ok {
		st.LastRunID = last.RunID
		st.LastPicks = last.FinalPicks
	}
	return st
}
