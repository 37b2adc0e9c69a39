package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-t1/backend/internal/scheduler"
	"github.com/wonny/aegis-t1/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "定时选股",
	Long: `在尾盘时段定时执行选股，配置 Kafka 时发布结果。

Subcommands:
  start   - 启动调度器 (默认 $SCHEDULE_SPEC: 0 40,50 14 * * MON-FRI)
  run     - 立即执行一次定时任务 (含发布)
  next    - 显示下一次执行时间

Example:
  go run ./cmd/t1 scheduler start
  go run ./cmd/t1 scheduler run`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "启动调度器",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run",
		Short: "立即执行一次",
		RunE:  runScreeningOnce,
	}

	schedulerNextCmd = &cobra.Command{
		Use:   "next",
		Short: "下一次执行时间",
		RunE:  showNextRun,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerNextCmd)
}

// newScheduler builds the scheduler with the screening job registered
func newScheduler(d *deps) (*scheduler.Scheduler, *jobs.ScreeningJob, error) {
	sched := scheduler.New(scheduler.Options{
		Location:   d.strategy.Meta.Location(),
		MaxRetries: d.cfg.Scheduler.MaxRetries,
		RetryDelay: d.cfg.Scheduler.RetryDelay,
		RunTimeout: d.cfg.Scheduler.RunTimeout,
	}, d.log)

	job := jobs.NewScreeningJob(d.pipeline, d.publisher, d.cfg.Scheduler.Spec, d.log)
	if err := sched.AddJob(job); err != nil {
		return nil, nil, err
	}
	return sched, job, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis T1 Scheduler ===")

	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	sched, job, err := newScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	if next, err := sched.NextRun(job.Name()); err == nil {
		fmt.Printf("  - %s (%s), next run %s\n", job.Name(), job.Schedule(), next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	for name, stat := range sched.GetJobStats() {
		fmt.Printf("📊 %s: %d runs, %d failures, last run %s picks %v\n",
			name, stat.TotalRuns, stat.FailureCount, stat.LastRunID, stat.LastPicks)
	}
	fmt.Println("Scheduler stopped")

	return nil
}

func runScreeningOnce(cmd *cobra.Command, args []string) error {
	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	job := jobs.NewScreeningJob(d.pipeline, d.publisher, d.cfg.Scheduler.Spec, d.log)

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Scheduler.RunTimeout)
	defer cancel()

	result, err := job.Run(ctx)
	if result != nil {
		PrintResult(result)
	}
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	return nil
}

func showNextRun(cmd *cobra.Command, args []string) error {
	d, err := loadDeps(screenOptions())
	if err != nil {
		return err
	}
	defer d.Close()

	sched, job, err := newScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	next, err := sched.NextRun(job.Name())
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %s\n", job.Name(), job.Schedule(), next.Format("2006-01-02 15:04:05 MST"))
	return nil
}
