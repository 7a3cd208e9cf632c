package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/scheduler"
	"github.com/wonny/demandprep/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 재처리 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/demandprep scheduler start
  go run ./cmd/demandprep scheduler run reprocess_weekly`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- reprocess_{REPROCESS_MODE}: SCHEDULE_REPROCESS (기본 매일 03:00) DATA_RAW_DIR 재처리

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandprep Scheduler ===")

	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	fmt.Println("Registered jobs:")
	for name, stat := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)\n", name, stat.Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	res, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !res.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %s", jobName, res.Attempts, res.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, res.Duration))
	return nil
}

func initScheduler() (*scheduler.Scheduler, *app, error) {
	a, err := newApp(context.Background())
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	job := jobs.NewReprocessJob(a.orch, a.cfg.Paths.RawDir, contracts.Mode(a.cfg.ReprocessMode), a.cfg.ReprocessSchedule, a.log)
	if err := sched.AddJob(job); err != nil {
		a.Close()
		return nil, nil, err
	}

	return sched, a, nil
}
