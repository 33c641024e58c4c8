package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/partsflow/demandcast/internal/scheduler"
	"github.com/partsflow/demandcast/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Start the scheduler or inspect its jobs.

Registered jobs:
  demand_forecast - daily at 6:00 AM (full pipeline run)
  market_ingest   - hourly (news feed ingestion)

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run one job immediately
  status  - show job execution stats

Example:
  go run ./cmd/demandcast scheduler start
  go run ./cmd/demandcast scheduler run demand_forecast`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job execution stats",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// buildScheduler wires the scheduler with both jobs over a shared app.
func buildScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	forecastJob := jobs.NewForecastJob(
		a.orchestrator, a.runs, a.forecasts, a.alerts,
		a.cfg.Pipeline.ProductCodes, a.log,
	)
	if err := sched.AddJob(forecastJob); err != nil {
		return nil, fmt.Errorf("add forecast job: %w", err)
	}

	ingestJob := jobs.NewIngestJob(a.ingestor, a.log)
	if err := sched.AddJob(ingestJob); err != nil {
		return nil, fmt.Errorf("add ingest job: %w", err)
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := buildScheduler(a)
	if err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	a.log.Info("Scheduler started")
	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := buildScheduler(a)
	if err != nil {
		return err
	}

	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	forecastJob := jobs.NewForecastJob(
		a.orchestrator, a.runs, a.forecasts, a.alerts,
		a.cfg.Pipeline.ProductCodes, a.log,
	)
	ingestJob := jobs.NewIngestJob(a.ingestor, a.log)

	available := map[string]scheduler.Job{
		forecastJob.Name(): forecastJob,
		ingestJob.Name():   ingestJob,
	}

	jobName := args[0]
	job, ok := available[jobName]
	if !ok {
		return fmt.Errorf("job %s not found", jobName)
	}

	fmt.Printf("Running job %s...\n", jobName)
	if err := job.Run(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Job completed")
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := buildScheduler(a)
	if err != nil {
		return err
	}

	stats := sched.GetJobStats()
	if len(stats) == 0 {
		fmt.Println("No job history yet")
		return nil
	}

	for name, s := range stats {
		fmt.Printf("%s (schedule %q): %d runs, %.0f%% success\n",
			name, s.Schedule, s.TotalRuns, s.SuccessRate*100)
	}
	return nil
}
