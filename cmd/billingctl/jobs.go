package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/api"
	"github.com/sagility/billingctl/internal/dashboard"
	"github.com/sagility/billingctl/internal/schemas"
	"github.com/sagility/billingctl/internal/types"
	"github.com/spf13/cobra"
)

var jobsCommand = &cobra.Command{
	Use:   "jobs",
	Short: "Manage agent jobs (the newer surface)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var jobsListCommand = &cobra.Command{
	Use:   "list",
	Short: "List all jobs with aggregate counts",
	RunE:  runJobsList,
}

var jobsCreateCommand = &cobra.Command{
	Use:   "create",
	Short: "Create a job from a credentials CSV and two portal URLs",
	RunE:  runJobsCreate,
}

var jobsRunCommand = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Start the agent for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRun,
}

var jobsStopCommand = &cobra.Command{
	Use:   "stop <job-id>",
	Short: "Stop a running job (starts the 30-minute run cooldown)",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStop,
}

var jobsDeleteCommand = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and all its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsDelete,
}

var jobsDetailsCommand = &cobra.Command{
	Use:   "details <job-id>",
	Short: "Show a job and its full output listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsDetails,
}

var jobsCredentialsCommand = &cobra.Command{
	Use:   "credentials <job-id>",
	Short: "Show where the job's source CSV can be fetched",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCredentialsFile,
}

var jobsWatchCommand = &cobra.Command{
	Use:   "watch",
	Short: "Poll running jobs until they all reach a terminal state",
	RunE:  runJobsWatch,
}

var (
	jobsCSVPath      string
	jobsLoginURL     string
	jobsBillingURL   string
	jobsSchedulePath string
	jobsDeleteYes    bool
)

func init() {
	jobsCreateCommand.Flags().StringVar(&jobsCSVPath, "csv", "", "Path to the credentials CSV file")
	jobsCreateCommand.Flags().StringVar(&jobsLoginURL, "login-url", "", "Utility portal login URL")
	jobsCreateCommand.Flags().StringVar(&jobsBillingURL, "billing-url", "", "Utility portal billing URL")
	jobsCreateCommand.Flags().StringVar(&jobsSchedulePath, "schedule", "", "Path to a schedule config JSON file (optional)")
	jobsDeleteCommand.Flags().BoolVarP(&jobsDeleteYes, "yes", "y", false, "Skip the confirmation prompt")

	jobsCommand.AddCommand(jobsListCommand, jobsCreateCommand, jobsRunCommand,
		jobsStopCommand, jobsDeleteCommand, jobsDetailsCommand,
		jobsCredentialsCommand, jobsWatchCommand)
	rootCmd.AddCommand(jobsCommand)
}

// jobsDashboard builds the view-model after the auth guard.
func jobsDashboard() (*app, *dashboard.Dashboard, error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}
	if err := a.requireAuth(); err != nil {
		return nil, nil, err
	}
	return a, dashboard.New(a.client, a.cooldowns), nil
}

func parseJobID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %w", arg, err)
	}
	return id, nil
}

func runJobsList(_ *cobra.Command, _ []string) error {
	_, dash, err := jobsDashboard()
	if err != nil {
		return err
	}
	if err := dash.Refresh(context.Background()); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load jobs"))
	}
	renderCounts(dash.Counts())
	return renderJobs(dash.Jobs())
}

// loadSchedule reads and validates a schedule config file into the request.
func loadSchedule(path string, req *types.CreateJobRequest) error {
	if err := schemas.ValidateScheduleConfigFile(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc struct {
		ScheduleType types.ScheduleType `json:"schedule_type"`
		types.ScheduleConfig
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse schedule config: %w", err)
	}
	req.IsScheduled = true
	req.ScheduleType = doc.ScheduleType
	req.ScheduleConfig = &types.ScheduleConfig{
		DayOfWeek:      doc.DayOfWeek,
		Hour:           doc.Hour,
		Minute:         doc.Minute,
		CronExpression: doc.CronExpression,
	}
	return nil
}

func runJobsCreate(_ *cobra.Command, _ []string) error {
	_, dash, err := jobsDashboard()
	if err != nil {
		return err
	}

	req := types.CreateJobRequest{
		CSVPath:    jobsCSVPath,
		LoginURL:   jobsLoginURL,
		BillingURL: jobsBillingURL,
	}
	if jobsSchedulePath != "" {
		if err := loadSchedule(jobsSchedulePath, &req); err != nil {
			return err
		}
	}

	job, err := dash.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to create job"))
	}
	pterm.Success.Printfln("Created job %s", job.ID)
	return nil
}

func runJobsRun(_ *cobra.Command, args []string) error {
	_, dash, err := jobsDashboard()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	job, err := dash.Run(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to run job"))
	}
	pterm.Success.Printfln("Job %s is now %s", shortID(job.ID), job.Status)
	return nil
}

func runJobsStop(_ *cobra.Command, args []string) error {
	a, dash, err := jobsDashboard()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	job, err := dash.Stop(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to stop job"))
	}
	pterm.Success.Printfln("Job %s is now %s", shortID(job.ID), job.Status)
	pterm.Printfln("Run is disabled for %s", a.cooldowns.Remaining(jobID).Round(time.Second))
	return nil
}

func runJobsDelete(_ *cobra.Command, args []string) error {
	_, dash, err := jobsDashboard()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	if !confirm(jobsDeleteYes, "Delete this job and all its results? This cannot be undone.") {
		return nil
	}
	if err := dash.Refresh(context.Background()); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load jobs"))
	}
	if err := dash.Delete(context.Background(), jobID); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to delete job"))
	}
	pterm.Success.Printfln("Deleted job %s", shortID(jobID))
	return nil
}

func runJobsDetails(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	detail, err := a.client.GetJobDetails(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load job details"))
	}
	pterm.Printfln("Job %s  %s  results %d", shortID(detail.ID), statusBadge(detail.Status), detail.ResultsCount)
	return renderResults(detail)
}

func runJobsCredentialsFile(_ *cobra.Command, args []string) error {
	_, dash, err := jobsDashboard()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	f, err := dash.CredentialsFile(context.Background(), jobID)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("no credentials file found for this job")
		}
		return fmt.Errorf("%s", api.Detail(err, "Failed to load credentials file"))
	}
	pterm.Printfln("%s\t%s", f.Filename, f.CSVURL)
	return nil
}

func runJobsWatch(_ *cobra.Command, _ []string) error {
	_, dash, err := jobsDashboard()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := dash.Refresh(ctx); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load jobs"))
	}
	if dash.Counts().Running == 0 {
		pterm.Println("No running jobs to watch.")
		return nil
	}

	pterm.Println("Watching running jobs (Ctrl+C to stop)...")
	err = dash.Watch(ctx, dashboard.PollInterval, func() {
		c := dash.Counts()
		pterm.Printfln("running %d  completed %d  failed %d", c.Running, c.Completed, c.Failed)
	})
	if err != nil {
		if ctx.Err() != nil {
			pterm.Println("Stopped watching.")
			return renderJobs(dash.Jobs())
		}
		return err
	}
	pterm.Success.Println("Done, no jobs running.")
	return renderJobs(dash.Jobs())
}
