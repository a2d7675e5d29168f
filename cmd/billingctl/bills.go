package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/api"
	"github.com/sagility/billingctl/internal/bills"
	"github.com/sagility/billingctl/internal/types"
	"github.com/spf13/cobra"
)

var billsCommand = &cobra.Command{
	Use:   "bills",
	Short: "Browse and fetch the bill PDFs jobs produced",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var billsListCommand = &cobra.Command{
	Use:   "list",
	Short: "List jobs that produced output",
	RunE:  runBillsList,
}

var billsResultsCommand = &cobra.Command{
	Use:   "results <job-id>",
	Short: "List the results of one job",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsResults,
}

var billsDownloadCommand = &cobra.Command{
	Use:   "download <job-id>",
	Short: "Download one result's PDF, or all of them with --all",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsDownload,
}

var billsViewCommand = &cobra.Command{
	Use:   "view <job-id>",
	Short: "Fetch one result's PDF into a temp file for viewing",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsView,
}

var billsDeleteResultCommand = &cobra.Command{
	Use:   "delete-result <job-id>",
	Short: "Delete one result of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsDeleteResult,
}

var billsDeleteResultsCommand = &cobra.Command{
	Use:   "delete-results <job-id>",
	Short: "Delete every result of a job, keeping the job",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsDeleteResults,
}

var billsDeleteJobCommand = &cobra.Command{
	Use:   "delete-job <job-id>",
	Short: "Delete a job and all its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runBillsDeleteJob,
}

var billsDeleteAllCommand = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every job that produced output, in parallel",
	RunE:  runBillsDeleteAll,
}

var (
	billsOutDir   string
	billsResultID string
	billsAll      bool
	billsYes      bool
)

func init() {
	billsDownloadCommand.Flags().StringVarP(&billsOutDir, "out", "o", ".", "Directory to write PDFs into")
	billsDownloadCommand.Flags().StringVar(&billsResultID, "result", "", "Result ID to download")
	billsDownloadCommand.Flags().BoolVar(&billsAll, "all", false, "Download every result of the job")
	billsViewCommand.Flags().StringVar(&billsResultID, "result", "", "Result ID to view")
	billsDeleteResultCommand.Flags().StringVar(&billsResultID, "result", "", "Result ID to delete")
	for _, cmd := range []*cobra.Command{billsDeleteResultCommand, billsDeleteResultsCommand, billsDeleteJobCommand, billsDeleteAllCommand} {
		cmd.Flags().BoolVarP(&billsYes, "yes", "y", false, "Skip the confirmation prompt")
	}

	billsCommand.AddCommand(billsListCommand, billsResultsCommand, billsDownloadCommand,
		billsViewCommand, billsDeleteResultCommand, billsDeleteResultsCommand,
		billsDeleteJobCommand, billsDeleteAllCommand)
	rootCmd.AddCommand(billsCommand)
}

func billsView() (*bills.View, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	return bills.NewView(a.client, billsOutDir, nil), nil
}

// findResult resolves --result against a job's output listing. With exactly
// one result the flag may be omitted.
func findResult(ctx context.Context, view *bills.View, jobID uuid.UUID) (*types.JobResult, error) {
	detail, err := view.Results(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(detail.Output) == 0 {
		return nil, fmt.Errorf("job %s has no results", shortID(jobID))
	}
	if billsResultID == "" {
		if len(detail.Output) == 1 {
			return &detail.Output[0], nil
		}
		return nil, fmt.Errorf("job has %d results, pick one with --result", len(detail.Output))
	}
	resultID, err := uuid.Parse(billsResultID)
	if err != nil {
		return nil, fmt.Errorf("invalid result id %q: %w", billsResultID, err)
	}
	for i := range detail.Output {
		if detail.Output[i].ID == resultID {
			return &detail.Output[i], nil
		}
	}
	return nil, fmt.Errorf("result %s not found on job %s", shortID(resultID), shortID(jobID))
}

func runBillsList(_ *cobra.Command, _ []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	jobs, err := view.ListWithResults(context.Background())
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load jobs"))
	}
	if len(jobs) == 0 {
		pterm.Println("No jobs have produced output yet.")
		return nil
	}
	return renderJobs(jobs)
}

func runBillsResults(_ *cobra.Command, args []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	detail, err := view.Results(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load results"))
	}
	return renderResults(detail)
}

func runBillsDownload(_ *cobra.Command, args []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()

	if billsAll {
		detail, err := view.Results(ctx, jobID)
		if err != nil {
			return fmt.Errorf("%s", api.Detail(err, "Failed to load results"))
		}
		if len(detail.Output) == 0 {
			pterm.Println("No results to download.")
			return nil
		}
		for _, r := range detail.Output {
			path, err := view.Download(ctx, r)
			if err != nil {
				pterm.Warning.Printfln("Skipped %s: %s", shortID(r.ID), api.Detail(err, "download failed"))
				continue
			}
			pterm.Success.Printfln("Saved %s", path)
		}
		return nil
	}

	result, err := findResult(ctx, view, jobID)
	if err != nil {
		return err
	}
	path, err := view.Download(ctx, *result)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to download bill"))
	}
	pterm.Success.Printfln("Saved %s", path)
	return nil
}

func runBillsView(_ *cobra.Command, args []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	result, err := findResult(ctx, view, jobID)
	if err != nil {
		return err
	}
	path, err := view.Open(ctx, *result)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to fetch bill"))
	}
	pterm.Printfln("Bill written to %s", path)
	return nil
}

func runBillsDeleteResult(_ *cobra.Command, args []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	result, err := findResult(ctx, view, jobID)
	if err != nil {
		return err
	}
	if !confirm(billsYes, "Delete this result? This cannot be undone.") {
		return nil
	}
	resp, err := view.DeleteResult(ctx, jobID, result.ID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to delete result"))
	}
	pterm.Success.Println(resp.Message)
	return nil
}

func runBillsDeleteResults(_ *cobra.Command, args []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	if !confirm(billsYes, "Delete all results of this job? This cannot be undone.") {
		return nil
	}
	resp, err := view.DeleteAllResults(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to delete results"))
	}
	pterm.Success.Printfln("%s (%d deleted)", resp.Message, resp.DeletedCount)
	return nil
}

func runBillsDeleteJob(_ *cobra.Command, args []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	jobID, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	if !confirm(billsYes, "Delete this job and all its results? This cannot be undone.") {
		return nil
	}
	resp, err := view.DeleteJob(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to delete job"))
	}
	pterm.Success.Println(resp.Message)
	return nil
}

func runBillsDeleteAll(_ *cobra.Command, _ []string) error {
	view, err := billsView()
	if err != nil {
		return err
	}
	ctx := context.Background()
	jobs, err := view.ListWithResults(ctx)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load jobs"))
	}
	if len(jobs) == 0 {
		pterm.Println("Nothing to delete.")
		return nil
	}
	if !confirm(billsYes, fmt.Sprintf("Delete all %d jobs and their results? This cannot be undone.", len(jobs))) {
		return nil
	}
	if err := view.DeleteJobs(ctx, jobs); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to delete some jobs"))
	}
	pterm.Success.Printfln("Deleted %d jobs", len(jobs))
	return nil
}
