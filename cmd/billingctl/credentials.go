package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/api"
	"github.com/sagility/billingctl/internal/bills"
	"github.com/sagility/billingctl/internal/dashboard"
	"github.com/sagility/billingctl/internal/types"
	"github.com/spf13/cobra"
)

var credsCommand = &cobra.Command{
	Use:     "creds",
	Aliases: []string{"credentials"},
	Short:   "Manage credentials (the older surface)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var credsListCommand = &cobra.Command{
	Use:   "list",
	Short: "List all credentials with aggregate counts",
	RunE:  runCredsList,
}

var credsUploadCommand = &cobra.Command{
	Use:   "upload",
	Short: "Bulk-create credentials from a CSV file",
	RunE:  runCredsUpload,
}

var credsAgentCommand = &cobra.Command{
	Use:   "agent <credential-id> <run|stop>",
	Short: "Start or stop the agent for one credential",
	Args:  cobra.ExactArgs(2),
	RunE:  runCredsAgent,
}

var credsDeleteCommand = &cobra.Command{
	Use:   "delete <credential-id>",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsDelete,
}

var credsDownloadCommand = &cobra.Command{
	Use:   "download <credential-id>",
	Short: "Download the agent-fetched bill for a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsDownload,
}

var credsUploadPDFCommand = &cobra.Command{
	Use:   "upload-pdf <credential-id>",
	Short: "Attach a manually obtained bill PDF to a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsUploadPDF,
}

var credsDownloadManualCommand = &cobra.Command{
	Use:   "download-manual <credential-id>",
	Short: "Download the manually uploaded bill for a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsDownloadManual,
}

var credsResultsCommand = &cobra.Command{
	Use:   "results <credential-id>",
	Short: "List the stored billing results for a credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsResults,
}

var (
	credsCSVPath    string
	credsLoginURL   string
	credsBillingURL string
	credsPDFPath    string
	credsPDFYear    string
	credsPDFMonth   string
	credsOutDir     string
	credsDeleteYes  bool
)

func init() {
	credsUploadCommand.Flags().StringVar(&credsCSVPath, "csv", "", "Path to the credentials CSV file")
	credsUploadCommand.Flags().StringVar(&credsLoginURL, "login-url", "", "Utility portal login URL")
	credsUploadCommand.Flags().StringVar(&credsBillingURL, "billing-url", "", "Utility portal billing URL")
	credsUploadPDFCommand.Flags().StringVar(&credsPDFPath, "pdf", "", "Path to the bill PDF")
	credsUploadPDFCommand.Flags().StringVar(&credsPDFYear, "year", "", "Billing year the PDF covers (YYYY)")
	credsUploadPDFCommand.Flags().StringVar(&credsPDFMonth, "month", "", "Billing month the PDF covers (MM)")
	credsDownloadCommand.Flags().StringVarP(&credsOutDir, "out", "o", ".", "Directory to write the PDF into")
	credsDownloadManualCommand.Flags().StringVarP(&credsOutDir, "out", "o", ".", "Directory to write the PDF into")
	credsDeleteCommand.Flags().BoolVarP(&credsDeleteYes, "yes", "y", false, "Skip the confirmation prompt")

	credsCommand.AddCommand(credsListCommand, credsUploadCommand, credsAgentCommand,
		credsDeleteCommand, credsDownloadCommand, credsUploadPDFCommand,
		credsDownloadManualCommand, credsResultsCommand)
	rootCmd.AddCommand(credsCommand)
}

func credsView() (*app, *dashboard.Credentials, error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}
	if err := a.requireAuth(); err != nil {
		return nil, nil, err
	}
	return a, dashboard.NewCredentials(a.client), nil
}

func parseCredID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid credential id %q: %w", arg, err)
	}
	return id, nil
}

func runCredsList(_ *cobra.Command, _ []string) error {
	_, view, err := credsView()
	if err != nil {
		return err
	}
	if err := view.Refresh(context.Background()); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load credentials"))
	}
	renderCounts(view.Counts())
	return renderCredentials(view.Credentials())
}

func runCredsUpload(_ *cobra.Command, _ []string) error {
	_, view, err := credsView()
	if err != nil {
		return err
	}
	resp, err := view.Upload(context.Background(), types.UploadCredentialsRequest{
		CSVPath:    credsCSVPath,
		LoginURL:   credsLoginURL,
		BillingURL: credsBillingURL,
	})
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to upload credentials"))
	}
	pterm.Success.Println(resp.Message)
	return nil
}

func runCredsAgent(_ *cobra.Command, args []string) error {
	_, view, err := credsView()
	if err != nil {
		return err
	}
	credID, err := parseCredID(args[0])
	if err != nil {
		return err
	}
	var action types.AgentAction
	switch strings.ToLower(args[1]) {
	case "run":
		action = types.AgentRun
	case "stop":
		action = types.AgentStopped
	default:
		return fmt.Errorf("unknown agent action %q, want run or stop", args[1])
	}
	if err := view.ControlAgent(context.Background(), credID, action); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to control agent"))
	}
	pterm.Success.Printfln("Agent %s sent for %s", action, shortID(credID))
	return nil
}

func runCredsDelete(_ *cobra.Command, args []string) error {
	_, view, err := credsView()
	if err != nil {
		return err
	}
	credID, err := parseCredID(args[0])
	if err != nil {
		return err
	}
	if !confirm(credsDeleteYes, "Delete this credential?") {
		return nil
	}
	if err := view.Delete(context.Background(), credID); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to delete credential"))
	}
	pterm.Success.Printfln("Deleted credential %s", shortID(credID))
	return nil
}

// writeCredentialPDF stores downloaded bill bytes next to the other local
// bills, named after the credential's email and the current time.
func writeCredentialPDF(a *app, credID uuid.UUID, data []byte) (string, error) {
	email := credID.String()
	creds, err := a.client.ListCredentials(context.Background())
	if err == nil {
		for _, cred := range creds {
			if cred.ID == credID {
				email = cred.Email
				break
			}
		}
	}
	if err := os.MkdirAll(credsOutDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	path := filepath.Join(credsOutDir, bills.Filename(email, nil, time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func runCredsDownload(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	credID, err := parseCredID(args[0])
	if err != nil {
		return err
	}
	data, _, err := a.client.DownloadCredentialPDF(context.Background(), credID)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("no bill found for this credential")
		}
		return fmt.Errorf("%s", api.Detail(err, "Failed to download bill"))
	}
	path, err := writeCredentialPDF(a, credID, data)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Saved %s", path)
	return nil
}

func runCredsUploadPDF(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	credID, err := parseCredID(args[0])
	if err != nil {
		return err
	}
	resp, err := a.client.UploadCredentialPDF(context.Background(), credID, types.UploadPDFRequest{
		PDFPath: credsPDFPath,
		Year:    credsPDFYear,
		Month:   credsPDFMonth,
	})
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to upload PDF"))
	}
	pterm.Success.Println(resp.Message)
	return nil
}

func runCredsDownloadManual(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	credID, err := parseCredID(args[0])
	if err != nil {
		return err
	}
	data, _, err := a.client.DownloadManualPDF(context.Background(), credID)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("no manually uploaded bill found for this credential")
		}
		return fmt.Errorf("%s", api.Detail(err, "Failed to download bill"))
	}
	path, err := writeCredentialPDF(a, credID, data)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Saved %s", path)
	return nil
}

func runCredsResults(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	credID, err := parseCredID(args[0])
	if err != nil {
		return err
	}
	results, err := a.client.GetBillingResults(context.Background(), credID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to load billing results"))
	}
	if len(results) == 0 {
		pterm.Println("No billing results for this credential.")
		return nil
	}
	rows := pterm.TableData{{"ID", "Status", "Period", "Run time"}}
	for _, r := range results {
		period := "-"
		if r.Year != "" && r.Month != "" {
			period = r.Year + "-" + r.Month
		}
		runTime := "-"
		if r.RunTime != nil {
			runTime = formatTime(*r.RunTime)
		}
		rows = append(rows, []string{shortID(r.ID), r.Status, period, runTime})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
