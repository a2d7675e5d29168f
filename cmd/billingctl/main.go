// Package main provides the billingctl entry point, the terminal client for
// the billing-automation backend.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "Terminal client for the Sagility billing-automation platform",
	Long:  "billingctl uploads credential CSVs, controls bill-fetching agent jobs, watches their progress, and downloads the PDF bills they produce.",
}

var (
	flagAPIURL   string
	flagStateDir string
	flagTimeout  string
	flagVerbose  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Backend API base URL (defaults to BILLING_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "Directory for the session state file (defaults to BILLING_STATE_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "HTTP timeout, e.g. 30s (defaults to BILLING_HTTP_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Trace HTTP requests on stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
