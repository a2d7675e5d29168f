package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/api"
	"github.com/spf13/cobra"
)

var healthCommand = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCommand)
}

func runHealth(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.client.Health(context.Background()); err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Backend is unreachable"))
	}
	pterm.Success.Printfln("Backend healthy at %s", a.cfg.BaseURL)
	return nil
}
