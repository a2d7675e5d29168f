package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/api"
	"github.com/spf13/cobra"
)

var scheduleCommand = &cobra.Command{
	Use:   "schedule",
	Short: "Manage backend-side scheduling",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var scheduleWeeklyCommand = &cobra.Command{
	Use:   "weekly",
	Short: "Enable the weekly run schedule for your credentials",
	RunE:  runScheduleWeekly,
}

func init() {
	scheduleCommand.AddCommand(scheduleWeeklyCommand)
	rootCmd.AddCommand(scheduleCommand)
}

func runScheduleWeekly(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireAuth(); err != nil {
		return err
	}
	resp, err := a.client.ScheduleWeekly(context.Background())
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "Failed to enable weekly schedule"))
	}
	pterm.Success.Println(resp.Message)
	return nil
}
