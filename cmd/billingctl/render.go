package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/dashboard"
	"github.com/sagility/billingctl/internal/types"
)

// statusBadge colors a status string the way the web UI's badges did.
func statusBadge(s types.JobStatus) string {
	switch s {
	case types.StatusRunning:
		return pterm.FgLightBlue.Sprint(s)
	case types.StatusCompleted:
		return pterm.FgGreen.Sprint(s)
	case types.StatusStopped:
		return pterm.FgYellow.Sprint(s)
	case types.StatusError:
		return pterm.FgRed.Sprint(s)
	default:
		return pterm.FgGray.Sprint(s)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func shortID(id fmt.Stringer) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// renderCounts prints the aggregate line above a list.
func renderCounts(c dashboard.Counts) {
	pterm.Printfln("total %d  |  running %d  |  completed %d  |  failed %d",
		c.Total, c.Running, c.Completed, c.Failed)
}

// renderJobs prints the jobs table.
func renderJobs(jobs []types.Job) error {
	if len(jobs) == 0 {
		pterm.Println("No jobs. Create one with 'billingctl jobs create'.")
		return nil
	}
	rows := pterm.TableData{{"ID", "Status", "Results", "Created", "Schedule", "Login URL"}}
	for _, j := range jobs {
		schedule := "-"
		if j.IsScheduled {
			schedule = scheduleSummary(j)
		}
		rows = append(rows, []string{
			shortID(j.ID),
			statusBadge(j.Status),
			strconv.Itoa(j.ResultsCount),
			formatTime(j.CreatedAt),
			schedule,
			j.LoginURL,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// scheduleSummary renders a job's schedule the way the web UI described it.
func scheduleSummary(j types.Job) string {
	cfg := j.ScheduleConfig
	if cfg == nil {
		return string(j.ScheduleType)
	}
	clock := func() string {
		h, m := 0, 0
		if cfg.Hour != nil {
			h = *cfg.Hour
		}
		if cfg.Minute != nil {
			m = *cfg.Minute
		}
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	switch j.ScheduleType {
	case types.ScheduleWeekly:
		days := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
		day := 0
		if cfg.DayOfWeek != nil {
			day = *cfg.DayOfWeek
		}
		return fmt.Sprintf("every %s at %s", days[day%7], clock())
	case types.ScheduleDaily:
		return fmt.Sprintf("every day at %s", clock())
	case types.ScheduleCustom:
		return "cron: " + cfg.CronExpression
	default:
		return string(j.ScheduleType)
	}
}

// renderCredentials prints the credentials table.
func renderCredentials(creds []types.Credential) error {
	if len(creds) == 0 {
		pterm.Println("No credentials. Upload a CSV with 'billingctl credentials upload'.")
		return nil
	}
	rows := pterm.TableData{{"ID", "Email", "Utility", "State", "Last run", "Last error"}}
	for _, c := range creds {
		lastRun := "-"
		if c.LastRunTime != nil {
			lastRun = formatTime(*c.LastRunTime)
		}
		lastErr := c.LastError
		if len(lastErr) > 40 {
			lastErr = lastErr[:40] + "..."
		}
		rows = append(rows, []string{
			shortID(c.ID),
			c.Email,
			c.UtilityCoName,
			statusBadge(c.LastState),
			lastRun,
			lastErr,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// renderResults prints a job's output listing.
func renderResults(detail *types.JobDetail) error {
	if len(detail.Output) == 0 {
		pterm.Println("No results for this job yet.")
		return nil
	}
	rows := pterm.TableData{{"ID", "Email", "Status", "Attempts", "Created", "Error"}}
	for _, r := range detail.Output {
		created := "-"
		if r.CreatedAt != nil {
			created = formatTime(*r.CreatedAt)
		}
		errText := r.Error
		if errText == "" {
			errText = r.FinalError
		}
		if len(errText) > 40 {
			errText = errText[:40] + "..."
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.Email,
			r.Status,
			strconv.Itoa(r.RetryAttempts),
			created,
			errText,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
