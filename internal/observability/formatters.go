// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sagility/billingctl/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Request traces one outgoing HTTP request.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) Request(method, url string) {
	fmt.Fprintf(p.out, "→ %s %s\n", method, url)
}

// Response traces the matching response.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) Response(status int, elapsed time.Duration) {
	fmt.Fprintf(p.out, "← %d (%s)\n", status, elapsed.Round(time.Millisecond))
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJobDetail outputs a human-readable summary of a job and its output.
func (p *Printer) PrintJobDetail(detail *types.JobDetail) {
	if detail == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s\n", detail.Status))
	sb.WriteString(fmt.Sprintf("Login:    %s\n", detail.LoginURL))
	sb.WriteString(fmt.Sprintf("Billing:  %s\n", detail.BillingURL))
	sb.WriteString(fmt.Sprintf("Results:  %d\n", detail.ResultsCount))
	if detail.IsScheduled {
		sb.WriteString(fmt.Sprintf("Schedule: %s\n", detail.ScheduleType))
	}
	for i, r := range detail.Output {
		sb.WriteString(fmt.Sprintf("  %2d. %s  %s\n", i+1, r.Email, r.Status))
	}
	p.printBox(fmt.Sprintf("Job %s", shortID(detail.ID.String())), sb.String())
}

// shortID abbreviates a UUID the way the web UI did ("Job 1a2b3c4d...").
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}
