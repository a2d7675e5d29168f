// Package bills is the results view-model: which jobs produced output, and
// how their PDFs are fetched, named, and stored locally.
package bills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sagility/billingctl/internal/types"
	"golang.org/x/sync/errgroup"
)

// API is the slice of the backend client this view-model needs.
type API interface {
	ListJobs(ctx context.Context) ([]types.Job, error)
	GetJobDetails(ctx context.Context, jobID uuid.UUID) (*types.JobDetail, error)
	DeleteJob(ctx context.Context, jobID uuid.UUID) (*types.DeleteResponse, error)
	DeleteAllResults(ctx context.Context, jobID uuid.UUID) (*types.DeleteResponse, error)
	DeleteResult(ctx context.Context, jobID, resultID uuid.UUID) (*types.DeleteResponse, error)
	Download(ctx context.Context, fileURL string) ([]byte, string, error)
}

// unsafeFilenameChars matches everything not allowed in a generated filename.
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9@._-]`)

// SanitizeEmail makes an email safe to embed in a filename.
func SanitizeEmail(email string) string {
	return unsafeFilenameChars.ReplaceAllString(email, "_")
}

// Filename derives the download name for a bill: sanitized email plus the
// result timestamp (or now, when the result has none), always .pdf.
func Filename(email string, ts *time.Time, now time.Time) string {
	t := now
	if ts != nil {
		t = *ts
	}
	stamp := t.UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("bill_%s_%s.pdf", SanitizeEmail(email), stamp)
}

// WithResults filters to jobs worth showing on the bills page: terminal
// status or any results at all.
func WithResults(jobs []types.Job) []types.Job {
	var out []types.Job
	for _, j := range jobs {
		if j.Status == types.StatusCompleted || j.Status == types.StatusStopped ||
			j.Status == types.StatusError || j.ResultsCount > 0 {
			out = append(out, j)
		}
	}
	return out
}

// View fetches and stores bill PDFs.
type View struct {
	api    API
	outDir string
	now    func() time.Time
}

// NewView builds a bills view writing downloads into outDir. now defaults to
// time.Now.
func NewView(billsAPI API, outDir string, now func() time.Time) *View {
	if now == nil {
		now = time.Now
	}
	return &View{api: billsAPI, outDir: outDir, now: now}
}

// ListWithResults fetches all jobs and filters to those with output.
func (v *View) ListWithResults(ctx context.Context) ([]types.Job, error) {
	jobs, err := v.api.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	return WithResults(jobs), nil
}

// Results returns the full output listing of one job.
func (v *View) Results(ctx context.Context, jobID uuid.UUID) (*types.JobDetail, error) {
	return v.api.GetJobDetails(ctx, jobID)
}

// fileURL picks where a result's bytes live: the authenticated proxy path
// when the backend provides one, else the direct (pre-signed) URL.
func fileURL(r types.JobResult) (string, error) {
	if r.ProxyURL != "" {
		return r.ProxyURL, nil
	}
	if r.FileURL != "" {
		return r.FileURL, nil
	}
	return "", fmt.Errorf("result %s has no file", r.ID)
}

// Download fetches a result's PDF and writes it under the view's output
// directory. The bytes are stored verbatim but the name is always .pdf, no
// matter what content type the server reported. Returns the written path.
func (v *View) Download(ctx context.Context, r types.JobResult) (string, error) {
	src, err := fileURL(r)
	if err != nil {
		return "", err
	}
	data, _, err := v.api.Download(ctx, src)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(v.outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	path := filepath.Join(v.outDir, Filename(r.Email, r.CreatedAt, v.now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Open fetches a result's PDF into a temporary file for viewing and returns
// its path. The file is the caller's to remove.
func (v *View) Open(ctx context.Context, r types.JobResult) (string, error) {
	src, err := fileURL(r)
	if err != nil {
		return "", err
	}
	data, _, err := v.api.Download(ctx, src)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "bill-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// DeleteResult deletes one result of a job.
func (v *View) DeleteResult(ctx context.Context, jobID, resultID uuid.UUID) (*types.DeleteResponse, error) {
	return v.api.DeleteResult(ctx, jobID, resultID)
}

// DeleteAllResults deletes every result of a job.
func (v *View) DeleteAllResults(ctx context.Context, jobID uuid.UUID) (*types.DeleteResponse, error) {
	return v.api.DeleteAllResults(ctx, jobID)
}

// DeleteJob deletes a job and its results.
func (v *View) DeleteJob(ctx context.Context, jobID uuid.UUID) (*types.DeleteResponse, error) {
	return v.api.DeleteJob(ctx, jobID)
}

// DeleteJobs deletes every given job, fanning the requests out in parallel.
// The first failure is reported; the rest still run to completion.
func (v *View) DeleteJobs(ctx context.Context, jobs []types.Job) error {
	g := new(errgroup.Group)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			_, err := v.api.DeleteJob(ctx, job.ID)
			return err
		})
	}
	return g.Wait()
}
