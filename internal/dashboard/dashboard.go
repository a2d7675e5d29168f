// Package dashboard is the jobs view-model: it owns the fetched list
// snapshot, derives the aggregate counts from it, and runs the per-item
// actions with the client-side guards the product promises (validation before
// any request, run cooldown, one action in flight per item).
package dashboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sagility/billingctl/internal/session"
	"github.com/sagility/billingctl/internal/types"
)

// JobsAPI is the slice of the backend client this view-model needs.
type JobsAPI interface {
	ListJobs(ctx context.Context) ([]types.Job, error)
	CreateJob(ctx context.Context, req types.CreateJobRequest) (*types.Job, error)
	RunJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error)
	StopJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error)
	DeleteJob(ctx context.Context, jobID uuid.UUID) (*types.DeleteResponse, error)
	GetJobCredentialsFile(ctx context.Context, jobID uuid.UUID) (*types.JobCredentialsFile, error)
	GetRealtimeStatus(ctx context.Context, jobID uuid.UUID) (*types.RealtimeStatus, error)
}

// Counts are the aggregate numbers shown above the list. They are recomputed
// from the current snapshot on every call, never maintained incrementally.
type Counts struct {
	Total     int
	Idle      int
	Running   int
	Completed int
	Stopped   int
	Failed    int
}

// Dashboard holds the jobs list snapshot and serializes per-job actions.
type Dashboard struct {
	api       JobsAPI
	cooldowns *session.Cooldowns

	mu       sync.Mutex
	jobs     []types.Job
	inflight map[uuid.UUID]bool
}

// New builds a dashboard over the given API and cooldown tracker.
func New(jobsAPI JobsAPI, cooldowns *session.Cooldowns) *Dashboard {
	return &Dashboard{
		api:       jobsAPI,
		cooldowns: cooldowns,
		inflight:  map[uuid.UUID]bool{},
	}
}

// Refresh replaces the snapshot with a full fetch.
func (d *Dashboard) Refresh(ctx context.Context) error {
	jobs, err := d.api.ListJobs(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.jobs = jobs
	d.mu.Unlock()
	return nil
}

// Jobs returns a copy of the current snapshot.
func (d *Dashboard) Jobs() []types.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.Job, len(d.jobs))
	copy(out, d.jobs)
	return out
}

// Counts recomputes the aggregates from the snapshot.
func (d *Dashboard) Counts() Counts {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := Counts{Total: len(d.jobs)}
	for _, j := range d.jobs {
		switch j.Status {
		case types.StatusIdle:
			c.Idle++
		case types.StatusRunning:
			c.Running++
		case types.StatusCompleted:
			c.Completed++
		case types.StatusStopped:
			c.Stopped++
		case types.StatusError:
			c.Failed++
		}
	}
	return c
}

// ValidateCSVFile rejects a create submission before any request is sent:
// the file must exist, be a regular file, and carry a .csv extension.
func ValidateCSVFile(path string) error {
	if path == "" {
		return fmt.Errorf("please select a CSV file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("CSV file %s not found", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a CSV file", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("please select a valid CSV file (got %s)", filepath.Base(path))
	}
	return nil
}

// Create validates client-side first — an invalid form never reaches the
// network — then uploads and prepends the created job to the snapshot.
func (d *Dashboard) Create(ctx context.Context, req types.CreateJobRequest) (*types.Job, error) {
	if err := ValidateCSVFile(req.CSVPath); err != nil {
		return nil, err
	}
	if req.LoginURL == "" || req.BillingURL == "" {
		return nil, fmt.Errorf("please fill in all required fields")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	job, err := d.api.CreateJob(ctx, req)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.jobs = append([]types.Job{*job}, d.jobs...)
	d.mu.Unlock()
	return job, nil
}

// begin marks a job busy, refusing if an action for it is already in flight.
// Actions on different jobs proceed independently.
func (d *Dashboard) begin(jobID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight[jobID] {
		return fmt.Errorf("another action for job %s is still in progress", jobID)
	}
	d.inflight[jobID] = true
	return nil
}

func (d *Dashboard) end(jobID uuid.UUID) {
	d.mu.Lock()
	delete(d.inflight, jobID)
	d.mu.Unlock()
}

// patch replaces the snapshot entry with the server's version of the job.
func (d *Dashboard) patch(job *types.Job) {
	d.mu.Lock()
	for i := range d.jobs {
		if d.jobs[i].ID == job.ID {
			d.jobs[i] = *job
			break
		}
	}
	d.mu.Unlock()
}

// Run starts a job. Refused while the job's stop cooldown is active.
func (d *Dashboard) Run(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	if d.cooldowns != nil && d.cooldowns.Active(jobID) {
		remaining := d.cooldowns.Remaining(jobID)
		return nil, fmt.Errorf("job is in cooldown, wait %s before running again", remaining.Round(time.Second))
	}
	if err := d.begin(jobID); err != nil {
		return nil, err
	}
	defer d.end(jobID)

	job, err := d.api.RunJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	d.patch(job)
	return job, nil
}

// Stop stops a running job and arms its 30-minute run cooldown.
func (d *Dashboard) Stop(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	if err := d.begin(jobID); err != nil {
		return nil, err
	}
	defer d.end(jobID)

	job, err := d.api.StopJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	d.patch(job)
	if d.cooldowns != nil {
		_ = d.cooldowns.Arm(jobID)
	}
	return job, nil
}

// Delete removes a job after server confirmation. Exactly that id leaves the
// snapshot; the order of the rest is untouched. No optimistic removal.
func (d *Dashboard) Delete(ctx context.Context, jobID uuid.UUID) error {
	if err := d.begin(jobID); err != nil {
		return err
	}
	defer d.end(jobID)

	if _, err := d.api.DeleteJob(ctx, jobID); err != nil {
		return err
	}
	d.mu.Lock()
	kept := d.jobs[:0]
	for _, j := range d.jobs {
		if j.ID != jobID {
			kept = append(kept, j)
		}
	}
	d.jobs = kept
	d.mu.Unlock()
	return nil
}

// CredentialsFile returns where the job's source CSV can be fetched.
func (d *Dashboard) CredentialsFile(ctx context.Context, jobID uuid.UUID) (*types.JobCredentialsFile, error) {
	if err := d.begin(jobID); err != nil {
		return nil, err
	}
	defer d.end(jobID)
	return d.api.GetJobCredentialsFile(ctx, jobID)
}

// running returns the ids of jobs currently in the running state.
func (d *Dashboard) running() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []uuid.UUID
	for _, j := range d.jobs {
		if j.Status == types.StatusRunning {
			ids = append(ids, j.ID)
		}
	}
	return ids
}

// applyRealtime merges a realtime payload into the snapshot entry.
func (d *Dashboard) applyRealtime(st *types.RealtimeStatus) {
	d.mu.Lock()
	for i := range d.jobs {
		if d.jobs[i].ID == st.ID {
			d.jobs[i].ResultsCount = st.ResultsCount
			if st.Status != "" {
				d.jobs[i].Status = st.Status
			}
			break
		}
	}
	d.mu.Unlock()
}
