package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/sagility/billingctl/internal/types"
)

// ListJobs returns every job belonging to the user.
func (c *Client) ListJobs(ctx context.Context) ([]types.Job, error) {
	var jobs []types.Job
	if err := c.getJSON(ctx, "/jobs", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns one job.
func (c *Client) GetJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	var job types.Job
	if err := c.getJSON(ctx, "/jobs/"+jobID.String(), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobDetails returns a job with its full output listing.
func (c *Client) GetJobDetails(ctx context.Context, jobID uuid.UUID) (*types.JobDetail, error) {
	var detail types.JobDetail
	if err := c.getJSON(ctx, "/jobs/"+jobID.String()+"/details", &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateJob uploads the CSV and URLs (plus optional schedule fields) as
// multipart form data and returns the created job.
func (c *Client) CreateJob(ctx context.Context, req types.CreateJobRequest) (*types.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var job types.Job
	err := c.postMultipart(ctx, "/jobs", func(w *multipart.Writer) error {
		if err := writeFilePart(w, "csv", req.CSVPath); err != nil {
			return err
		}
		if err := w.WriteField("login_url", req.LoginURL); err != nil {
			return err
		}
		if err := w.WriteField("billing_url", req.BillingURL); err != nil {
			return err
		}
		if req.IsScheduled {
			if err := w.WriteField("is_scheduled", "true"); err != nil {
				return err
			}
			if err := w.WriteField("schedule_type", string(req.ScheduleType)); err != nil {
				return err
			}
			if req.ScheduleConfig != nil {
				cfg, err := json.Marshal(req.ScheduleConfig)
				if err != nil {
					return fmt.Errorf("failed to encode schedule config: %w", err)
				}
				if err := w.WriteField("schedule_config", string(cfg)); err != nil {
					return err
				}
			}
		}
		return nil
	}, &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// RunJob starts the backend agent for a job and returns the updated job.
func (c *Client) RunJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	var job types.Job
	if err := c.postJSON(ctx, "/jobs/"+jobID.String()+"/run", nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// StopJob stops a running job and returns the updated job.
func (c *Client) StopJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	var job types.Job
	if err := c.postJSON(ctx, "/jobs/"+jobID.String()+"/stop", nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// DeleteJob deletes a job and everything it produced.
func (c *Client) DeleteJob(ctx context.Context, jobID uuid.UUID) (*types.DeleteResponse, error) {
	var resp types.DeleteResponse
	if err := c.deleteJSON(ctx, "/jobs/"+jobID.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAllResults deletes every result of a job, keeping the job itself.
func (c *Client) DeleteAllResults(ctx context.Context, jobID uuid.UUID) (*types.DeleteResponse, error) {
	var resp types.DeleteResponse
	if err := c.deleteJSON(ctx, "/jobs/"+jobID.String()+"/results", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteResult deletes a single result of a job.
func (c *Client) DeleteResult(ctx context.Context, jobID, resultID uuid.UUID) (*types.DeleteResponse, error) {
	var resp types.DeleteResponse
	if err := c.deleteJSON(ctx, "/jobs/"+jobID.String()+"/results/"+resultID.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJobCredentialsFile returns the location of the CSV a job was created from.
func (c *Client) GetJobCredentialsFile(ctx context.Context, jobID uuid.UUID) (*types.JobCredentialsFile, error) {
	var f types.JobCredentialsFile
	if err := c.getJSON(ctx, "/jobs/"+jobID.String()+"/credentials", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetRealtimeStatus returns the live status and results of a job. Polled
// every few seconds while a job is running.
func (c *Client) GetRealtimeStatus(ctx context.Context, jobID uuid.UUID) (*types.RealtimeStatus, error) {
	var st types.RealtimeStatus
	if err := c.getJSON(ctx, "/jobs/"+jobID.String()+"/realtime", &st); err != nil {
		return nil, err
	}
	return &st, nil
}
