// Package types provides type definitions for the data exchanged with the billing-automation backend.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a job as reported by the backend.
// The client never transitions a job itself; it only mirrors these values.
type JobStatus string

const (
	StatusIdle      JobStatus = "idle"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusStopped   JobStatus = "stopped"
	StatusError     JobStatus = "error"
)

// Terminal reports whether the job has reached a state the backend will not
// advance on its own. Only running jobs are worth polling.
func (s JobStatus) Terminal() bool {
	return s != StatusRunning
}

// CanRun reports whether the Run action should be offered for this status.
func (s JobStatus) CanRun() bool {
	return s == StatusIdle || s == StatusStopped || s == StatusError
}

// CanStop reports whether the Stop action should be offered for this status.
func (s JobStatus) CanStop() bool {
	return s == StatusRunning
}

// CanDelete reports whether the Delete action should be offered for this status.
func (s JobStatus) CanDelete() bool {
	return s == StatusIdle || s == StatusStopped || s == StatusError
}

// ScheduleType identifies how a scheduled job recurs.
type ScheduleType string

const (
	ScheduleWeekly  ScheduleType = "weekly"
	ScheduleDaily   ScheduleType = "daily"
	ScheduleMonthly ScheduleType = "monthly"
	ScheduleCustom  ScheduleType = "custom"
)

// ScheduleConfig describes when a scheduled job runs. Fields are pointers
// because zero is a meaningful value (Sunday, midnight).
type ScheduleConfig struct {
	DayOfWeek      *int   `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	Hour           *int   `json:"hour,omitempty" validate:"omitempty,min=0,max=23"`
	Minute         *int   `json:"minute,omitempty" validate:"omitempty,min=0,max=59"`
	CronExpression string `json:"cron_expression,omitempty"`
}

/// Job is one CSV import run against a utility portal: a credentials file plus
// the two URLs the backend agent needs, and the execution state it reports back.
type Job struct {
	ID               uuid.UUID       `json:"id"`
	CSVURL           string          `json:"csv_url"`
	LoginURL         string          `json:"login_url"`
	BillingURL       string          `json:"billing_url"`
	Status           JobStatus       `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	ResultsCount     int             `json:"results_count"`
	IsScheduled      bool            `json:"is_scheduled,omitempty"`
	ScheduleType     ScheduleType    `json:"schedule_type,omitempty"`
	ScheduleConfig   *ScheduleConfig `json:"schedule_config,omitempty"`
	NextRun          *time.Time      `json:"next_run,omitempty"`
	LastScheduledRun *time.Time      `json:"last_scheduled_run,omitempty"`
}

// JobResult is one row of a job's output: a single portal login attempt and,
// on success, the bill it produced. Immutable once created except for deletion.
type JobResult struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	Filename      string     `json:"filename,omitempty"`
	FileURL       string     `json:"file_url,omitempty"`
	ProxyURL      string     `json:"proxy_url,omitempty"`
	RetryAttempts int        `json:"retry_attempts,omitempty"`
	FinalError    string     `json:"final_error,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// JobDetail is a job together with its full output listing.
type JobDetail struct {
	Job
	Output []JobResult `json:"output"`
}

// RealtimeStatus is the payload of the realtime polling endpoint for one job.
type RealtimeStatus struct {
	ID           uuid.UUID   `json:"id"`
	Status       JobStatus   `json:"status"`
	ResultsCount int         `json:"results_count"`
	Output       []JobResult `json:"output,omitempty"`
}

// CreateJobRequest carries everything needed to create a job. CSVPath points
// at a local file that is sent as a multipart part named "csv".
type CreateJobRequest struct {
	CSVPath        string          `validate:"required"`
	LoginURL       string          `json:"login_url" validate:"required,url"`
	BillingURL     string          `json:"billing_url" validate:"required,url"`
	IsScheduled    bool            `json:"is_scheduled,omitempty"`
	ScheduleType   ScheduleType    `json:"schedule_type,omitempty" validate:"omitempty,oneof=weekly daily monthly custom"`
	ScheduleConfig *ScheduleConfig `json:"schedule_config,omitempty"`
}

// Validate validates the CreateJobRequest using the validator.
func (r *CreateJobRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// JobCredentialsFile points at the CSV a job was created from.
type JobCredentialsFile struct {
	CSVURL   string `json:"csv_url"`
	Filename string `json:"filename"`
}

// DeleteResponse is the backend's acknowledgement for delete operations.
type DeleteResponse struct {
	Message         string `json:"message"`
	DeletedCount    int    `json:"deleted_count,omitempty"`
	DeletedResultID string `json:"deleted_result_id,omitempty"`
}

// MessageResponse is the generic {message} acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
