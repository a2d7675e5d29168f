package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AgentAction is a control command for the backend agent attached to a credential.
type AgentAction string

const (
	AgentRun     AgentAction = "RUN"
	AgentStopped AgentAction = "STOPPED"
)

// Credential is one utility-portal login owned by the user, created from a
// CSV row via bulk upload. The backend mutates last_state as its agent runs;
// the client only observes.
type Credential struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	ClientName      string     `json:"client_name,omitempty"`
	UtilityCoID     string     `json:"utility_co_id,omitempty"`
	UtilityCoName   string     `json:"utility_co_name,omitempty"`
	CredID          string     `json:"cred_id,omitempty"`
	LoginURL        string     `json:"login_url,omitempty"`
	BillingURL      string     `json:"billing_url,omitempty"`
	IsDeleted       bool       `json:"is_deleted"`
	LastState       JobStatus  `json:"last_state"`
	LastError       string     `json:"last_error,omitempty"`
	LastRunTime     *time.Time `json:"last_run_time,omitempty"`
	UploadedBillURL string     `json:"uploaded_bill_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AgentActionRequest is the body of the agent control endpoint.
type AgentActionRequest struct {
	Action AgentAction `json:"action" validate:"required,oneof=RUN STOPPED"`
}

// Validate validates the AgentActionRequest using the validator.
func (r *AgentActionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// UploadCredentialsRequest carries the CSV bulk-upload form: a local CSV file
// plus the two portal URLs shared by every row in it.
type UploadCredentialsRequest struct {
	CSVPath    string `validate:"required"`
	LoginURL   string `validate:"required,url"`
	BillingURL string `validate:"required,url"`
}

// Validate validates the UploadCredentialsRequest using the validator.
func (r *UploadCredentialsRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// UploadCredentialsResponse acknowledges a bulk upload.
type UploadCredentialsResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// BillingResult is one manually or automatically stored bill for a credential.
type BillingResult struct {
	ID        uuid.UUID  `json:"id"`
	BlobURL   string     `json:"azure_blob_url,omitempty"`
	RunTime   *time.Time `json:"run_time,omitempty"`
	Status    string     `json:"status"`
	Year      string     `json:"year,omitempty"`
	Month     string     `json:"month,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UploadPDFRequest carries the manual bill upload form for one credential.
// Year and Month identify the billing period the PDF covers.
type UploadPDFRequest struct {
	PDFPath string `validate:"required"`
	Year    string `validate:"omitempty,len=4,numeric"`
	Month   string `validate:"omitempty,len=2,numeric"`
}

// Validate validates the UploadPDFRequest using the validator.
func (r *UploadPDFRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
