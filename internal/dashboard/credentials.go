package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sagility/billingctl/internal/types"
)

// CredentialsAPI is the slice of the backend client the credentials surface
// needs. This is the product's older vocabulary for the same core entity.
type CredentialsAPI interface {
	ListCredentials(ctx context.Context) ([]types.Credential, error)
	UploadCredentials(ctx context.Context, req types.UploadCredentialsRequest) (*types.UploadCredentialsResponse, error)
	ControlAgent(ctx context.Context, credID uuid.UUID, action types.AgentAction) error
	DeleteCredential(ctx context.Context, credID uuid.UUID) error
}

// Credentials is the credentials-list view-model. Unlike the jobs surface it
// refetches the whole list after every mutation rather than patching entries.
type Credentials struct {
	api CredentialsAPI

	mu    sync.Mutex
	creds []types.Credential
}

// NewCredentials builds the credentials view-model.
func NewCredentials(credsAPI CredentialsAPI) *Credentials {
	return &Credentials{api: credsAPI}
}

// Refresh replaces the snapshot with a full fetch.
func (c *Credentials) Refresh(ctx context.Context) error {
	creds, err := c.api.ListCredentials(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
	return nil
}

// Credentials returns a copy of the current snapshot.
func (c *Credentials) Credentials() []types.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Credential, len(c.creds))
	copy(out, c.creds)
	return out
}

// Counts recomputes the aggregates by last_state from the snapshot.
func (c *Credentials) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	agg := Counts{Total: len(c.creds)}
	for _, cred := range c.creds {
		switch cred.LastState {
		case types.StatusIdle:
			agg.Idle++
		case types.StatusRunning:
			agg.Running++
		case types.StatusCompleted:
			agg.Completed++
		case types.StatusError:
			agg.Failed++
		}
	}
	return agg
}

// Upload bulk-creates credentials from a CSV. Validation failures never
// reach the network; success is followed by a full refetch.
func (c *Credentials) Upload(ctx context.Context, req types.UploadCredentialsRequest) (*types.UploadCredentialsResponse, error) {
	if err := ValidateCSVFile(req.CSVPath); err != nil {
		return nil, err
	}
	if req.LoginURL == "" || req.BillingURL == "" {
		return nil, fmt.Errorf("please fill in all required fields")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.api.UploadCredentials(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return resp, err
	}
	return resp, nil
}

// ControlAgent sends RUN or STOPPED for one credential and refetches.
func (c *Credentials) ControlAgent(ctx context.Context, credID uuid.UUID, action types.AgentAction) error {
	if err := c.api.ControlAgent(ctx, credID, action); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// Delete deletes one credential and refetches.
func (c *Credentials) Delete(ctx context.Context, credID uuid.UUID) error {
	if err := c.api.DeleteCredential(ctx, credID); err != nil {
		return err
	}
	return c.Refresh(ctx)
}
