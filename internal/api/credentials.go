package api

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/sagility/billingctl/internal/types"
)

// UploadCredentials bulk-creates credentials from a CSV file.
func (c *Client) UploadCredentials(ctx context.Context, req types.UploadCredentialsRequest) (*types.UploadCredentialsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp types.UploadCredentialsResponse
	err := c.postMultipart(ctx, "/credentials/upload", func(w *multipart.Writer) error {
		if err := writeFilePart(w, "csv_file", req.CSVPath); err != nil {
			return err
		}
		if err := w.WriteField("login_url", req.LoginURL); err != nil {
			return err
		}
		return w.WriteField("billing_url", req.BillingURL)
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCredentials returns every credential belonging to the user.
func (c *Client) ListCredentials(ctx context.Context) ([]types.Credential, error) {
	var creds []types.Credential
	if err := c.getJSON(ctx, "/credentials", &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// ControlAgent sends a RUN or STOPPED command for one credential.
func (c *Client) ControlAgent(ctx context.Context, credID uuid.UUID, action types.AgentAction) error {
	req := types.AgentActionRequest{Action: action}
	if err := req.Validate(); err != nil {
		return err
	}
	return c.postJSON(ctx, "/credentials/"+credID.String()+"/agent", req, nil)
}

// DeleteCredential deletes one credential. Whether the delete is soft or
// hard is the backend's decision.
func (c *Client) DeleteCredential(ctx context.Context, credID uuid.UUID) error {
	return c.deleteJSON(ctx, "/credentials/"+credID.String(), nil)
}

// DownloadCredentialPDF fetches the bill stored for a credential.
func (c *Client) DownloadCredentialPDF(ctx context.Context, credID uuid.UUID) ([]byte, string, error) {
	return c.Download(ctx, "/credentials/"+credID.String()+"/download_pdf")
}

// UploadCredentialPDF attaches a manually obtained bill (plus its billing
// period) to a credential. This is a separate pipeline from agent-fetched
// bills.
func (c *Client) UploadCredentialPDF(ctx context.Context, credID uuid.UUID, req types.UploadPDFRequest) (*types.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp types.MessageResponse
	err := c.postMultipart(ctx, "/credentials/"+credID.String()+"/upload_pdf", func(w *multipart.Writer) error {
		if err := writeFilePart(w, "pdf_file", req.PDFPath); err != nil {
			return err
		}
		if req.Year != "" {
			if err := w.WriteField("year", req.Year); err != nil {
				return err
			}
		}
		if req.Month != "" {
			if err := w.WriteField("month", req.Month); err != nil {
				return err
			}
		}
		return nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadManualPDF fetches the manually uploaded bill for a credential.
func (c *Client) DownloadManualPDF(ctx context.Context, credID uuid.UUID) ([]byte, string, error) {
	return c.Download(ctx, "/credentials/"+credID.String()+"/download_manual_pdf")
}

// GetBillingResults lists the stored bills for one credential, newest first.
func (c *Client) GetBillingResults(ctx context.Context, credID uuid.UUID) ([]types.BillingResult, error) {
	var results []types.BillingResult
	if err := c.getJSON(ctx, "/billing-results/"+credID.String(), &results); err != nil {
		return nil, err
	}
	return results, nil
}
