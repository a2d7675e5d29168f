package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadCredentialsRequest_Validate(t *testing.T) {
	req := UploadCredentialsRequest{
		CSVPath:    "/tmp/creds.csv",
		LoginURL:   "https://portal.example.com/login",
		BillingURL: "https://portal.example.com/billing",
	}
	assert.NoError(t, req.Validate())

	req.BillingURL = ""
	assert.Error(t, req.Validate())
}

func TestUploadPDFRequest_Validate(t *testing.T) {
	req := UploadPDFRequest{PDFPath: "/tmp/bill.pdf", Year: "2026", Month: "07"}
	assert.NoError(t, req.Validate())

	req = UploadPDFRequest{PDFPath: "/tmp/bill.pdf"}
	assert.NoError(t, req.Validate(), "period is optional")

	req = UploadPDFRequest{PDFPath: "/tmp/bill.pdf", Year: "26"}
	assert.Error(t, req.Validate())

	req = UploadPDFRequest{PDFPath: "/tmp/bill.pdf", Month: "7"}
	assert.Error(t, req.Validate())
}

func TestAgentActionRequest_Validate(t *testing.T) {
	for _, action := range []AgentAction{AgentRun, AgentStopped} {
		req := AgentActionRequest{Action: action}
		assert.NoError(t, req.Validate())
	}
	req := AgentActionRequest{Action: "PAUSE"}
	assert.Error(t, req.Validate())
}

func TestAuthResponse_DecodesBothShapes(t *testing.T) {
	// Bare token shape.
	var bare AuthResponse
	require.NoError(t, json.Unmarshal([]byte(`{"access_token": "tok", "token_type": "bearer"}`), &bare))
	assert.Equal(t, "tok", bare.AccessToken)
	assert.Nil(t, bare.ExpiresAt)
	assert.Nil(t, bare.User)

	// Token with session metadata shape.
	raw := `{
		"access_token": "tok2",
		"expires_at": "2026-08-30T12:00:00Z",
		"user": {"id": "5f5e7d4e-25b1-4f9a-9c2a-64de0b67a1f9", "email": "a@b.com"}
	}`
	var full AuthResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &full))
	require.NotNil(t, full.ExpiresAt)
	require.NotNil(t, full.User)
	assert.Equal(t, "a@b.com", full.User.Email)
}

func TestCredential_DecodesLastState(t *testing.T) {
	raw := `{
		"id": "5f5e7d4e-25b1-4f9a-9c2a-64de0b67a1f9",
		"email": "meter@example.com",
		"last_state": "running",
		"is_deleted": false,
		"created_at": "2026-01-02T03:04:05Z"
	}`
	var cred Credential
	require.NoError(t, json.Unmarshal([]byte(raw), &cred))
	assert.Equal(t, StatusRunning, cred.LastState)
	assert.False(t, cred.IsDeleted)
}
