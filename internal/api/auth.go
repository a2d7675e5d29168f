package api

import (
	"context"

	"github.com/sagility/billingctl/internal/types"
)

// Login exchanges credentials for a bearer token. The response may or may not
// carry expiry and user metadata depending on the backend variant.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp types.AuthResponse
	if err := c.postJSON(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account. Depending on the backend variant the
// response is either a token payload (immediate session) or a bare message.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp types.AuthResponse
	if err := c.postJSON(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTestUser asks the backend to provision a throwaway account and
// returns its generated credentials.
func (c *Client) CreateTestUser(ctx context.Context) (*types.TestUserResponse, error) {
	var resp types.TestUserResponse
	if err := c.postJSON(ctx, "/create-test-user", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
