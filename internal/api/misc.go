package api

import (
	"context"

	"github.com/sagility/billingctl/internal/types"
)

// ScheduleWeekly enables the backend's weekly schedule for the user's
// credentials. The per-job schedule fields on CreateJob are the richer
// replacement; this endpoint survives from the older surface.
func (c *Client) ScheduleWeekly(ctx context.Context) (*types.MessageResponse, error) {
	var resp types.MessageResponse
	if err := c.postJSON(ctx, "/schedule/weekly", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil)
}
