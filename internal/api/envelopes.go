package api

import (
	"context"

	"orca/internal/core"
)

// Envelope writes live under the singular /envelope prefix while the list
// is /envelopes.

func (c *Client) ListEnvelopes(ctx context.Context, budgetID string) ([]core.Envelope, error) {
	var out []core.Envelope
	if err := c.get(ctx, "/envelopes", budgetQuery(budgetID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEnvelope(ctx context.Context, in core.EnvelopeInput) (string, error) {
	return c.create(ctx, "/envelope/create-envelope", in)
}

func (c *Client) UpdateEnvelope(ctx context.Context, in core.EnvelopeInput) error {
	return c.post(ctx, "/envelope/update-envelope", in, nil)
}

func (c *Client) DeleteEnvelope(ctx context.Context, req core.DeleteRequest) error {
	return c.post(ctx, "/envelope/delete-envelope", req, nil)
}
