package api

import (
	"context"

	"orca/internal/core"
)

func (c *Client) ListGoals(ctx context.Context, budgetID string) ([]core.Goal, error) {
	var out []core.Goal
	if err := c.get(ctx, "/goal", budgetQuery(budgetID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGoal(ctx context.Context, in core.GoalInput) (string, error) {
	return c.create(ctx, "/goal/create-goal", in)
}

func (c *Client) UpdateGoal(ctx context.Context, in core.GoalInput) error {
	return c.post(ctx, "/goal/update-goal", in, nil)
}

func (c *Client) DeleteGoal(ctx context.Context, req core.DeleteRequest) error {
	return c.post(ctx, "/goal/delete-goal", req, nil)
}

func (c *Client) AddGoalAmount(ctx context.Context, req core.GoalAmountRequest) error {
	return c.post(ctx, "/goal/add-amount-goal", req, nil)
}

func (c *Client) RemoveGoalAmount(ctx context.Context, req core.GoalAmountRequest) error {
	return c.post(ctx, "/goal/remove-amount-goal", req, nil)
}
