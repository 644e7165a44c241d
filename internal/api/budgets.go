package api

import (
	"context"
	"net/url"

	"orca/internal/core"
)

func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var out []core.Budget
	if err := c.get(ctx, "/budgets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BudgetOverview(ctx context.Context, budgetID string) (core.BudgetOverview, error) {
	var out core.BudgetOverview
	err := c.get(ctx, "/budget/"+url.PathEscape(budgetID)+"/overview", nil, &out)
	if out.BudgetID == "" {
		out.BudgetID = budgetID
	}
	return out, err
}

func (c *Client) DashboardInsights(ctx context.Context, budgetID string) (core.DashboardInsights, error) {
	var out core.DashboardInsights
	err := c.get(ctx, "/budget/"+url.PathEscape(budgetID)+"/dashboard/insights", nil, &out)
	return out, err
}
