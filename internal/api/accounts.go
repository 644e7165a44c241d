package api

import (
	"context"

	"orca/internal/core"
)

func (c *Client) ListAccounts(ctx context.Context, budgetID string) ([]core.Account, error) {
	var out []core.Account
	if err := c.get(ctx, "/accounts", budgetQuery(budgetID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, in core.AccountInput) (string, error) {
	return c.create(ctx, "/accounts/create-account", in)
}

func (c *Client) UpdateAccount(ctx context.Context, in core.AccountInput) error {
	return c.post(ctx, "/accounts/update-account", in, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, req core.DeleteRequest) error {
	return c.post(ctx, "/accounts/delete-account", req, nil)
}

func (c *Client) Transfer(ctx context.Context, req core.TransferRequest) error {
	return c.post(ctx, "/accounts/transfer-between-accounts", req, nil)
}

func (c *Client) Reconcile(ctx context.Context, req core.ReconcileRequest) error {
	return c.post(ctx, "/accounts/reconcile-account", req, nil)
}
