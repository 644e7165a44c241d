package api

import (
	"context"

	"orca/internal/core"
)

func (c *Client) ListCategories(ctx context.Context, budgetID string) ([]core.Category, error) {
	var out []core.Category
	if err := c.get(ctx, "/categories", budgetQuery(budgetID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (string, error) {
	return c.create(ctx, "/categories/create-category", in)
}

func (c *Client) UpdateCategory(ctx context.Context, in core.CategoryInput) error {
	return c.post(ctx, "/categories/update-category", in, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, req core.DeleteRequest) error {
	return c.post(ctx, "/categories/delete-category", req, nil)
}
