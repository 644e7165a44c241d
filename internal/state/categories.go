package state

import (
	"context"

	"orca/internal/core"
	"orca/internal/log"
)

type CategoryState struct {
	*Store[[]core.Category]
	ws *Workspace
}

func newCategoryState(ws *Workspace) *CategoryState {
	return &CategoryState{
		ws: ws,
		Store: NewStore(func(ctx context.Context) ([]core.Category, error) {
			id := ws.BudgetID()
			if id == "" {
				return nil, nil
			}
			return ws.deps.API.ListCategories(ctx, id)
		}),
	}
}

// ByType returns the loaded categories of the given type, keeping API order.
func (s *CategoryState) ByType(t core.CategoryType) []core.Category {
	var out []core.Category
	for _, c := range s.Data() {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func (s *CategoryState) Create(ctx context.Context, in core.CategoryInput) error {
	in.ID = ""
	return s.save(ctx, in, log.OpCreate, func(ctx context.Context) (string, error) {
		return s.ws.deps.API.CreateCategory(ctx, in)
	})
}

func (s *CategoryState) Update(ctx context.Context, in core.CategoryInput) error {
	return s.save(ctx, in, log.OpUpdate, func(ctx context.Context) (string, error) {
		return in.ID, s.ws.deps.API.UpdateCategory(ctx, in)
	})
}

func (s *CategoryState) save(ctx context.Context, in core.CategoryInput, op string, submit func(context.Context) (string, error)) error {
	in.BudgetID = s.ws.BudgetID()
	if in.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateCategory(in); err != nil {
		return err
	}
	c := Change{BudgetID: in.BudgetID, Resource: ResourceCategory, Operation: op, ResourceID: in.ID}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		id, err := submit(ctx)
		c.ResourceID = id
		return err
	}, s)
}

// Delete also reloads envelopes, which reference categories.
func (s *CategoryState) Delete(ctx context.Context, id string) error {
	req := core.DeleteRequest{ID: id, BudgetID: s.ws.BudgetID()}
	if req.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	c := Change{BudgetID: req.BudgetID, Resource: ResourceCategory, Operation: log.OpDelete, ResourceID: id}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return s.ws.deps.API.DeleteCategory(ctx, req)
	}, s, s.ws.Envelopes)
}
