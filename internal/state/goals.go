package state

import (
	"context"

	"orca/internal/core"
	"orca/internal/log"
)

type GoalState struct {
	*Store[[]core.Goal]
	ws *Workspace
}

func newGoalState(ws *Workspace) *GoalState {
	return &GoalState{
		ws: ws,
		Store: NewStore(func(ctx context.Context) ([]core.Goal, error) {
			id := ws.BudgetID()
			if id == "" {
				return nil, nil
			}
			return ws.deps.API.ListGoals(ctx, id)
		}),
	}
}

// Projections derives progress, suggestion and status for the loaded goals.
func (s *GoalState) Projections() []core.GoalProjection {
	return core.ProjectGoals(s.Data(), s.ws.now())
}

func (s *GoalState) Create(ctx context.Context, in core.GoalInput) error {
	in.ID = ""
	in.BudgetID = s.ws.BudgetID()
	if in.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateGoal(in, s.ws.now()); err != nil {
		return err
	}
	c := Change{BudgetID: in.BudgetID, Resource: ResourceGoal, Operation: log.OpCreate, AmountCents: in.TotalAmount.Cents}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		id, err := s.ws.deps.API.CreateGoal(ctx, in)
		c.ResourceID = id
		return err
	}, s)
}

func (s *GoalState) Update(ctx context.Context, in core.GoalInput) error {
	in.BudgetID = s.ws.BudgetID()
	if in.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateGoal(in, s.ws.now()); err != nil {
		return err
	}
	c := Change{BudgetID: in.BudgetID, Resource: ResourceGoal, Operation: log.OpUpdate, ResourceID: in.ID, AmountCents: in.TotalAmount.Cents}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return s.ws.deps.API.UpdateGoal(ctx, in)
	}, s)
}

func (s *GoalState) Delete(ctx context.Context, id string) error {
	req := core.DeleteRequest{ID: id, BudgetID: s.ws.BudgetID()}
	if req.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	c := Change{BudgetID: req.BudgetID, Resource: ResourceGoal, Operation: log.OpDelete, ResourceID: id}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return s.ws.deps.API.DeleteGoal(ctx, req)
	}, s)
}

// AddAmount contributes to a goal. Accounts are reloaded too since the
// contribution may move money out of the source account.
func (s *GoalState) AddAmount(ctx context.Context, req core.GoalAmountRequest) error {
	return s.changeAmount(ctx, req, false)
}

func (s *GoalState) RemoveAmount(ctx context.Context, req core.GoalAmountRequest) error {
	return s.changeAmount(ctx, req, true)
}

func (s *GoalState) changeAmount(ctx context.Context, req core.GoalAmountRequest, remove bool) error {
	req.BudgetID = s.ws.BudgetID()
	if req.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateGoalAmount(req, s.Data(), remove); err != nil {
		return err
	}
	op, submit := log.OpAddAmount, s.ws.deps.API.AddGoalAmount
	if remove {
		op, submit = log.OpRemoveAmount, s.ws.deps.API.RemoveGoalAmount
	}
	c := Change{BudgetID: req.BudgetID, Resource: ResourceGoal, Operation: op, ResourceID: req.GoalID, AmountCents: req.Amount.Cents}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return submit(ctx, req)
	}, s, s.ws.Accounts)
}
