package state

import (
	"context"

	"orca/internal/core"
	"orca/internal/log"
)

type AccountState struct {
	*Store[[]core.Account]
	ws *Workspace
}

func newAccountState(ws *Workspace) *AccountState {
	return &AccountState{
		ws: ws,
		Store: NewStore(func(ctx context.Context) ([]core.Account, error) {
			id := ws.BudgetID()
			if id == "" {
				return nil, nil
			}
			return ws.deps.API.ListAccounts(ctx, id)
		}),
	}
}

func (a *AccountState) Create(ctx context.Context, in core.AccountInput) error {
	in.ID = ""
	in.BudgetID = a.ws.BudgetID()
	if in.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateAccount(in); err != nil {
		return err
	}
	c := Change{BudgetID: in.BudgetID, Resource: ResourceAccount, Operation: log.OpCreate, AmountCents: in.InitialBalance.Cents}
	return a.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		id, err := a.ws.deps.API.CreateAccount(ctx, in)
		c.ResourceID = id
		return err
	}, a)
}

func (a *AccountState) Update(ctx context.Context, in core.AccountInput) error {
	in.BudgetID = a.ws.BudgetID()
	if in.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateAccount(in); err != nil {
		return err
	}
	c := Change{BudgetID: in.BudgetID, Resource: ResourceAccount, Operation: log.OpUpdate, ResourceID: in.ID}
	return a.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return a.ws.deps.API.UpdateAccount(ctx, in)
	}, a)
}

func (a *AccountState) Delete(ctx context.Context, id string) error {
	req := core.DeleteRequest{ID: id, BudgetID: a.ws.BudgetID()}
	if req.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	c := Change{BudgetID: req.BudgetID, Resource: ResourceAccount, Operation: log.OpDelete, ResourceID: id}
	return a.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return a.ws.deps.API.DeleteAccount(ctx, req)
	}, a)
}

// Transfer validates against the loaded balances before submitting.
func (a *AccountState) Transfer(ctx context.Context, req core.TransferRequest) error {
	req.BudgetID = a.ws.BudgetID()
	if req.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateTransfer(req, a.Data()); err != nil {
		return err
	}
	c := Change{BudgetID: req.BudgetID, Resource: ResourceAccount, Operation: log.OpTransfer, ResourceID: req.FromAccountID, AmountCents: req.Amount.Cents}
	return a.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return a.ws.deps.API.Transfer(ctx, req)
	}, a)
}

func (a *AccountState) Reconcile(ctx context.Context, req core.ReconcileRequest) error {
	req.BudgetID = a.ws.BudgetID()
	if req.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateReconcile(req, a.Data()); err != nil {
		return err
	}
	c := Change{BudgetID: req.BudgetID, Resource: ResourceAccount, Operation: log.OpReconcile, ResourceID: req.AccountID, AmountCents: req.RealBalance.Cents}
	return a.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return a.ws.deps.API.Reconcile(ctx, req)
	}, a)
}
