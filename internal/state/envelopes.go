package state

import (
	"context"

	"orca/internal/core"
	"orca/internal/log"
)

type EnvelopeState struct {
	*Store[[]core.Envelope]
	ws *Workspace
}

func newEnvelopeState(ws *Workspace) *EnvelopeState {
	return &EnvelopeState{
		ws: ws,
		Store: NewStore(func(ctx context.Context) ([]core.Envelope, error) {
			id := ws.BudgetID()
			if id == "" {
				return nil, nil
			}
			return ws.deps.API.ListEnvelopes(ctx, id)
		}),
	}
}

// Summary aggregates the loaded envelopes.
func (s *EnvelopeState) Summary() core.EnvelopeSummary {
	return core.SummarizeEnvelopes(s.Data())
}

// Create checks the category against the loaded categories, loading them
// first if needed.
func (s *EnvelopeState) Create(ctx context.Context, in core.EnvelopeInput) error {
	in.ID = ""
	in.BudgetID = s.ws.BudgetID()
	if in.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	var categories []core.Category
	if err := s.ws.Categories.Ensure(ctx); err == nil {
		categories = s.ws.Categories.Data()
	}
	if err := core.ValidateEnvelope(in, categories); err != nil {
		return err
	}
	c := Change{BudgetID: in.BudgetID, Resource: ResourceEnvelope, Operation: log.OpCreate, AmountCents: in.Limit.Cents}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		id, err := s.ws.deps.API.CreateEnvelope(ctx, in)
		c.ResourceID = id
		return err
	}, s)
}

func (s *EnvelopeState) Update(ctx context.Context, in core.EnvelopeInput) error {
	in.BudgetID = s.ws.BudgetID()
	if in.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	if err := core.ValidateEnvelope(in, nil); err != nil {
		return err
	}
	c := Change{BudgetID: in.BudgetID, Resource: ResourceEnvelope, Operation: log.OpUpdate, ResourceID: in.ID, AmountCents: in.Limit.Cents}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return s.ws.deps.API.UpdateEnvelope(ctx, in)
	}, s)
}

func (s *EnvelopeState) Delete(ctx context.Context, id string) error {
	req := core.DeleteRequest{ID: id, BudgetID: s.ws.BudgetID()}
	if req.BudgetID == "" {
		return ErrNoBudgetSelected
	}
	c := Change{BudgetID: req.BudgetID, Resource: ResourceEnvelope, Operation: log.OpDelete, ResourceID: id}
	return s.ws.writer.apply(ctx, &c, func(ctx context.Context) error {
		return s.ws.deps.API.DeleteEnvelope(ctx, req)
	}, s)
}
