package state

import (
	"context"

	"orca/internal/core"
)

// DashboardState holds the two budget-level payloads only the dashboard uses.
type DashboardState struct {
	Overview *Store[core.BudgetOverview]
	Insights *Store[core.DashboardInsights]
}

func newDashboardState(ws *Workspace) *DashboardState {
	return &DashboardState{
		Overview: NewStore(func(ctx context.Context) (core.BudgetOverview, error) {
			id := ws.BudgetID()
			if id == "" {
				return core.BudgetOverview{}, nil
			}
			return ws.deps.API.BudgetOverview(ctx, id)
		}),
		Insights: NewStore(func(ctx context.Context) (core.DashboardInsights, error) {
			id := ws.BudgetID()
			if id == "" {
				return core.DashboardInsights{}, nil
			}
			return ws.deps.API.DashboardInsights(ctx, id)
		}),
	}
}

func (d *DashboardState) Invalidate() {
	d.Overview.Invalidate()
	d.Insights.Invalidate()
}

func (d *DashboardState) Reset() {
	d.Overview.Reset()
	d.Insights.Reset()
}
