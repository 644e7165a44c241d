package http

import (
	"context"

	"orca/internal/core"
	"orca/internal/services"
	"orca/internal/state"
)

type DashboardContent struct {
	View *services.DashboardView
	Err  string
}

type AccountsView struct {
	HasBudget bool
	Accounts  []core.Account
	Total     core.Money
	Liquid    core.Money
	Err       string
}

type CategoryGroup struct {
	Type       core.CategoryType
	Categories []core.Category
}

type CategoriesView struct {
	HasBudget bool
	Groups    []CategoryGroup
	Err       string
}

type EnvelopesView struct {
	HasBudget  bool
	Envelopes  []core.Envelope
	Summary    core.EnvelopeSummary
	Categories []core.Category
	Err        string
}

type GoalsView struct {
	HasBudget   bool
	Goals       []core.GoalProjection
	Accounts    []core.Account
	Total       core.Money
	Accumulated core.Money
	Err         string
}

type BudgetsView struct {
	Budgets    []core.Budget
	SelectedID string
	Err        string
}

// prepared runs Prepare and reports whether a budget is selected. A non-empty
// message means the budget list itself could not be loaded.
func prepared(ctx context.Context, ws *state.Workspace) (bool, string) {
	if err := ws.Prepare(ctx); err != nil {
		return false, errorMessage(err)
	}
	return ws.BudgetID() != "", ""
}

func (s *Server) dashboardContent(ctx context.Context, ws *state.Workspace) DashboardContent {
	view, err := s.deps.Dashboard.Load(ctx, ws)
	return DashboardContent{View: view, Err: errorMessage(err)}
}

func accountsView(ctx context.Context, ws *state.Workspace) AccountsView {
	var v AccountsView
	if v.HasBudget, v.Err = prepared(ctx, ws); !v.HasBudget {
		return v
	}
	if err := ws.Accounts.Ensure(ctx); err != nil {
		v.Err = errorMessage(err)
	}
	v.Accounts = ws.Accounts.Data()
	v.Total = core.TotalBalance(v.Accounts)
	v.Liquid = services.LiquidBalance(v.Accounts)
	return v
}

func categoriesView(ctx context.Context, ws *state.Workspace) CategoriesView {
	var v CategoriesView
	if v.HasBudget, v.Err = prepared(ctx, ws); !v.HasBudget {
		return v
	}
	if err := ws.Categories.Ensure(ctx); err != nil {
		v.Err = errorMessage(err)
	}
	for _, t := range core.CategoryTypes() {
		v.Groups = append(v.Groups, CategoryGroup{Type: t, Categories: ws.Categories.ByType(t)})
	}
	return v
}

func envelopesView(ctx context.Context, ws *state.Workspace) EnvelopesView {
	var v EnvelopesView
	if v.HasBudget, v.Err = prepared(ctx, ws); !v.HasBudget {
		return v
	}
	if err := ws.Envelopes.Ensure(ctx); err != nil {
		v.Err = errorMessage(err)
	}
	// The category list only feeds the create form.
	if err := ws.Categories.Ensure(ctx); err == nil {
		v.Categories = ws.Categories.ByType(core.CategoryExpense)
	}
	v.Envelopes = ws.Envelopes.Data()
	v.Summary = ws.Envelopes.Summary()
	return v
}

func goalsView(ctx context.Context, ws *state.Workspace) GoalsView {
	var v GoalsView
	if v.HasBudget, v.Err = prepared(ctx, ws); !v.HasBudget {
		return v
	}
	if err := ws.Goals.Ensure(ctx); err != nil {
		v.Err = errorMessage(err)
	}
	if err := ws.Accounts.Ensure(ctx); err == nil {
		v.Accounts = ws.Accounts.Data()
	}
	v.Goals = ws.Goals.Projections()
	v.Total, v.Accumulated = core.GoalTotals(ws.Goals.Data())
	return v
}

func budgetsView(ctx context.Context, ws *state.Workspace) BudgetsView {
	var v BudgetsView
	if err := ws.Prepare(ctx); err != nil {
		v.Err = errorMessage(err)
	}
	v.Budgets = ws.Budgets.Data()
	v.SelectedID = ws.BudgetID()
	return v
}
