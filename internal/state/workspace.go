package state

import (
	"context"
	"time"

	"orca/internal/log"
)

// Workspace bundles the state holders of one browser session.
type Workspace struct {
	Session string

	Budgets    *BudgetState
	Accounts   *AccountState
	Categories *CategoryState
	Envelopes  *EnvelopeState
	Goals      *GoalState
	Dashboard  *DashboardState

	deps   Deps
	logger *log.Logger
	writer *writer
}

func NewWorkspace(session string, deps Deps) *Workspace {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ws := &Workspace{
		Session: session,
		deps:    deps,
		logger:  deps.Logger.WithComponent(log.ComponentState).With(log.FieldSessionID, session),
	}
	ws.writer = &writer{ws: ws, logger: ws.logger, events: log.NewStructuredLogger(ws.logger)}
	ws.Budgets = newBudgetState(ws)
	ws.Accounts = newAccountState(ws)
	ws.Categories = newCategoryState(ws)
	ws.Envelopes = newEnvelopeState(ws)
	ws.Goals = newGoalState(ws)
	ws.Dashboard = newDashboardState(ws)
	return ws
}

// BudgetID returns the selected budget id, "" when none is selected.
func (w *Workspace) BudgetID() string {
	return w.Budgets.SelectedID()
}

// Prepare makes sure the budget list is loaded and a budget is selected.
func (w *Workspace) Prepare(ctx context.Context) error {
	return w.Budgets.Ensure(ctx)
}

// Invalidate marks every budget-scoped holder stale.
func (w *Workspace) Invalidate() {
	w.Accounts.Invalidate()
	w.Categories.Invalidate()
	w.Envelopes.Invalidate()
	w.Goals.Invalidate()
	w.Dashboard.Invalidate()
}

// switchBudget drops everything loaded for the previous budget.
func (w *Workspace) switchBudget() {
	w.Accounts.Reset()
	w.Categories.Reset()
	w.Envelopes.Reset()
	w.Goals.Reset()
	w.Dashboard.Reset()
}

func (w *Workspace) now() time.Time { return w.deps.Now() }
