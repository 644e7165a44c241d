package state

import (
	"context"
	"errors"
	"time"

	"orca/internal/api"
	"orca/internal/core"
	"orca/internal/log"
)

// SelectedBudgetKey is the preference key remembering the active budget.
const SelectedBudgetKey = "orca-sonhos-selected-budget-id"

// Resource names carried by change notifications.
const (
	ResourceBudget   = "budget"
	ResourceAccount  = "account"
	ResourceCategory = "category"
	ResourceEnvelope = "envelope"
	ResourceGoal     = "goal"
)

var (
	ErrNoBudgetSelected = errors.New("no budget selected")
	ErrBudgetNotFound   = errors.New("budget not found")
)

// API is the subset of the remote client the holders use. *api.Client
// satisfies it.
type API interface {
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	BudgetOverview(ctx context.Context, budgetID string) (core.BudgetOverview, error)
	DashboardInsights(ctx context.Context, budgetID string) (core.DashboardInsights, error)

	ListAccounts(ctx context.Context, budgetID string) ([]core.Account, error)
	CreateAccount(ctx context.Context, in core.AccountInput) (string, error)
	UpdateAccount(ctx context.Context, in core.AccountInput) error
	DeleteAccount(ctx context.Context, req core.DeleteRequest) error
	Transfer(ctx context.Context, req core.TransferRequest) error
	Reconcile(ctx context.Context, req core.ReconcileRequest) error

	ListCategories(ctx context.Context, budgetID string) ([]core.Category, error)
	CreateCategory(ctx context.Context, in core.CategoryInput) (string, error)
	UpdateCategory(ctx context.Context, in core.CategoryInput) error
	DeleteCategory(ctx context.Context, req core.DeleteRequest) error

	ListEnvelopes(ctx context.Context, budgetID string) ([]core.Envelope, error)
	CreateEnvelope(ctx context.Context, in core.EnvelopeInput) (string, error)
	UpdateEnvelope(ctx context.Context, in core.EnvelopeInput) error
	DeleteEnvelope(ctx context.Context, req core.DeleteRequest) error

	ListGoals(ctx context.Context, budgetID string) ([]core.Goal, error)
	CreateGoal(ctx context.Context, in core.GoalInput) (string, error)
	UpdateGoal(ctx context.Context, in core.GoalInput) error
	DeleteGoal(ctx context.Context, req core.DeleteRequest) error
	AddGoalAmount(ctx context.Context, req core.GoalAmountRequest) error
	RemoveGoalAmount(ctx context.Context, req core.GoalAmountRequest) error
}

// Preferences persists small per-session values.
type Preferences interface {
	Get(ctx context.Context, session, key string) (string, bool, error)
	Set(ctx context.Context, session, key, value string) error
}

// Change describes a write the remote API accepted.
type Change struct {
	BudgetID    string
	Resource    string
	Operation   string
	ResourceID  string
	AmountCents int64
}

// Deps are shared by every workspace.
type Deps struct {
	API    API
	Prefs  Preferences
	Logger *log.Logger
	// Notify, when set, is called after every accepted write.
	Notify func(ctx context.Context, c Change)
	Now    func() time.Time
}

var _ API = (*api.Client)(nil)
