package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orca/internal/core"
	"orca/internal/log"
	"orca/internal/state"
	"orca/internal/state/statetest"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newWorkspace(fake *statetest.FakeAPI) *state.Workspace {
	return state.NewWorkspace("s1", state.Deps{
		API:    fake,
		Prefs:  &statetest.MemPrefs{},
		Logger: log.Discard(),
		Now:    func() time.Time { return testNow },
	})
}

func TestDashboardService_Load(t *testing.T) {
	fake := statetest.NewFakeAPI()
	fake.Envelopes = []core.Envelope{
		{ID: "e1", Name: "Mercado", Limit: core.Cents(10000), CurrentUsage: core.Cents(12000)},
		{ID: "e2", Name: "Lazer", Limit: core.Cents(10000), CurrentUsage: core.Cents(8500)},
		{ID: "e3", Name: "Casa", Limit: core.Cents(10000), CurrentUsage: core.Cents(1000)},
	}
	deadline := core.NewDate(2025, 1, 1)
	fake.Goals = append(fake.Goals, core.Goal{ID: "g2", Name: "Viagem", TotalAmount: core.Cents(1000), Deadline: &deadline})
	fake.Insights = core.DashboardInsights{
		MonthlyIncome:          core.Cents(500000),
		MonthlyExpenses:        core.Cents(400000),
		AverageMonthlyExpenses: core.Cents(100000),
		LiquidReserve:          core.Cents(700000),
	}

	svc := NewDashboardService(nil)
	svc.now = func() time.Time { return testNow }
	view, err := svc.Load(context.Background(), newWorkspace(fake))
	require.NoError(t, err)

	assert.True(t, view.HasBudget)
	assert.Equal(t, "b1", view.Budget.ID)
	assert.False(t, view.Partial())
	assert.Equal(t, core.Cents(10000), view.AccountsTotal)
	assert.Equal(t, 1, view.EnvelopeSummary.OverBudgetCount)
	assert.Equal(t, 1, view.EnvelopeSummary.NearLimitCount)
	assert.Len(t, view.Goals, 2)
	assert.Equal(t, core.Cents(6000), view.GoalsTotal)

	require.Len(t, view.Alerts, 3)
	assert.Equal(t, AlertOverBudget, view.Alerts[0].Kind)
	assert.Equal(t, "Mercado", view.Alerts[0].Title)
	assert.Equal(t, AlertNearLimit, view.Alerts[1].Kind)
	assert.Equal(t, AlertGoalOverdue, view.Alerts[2].Kind)
	assert.Equal(t, "Viagem", view.Alerts[2].Title)

	require.Len(t, view.Health.Indicators, 4)
	assert.Equal(t, core.Warning, view.Health.Overall, "one of two goals overdue")
}

func TestDashboardService_PartialFailure(t *testing.T) {
	fake := statetest.NewFakeAPI()
	fake.ListErr["envelopes"] = statetest.ErrBoom
	fake.ListErr["insights"] = statetest.ErrBoom
	fake.Overview = core.BudgetOverview{TotalIncome: core.Cents(1000), TotalExpenses: core.Cents(500)}

	view, err := NewDashboardService(nil).Load(context.Background(), newWorkspace(fake))
	require.NoError(t, err)

	assert.True(t, view.Partial())
	assert.Equal(t, "boom", view.EnvelopesErr)
	assert.Equal(t, "boom", view.InsightsErr)
	assert.Empty(t, view.AccountsErr)
	assert.Len(t, view.Accounts, 2)

	// spending ratio falls back to the overview totals
	var ratio core.HealthIndicator
	for _, ind := range view.Health.Indicators {
		if ind.Key == "spending_ratio" {
			ratio = ind
		}
	}
	assert.Equal(t, 50.0, ratio.Value)
}

func TestDashboardService_BudgetListFailure(t *testing.T) {
	fake := statetest.NewFakeAPI()
	fake.ListErr["budgets"] = statetest.ErrBoom

	_, err := NewDashboardService(nil).Load(context.Background(), newWorkspace(fake))
	assert.Error(t, err)
	assert.Equal(t, 0, fake.Count("accounts"))
}

func TestDashboardService_NoBudgets(t *testing.T) {
	fake := statetest.NewFakeAPI()
	fake.Budgets = nil

	view, err := NewDashboardService(nil).Load(context.Background(), newWorkspace(fake))
	require.NoError(t, err)
	assert.False(t, view.HasBudget)
	assert.Equal(t, 0, fake.Count("overview"))
}

func TestLiquidBalance(t *testing.T) {
	accounts := []core.Account{
		{Type: core.AccountChecking, Balance: core.Cents(100)},
		{Type: core.AccountInvestment, Balance: core.Cents(5000)},
		{Type: core.AccountDigital, Balance: core.Cents(50)},
	}
	assert.Equal(t, core.Cents(150), LiquidBalance(accounts))
}
