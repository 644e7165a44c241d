// Package services composes the state holders into the views the pages and
// JSON endpoints render.
package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"orca/internal/api"
	"orca/internal/core"
	"orca/internal/log"
	"orca/internal/state"
)

// Alert kinds shown on the dashboard.
const (
	AlertOverBudget  = "over_budget"
	AlertNearLimit   = "near_limit"
	AlertGoalOverdue = "goal_overdue"
)

type Alert struct {
	Kind    string           `json:"kind"`
	Level   core.HealthLevel `json:"level"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}

// DashboardView is everything the dashboard shows. Each section carries its
// own error message so one failed fetch does not hide the others.
type DashboardView struct {
	Budget    core.Budget `json:"budget"`
	HasBudget bool        `json:"hasBudget"`

	Overview    core.BudgetOverview `json:"overview"`
	OverviewErr string              `json:"overviewError,omitempty"`

	Insights    core.DashboardInsights `json:"insights"`
	InsightsErr string                 `json:"insightsError,omitempty"`

	Accounts      []core.Account `json:"accounts"`
	AccountsTotal core.Money     `json:"accountsTotal"`
	AccountsErr   string         `json:"accountsError,omitempty"`

	Envelopes       []core.Envelope      `json:"envelopes"`
	EnvelopeSummary core.EnvelopeSummary `json:"envelopeSummary"`
	EnvelopesErr    string               `json:"envelopesError,omitempty"`

	Goals            []core.GoalProjection `json:"goals"`
	GoalsTotal       core.Money            `json:"goalsTotal"`
	GoalsAccumulated core.Money            `json:"goalsAccumulated"`
	GoalsErr         string                `json:"goalsError,omitempty"`

	Health core.HealthReport `json:"health"`
	Alerts []Alert           `json:"alerts"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// Partial reports whether at least one section failed to load.
func (v *DashboardView) Partial() bool {
	return v.OverviewErr != "" || v.InsightsErr != "" || v.AccountsErr != "" ||
		v.EnvelopesErr != "" || v.GoalsErr != ""
}

type DashboardService struct {
	logger *log.Logger
	now    func() time.Time
}

func NewDashboardService(logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{logger: logger.WithComponent(log.ComponentDashboard), now: time.Now}
}

// Load fetches the five dashboard sections concurrently. Only a failure to
// load the budget list is returned as an error.
func (s *DashboardService) Load(ctx context.Context, ws *state.Workspace) (*DashboardView, error) {
	start := time.Now()
	if err := ws.Prepare(ctx); err != nil {
		return nil, err
	}
	view := &DashboardView{GeneratedAt: s.now()}
	view.Budget, view.HasBudget = ws.Budgets.Selected()
	if !view.HasBudget {
		return view, nil
	}

	var g errgroup.Group
	g.Go(func() error {
		view.OverviewErr = s.section(ctx, "overview", ws.Dashboard.Overview.Ensure)
		return nil
	})
	g.Go(func() error {
		view.InsightsErr = s.section(ctx, "insights", ws.Dashboard.Insights.Ensure)
		return nil
	})
	g.Go(func() error {
		view.AccountsErr = s.section(ctx, state.ResourceAccount, ws.Accounts.Ensure)
		return nil
	})
	g.Go(func() error {
		view.EnvelopesErr = s.section(ctx, state.ResourceEnvelope, ws.Envelopes.Ensure)
		return nil
	})
	g.Go(func() error {
		view.GoalsErr = s.section(ctx, state.ResourceGoal, ws.Goals.Ensure)
		return nil
	})
	_ = g.Wait()

	view.Overview = ws.Dashboard.Overview.Data()
	view.Insights = ws.Dashboard.Insights.Data()
	view.Accounts = ws.Accounts.Data()
	view.AccountsTotal = core.TotalBalance(view.Accounts)
	view.Envelopes = ws.Envelopes.Data()
	view.EnvelopeSummary = core.SummarizeEnvelopes(view.Envelopes)
	view.Goals = ws.Goals.Projections()
	view.GoalsTotal, view.GoalsAccumulated = core.GoalTotals(ws.Goals.Data())

	view.Health = core.HealthIndicators(healthInput(view))
	view.Alerts = BuildAlerts(view.Envelopes, view.Goals)

	s.logger.DebugContext(ctx, "Dashboard loaded",
		log.FieldBudgetID, view.Budget.ID,
		"partial", view.Partial(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return view, nil
}

func (s *DashboardService) section(ctx context.Context, name string, ensure func(context.Context) error) string {
	if err := ensure(ctx); err != nil {
		apiErr := api.AsError(err)
		s.logger.WarnContext(ctx, "Dashboard section failed",
			log.FieldOperation, log.OpLoad,
			log.FieldResource, name,
			log.FieldErrorCode, apiErr.Code,
			log.FieldError, apiErr.Error())
		return apiErr.Message
	}
	return ""
}

// healthInput prefers the monthly insight figures and falls back to the
// overview totals and liquid account balances when insights are missing.
func healthInput(v *DashboardView) core.HealthInput {
	in := core.HealthInput{
		Income:                 v.Insights.MonthlyIncome,
		Expenses:               v.Insights.MonthlyExpenses,
		AverageMonthlyExpenses: v.Insights.AverageMonthlyExpenses,
		LiquidReserve:          v.Insights.LiquidReserve,
		Envelopes:              v.Envelopes,
		Goals:                  v.Goals,
	}
	if v.InsightsErr != "" {
		in.Income = v.Overview.TotalIncome
		in.Expenses = v.Overview.TotalExpenses
		in.LiquidReserve = LiquidBalance(v.Accounts)
	}
	return in
}

// LiquidBalance sums the accounts that can be drawn on immediately.
func LiquidBalance(accounts []core.Account) core.Money {
	var total core.Money
	for _, a := range accounts {
		switch a.Type {
		case core.AccountChecking, core.AccountSavings, core.AccountWallet, core.AccountDigital:
			total = total.Add(a.Balance)
		}
	}
	return total
}

// BuildAlerts lists over-budget envelopes first, then near-limit ones, then
// overdue goals.
func BuildAlerts(envelopes []core.Envelope, goals []core.GoalProjection) []Alert {
	alerts := []Alert{}
	for _, e := range envelopes {
		if e.IsOverBudget() {
			alerts = append(alerts, Alert{
				Kind:    AlertOverBudget,
				Level:   core.Critical,
				Title:   e.Name,
				Message: "Envelope acima do limite (" + formatPercent(e.Usage()) + ")",
			})
		}
	}
	for _, e := range envelopes {
		if e.IsNearLimit() {
			alerts = append(alerts, Alert{
				Kind:    AlertNearLimit,
				Level:   core.Warning,
				Title:   e.Name,
				Message: "Envelope próximo do limite (" + formatPercent(e.Usage()) + ")",
			})
		}
	}
	for _, g := range goals {
		if g.Status == core.GoalOverdue {
			alerts = append(alerts, Alert{
				Kind:    AlertGoalOverdue,
				Level:   core.Critical,
				Title:   g.Goal.Name,
				Message: "Prazo vencido, faltam " + g.Remaining.String(),
			})
		}
	}
	return alerts
}
