// Package statetest provides in-memory stand-ins for the remote API and the
// preference store.
package statetest

import (
	"context"
	"errors"
	"sync"

	"orca/internal/api"
	"orca/internal/core"
)

// ErrBoom is a server-side failure.
var ErrBoom = &api.Error{Message: "boom", Status: 500, Code: api.CodeInternal}

// FakeAPI records calls and serves canned data. Fields may be changed
// between calls but not concurrently with them.
type FakeAPI struct {
	mu    sync.Mutex
	calls map[string]int
	posts []string

	Budgets    []core.Budget
	Accounts   []core.Account
	Goals      []core.Goal
	Categories []core.Category
	Envelopes  []core.Envelope
	Overview   core.BudgetOverview
	Insights   core.DashboardInsights

	// ListErr fails the named read ("accounts", "overview", ...).
	ListErr  map[string]error
	WriteErr error
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		calls:   map[string]int{},
		ListErr: map[string]error{},
		Budgets: []core.Budget{{ID: "b1", Name: "Casa"}, {ID: "b2", Name: "Viagem"}},
		Accounts: []core.Account{
			{ID: "a1", BudgetID: "b1", Name: "Conta", Type: core.AccountChecking, Balance: core.Cents(10000)},
			{ID: "a2", BudgetID: "b1", Name: "Carteira", Type: core.AccountWallet, Balance: core.Cents(0)},
		},
		Goals:      []core.Goal{{ID: "g1", Name: "Reserva", TotalAmount: core.Cents(5000), AccumulatedAmount: core.Cents(1000)}},
		Categories: []core.Category{{ID: "c1", Name: "Mercado", Type: core.CategoryExpense}},
	}
}

func (f *FakeAPI) read(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.ListErr[name]
}

func (f *FakeAPI) write(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	f.posts = append(f.posts, name)
	return f.WriteErr
}

// Count returns how many times the named call was made.
func (f *FakeAPI) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// Posts lists the writes in call order.
func (f *FakeAPI) Posts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posts...)
}

func (f *FakeAPI) ListBudgets(context.Context) ([]core.Budget, error) {
	if err := f.read("budgets"); err != nil {
		return nil, err
	}
	return f.Budgets, nil
}

func (f *FakeAPI) BudgetOverview(_ context.Context, id string) (core.BudgetOverview, error) {
	if err := f.read("overview"); err != nil {
		return core.BudgetOverview{}, err
	}
	o := f.Overview
	o.BudgetID = id
	return o, nil
}

func (f *FakeAPI) DashboardInsights(context.Context, string) (core.DashboardInsights, error) {
	if err := f.read("insights"); err != nil {
		return core.DashboardInsights{}, err
	}
	return f.Insights, nil
}

func (f *FakeAPI) ListAccounts(context.Context, string) ([]core.Account, error) {
	if err := f.read("accounts"); err != nil {
		return nil, err
	}
	return f.Accounts, nil
}

func (f *FakeAPI) CreateAccount(context.Context, core.AccountInput) (string, error) {
	return "a9", f.write("create-account")
}

func (f *FakeAPI) UpdateAccount(context.Context, core.AccountInput) error {
	return f.write("update-account")
}

func (f *FakeAPI) DeleteAccount(context.Context, core.DeleteRequest) error {
	return f.write("delete-account")
}

func (f *FakeAPI) Transfer(context.Context, core.TransferRequest) error {
	return f.write("transfer")
}

func (f *FakeAPI) Reconcile(context.Context, core.ReconcileRequest) error {
	return f.write("reconcile")
}

func (f *FakeAPI) ListCategories(context.Context, string) ([]core.Category, error) {
	if err := f.read("categories"); err != nil {
		return nil, err
	}
	return f.Categories, nil
}

func (f *FakeAPI) CreateCategory(context.Context, core.CategoryInput) (string, error) {
	return "c9", f.write("create-category")
}

func (f *FakeAPI) UpdateCategory(context.Context, core.CategoryInput) error {
	return f.write("update-category")
}

func (f *FakeAPI) DeleteCategory(context.Context, core.DeleteRequest) error {
	return f.write("delete-category")
}

func (f *FakeAPI) ListEnvelopes(context.Context, string) ([]core.Envelope, error) {
	if err := f.read("envelopes"); err != nil {
		return nil, err
	}
	return f.Envelopes, nil
}

func (f *FakeAPI) CreateEnvelope(context.Context, core.EnvelopeInput) (string, error) {
	return "e9", f.write("create-envelope")
}

func (f *FakeAPI) UpdateEnvelope(context.Context, core.EnvelopeInput) error {
	return f.write("update-envelope")
}

func (f *FakeAPI) DeleteEnvelope(context.Context, core.DeleteRequest) error {
	return f.write("delete-envelope")
}

func (f *FakeAPI) ListGoals(context.Context, string) ([]core.Goal, error) {
	if err := f.read("goals"); err != nil {
		return nil, err
	}
	return f.Goals, nil
}

func (f *FakeAPI) CreateGoal(context.Context, core.GoalInput) (string, error) {
	return "g9", f.write("create-goal")
}

func (f *FakeAPI) UpdateGoal(context.Context, core.GoalInput) error {
	return f.write("update-goal")
}

func (f *FakeAPI) DeleteGoal(context.Context, core.DeleteRequest) error {
	return f.write("delete-goal")
}

func (f *FakeAPI) AddGoalAmount(context.Context, core.GoalAmountRequest) error {
	return f.write("add-amount-goal")
}

func (f *FakeAPI) RemoveGoalAmount(context.Context, core.GoalAmountRequest) error {
	return f.write("remove-amount-goal")
}

// ErrPrefs is returned by a failing MemPrefs.
var ErrPrefs = errors.New("preference store down")

// MemPrefs is an in-memory preference store that can be told to fail.
type MemPrefs struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
}

func (p *MemPrefs) SetFail(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func (p *MemPrefs) Get(_ context.Context, session, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", false, ErrPrefs
	}
	v, ok := p.data[session+"/"+key]
	return v, ok, nil
}

func (p *MemPrefs) Set(_ context.Context, session, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return ErrPrefs
	}
	if p.data == nil {
		p.data = map[string]string{}
	}
	p.data[session+"/"+key] = value
	return nil
}
