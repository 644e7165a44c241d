package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orca/internal/log"
	"orca/internal/state"
)

// action performs one write against the session's workspace.
type action func(ctx context.Context, ws *state.Workspace, f *formReader) error

// mutation describes how a write is answered once it succeeded.
type mutation struct {
	op      string
	event   string
	success string
	partial string
	view    func(ctx context.Context, ws *state.Workspace) any
}

var (
	accountsPanel = func(ctx context.Context, ws *state.Workspace) any { return accountsView(ctx, ws) }
	categoryPanel = func(ctx context.Context, ws *state.Workspace) any { return categoriesView(ctx, ws) }
	envelopePanel = func(ctx context.Context, ws *state.Workspace) any { return envelopesView(ctx, ws) }
	goalsPanel    = func(ctx context.Context, ws *state.Workspace) any { return goalsView(ctx, ws) }
)

// run parses the form, makes sure a budget is selected, performs the write
// and answers with the refreshed panel plus HX-Trigger events.
func (s *Server) run(w http.ResponseWriter, r *http.Request, m mutation, do action) {
	f, err := parseForm(w, r)
	if err != nil {
		BadRequestError(msgBadForm).Write(w)
		return
	}
	ctx := r.Context()
	ws := s.workspace(r)
	if err := ws.Prepare(ctx); err != nil {
		s.writeError(w, r, m.op, err)
		return
	}
	if err := do(ctx, ws, f); err != nil {
		s.writeError(w, r, m.op, err)
		return
	}
	log.FromContext(ctx).WithComponent(log.ComponentHTTP).DebugContext(ctx, "Action completed",
		log.FieldOperation, m.op, log.FieldBudgetID, ws.BudgetID())

	b := NewHTMXResponse().
		TriggerChanged(m.event, ws.BudgetID()).
		TriggerSuccessNotification(m.success)
	s.renderPartial(w, r, m.partial, m.view(ctx, ws), b)
}

func (s *Server) handleSelectBudget(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(w, r)
	if err != nil {
		BadRequestError(msgBadForm).Write(w)
		return
	}
	id := f.String("budgetId")
	if err := s.workspace(r).Budgets.Select(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpSelect, err)
		return
	}
	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		Trigger(EventBudgetSelected, map[string]string{"budgetId": id}).
		Header("HX-Refresh", "true").
		Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpCreate, EventAccountsChanged, "Conta criada.", partialAccounts, accountsPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			in := f.AccountInput()
			if err := f.Err(); err != nil {
				return err
			}
			return ws.Accounts.Create(ctx, in)
		})
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpUpdate, EventAccountsChanged, "Conta atualizada.", partialAccounts, accountsPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			in := f.AccountInput()
			in.ID = chi.URLParam(r, "id")
			if err := f.Err(); err != nil {
				return err
			}
			return ws.Accounts.Update(ctx, in)
		})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpDelete, EventAccountsChanged, "Conta excluída.", partialAccounts, accountsPanel},
		func(ctx context.Context, ws *state.Workspace, _ *formReader) error {
			return ws.Accounts.Delete(ctx, chi.URLParam(r, "id"))
		})
}

// handleTransfer loads the balances first; the transfer is validated
// against them.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpTransfer, EventAccountsChanged, "Transferência realizada.", partialAccounts, accountsPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			req := f.TransferRequest()
			if err := f.Err(); err != nil {
				return err
			}
			if err := ws.Accounts.Ensure(ctx); err != nil {
				return err
			}
			return ws.Accounts.Transfer(ctx, req)
		})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpReconcile, EventAccountsChanged, "Saldo conciliado.", partialAccounts, accountsPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			req := f.ReconcileRequest()
			if err := f.Err(); err != nil {
				return err
			}
			if err := ws.Accounts.Ensure(ctx); err != nil {
				return err
			}
			return ws.Accounts.Reconcile(ctx, req)
		})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpCreate, EventCategoriesChange, "Categoria criada.", partialCategories, categoryPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			return ws.Categories.Create(ctx, f.CategoryInput())
		})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpUpdate, EventCategoriesChange, "Categoria atualizada.", partialCategories, categoryPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			in := f.CategoryInput()
			in.ID = chi.URLParam(r, "id")
			return ws.Categories.Update(ctx, in)
		})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpDelete, EventCategoriesChange, "Categoria excluída.", partialCategories, categoryPanel},
		func(ctx context.Context, ws *state.Workspace, _ *formReader) error {
			return ws.Categories.Delete(ctx, chi.URLParam(r, "id"))
		})
}

func (s *Server) handleCreateEnvelope(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpCreate, EventEnvelopesChanged, "Envelope criado.", partialEnvelopes, envelopePanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			in := f.EnvelopeInput()
			if err := f.Err(); err != nil {
				return err
			}
			return ws.Envelopes.Create(ctx, in)
		})
}

func (s *Server) handleUpdateEnvelope(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpUpdate, EventEnvelopesChanged, "Envelope atualizado.", partialEnvelopes, envelopePanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			in := f.EnvelopeInput()
			in.ID = chi.URLParam(r, "id")
			if err := f.Err(); err != nil {
				return err
			}
			return ws.Envelopes.Update(ctx, in)
		})
}

func (s *Server) handleDeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpDelete, EventEnvelopesChanged, "Envelope excluído.", partialEnvelopes, envelopePanel},
		func(ctx context.Context, ws *state.Workspace, _ *formReader) error {
			return ws.Envelopes.Delete(ctx, chi.URLParam(r, "id"))
		})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpCreate, EventGoalsChanged, "Meta criada.", partialGoals, goalsPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			in := f.GoalInput()
			if err := f.Err(); err != nil {
				return err
			}
			return ws.Goals.Create(ctx, in)
		})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpUpdate, EventGoalsChanged, "Meta atualizada.", partialGoals, goalsPanel},
		func(ctx context.Context, ws *state.Workspace, f *formReader) error {
			in := f.GoalInput()
			in.ID = chi.URLParam(r, "id")
			if err := f.Err(); err != nil {
				return err
			}
			return ws.Goals.Update(ctx, in)
		})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpDelete, EventGoalsChanged, "Meta excluída.", partialGoals, goalsPanel},
		func(ctx context.Context, ws *state.Workspace, _ *formReader) error {
			return ws.Goals.Delete(ctx, chi.URLParam(r, "id"))
		})
}

func (s *Server) handleAddGoalAmount(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpAddAmount, EventGoalsChanged, "Valor adicionado à meta.", partialGoals, goalsPanel},
		s.goalAmount(r, false))
}

func (s *Server) handleRemoveGoalAmount(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, mutation{log.OpRemoveAmount, EventGoalsChanged, "Valor retirado da meta.", partialGoals, goalsPanel},
		s.goalAmount(r, true))
}

// goalAmount validates against the loaded goals, loading them if needed.
func (s *Server) goalAmount(r *http.Request, remove bool) action {
	return func(ctx context.Context, ws *state.Workspace, f *formReader) error {
		req := f.GoalAmountRequest()
		req.GoalID = chi.URLParam(r, "id")
		if err := f.Err(); err != nil {
			return err
		}
		if err := ws.Goals.Ensure(ctx); err != nil {
			return err
		}
		if remove {
			return ws.Goals.RemoveAmount(ctx, req)
		}
		return ws.Goals.AddAmount(ctx, req)
	}
}
