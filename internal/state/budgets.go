package state

import (
	"context"
	"sync"

	"orca/internal/core"
	"orca/internal/log"
)

// BudgetState holds the budgets visible to the session and the selected one.
// The selection is remembered in the preference store; failures to read or
// write it are logged and otherwise ignored.
type BudgetState struct {
	*Store[[]core.Budget]

	ws     *Workspace
	prefs  Preferences
	logger *log.Logger

	mu       sync.Mutex
	selected string
	restored bool
}

func newBudgetState(ws *Workspace) *BudgetState {
	b := &BudgetState{
		ws:     ws,
		prefs:  ws.deps.Prefs,
		logger: ws.logger,
	}
	b.Store = NewStore(func(ctx context.Context) ([]core.Budget, error) {
		return ws.deps.API.ListBudgets(ctx)
	})
	return b
}

// Ensure loads the budget list if needed and resolves the selection:
// the remembered budget when it still exists, otherwise the first one.
func (b *BudgetState) Ensure(ctx context.Context) error {
	if err := b.Store.Ensure(ctx); err != nil {
		return err
	}
	b.resolve(ctx)
	return nil
}

func (b *BudgetState) resolve(ctx context.Context) {
	budgets := b.Data()

	b.mu.Lock()
	current := b.selected
	needRestore := !b.restored
	b.restored = true
	b.mu.Unlock()

	if current == "" && needRestore {
		current = b.remembered(ctx)
	}
	if current != "" && containsBudget(budgets, current) {
		b.setSelected(current)
		return
	}

	next := ""
	if len(budgets) > 0 {
		next = budgets[0].ID
	}
	if next != current {
		b.ws.switchBudget()
	}
	b.setSelected(next)
}

func (b *BudgetState) remembered(ctx context.Context) string {
	if b.prefs == nil {
		return ""
	}
	id, ok, err := b.prefs.Get(ctx, b.ws.Session, SelectedBudgetKey)
	if err != nil {
		b.logger.WarnContext(ctx, "Could not read selected budget preference",
			log.FieldOperation, OpPreferences, log.FieldError, err.Error())
		return ""
	}
	if !ok {
		return ""
	}
	return id
}

func (b *BudgetState) setSelected(id string) {
	b.mu.Lock()
	b.selected = id
	b.mu.Unlock()
}

// SelectedID returns the active budget id, "" when there is none.
func (b *BudgetState) SelectedID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Selected returns the active budget from the loaded list.
func (b *BudgetState) Selected() (core.Budget, bool) {
	id := b.SelectedID()
	for _, bg := range b.Data() {
		if bg.ID == id {
			return bg, true
		}
	}
	return core.Budget{}, false
}

// Select switches the active budget, dropping everything loaded for the
// previous one, and remembers the choice.
func (b *BudgetState) Select(ctx context.Context, id string) error {
	if err := b.Ensure(ctx); err != nil {
		return err
	}
	if !containsBudget(b.Data(), id) {
		return ErrBudgetNotFound
	}
	if b.SelectedID() != id {
		b.ws.switchBudget()
	}
	b.setSelected(id)

	if b.prefs != nil {
		if err := b.prefs.Set(ctx, b.ws.Session, SelectedBudgetKey, id); err != nil {
			b.logger.WarnContext(ctx, "Could not persist selected budget preference",
				log.FieldOperation, OpPreferences, log.FieldBudgetID, id, log.FieldError, err.Error())
		}
	}
	b.logger.InfoContext(ctx, "Budget selected", log.FieldOperation, log.OpSelect, log.FieldBudgetID, id)
	return nil
}

// OpPreferences tags preference store log lines.
const OpPreferences = "preferences"

func containsBudget(budgets []core.Budget, id string) bool {
	for _, b := range budgets {
		if b.ID == id {
			return true
		}
	}
	return false
}
