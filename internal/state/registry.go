package state

import (
	"time"

	"orca/internal/cache"
	"orca/internal/log"
)

// Registry maps session ids to workspaces. Idle workspaces expire after the
// session TTL; the least recently used one is dropped beyond maxSessions.
type Registry struct {
	deps       Deps
	logger     *log.Logger
	workspaces *cache.LRUCache[*Workspace]
}

func NewRegistry(deps Deps, maxSessions int, ttl time.Duration) *Registry {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	r := &Registry{
		deps:       deps,
		logger:     deps.Logger.WithComponent(log.ComponentState),
		workspaces: cache.NewLRUCache[*Workspace](maxSessions, ttl),
	}
	r.workspaces.OnEvict(func(session string, _ *Workspace) {
		r.logger.Debug("Workspace evicted", log.FieldSessionID, session)
	})
	return r
}

// Get returns the session's workspace, creating it on first use.
func (r *Registry) Get(session string) *Workspace {
	ws, _ := r.workspaces.GetOrCreate(session, func() *Workspace {
		return NewWorkspace(session, r.deps)
	})
	return ws
}

// Lookup returns the workspace without creating one.
func (r *Registry) Lookup(session string) (*Workspace, bool) {
	return r.workspaces.Get(session)
}

// InvalidateBudget marks stale every workspace that has budgetID selected,
// except the one of skipSession. It returns how many were marked.
func (r *Registry) InvalidateBudget(budgetID, skipSession string) int {
	n := 0
	r.workspaces.Range(func(session string, ws *Workspace) bool {
		if session == skipSession || ws.BudgetID() != budgetID {
			return true
		}
		ws.Invalidate()
		n++
		return true
	})
	return n
}

func (r *Registry) Len() int { return r.workspaces.Size() }

// Cache exposes the underlying cache for periodic cleanup.
func (r *Registry) Cache() cache.Cleaner { return r.workspaces }
