package http

import (
	"net/http"
)

// Partial template names.
const (
	partialDashboard  = "dashboard-panel"
	partialAccounts   = "accounts-panel"
	partialCategories = "categories-panel"
	partialEnvelopes  = "envelopes-panel"
	partialGoals      = "goals-panel"
)

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	content := s.dashboardContent(r.Context(), s.workspace(r))
	s.renderPage(w, r, pageDashboard, "Painel", content)
}

func (s *Server) handleAccountsPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, pageAccounts, "Contas", accountsView(r.Context(), s.workspace(r)))
}

func (s *Server) handleCategoriesPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, pageCategories, "Categorias", categoriesView(r.Context(), s.workspace(r)))
}

func (s *Server) handleEnvelopesPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, pageEnvelopes, "Envelopes", envelopesView(r.Context(), s.workspace(r)))
}

func (s *Server) handleGoalsPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, pageGoals, "Metas", goalsView(r.Context(), s.workspace(r)))
}

func (s *Server) handleBudgetsPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, pageBudgets, "Orçamentos", budgetsView(r.Context(), s.workspace(r)))
}

func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, partialDashboard, s.dashboardContent(r.Context(), s.workspace(r)), nil)
}

func (s *Server) handleAccountsPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, partialAccounts, accountsView(r.Context(), s.workspace(r)), nil)
}

func (s *Server) handleCategoriesPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, partialCategories, categoriesView(r.Context(), s.workspace(r)), nil)
}

func (s *Server) handleEnvelopesPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, partialEnvelopes, envelopesView(r.Context(), s.workspace(r)), nil)
}

func (s *Server) handleGoalsPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, partialGoals, goalsView(r.Context(), s.workspace(r)), nil)
}
