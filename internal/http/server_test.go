package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orca/internal/api"
	"orca/internal/core"
	"orca/internal/log"
	"orca/internal/middleware/ratelimit"
	"orca/internal/services"
	"orca/internal/state"
	"orca/internal/state/statetest"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func okPing(context.Context) error { return nil }

type testEnv struct {
	srv    *Server
	fake   *statetest.FakeAPI
	cookie *http.Cookie
}

func newTestEnv(t *testing.T, opts Options, apiPing pingFunc) *testEnv {
	t.Helper()
	fake := statetest.NewFakeAPI()
	deps := state.Deps{
		API:    fake,
		Prefs:  &statetest.MemPrefs{},
		Logger: log.Discard(),
		Now:    func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
	if apiPing == nil {
		apiPing = okPing
	}
	srv, err := NewServer(opts, Deps{
		Registry:  state.NewRegistry(deps, 10, time.Hour),
		Dashboard: services.NewDashboardService(nil),
		Export:    services.NewExportService(nil),
		Chart:     services.NewChartService(nil),
		API:       apiPing,
		Prefs:     pingFunc(okPing),
		Logger:    log.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)
	return &testEnv{srv: srv, fake: fake}
}

// do sends a request, keeping the session cookie across calls.
func (e *testEnv) do(t *testing.T, method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	return e.do(t, http.MethodGet, path, nil, false)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return e.do(t, http.MethodPost, path, form, true)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	rec := env.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	assert.Equal(t, http.StatusOK, env.get(t, "/readyz").Code)

	down := newTestEnv(t, Options{}, func(context.Context) error { return errors.New("connection refused") })
	rec := down.get(t, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestReadyzTimesOut(t *testing.T) {
	env := newTestEnv(t, Options{ReadyTimeout: 20 * time.Millisecond}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.Equal(t, http.StatusServiceUnavailable, env.get(t, "/readyz").Code)
}

func TestSessionCookie(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)

	rec := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.cookie)
	_, err := uuid.Parse(env.cookie.Value)
	assert.NoError(t, err)
	assert.True(t, env.cookie.HttpOnly)

	rec = env.get(t, "/accounts")
	assert.Empty(t, rec.Result().Cookies(), "existing session is reused")
	assert.Equal(t, 1, env.srv.deps.Registry.Len())

	env.cookie = &http.Cookie{Name: SessionCookie, Value: "not-a-uuid"}
	rec = env.get(t, "/")
	assert.NotEmpty(t, rec.Result().Cookies(), "invalid session is replaced")
}

func TestPagesRender(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{"Saúde financeira", "Casa", "Reserva"}},
		{"/accounts", []string{"Contas", "Carteira", "R$ 100,00"}},
		{"/categories", []string{"Mercado", "Despesa"}},
		{"/envelopes", []string{"Nenhum envelope cadastrado", "Mercado"}},
		{"/goals", []string{"Reserva", "R$ 10,00 de R$ 50,00"}},
		{"/budgets", []string{"Casa", "Viagem", "Selecionado"}},
		{"/ui/dashboard", []string{`id="dashboard-panel"`}},
		{"/ui/accounts", []string{`id="accounts-panel"`, "Conta corrente"}},
		{"/ui/categories", []string{`id="categories-panel"`}},
		{"/ui/envelopes", []string{`id="envelopes-panel"`}},
		{"/ui/goals", []string{`id="goals-panel"`}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			env := newTestEnv(t, Options{}, nil)
			rec := env.get(t, tt.path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			for _, want := range tt.want {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestPartialHasNoLayout(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	rec := env.get(t, "/ui/accounts")
	assert.NotContains(t, rec.Body.String(), "<html")
}

func TestDashboardPartialFailure(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	env.fake.ListErr["goals"] = statetest.ErrBoom

	rec := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Algumas informações não puderam ser carregadas.")
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestBudgetListFailureShowsError(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	env.fake.ListErr["budgets"] = &api.Error{Message: "Não foi possível conectar ao servidor.", Code: api.CodeInternal}

	rec := env.get(t, "/accounts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Não foi possível conectar ao servidor.")
}

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	rec := env.post(t, "/accounts", url.Values{
		"name":           {"Poupança"},
		"type":           {string(core.AccountSavings)},
		"initialBalance": {"1.234,56"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	trigger := rec.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, EventAccountsChanged)
	assert.Contains(t, trigger, EventDashboardRefresh)
	assert.Contains(t, trigger, `"type":"success"`)
	assert.Contains(t, rec.Body.String(), `id="accounts-panel"`)
	assert.Equal(t, 1, env.fake.Count("create-account"))
}

func TestCreateAccountValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing name", url.Values{"type": {string(core.AccountChecking)}}, "Informe o nome"},
		{"bad type", url.Values{"name": {"X"}, "type": {"CASH"}}, "Tipo de conta inválido"},
		{"bad amount", url.Values{"name": {"X"}, "type": {string(core.AccountChecking)}, "initialBalance": {"abc"}}, "Valor inválido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{}, nil)
			rec := env.post(t, "/accounts", tt.form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Contains(t, rec.Header().Get("HX-Trigger"), `"type":"error"`)
			assert.Zero(t, env.fake.Count("create-account"))
		})
	}
}

func TestTransfer(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)

	rec := env.post(t, "/accounts/transfer", url.Values{
		"fromAccountId": {"a2"}, "toAccountId": {"a1"}, "amount": {"10,00"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Saldo insuficiente")

	rec = env.post(t, "/accounts/transfer", url.Values{
		"fromAccountId": {"a1"}, "toAccountId": {"a2"}, "amount": {"50,00"},
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"transfer"}, env.fake.Posts())
}

func TestReconcileUnchangedBalance(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	rec := env.post(t, "/accounts/reconcile", url.Values{"accountId": {"a1"}, "realBalance": {"100,00"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "igual ao saldo registrado")
}

func TestAPIErrorsAreMapped(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"not found", &api.Error{Message: "Conta não existe", Status: 404, Code: api.CodeNotFound}, http.StatusNotFound, "Conta não existe"},
		{"bad request", &api.Error{Message: "Conta com saldo", Status: 400, Code: api.CodeBadRequest}, http.StatusUnprocessableEntity, "Conta com saldo"},
		{"upstream failure", statetest.ErrBoom, http.StatusBadGateway, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{}, nil)
			env.fake.WriteErr = tt.err
			rec := env.post(t, "/accounts/a1/delete", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "goroutine")
		})
	}
}

func TestCategoryEnvelopeGoalWrites(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)

	steps := []struct {
		path string
		form url.Values
		call string
	}{
		{"/categories", url.Values{"name": {"Lazer"}, "type": {string(core.CategoryExpense)}}, "create-category"},
		{"/categories/c1", url.Values{"name": {"Feira"}, "type": {string(core.CategoryExpense)}}, "update-category"},
		{"/envelopes", url.Values{"name": {"Feira"}, "categoryId": {"c1"}, "limit": {"300"}}, "create-envelope"},
		{"/envelopes/e1", url.Values{"name": {"Feira"}, "limit": {"350"}}, "update-envelope"},
		{"/envelopes/e1/delete", url.Values{}, "delete-envelope"},
		{"/goals", url.Values{"name": {"Carro"}, "totalAmount": {"20000"}, "deadline": {"2026-01-01"}}, "create-goal"},
		{"/goals/g1", url.Values{"name": {"Reserva"}, "totalAmount": {"60,00"}}, "update-goal"},
		{"/goals/g1/add-amount", url.Values{"amount": {"5"}}, "add-amount-goal"},
		{"/goals/g1/remove-amount", url.Values{"amount": {"5"}}, "remove-amount-goal"},
		{"/goals/g1/delete", url.Values{}, "delete-goal"},
		{"/categories/c1/delete", url.Values{}, "delete-category"},
	}
	for _, st := range steps {
		rec := env.post(t, st.path, st.form)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", st.path, rec.Body.String())
		assert.Equal(t, 1, env.fake.Count(st.call), st.path)
	}
}

func TestGoalValidation(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)

	rec := env.post(t, "/goals/g1/remove-amount", url.Values{"amount": {"20,00"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "excede o acumulado")

	rec = env.post(t, "/goals", url.Values{"name": {"Viagem"}, "totalAmount": {"100"}, "deadline": {"2020-01-01"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "prazo não pode estar no passado")

	rec = env.post(t, "/goals", url.Values{"name": {"Viagem"}, "totalAmount": {"100"}, "deadline": {"amanhã"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data inválida")
}

func TestSelectBudget(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)

	rec := env.post(t, "/budgets/select", url.Values{"budgetId": {"b2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))
	assert.Contains(t, rec.Header().Get("HX-Trigger"), EventBudgetSelected)

	rec = env.get(t, "/api/v1/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var view services.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "b2", view.Budget.ID)

	rec = env.post(t, "/budgets/select", url.Values{"budgetId": {"nope"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/budgets/select", url.Values{"budgetId": {"b1"}}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestDashboardJSON(t *testing.T) {
	env := newTestEnv(t, Options{AllowedOrigins: []string{"https://app.example.com"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health-indicators", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	var report core.HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Indicators, 4)
}

func TestDashboardJSONBudgetListDown(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	env.fake.ListErr["budgets"] = statetest.ErrBoom

	rec := env.get(t, "/api/v1/dashboard")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"boom"`)
}

func TestExportWorkbook(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	rec := env.get(t, "/exports/budget.xlsx")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestEnvelopeChart(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	assert.Equal(t, http.StatusNoContent, env.get(t, "/charts/envelopes.png").Code)

	env = newTestEnv(t, Options{}, nil)
	env.fake.Envelopes = []core.Envelope{{ID: "e1", Name: "Mercado", Limit: core.Cents(1000), CurrentUsage: core.Cents(500)}}
	rec := env.get(t, "/charts/envelopes.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestRateLimitOnPosts(t *testing.T) {
	env := newTestEnv(t, Options{RateLimit: ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1}}, nil)

	assert.NotEqual(t, http.StatusTooManyRequests, env.post(t, "/accounts/a1/delete", nil).Code)
	rec := env.post(t, "/accounts/a1/delete", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, env.get(t, "/accounts").Code, "reads are not limited")
}

func TestStaticAndMetrics(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)

	rec := env.get(t, "/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	env.get(t, "/healthz")
	rec = env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{code="200",method="GET",route="/healthz"} 1`)
	assert.Contains(t, body, "# TYPE http_request_duration_seconds histogram")
	assert.Contains(t, body, "# TYPE rate_limit_hits_total counter")
	assert.Contains(t, body, "# TYPE suspicious_requests_total counter")
	assert.Contains(t, body, "sessions_active 0")
	assert.Contains(t, body, "go_goroutines")
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, Options{}, nil)
	rec := env.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Página não encontrada.")
}
