package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orca/internal/api"
	"orca/internal/core"
	"orca/internal/log"
)

func newClient(t *testing.T, h http.HandlerFunc, tokens api.TokenSource) *api.Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return api.New(api.Config{BaseURL: server.URL + "/", Timeout: time.Second, Tokens: tokens}, log.Discard())
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "meta": map[string]any{"total": 1}})
}

func TestClient_ListAccounts(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotReqID string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.Query().Get("budgetId")
		gotAuth, gotReqID = r.Header.Get("Authorization"), r.Header.Get("X-Request-ID")
		writeData(w, []map[string]any{
			{"id": "a1", "budgetId": "b1", "name": "Conta", "type": "CHECKING_ACCOUNT", "balance": 123456},
		})
	}, api.StaticToken("secret"))

	ctx := api.WithRequestID(context.Background(), "req-1")
	accounts, err := c.ListAccounts(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "/accounts", gotPath)
	assert.Equal(t, "b1", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "req-1", gotReqID)
	assert.Equal(t, core.AccountChecking, accounts[0].Type)
	assert.Equal(t, int64(123456), accounts[0].Balance.Cents)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var hadAuth bool
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		writeData(w, []any{})
	}, nil)

	budgets, err := c.ListBudgets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, budgets)
	assert.False(t, hadAuth)
}

func TestClient_PostsJSONBody(t *testing.T) {
	var gotPath, gotMethod, gotType string
	var body map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod, gotType = r.URL.Path, r.Method, r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeData(w, nil)
	}, nil)

	err := c.Transfer(context.Background(), core.TransferRequest{
		BudgetID: "b1", FromAccountID: "a1", ToAccountID: "a2", Amount: core.Cents(2500),
	})
	require.NoError(t, err)
	assert.Equal(t, "/accounts/transfer-between-accounts", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "a1", body["fromAccountId"])
	assert.Equal(t, float64(2500), body["amount"])
}

func TestClient_CreateReturnsID(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/envelope/create-envelope", r.URL.Path)
		writeData(w, map[string]string{"id": "env-9"})
	}, nil)

	id, err := c.CreateEnvelope(context.Background(), core.EnvelopeInput{BudgetID: "b1", Name: "Mercado", CategoryID: "c1", Limit: core.Cents(1)})
	require.NoError(t, err)
	assert.Equal(t, "env-9", id)
}

func TestClient_EndpointPaths(t *testing.T) {
	var paths []string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writeData(w, nil)
	}, nil)
	ctx := context.Background()

	_, _ = c.BudgetOverview(ctx, "b 1")
	_, _ = c.DashboardInsights(ctx, "b1")
	_, _ = c.ListCategories(ctx, "b1")
	_, _ = c.ListEnvelopes(ctx, "b1")
	_, _ = c.ListGoals(ctx, "b1")
	_ = c.AddGoalAmount(ctx, core.GoalAmountRequest{GoalID: "g"})
	_ = c.RemoveGoalAmount(ctx, core.GoalAmountRequest{GoalID: "g"})
	_ = c.Reconcile(ctx, core.ReconcileRequest{AccountID: "a"})
	_ = c.DeleteCategory(ctx, core.DeleteRequest{ID: "c"})

	assert.Equal(t, []string{
		"/budget/b 1/overview",
		"/budget/b1/dashboard/insights",
		"/categories",
		"/envelopes",
		"/goal",
		"/goal/add-amount-goal",
		"/goal/remove-amount-goal",
		"/accounts/reconcile-account",
		"/categories/delete-category",
	}, paths)
}

func TestClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   string
		msg    string
	}{
		{http.StatusUnauthorized, `{}`, api.CodeUnauthorized, api.DefaultMessage(api.CodeUnauthorized)},
		{http.StatusForbidden, `{"message":"forbidden budget"}`, api.CodeUnauthorized, "forbidden budget"},
		{http.StatusBadRequest, `{"error":"name is required"}`, api.CodeBadRequest, "name is required"},
		{http.StatusUnprocessableEntity, `{"errors":["Insufficient balance"]}`, api.CodeBadRequest, "Insufficient balance"},
		{http.StatusNotFound, `{"errors":[{"message":"Goal not found"}]}`, api.CodeNotFound, "Goal not found"},
		{http.StatusConflict, `not json`, api.CodeInternal, api.DefaultMessage(api.CodeInternal)},
		{http.StatusBadGateway, ``, api.CodeInternal, api.DefaultMessage(api.CodeInternal)},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}, nil)

			_, err := c.ListGoals(context.Background(), "b1")
			require.Error(t, err)
			apiErr := api.AsError(err)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.code, apiErr.Code)
			assert.Equal(t, tc.msg, apiErr.Message)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := api.New(api.Config{BaseURL: url, Timeout: time.Second}, nil)
	_, err := c.ListBudgets(context.Background())
	apiErr := api.AsError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, api.CodeInternal, apiErr.Code)
	assert.Error(t, apiErr.Unwrap())
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := c.ListBudgets(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Ping(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)
	assert.NoError(t, c.Ping(context.Background()))

	down := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)
	assert.Error(t, down.Ping(context.Background()))
}
