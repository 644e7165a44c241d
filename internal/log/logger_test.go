package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestJSONLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := ConfigFor("production", "info")
	cfg.Output = &buf
	l := New(cfg).WithComponent(ComponentAPI)

	l.Info("hello", FieldBudgetID, "b1")
	l.Debug("dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, ComponentAPI, rec[FieldComponent])
	assert.Equal(t, "b1", rec[FieldBudgetID])
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(t.Context())
	assert.Equal(t, ComponentApp, l.Component())

	own := Discard().WithComponent(ComponentHTTP)
	assert.Same(t, own, FromContext(WithLogger(t.Context(), own)))
}

func TestMiddlewareTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	h := Middleware(logger, func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec[FieldRequestID])
}
