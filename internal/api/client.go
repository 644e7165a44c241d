// Package api is the typed client for the remote budgeting REST API.
//
// Every response is a {"data": ..., "meta": ...} envelope. Failures are
// reported as *Error; the client never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orca/internal/log"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20
	headerRequestID = "X-Request-ID"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client is an HTTP client for the budgeting API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *log.Logger
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
}

// New creates a client. A nil logger discards client logs.
func New(cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		tokens:     tokens,
		logger:     logger.WithComponent(log.ComponentAPI),
	}
}

// SetBaseURL overrides the base URL (useful for testing)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// do performs one request and decodes the envelope's data into out (when
// out is non-nil). Any failure is returned as *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: DefaultMessage(CodeBadRequest), Code: CodeBadRequest, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return &Error{Message: DefaultMessage(CodeInternal), Code: CodeInternal, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(headerRequestID, id)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &Error{Message: DefaultMessage(CodeUnauthorized), Code: CodeUnauthorized, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.FieldMethod, method, log.FieldPath, path, log.FieldError, err.Error())
		return transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return transportError(fmt.Errorf("read response body: %w", err))
	}

	c.logger.DebugContext(ctx, "API response",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(resp.StatusCode, raw)
		c.logger.WarnContext(ctx, "API error",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldStatusCode, resp.StatusCode,
			log.FieldErrorCode, apiErr.Code)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Message: DefaultMessage(CodeInternal), Status: resp.StatusCode, Code: CodeInternal, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Message: DefaultMessage(CodeInternal), Status: resp.StatusCode, Code: CodeInternal, Err: fmt.Errorf("decode %s data: %w", path, err)}
	}
	return nil
}

// Ping checks that the API answers at all. Any HTTP response below 500
// counts as reachable, including auth failures.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/budgets", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return statusError(resp.StatusCode, nil)
	}
	return nil
}

// created is the data of create-* responses.
type created struct {
	ID string `json:"id"`
}

// create posts body and returns the new id; some endpoints answer with an
// empty data field, in which case the id is "".
func (c *Client) create(ctx context.Context, path string, body any) (string, error) {
	var out created
	if err := c.post(ctx, path, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func budgetQuery(budgetID string) url.Values {
	return url.Values{"budgetId": []string{budgetID}}
}
