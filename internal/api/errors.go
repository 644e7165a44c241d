package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes derived from the HTTP status of a failed call.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBadRequest   = "BAD_REQUEST"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error is the only error type the client returns for remote failures.
// Status is 0 when the request never got a response.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeForStatus maps an HTTP status to an error code.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return CodeUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeBadRequest
	case http.StatusNotFound:
		return CodeNotFound
	}
	return CodeInternal
}

// DefaultMessage is shown when the API did not say what went wrong.
func DefaultMessage(code string) string {
	switch code {
	case CodeUnauthorized:
		return "Sessão expirada ou sem permissão para esta operação."
	case CodeBadRequest:
		return "Dados inválidos. Verifique as informações e tente novamente."
	case CodeNotFound:
		return "Registro não encontrado."
	}
	return "Erro inesperado. Tente novamente mais tarde."
}

const unreachableMessage = "Não foi possível conectar ao servidor."

// AsError returns err as *Error, wrapping foreign errors as INTERNAL_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Message: DefaultMessage(CodeInternal), Code: CodeInternal, Err: err}
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodeNotFound
}

func transportError(err error) *Error {
	return &Error{Message: unreachableMessage, Status: 0, Code: CodeInternal, Err: err}
}

func statusError(status int, body []byte) *Error {
	code := CodeForStatus(status)
	msg := messageFromBody(body)
	if msg == "" {
		msg = DefaultMessage(code)
	}
	return &Error{Message: msg, Status: status, Code: code}
}

// messageFromBody looks for "message", then "error", then the first entry of
// "errors" (a string or an object with a message).
func messageFromBody(body []byte) string {
	var payload struct {
		Message string            `json:"message"`
		Error   json.RawMessage   `json:"error"`
		Errors  []json.RawMessage `json:"errors"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if m := strings.TrimSpace(payload.Message); m != "" {
		return m
	}
	if m := rawMessage(payload.Error); m != "" {
		return m
	}
	if len(payload.Errors) > 0 {
		return rawMessage(payload.Errors[0])
	}
	return ""
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
