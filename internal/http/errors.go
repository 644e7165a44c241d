package http

import (
	"errors"
	"net/http"
	"strings"

	"orca/internal/api"
	"orca/internal/core"
	"orca/internal/log"
	"orca/internal/state"
)

const (
	msgNoBudget       = "Selecione um orçamento antes de continuar."
	msgBudgetNotFound = "Orçamento não encontrado."
	msgBadForm        = "Formato da requisição inválido."
)

// errorStatus maps an error to a status code and a message safe to show.
func errorStatus(err error) (int, string) {
	var verrs core.ValidationErrors
	var verr *core.ValidationError
	var apiErr *api.Error
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, strings.Join(verrs.Messages(), " ")
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Message
	case errors.Is(err, state.ErrNoBudgetSelected):
		return http.StatusConflict, msgNoBudget
	case errors.Is(err, state.ErrBudgetNotFound):
		return http.StatusNotFound, msgBudgetNotFound
	case errors.As(err, &apiErr):
		return apiStatus(apiErr), apiErr.Message
	}
	return http.StatusInternalServerError, api.DefaultMessage(api.CodeInternal)
}

// apiStatus passes client errors through and reports upstream failures as
// 502.
func apiStatus(e *api.Error) int {
	switch {
	case e.Status == 0, e.Status >= 500:
		return http.StatusBadGateway
	case e.Status == http.StatusBadRequest:
		return http.StatusUnprocessableEntity
	case e.Status >= 400:
		return e.Status
	}
	return http.StatusBadGateway
}

// writeError logs err and answers with an error fragment.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op, log.FieldStatusCode, status, log.FieldError, err.Error())
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			log.FieldOperation, op, log.FieldStatusCode, status, log.FieldError, err.Error())
	}
	ErrorResponse(status, msg).Write(w)
}

// errorMessage is the user-facing text of a failed section load.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	_, msg := errorStatus(err)
	return msg
}
