package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"orca/internal/log"
	"orca/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type jsonError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).WarnContext(r.Context(), "JSON request failed",
		log.FieldOperation, op, log.FieldStatusCode, status, log.FieldError, err.Error())
	writeJSON(w, status, jsonError{Error: msg, Status: status})
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Dashboard.Load(r.Context(), s.workspace(r))
	if err != nil {
		s.writeJSONError(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealthIndicatorsJSON(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Dashboard.Load(r.Context(), s.workspace(r))
	if err != nil {
		s.writeJSONError(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Health)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	if err := ws.Prepare(r.Context()); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	data, err := s.deps.Export.BudgetWorkbook(r.Context(), ws)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="orcamento-%s.xlsx"`, time.Now().Format("2006-01-02")))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// handleEnvelopeChart answers 204 when there are no envelopes to plot.
func (s *Server) handleEnvelopeChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws := s.workspace(r)
	if err := ws.Prepare(ctx); err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	if ws.BudgetID() == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := ws.Envelopes.Ensure(ctx); err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	png, err := s.deps.Chart.EnvelopeUsagePNG(ws.Envelopes.Data())
	if errors.Is(err, services.ErrNoChartData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.events.LogError(ctx, "Chart rendering failed", err, log.ComponentChart, log.OpRender, nil)
		InternalServerError("Não foi possível gerar o gráfico.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady requires the remote API and the preference store to answer
// within the readiness timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ReadyTimeout)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]any{}
	check := func(name string, p Pinger) {
		switch {
		case p == nil:
			checks[name] = "not_configured"
		default:
			if err := p.Ping(ctx); err != nil {
				checks[name] = fmt.Sprintf("failed: %v", err)
				status, httpStatus = "not_ready", http.StatusServiceUnavailable
				return
			}
			checks[name] = "ok"
		}
	}
	check("api", s.deps.API)
	check("preferences", s.deps.Prefs)
	checks["sessions"] = map[string]any{"active": s.deps.Registry.Len(), "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients(), "status": "ok"}

	if httpStatus != http.StatusOK {
		s.logger.WarnContext(ctx, "Readiness check failed", "checks", checks)
	}
	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
