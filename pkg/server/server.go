// SPDX-License-Identifier: Apache-2.0

// Package server exposes pkg/pipeline over HTTP: POST /query, POST
// /validate/query, POST /validate/config, GET /health. Grounded on the
// teacher's cmd/serve.go (a bare net/http.ServeMux, no router dependency --
// nothing in the retrieval pack pulls in chi/gin/echo, so this follows the
// same stdlib-only shape rather than inventing a router dependency).
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/config"
	"github.com/querygateway/gateway/pkg/errs"
	"github.com/querygateway/gateway/pkg/pipeline"
	"github.com/querygateway/gateway/pkg/query"
	"github.com/querygateway/gateway/pkg/registry"
)

const requestIDHeader = "X-Request-Id"

// withRequestID assigns every request a synthetic id the way the teacher
// assigns raw-SQL migration ops a synthetic id (uuid.NewString()), and
// returns it in the X-Request-Id response header. The id is not added to
// the response body or logged.
func withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(requestIDHeader, id)
		next(w, r)
	}
}

type Server struct {
	pipeline *pipeline.Pipeline
	registry *registry.Registry
	mux      *http.ServeMux
}

func New(pl *pipeline.Pipeline, reg *registry.Registry) *Server {
	s := &Server{pipeline: pl, registry: reg, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /query", withRequestID(s.handleQuery))
	s.mux.HandleFunc("POST /validate/query", withRequestID(s.handleValidateQuery))
	s.mux.HandleFunc("POST /validate/config", withRequestID(s.handleValidateConfig))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /admin/reload", s.handleReload)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type queryRequest struct {
	Query            query.Query              `json:"query"`
	ExecutionContext catalog.ExecutionContext `json:"executionContext"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &errs.ValidationError{Entries: []errs.Entry{errs.NewInvalidValue(err.Error())}})
		return
	}

	res, err := s.pipeline.Run(r.Context(), &req.Query, req.ExecutionContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleValidateQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &errs.ValidationError{Entries: []errs.Entry{errs.NewInvalidValue(err.Error())}})
		return
	}

	req.Query.ExecuteMode = query.ExecuteModeSQLOnly
	res, err := s.pipeline.Run(r.Context(), &req.Query, req.ExecutionContext)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleValidateConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Catalogue catalog.Catalogue `json:"catalogue"`
		Roles     []catalog.Role    `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &errs.ConfigError{Entries: []errs.Entry{errs.NewInvalidReference("request", "body", "json", err.Error())}})
		return
	}

	if err := config.Validate(&body.Catalogue, body.Roles); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	failures := s.pipeline.HealthCheck(r.Context())
	if len(failures) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	details := make(map[string]string, len(failures))
	for id, err := range failures {
		details[id] = err.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy", "failures": details})
}

// handleReload re-reads the catalogue and roles from their configured
// providers. The registry keeps serving the previous snapshot if the reload
// fails (pkg/registry.Reload never swaps in a partially-loaded one).
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reloaded": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps one of pkg/errs's typed errors onto the wire format and
// status codes in spec section 6: validation/config -> 400, planner -> 422,
// execution -> 500, connection/provider -> 503.
func writeError(w http.ResponseWriter, err error) {
	var cfgErr *errs.ConfigError
	var valErr *errs.ValidationError
	var planErr *errs.PlannerError
	var execErr *errs.ExecutionError
	var connErr *errs.ConnectionError
	var provErr *errs.ProviderError

	switch {
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code": cfgErr.Code(), "message": cfgErr.Error(), "errors": cfgErr.Entries,
		})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code": valErr.Code(), "message": valErr.Error(), "fromTable": valErr.FromTable, "errors": valErr.Entries,
		})
	case errors.As(err, &planErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": planErr.Code(), "message": planErr.Error(), "details": planErr.Details,
		})
	case errors.As(err, &execErr):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code": execErr.Code(), "message": execErr.Error(), "details": execErr.Details,
		})
	case errors.As(err, &connErr):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"code": connErr.Code(), "message": connErr.Error(), "details": connErr.Details,
		})
	case errors.As(err, &provErr):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"code": provErr.Code(), "message": provErr.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code": "INTERNAL", "message": err.Error(),
		})
	}
}
