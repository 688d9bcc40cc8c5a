// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/gateway"
	"github.com/querygateway/gateway/pkg/pipeline"
	"github.com/querygateway/gateway/pkg/registry"
	"github.com/querygateway/gateway/pkg/server"
)

type staticMetadata struct{ cat *catalog.Catalogue }

func (s staticMetadata) Load(context.Context) (*catalog.Catalogue, error) { return s.cat, nil }

type staticRoles struct{ roles []catalog.Role }

func (s staticRoles) Load(context.Context) ([]catalog.Role, error) { return s.roles, nil }

type fakeExecutor struct{ rows []gateway.Row }

func (f *fakeExecutor) Query(ctx context.Context, sql string, params []any) ([]gateway.Row, error) {
	return f.rows, nil
}
func (f *fakeExecutor) Ping(ctx context.Context) error { return nil }
func (f *fakeExecutor) Close() error                   { return nil }

func ordersCatalogue() *catalog.Catalogue {
	return &catalog.Catalogue{
		Databases: []catalog.Database{{ID: "pg-main", Engine: catalog.EnginePostgres}},
		Tables: []catalog.Table{{
			ID: "t-orders", APIName: "orders", DatabaseID: "pg-main",
			PhysicalName: "orders", PrimaryKey: []string{"id"},
			Columns: []catalog.Column{
				{APIName: "id", PhysicalName: "id", Type: catalog.TypeUUID},
				{APIName: "total", PhysicalName: "total", Type: catalog.TypeDecimal},
			},
		}},
	}
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	reg, err := registry.New(context.Background(), staticMetadata{cat: ordersCatalogue()}, staticRoles{})
	require.NoError(t, err)

	providers := gateway.NewRegistry()
	providers.RegisterExecutor("pg-main", &fakeExecutor{rows: []gateway.Row{{"t0__id": "o1", "t0__total": 9.5}}})
	return server.New(pipeline.New(reg, providers), reg)
}

func postJSON(t *testing.T, s *server.Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleQueryReturnsRows(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := postJSON(t, s, "/query", map[string]any{
		"query": map[string]any{"from": "orders", "columns": []string{"id", "total"}},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "o1")
}

func TestHandleQueryUnknownTableReturns400(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := postJSON(t, s, "/query", map[string]any{
		"query": map[string]any{"from": "nope"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestHandleValidateQueryStopsBeforeExecution(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := postJSON(t, s, "/validate/query", map[string]any{
		"query": map[string]any{"from": "orders", "columns": []string{"id"}},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\"sql\"")
}

func TestHandleValidateConfigRejectsDanglingReference(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := postJSON(t, s, "/validate/config", map[string]any{
		"catalogue": map[string]any{
			"databases": []map[string]any{{"id": "pg-main", "engine": "postgres"}},
			"tables": []map[string]any{{
				"id": "t-x", "apiName": "x", "database": "pg-missing",
				"physicalName": "x", "primaryKey": []string{"id"},
				"columns": []map[string]any{{"apiName": "id", "physicalName": "id", "type": "uuid"}},
			}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFIG_INVALID")
}

func TestHandleHealthReportsOK(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\"ok\"")
}

func TestHandleReload(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := postJSON(t, s, "/admin/reload", map[string]any{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "true")
}
