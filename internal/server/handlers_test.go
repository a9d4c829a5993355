package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/adpilot/internal/server"
	"github.com/adpilot/adpilot/internal/stats"
	"github.com/adpilot/adpilot/internal/store"
	"github.com/adpilot/adpilot/internal/testutil"
)

func newTestServer(t *testing.T) (*server.Server, *store.SQLiteStore) {
	t.Helper()
	s := testutil.SetupTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return server.New(s, 0, logger), s
}

func do(t *testing.T, srv *server.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, s := newTestServer(t)
	testutil.SeedExperiment(t, s, "hook", store.Counts{})

	w := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.ExperimentsCount)
}

func TestSignificance_Evaluates(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"control_visitors":1000,"control_conversions":50,"variant_visitors":1000,"variant_conversions":65}`
	w := do(t, srv, http.MethodPost, "/api/significance", body)
	require.Equal(t, http.StatusOK, w.Code)

	var result stats.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, 5.00, result.ControlRate)
	assert.Equal(t, 6.50, result.VariantRate)
	assert.Equal(t, 30.00, result.Lift)
	assert.Equal(t, 85, result.Confidence)
	assert.Equal(t, stats.WinnerInconclusive, result.Winner)
}

func TestSignificance_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"control_visitors":10,"control_conversions":20,"variant_visitors":10,"variant_conversions":1}`
	w := do(t, srv, http.MethodPost, "/api/significance", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "control_conversions", resp.Field)
}

func TestSignificance_UndefinedResult(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"control_visitors":0,"control_conversions":0,"variant_visitors":100,"variant_conversions":10}`
	w := do(t, srv, http.MethodPost, "/api/significance", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "enter at least one visitor per group", resp.Error)
}

func TestSignificance_RejectsNonIntegers(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		target string
		method string
		body   string
		field  string
	}{
		{"fractional visitors", "/api/significance", http.MethodPost, `{"control_visitors":10.5,"control_conversions":1,"variant_visitors":10,"variant_conversions":1}`, "control_visitors"},
		{"fractional conversions", "/api/significance", http.MethodPost, `{"control_visitors":10,"control_conversions":1.5,"variant_visitors":10,"variant_conversions":1}`, "control_conversions"},
		{"string count", "/api/significance", http.MethodPost, `{"control_visitors":10,"control_conversions":1,"variant_visitors":"ten","variant_conversions":1}`, "variant_visitors"},
		{"counts endpoint", "/api/experiments/hook/counts", http.MethodPut, `{"variant_conversions":0.5}`, "variant_conversions"},
	}

	srv, s := newTestServer(t)
	testutil.SeedExperiment(t, s, "hook", store.Counts{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.target, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp server.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.field, resp.Field)
			assert.Contains(t, resp.Error, "whole number")
		})
	}
}

func TestSignificance_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "request body is required"},
		{"unknown key", `{"control_visitors":10,"clicks":3}`, "invalid request body"},
		{"broken json", `{"control_visitors":`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/significance", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp server.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Contains(t, resp.Error, tt.message)
			assert.NotContains(t, resp.Error, "whole number")
			assert.Empty(t, resp.Field)
		})
	}
}

func TestSignificance_MethodAndCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/significance", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, srv, http.MethodOptions, "/api/significance", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestExperiments_List(t *testing.T) {
	srv, s := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/experiments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	testutil.SeedExperiment(t, s, "hook", store.Counts{ControlVisitors: 1000, ControlConversions: 100, VariantVisitors: 1000, VariantConversions: 150})
	testutil.SeedExperiment(t, s, "fresh", store.Counts{})

	w = do(t, srv, http.MethodGet, "/api/experiments", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []server.ExperimentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp, 2)

	byName := map[string]server.ExperimentResponse{}
	for _, e := range resp {
		byName[e.Name] = e
	}

	require.NotNil(t, byName["hook"].Analysis.Result)
	assert.Equal(t, stats.WinnerVariant, byName["hook"].Analysis.Result.Winner)

	assert.Nil(t, byName["fresh"].Analysis.Result)
	assert.NotEmpty(t, byName["fresh"].Analysis.Error)
}

func TestExperiment_Get(t *testing.T) {
	srv, s := newTestServer(t)
	testutil.SeedExperiment(t, s, "hook", store.Counts{ControlVisitors: 10, ControlConversions: 2, VariantVisitors: 10, VariantConversions: 3})

	w := do(t, srv, http.MethodGet, "/api/experiments/hook", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.ExperimentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "running", resp.State)
	assert.Equal(t, "Control", resp.Analysis.Control.Label)
	require.NotNil(t, resp.Analysis.Result)
	assert.Equal(t, stats.WinnerInconclusive, resp.Analysis.Result.Winner)

	w = do(t, srv, http.MethodGet, "/api/experiments/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExperiment_PutCounts(t *testing.T) {
	srv, s := newTestServer(t)
	testutil.SeedExperiment(t, s, "hook", store.Counts{})

	body := `{"control_visitors":1000,"control_conversions":150,"variant_visitors":1000,"variant_conversions":100}`
	w := do(t, srv, http.MethodPut, "/api/experiments/hook/counts", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.ExperimentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1000, resp.Counts.ControlVisitors)
	require.NotNil(t, resp.Analysis.Result)
	assert.Equal(t, stats.WinnerControl, resp.Analysis.Result.Winner)

	w = do(t, srv, http.MethodPut, "/api/experiments/hook/counts", `{"control_visitors":1,"control_conversions":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/experiments/hook/counts", body)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestExperiment_PutCountsAfterCompletion(t *testing.T) {
	srv, s := newTestServer(t)
	testutil.SeedExperiment(t, s, "hook", store.Counts{ControlVisitors: 10, VariantVisitors: 10})
	require.NoError(t, s.DeclareWinner(context.Background(), "hook", "control"))

	w := do(t, srv, http.MethodPut, "/api/experiments/hook/counts", `{"control_visitors":20,"variant_visitors":20}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
