package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexshd/feasibility"
	"github.com/alexshd/feasibility/internal/logging"
)

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	return New(logging.Discard(), cfg).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	rec := do(t, newTestServer(t, Config{}), http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Pong "))
}

func TestAnalyze(t *testing.T) {
	body := `{"sets": [` +
		`{"name": "ok", "periods": [2, 10, 15], "wcets": [1, 1, 2]},` +
		`{"name": "bad", "periods": [2, 5, 7], "wcets": [1, 1, 2]}]}`

	rec := do(t, newTestServer(t, Config{}), http.MethodPost, "/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.Feasible)
	require.Len(t, resp.Sets, 2)

	ok := resp.Sets[0]
	assert.Equal(t, "ok", ok.Name)
	assert.Equal(t, feasibility.VerdictFeasible, ok.Verdict)
	assert.Equal(t, "U=0.73 (C1=1, C2=1, C3=2; T1=2, T2=10, T3=15; T=D)", ok.Summary)
	require.Len(t, ok.Responses, 3)
	assert.Equal(t, int64(6), ok.Responses[2].Completion)

	bad := resp.Sets[1]
	assert.Equal(t, feasibility.VerdictInfeasible, bad.Verdict)
	assert.False(t, bad.CompletionTime)
	assert.False(t, bad.SchedulingPoint)
	assert.Contains(t, bad.Reason, "task 3 misses its deadline")
}

func TestAnalyze_PolicyAndSort(t *testing.T) {
	body := `{"tasks": [` +
		`{"name": "log", "period": 20, "wcet": 4},` +
		`{"name": "loop", "period": 10, "wcet": 2, "deadline": 3},` +
		`{"name": "sensor", "period": 5, "wcet": 1}]}`
	h := newTestServer(t, Config{})

	// Out of order without sort.
	rec := do(t, h, http.MethodPost, "/analyze?policy=dm", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, string(feasibility.CodePriorityOrder), errResp.Code)

	rec = do(t, h, http.MethodPost, "/analyze?policy=dm&sort=true", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Feasible)
	set := resp.Sets[0]
	assert.Equal(t, feasibility.DeadlineMonotonic, set.Policy)
	assert.Equal(t, "loop", set.Tasks[0].Name)
	assert.Equal(t, "sensor", set.Tasks[1].Name)
	assert.Equal(t, "log", set.Tasks[2].Name)
}

func TestAnalyze_Rejections(t *testing.T) {
	h := newTestServer(t, Config{MaxBodyBytes: 256})

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"malformed", "/analyze", `{"periods": [2, 4`, http.StatusUnprocessableEntity, ""},
		{"empty", "/analyze", ``, http.StatusUnprocessableEntity, "INPUT-001"},
		{"shape", "/analyze", `{"periods": [2, 4], "wcets": [1]}`, http.StatusUnprocessableEntity, "INPUT-005"},
		{"non-positive", "/analyze", `{"periods": [2, 4], "wcets": [1, 0]}`, http.StatusUnprocessableEntity, "INPUT-002"},
		{"unknown policy", "/analyze?policy=edf", `{"periods": [2], "wcets": [1]}`, http.StatusUnprocessableEntity, "INPUT-004"},
		{"bad sort", "/analyze?sort=maybe", `{"periods": [2], "wcets": [1]}`, http.StatusBadRequest, ""},
		{"too large", "/analyze", `{"periods": [` + strings.Repeat("2, ", 200) + `2], "wcets": [1]}`, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.target, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestAnalyze_WorkloadTooLarge(t *testing.T) {
	// A tiny body whose scheduling-point scan would cover 5e17 points.
	huge := `{"periods": [2, 1000000000000000000], "wcets": [1, 400000000000000000]}`

	rec := do(t, newTestServer(t, Config{}), http.MethodPost, "/analyze", huge)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, ErrWorkloadTooLarge.Error())
	assert.Contains(t, resp.Error, "limit 10000000")

	// Ex-0 takes at most 22 steps.
	ex0 := `{"periods": [2, 10, 15], "wcets": [1, 1, 2]}`
	rec = do(t, newTestServer(t, Config{MaxWorkload: 21}), http.MethodPost, "/analyze", ex0)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "22 steps, limit 21")

	rec = do(t, newTestServer(t, Config{MaxWorkload: 22}), http.MethodPost, "/analyze", ex0)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSimulate(t *testing.T) {
	body := `{"name": "Ex-2", "periods": [2, 5, 7, 13], "wcets": [1, 1, 1, 2]}`

	rec := do(t, newTestServer(t, Config{}), http.MethodPost, "/simulate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.Feasible)
	require.Len(t, resp.Sets, 1)
	sim := resp.Sets[0]
	assert.Equal(t, "Ex-2", sim.Name)
	assert.False(t, sim.Feasible)
	assert.Equal(t, int64(910), sim.Hyperperiod)
	require.Len(t, sim.Tasks, 4)
	assert.Equal(t, 15, sim.Tasks[3].Missed)
	assert.Equal(t, int64(16), sim.Tasks[3].WorstResponse)
}

func TestSimulate_HorizonTooLarge(t *testing.T) {
	body := `{"periods": [2, 5, 7, 13], "wcets": [1, 1, 1, 2]}`

	rec := do(t, newTestServer(t, Config{MaxHorizon: 100}), http.MethodPost, "/simulate", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "horizon too large")
}

func TestStats(t *testing.T) {
	h := newTestServer(t, Config{})

	do(t, h, http.MethodGet, "/ping", "")
	do(t, h, http.MethodPost, "/analyze", `{"periods": [2], "wcets": [0]}`)

	rec := do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	// The /stats request itself is counted after the handler runs.
	assert.Equal(t, int64(2), stats.Requests)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(0), stats.Errors)
}

func TestRouting(t *testing.T) {
	h := newTestServer(t, Config{})

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/missing", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/analyze", "").Code)
}
