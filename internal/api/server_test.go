package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/stellarflux/transit-simulator/internal/config"
	"github.com/stellarflux/transit-simulator/internal/logging"
	"github.com/stellarflux/transit-simulator/internal/observability"
	"github.com/stellarflux/transit-simulator/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	apiMetrics, err := observability.NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	engMetrics, err := observability.NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}
	cfg := config.Default()
	cfg.Engine.MaxSamples = 10_000
	return NewServer(cfg, store.NewScenarioStore(), logging.Noop(), apiMetrics, engMetrics)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ok") {
		t.Fatalf("/healthz body = %s", rr.Body.String())
	}
}

func TestLightCurveEndpointRecordsWorkerGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	apiMetrics, err := observability.NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	engMetrics, err := observability.NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}
	cfg := config.Default()
	cfg.Engine.MaxSamples = 10_000
	cfg.Engine.Workers = 3
	srv := NewServer(cfg, store.NewScenarioStore(), logging.Noop(), apiMetrics, engMetrics)

	rr := doJSON(t, srv, http.MethodPost, "/v1/lightcurve", `{
		"params": {"period": 3.2, "aRs": 8.1, "t0": 0, "b": 0.3, "RpRs": 0.1},
		"grid": {"start": -0.1, "stop": 0.1, "samples": 201}
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got := testutil.ToFloat64(engMetrics.WorkersInUse); got != 3 {
		t.Fatalf("engine_workers_in_use = %v, want 3", got)
	}
}

func TestLightCurveEndpoint(t *testing.T) {
	srv := testServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/v1/lightcurve", `{
		"params": {"period": 3.2, "aRs": 8.1, "t0": 0, "b": 0.3, "RpRs": 0.1},
		"limb_darkening": [0.4, 0.26],
		"grid": {"start": -0.1, "stop": 0.1, "samples": 201}
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp lightCurveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Times) != 201 || len(resp.Flux) != 201 {
		t.Fatalf("lengths = %d, %d", len(resp.Times), len(resp.Flux))
	}
	if resp.Flux[100] >= 1 {
		t.Errorf("mid-transit flux = %v, want < 1", resp.Flux[100])
	}
	if resp.Flux[0] != 1 {
		t.Errorf("out-of-transit flux = %v, want 1", resp.Flux[0])
	}
}

func TestLightCurveEndpointRejects(t *testing.T) {
	srv := testServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{
			name: "malformed JSON",
			body: `{nope`,
			want: http.StatusBadRequest,
		},
		{
			name: "missing grid",
			body: `{"params": {"period": 3.2, "aRs": 8.1, "t0": 0}}`,
			want: http.StatusBadRequest,
		},
		{
			name: "missing reference time",
			body: `{"params": {"period": 3.2, "aRs": 8.1},
			        "grid": {"start": 0, "stop": 1, "samples": 10}}`,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown parameter",
			body: `{"params": {"period": 3.2, "aRs": 8.1, "t0": 0, "wat": 1},
			        "grid": {"start": 0, "stop": 1, "samples": 10}}`,
			want: http.StatusBadRequest,
		},
		{
			name: "grid over sample limit",
			body: `{"params": {"period": 3.2, "aRs": 8.1, "t0": 0},
			        "grid": {"start": 0, "stop": 1, "samples": 20000}}`,
			want: http.StatusBadRequest,
		},
		{
			name: "three limb coefficients",
			body: `{"params": {"period": 3.2, "aRs": 8.1, "t0": 0},
			        "limb_darkening": [0.1, 0.2, 0.3],
			        "grid": {"start": 0, "stop": 1, "samples": 10}}`,
			want: http.StatusBadRequest,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/v1/lightcurve", c.body)
			if rr.Code != c.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, c.want, rr.Body.String())
			}
		})
	}
}

func TestPositionEndpoint(t *testing.T) {
	srv := testServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/v1/position", `{
		"params": {"period": 3.2, "aRs": 8.1, "t0": 0, "b": 0.3},
		"times": [0]
	}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp positionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.X) != 1 {
		t.Fatalf("lengths = %d", len(resp.X))
	}
	if resp.Z[0] <= 0 {
		t.Errorf("Z at transit = %v, want > 0", resp.Z[0])
	}

	rr = doJSON(t, srv, http.MethodPost, "/v1/position", `{
		"params": {"period": 3.2, "aRs": 8.1, "t0": 0},
		"times": [0],
		"frame": "sideways"
	}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad frame status = %d", rr.Code)
	}
}

func TestScenarioLifecycle(t *testing.T) {
	srv := testServer(t)
	body := `{
		"params": {"period": 3.2, "aRs": 8.1, "t0": 0, "b": 0.3, "RpRs": 0.1},
		"limb_darkening": [0.4, 0.26],
		"grid": {"start": -0.1, "stop": 0.1, "samples": 51}
	}`

	if rr := doJSON(t, srv, http.MethodPut, "/v1/scenarios/hj", body); rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr := doJSON(t, srv, http.MethodGet, "/v1/scenarios", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "hj") {
		t.Fatalf("list = %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/v1/scenarios/hj", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}
	var got systemRequest
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode scenario: %v", err)
	}
	if got.Params["period"] != 3.2 || got.Grid == nil || got.Grid.Samples != 51 {
		t.Fatalf("round-tripped scenario = %+v", got)
	}

	rr = doJSON(t, srv, http.MethodPost, "/v1/scenarios/hj/lightcurve", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stored curve status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var curve lightCurveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &curve); err != nil {
		t.Fatalf("decode curve: %v", err)
	}
	if len(curve.Flux) != 51 {
		t.Fatalf("curve samples = %d, want 51", len(curve.Flux))
	}

	// Grid override changes the sample count without touching the store.
	rr = doJSON(t, srv, http.MethodPost, "/v1/scenarios/hj/lightcurve",
		`{"grid": {"start": -0.05, "stop": 0.05, "samples": 11}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("override status = %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &curve); err != nil {
		t.Fatalf("decode curve: %v", err)
	}
	if len(curve.Flux) != 11 {
		t.Fatalf("override samples = %d, want 11", len(curve.Flux))
	}

	if rr := doJSON(t, srv, http.MethodDelete, "/v1/scenarios/hj", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rr.Code)
	}
	if rr := doJSON(t, srv, http.MethodGet, "/v1/scenarios/hj", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d", rr.Code)
	}
}

func TestPutScenarioRejectsUnresolvable(t *testing.T) {
	srv := testServer(t)
	rr := doJSON(t, srv, http.MethodPut, "/v1/scenarios/bad",
		`{"params": {"period": 3.2, "aRs": 8.1}}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if rr := doJSON(t, srv, http.MethodGet, "/v1/scenarios/bad", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("rejected scenario was stored: %d", rr.Code)
	}
}
