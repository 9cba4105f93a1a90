package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s, err := NewServer(zap.NewNop().Sugar(), opts...)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func bellBody() map[string]any {
	return map[string]any{
		"numQubits":    2,
		"numTimesteps": 4,
		"gates": map[string]any{
			"0-0": map[string]any{"gateType": "H", "qubit": 0, "timestep": 0},
		},
		"multiQubitGates": []any{
			map[string]any{"gateType": "CNOT", "timestep": 1, "controls": []int{0}, "targets": []int{1}},
		},
	}
}

func TestNewServerRequiresLogger(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
}

func TestSimulateBell(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/simulate", bellBody())
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.NumQubits)
	assert.Equal(t, "statevector", resp.Kernel)
	assert.InDelta(t, 0.5, resp.Probabilities["00"], 1e-9)
	assert.InDelta(t, 0.5, resp.Probabilities["11"], 1e-9)

	require.Len(t, resp.GeneratedCode, 3)
	assert.Contains(t, resp.GeneratedCode["qiskit"], "qc.h(0)")
	assert.Contains(t, resp.GeneratedCode["braket"], "circuit.cnot(0, 1)")
	assert.Contains(t, resp.GeneratedCode["qasm3"], "cx q[0], q[1];")
}

func TestSimulateNoisePercentNormalized(t *testing.T) {
	s := newTestServer(t)
	body := bellBody()
	body["noiseLevel"] = 5 // percent
	w := doJSON(t, s, http.MethodPost, "/api/simulate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 0.05, resp.Noise, 1e-12)
	assert.Equal(t, "density", resp.Kernel)
}

func TestSimulateInvalidQubitRejected(t *testing.T) {
	s := newTestServer(t)
	body := bellBody()
	body["gates"] = map[string]any{
		"9-0": map[string]any{"gateType": "X", "qubit": 9, "timestep": 0},
	}
	w := doJSON(t, s, http.MethodPost, "/api/simulate", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "invalid qubit index")
}

func TestSimulateUnknownGateRejected(t *testing.T) {
	s := newTestServer(t)
	body := bellBody()
	body["gates"] = map[string]any{
		"0-0": map[string]any{"gateType": "WARP", "qubit": 0, "timestep": 0},
	}
	w := doJSON(t, s, http.MethodPost, "/api/simulate", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulateMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/simulate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSimulateMemoCache(t *testing.T) {
	s := newTestServer(t, WithMemoCache(8))

	first := doJSON(t, s, http.MethodPost, "/api/simulate", bellBody())
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, s.memo.len())

	second := doJSON(t, s, http.MethodPost, "/api/simulate", bellBody())
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, s.memo.len())
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestSimulateNoisyUnseededNotMemoized(t *testing.T) {
	s := newTestServer(t, WithMemoCache(8))
	body := bellBody()
	body["noiseLevel"] = 0.05
	body["trials"] = 4
	body["kernel"] = "statevector"

	w := doJSON(t, s, http.MethodPost, "/api/simulate", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.memo.len())
}

func TestStatevectorEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/statevector", bellBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp statevectorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.QSphere, 2)
	assert.Equal(t, "00", resp.QSphere[0].State)
	assert.Equal(t, "11", resp.QSphere[1].State)
	assert.Equal(t, 2, resp.QSphere[1].Hamming)

	// entangled halves reduce to the maximally mixed state
	require.Len(t, resp.Bloch, 2)
	for _, v := range resp.Bloch {
		assert.InDelta(t, 0, v.X, 1e-9)
		assert.InDelta(t, 0, v.Y, 1e-9)
		assert.InDelta(t, 0, v.Z, 1e-9)
	}
}

func TestEstimateEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := bellBody()
	body["backend"] = "ionq_aria"
	w := doJSON(t, s, http.MethodPost, "/api/estimate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ionq_aria", resp["backend"])
	assert.Equal(t, float64(1), resp["singleQubitGates"])
	assert.Equal(t, float64(1), resp["multiQubitGates"])
	assert.Equal(t, true, resp["fitsBackend"])
}

func TestEstimateUnknownBackend(t *testing.T) {
	s := newTestServer(t)
	body := bellBody()
	body["backend"] = "nope"
	w := doJSON(t, s, http.MethodPost, "/api/estimate", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{
		"numQubits":    1,
		"numTimesteps": 2,
		"gates": map[string]any{
			"0-0": map[string]any{"gateType": "H", "qubit": 0, "timestep": 0},
			"0-1": map[string]any{"gateType": "H", "qubit": 0, "timestep": 1},
		},
	}
	w := doJSON(t, s, http.MethodPost, "/api/optimize", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["originalGateCount"])
	assert.Equal(t, float64(0), resp["optimizedGateCount"])
	assert.Equal(t, float64(2), resp["removedCount"])
}

func TestTimelineEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/timeline", bellBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp timelineResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Steps, 3)
	assert.InDelta(t, 1.0, resp.Steps[0].Probabilities["00"], 1e-9)
	assert.InDelta(t, 0.5, resp.Steps[2].Probabilities["11"], 1e-9)
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := bellBody()
	body["dialect"] = "qasm3"
	w := doJSON(t, s, http.MethodPost, "/api/export", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "qasm3", resp["dialect"])
	assert.Contains(t, resp["code"], "h q[0];")

	body["dialect"] = "cirq"
	w = doJSON(t, s, http.MethodPost, "/api/export", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackendsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/backends", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Default  string           `json:"default"`
		Backends []map[string]any `json:"backends"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ibm_brisbane", resp.Default)
	assert.NotEmpty(t, resp.Backends)

	w = doJSON(t, s, http.MethodPost, "/api/backends", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["version"])
}

func TestServerOptionValidation(t *testing.T) {
	_, err := NewServer(zap.NewNop().Sugar(), WithMaxQubits(0))
	require.Error(t, err)
	_, err = NewServer(zap.NewNop().Sugar(), WithMemoCache(0))
	require.Error(t, err)
}
