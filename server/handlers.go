package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	quarc "github.com/quarclab/quarc"
	"github.com/quarclab/quarc/backend"
	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/export"
	"github.com/quarclab/quarc/internal/fingerprint"
	"github.com/quarclab/quarc/metrics"
	"github.com/quarclab/quarc/optimize"
	"github.com/quarclab/quarc/simulator"
)

type simulateRequest struct {
	circuit.Circuit
	Trials  int    `json:"trials,omitempty"`
	Seed    *int64 `json:"seed,omitempty"`
	Backend string `json:"backend,omitempty"`
	Kernel  string `json:"kernel,omitempty"`
}

type simulateResponse struct {
	NumQubits     int                `json:"numQubits"`
	Probabilities map[string]float64 `json:"probabilities"`
	GeneratedCode map[string]string  `json:"generatedCode"`
	Kernel        string             `json:"kernel"`
	Noise         float64            `json:"noiseLevel"`
	Trials        int                `json:"trials"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !s.decode(w, r, &req) {
		return
	}

	opts, err := s.runOptions(&req)
	if err != nil {
		s.engineError(w, err)
		return
	}

	// noisy runs without a pinned seed are intentionally non-deterministic
	// on the statevector path, so only deterministic requests are memoized
	memoizable := s.memo != nil && ((req.NoiseLevel == 0 && req.Backend == "") || req.Seed != nil)
	var memoKey string
	if memoizable {
		sum, err := fingerprint.Circuit(&req.Circuit, map[string]string{
			"trials":  strconv.Itoa(req.Trials),
			"seed":    seedParam(req.Seed),
			"backend": req.Backend,
			"kernel":  req.Kernel,
		})
		if err == nil {
			memoKey = fingerprint.Hex(sum)
			if body, ok := s.memo.get(memoKey); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}
		}
	}

	res, err := simulator.Run(r.Context(), &req.Circuit, opts...)
	if err != nil {
		s.engineError(w, err)
		return
	}

	code := make(map[string]string, len(export.Dialects()))
	for _, d := range export.Dialects() {
		text, err := export.Export(&req.Circuit, d)
		if err != nil {
			s.engineError(w, err)
			return
		}
		code[string(d)] = text
	}

	resp := simulateResponse{
		NumQubits:     res.NumQubits,
		Probabilities: res.Probabilities,
		GeneratedCode: code,
		Kernel:        res.Kernel.String(),
		Noise:         res.Noise,
		Trials:        res.Trials,
	}
	if memoKey != "" {
		if body, err := json.Marshal(resp); err == nil {
			s.memo.put(memoKey, body)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runOptions(req *simulateRequest) ([]simulator.Option, error) {
	opts := []simulator.Option{simulator.WithMaxQubits(s.maxQubits)}
	if req.Trials > 0 {
		opts = append(opts, simulator.WithTrials(req.Trials))
	}
	if req.Seed != nil {
		opts = append(opts, simulator.WithSeed(*req.Seed))
	}
	if req.Backend != "" {
		opts = append(opts, simulator.WithBackendNoise(req.Backend))
	}
	if req.Kernel != "" {
		id, err := parseKernel(req.Kernel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, simulator.WithKernel(id))
	}
	return opts, nil
}

func parseKernel(name string) (simulator.KernelID, error) {
	switch name {
	case "auto":
		return simulator.Auto, nil
	case "statevector":
		return simulator.Statevector, nil
	case "density":
		return simulator.Density, nil
	default:
		return 0, fmt.Errorf("unknown kernel %q", name)
	}
}

func seedParam(seed *int64) string {
	if seed == nil {
		return ""
	}
	return strconv.FormatInt(*seed, 10)
}

type statevectorRequest struct {
	circuit.Circuit
}

type statevectorResponse struct {
	QSphere []metrics.QSpherePoint `json:"qsphere"`
	Bloch   []metrics.BlochVector  `json:"bloch"`
}

// handleStatevector runs the circuit noiselessly and returns the Q-sphere
// points plus the per-qubit Bloch vectors of the final pure state.
func (s *Server) handleStatevector(w http.ResponseWriter, r *http.Request) {
	var req statevectorRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.NoiseLevel = 0

	res, err := simulator.Run(r.Context(), &req.Circuit,
		simulator.WithMaxQubits(s.maxQubits),
		simulator.WithKernel(simulator.Statevector),
	)
	if err != nil {
		s.engineError(w, err)
		return
	}

	resp := statevectorResponse{
		QSphere: metrics.QSphere(res.Amplitudes, res.NumQubits),
		Bloch:   make([]metrics.BlochVector, res.NumQubits),
	}
	for q := 0; q < res.NumQubits; q++ {
		v, err := metrics.Bloch(res.Amplitudes, res.NumQubits, q)
		if err != nil {
			s.engineError(w, err)
			return
		}
		resp.Bloch[q] = v
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type estimateRequest struct {
	circuit.Circuit
	Backend string `json:"backend,omitempty"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if !s.decode(w, r, &req) {
		return
	}
	est, err := metrics.Estimate(&req.Circuit, req.Backend)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, est)
}

type optimizeRequest struct {
	circuit.Circuit
	Level *int `json:"level,omitempty"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	level := optimize.DefaultLevel
	if req.Level != nil {
		level = *req.Level
	}
	res, err := optimize.Optimize(&req.Circuit, level)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type timelineRequest struct {
	circuit.Circuit
	Seed *int64 `json:"seed,omitempty"`
}

type timelineStep struct {
	Step          int                `json:"step"`
	Probabilities map[string]float64 `json:"probabilities"`
}

type timelineResponse struct {
	Steps  []timelineStep `json:"steps"`
	Kernel string         `json:"kernel"`
}

// handleTimeline returns one probability snapshot per timestep prefix;
// step 0 is the initial state.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	var req timelineRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts := []simulator.Option{simulator.WithMaxQubits(s.maxQubits)}
	if req.Seed != nil {
		opts = append(opts, simulator.WithSeed(*req.Seed))
	}
	results, err := simulator.Timeline(r.Context(), &req.Circuit, opts...)
	if err != nil {
		s.engineError(w, err)
		return
	}

	resp := timelineResponse{Steps: make([]timelineStep, len(results))}
	for i, res := range results {
		resp.Steps[i] = timelineStep{Step: i, Probabilities: res.Probabilities}
		resp.Kernel = res.Kernel.String()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type exportRequest struct {
	circuit.Circuit
	Dialect string `json:"dialect"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !s.decode(w, r, &req) {
		return
	}
	d, err := export.ParseDialect(req.Dialect)
	if err != nil {
		s.engineError(w, err)
		return
	}
	code, err := export.Export(&req.Circuit, d)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"dialect": string(d),
		"code":    code,
	})
}

func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	names := backend.Names()
	profiles := make([]backend.Profile, 0, len(names))
	for _, name := range names {
		p, err := backend.Get(name)
		if err != nil {
			s.engineError(w, err)
			return
		}
		profiles = append(profiles, p)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"default":  backend.Default,
		"backends": profiles,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": quarc.Version.String(),
	})
}
