// Package server exposes the engine to the circuit editor as a JSON HTTP
// API. Handlers are thin: decode, validate, call the engine, encode. All
// simulation state lives inside one request; the only cross-request state
// is the optional response memo cache.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarclab/quarc/backend"
	"github.com/quarclab/quarc/circuit"
	"github.com/quarclab/quarc/export"
	"github.com/quarclab/quarc/gate"
)

// Server holds the handler dependencies.
type Server struct {
	log       *zap.SugaredLogger
	maxQubits int
	memo      *memoCache
	mux       *http.ServeMux
}

// Option configures a Server.
type Option func(*Server) error

// WithMaxQubits overrides the dense-simulation qubit ceiling enforced at
// the API boundary.
func WithMaxQubits(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("max qubits must be >= 1, got %d", n)
		}
		s.maxQubits = n
		return nil
	}
}

// WithMemoCache enables fingerprint-keyed memoization of simulate
// responses, holding at most n entries.
func WithMemoCache(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("memo cache size must be >= 1, got %d", n)
		}
		s.memo = newMemoCache(n)
		return nil
	}
}

// NewServer wires the route table. The logger is required.
func NewServer(log *zap.SugaredLogger, opts ...Option) (*Server, error) {
	if log == nil {
		return nil, errors.New("please provide a logger")
	}
	s := &Server{
		log:       log,
		maxQubits: circuit.DefaultMaxQubits,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/backends", s.handleBackends)
	s.mux.HandleFunc("/api/simulate", s.post(s.handleSimulate))
	s.mux.HandleFunc("/api/statevector", s.post(s.handleStatevector))
	s.mux.HandleFunc("/api/estimate", s.post(s.handleEstimate))
	s.mux.HandleFunc("/api/optimize", s.post(s.handleOptimize))
	s.mux.HandleFunc("/api/timeline", s.post(s.handleTimeline))
	s.mux.HandleFunc("/api/export", s.post(s.handleExport))
	return s, nil
}

// ServeHTTP tags every request with a uuid and logs its outcome.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	w.Header().Set("X-Request-ID", reqID)
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.log.Infow("request served",
		"requestID", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"took", time.Since(start),
	)
}

// post restricts a handler to the POST method.
func (s *Server) post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		h(w, r)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("encoding response", "err", err)
	}
}

// writeError surfaces the message verbatim; the editor displays it to the
// user unchanged.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// engineError maps the error taxonomy onto HTTP statuses. Everything in
// the taxonomy is the caller's input being rejected before simulation
// work, so 400; anything else is an engine fault.
func (s *Server) engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, circuit.ErrInvalidQubitIndex),
		errors.Is(err, circuit.ErrSlotCollision),
		errors.Is(err, circuit.ErrCircuitTooLarge),
		errors.Is(err, gate.ErrUnsupportedGate),
		errors.Is(err, gate.ErrMissingParameter),
		errors.Is(err, backend.ErrUnknownBackend),
		errors.Is(err, export.ErrUnknownDialect):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.log.Errorw("simulation failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}
