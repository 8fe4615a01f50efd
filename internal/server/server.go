// Package server exposes a graph over HTTP.
//
// Routes:
//
//	GET /nodes          snapshot of every node in id order
//	GET /nodes/{name}   one node with its edges and update order
//	PUT /nodes/{name}   set a value, body {"value": 2}; returns the changes
//	GET /healthz        liveness and build information
//
// Errors are returned as {"code": "...", "message": "..."} with a status
// derived from the error code.
package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/recalc/pkg/buildinfo"
	"github.com/matzehuels/recalc/pkg/engine"
	errs "github.com/matzehuels/recalc/pkg/errors"
)

// maxBodyBytes bounds PUT request bodies.
const maxBodyBytes = 1 << 16

// Server serves one graph. All access goes through engine.Synchronized.
type Server struct {
	graph  *engine.Synchronized
	logger *log.Logger
	router chi.Router
}

// New creates a Server for g. g must not be used elsewhere afterwards.
func New(g *engine.Graph, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{graph: engine.Synchronize(g), logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Get("/{name}", s.handleNode)
		r.Put("/{name}", s.handleUpdate)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// =============================================================================
// Wire Types
// =============================================================================

// Number is a node value on the wire. Finite values encode as JSON numbers;
// NaN and the infinities, which JSON cannot represent, encode as the strings
// "NaN", "+Inf" and "-Inf".
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// NodeValue is one entry of a snapshot.
type NodeValue struct {
	Name  string `json:"name"`
	Value Number `json:"value"`
}

// NodeDetail describes one node.
type NodeDetail struct {
	Name         string   `json:"name"`
	Value        Number   `json:"value"`
	Leaf         bool     `json:"leaf"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
	UpdateOrder  []string `json:"update_order"`
}

// UpdateRequest is the body of PUT /nodes/{name}.
type UpdateRequest struct {
	Value *float64 `json:"value"`
}

// Change is one value change caused by an update.
type Change struct {
	Name   string `json:"name"`
	Old    Number `json:"old"`
	New    Number `json:"new"`
	Direct bool   `json:"direct,omitempty"`
}

// UpdateResponse lists what an update changed. ID identifies the update in
// server logs.
type UpdateResponse struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.graph.Snapshot()
	out := make([]NodeValue, len(snap))
	for i, nv := range snap {
		out[i] = NodeValue{Name: nv.Name, Value: Number(nv.Value)}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var d NodeDetail
	err := s.graph.Do(func(g *engine.Graph) error {
		d.Name = name
		v, err := g.ValueOf(name)
		if err != nil {
			return err
		}
		d.Value = Number(v)
		d.Leaf, _ = g.IsLeaf(name)
		d.Dependencies, _ = g.Dependencies(name)
		d.Dependents, _ = g.Dependents(name)
		d.UpdateOrder, _ = g.UpdateOrder(name)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req UpdateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Value == nil {
		s.writeError(w, errs.New(errs.ErrCodeInvalidInput, "request body needs a value"))
		return
	}

	id := uuid.NewString()
	changes, err := s.graph.Apply(r.Context(), name, *req.Value)
	if err != nil {
		s.logger.Warn("Update rejected", "id", id, "node", name, "err", err)
		s.writeError(w, err)
		return
	}
	s.logger.Info("Update applied", "id", id, "node", name, "value", *req.Value, "changed", len(changes))

	resp := UpdateResponse{ID: id, Changes: make([]Change, len(changes))}
	for i, c := range changes {
		resp.Changes[i] = Change{Name: c.Name, Old: Number(c.Old), New: Number(c.New), Direct: c.Direct}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Helpers
// =============================================================================

// statusFor maps error codes to HTTP statuses.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeDerivedNodeUpdate:
		return http.StatusConflict
	case errs.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errs.ErrCodeComputeFailed, errs.ErrCodeInvalidComputeReference:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	s.writeJSON(w, statusFor(code), ErrorResponse{Code: string(code), Message: errs.UserMessage(err)})
}

// writeJSON encodes v before writing the status, so an encoding failure is
// reported as a 500 instead of an empty success.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Encode response", "err", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Code: string(errs.ErrCodeInternal), Message: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}
