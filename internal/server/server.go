// Package server exposes the analyzer over HTTP.
//
//	GET  /ping      liveness
//	GET  /stats     request accounting
//	POST /analyze   run both exact tests on every set in the body
//	POST /simulate  simulate every set in the body over its hyperperiod
//
// Bodies are task-set documents as read by package taskfile (JSON or YAML).
// The query parameters policy=rm|dm|explicit and sort=true override the
// document's policy and establish the priority order before analysis.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/alexshd/feasibility"
	"github.com/alexshd/feasibility/internal/taskfile"
)

// ErrWorkloadTooLarge is returned for a set whose exact analysis would take
// more steps than Config.MaxWorkload allows.
var ErrWorkloadTooLarge = errors.New("analysis workload too large")

// Config controls the server.
type Config struct {
	Policy       feasibility.Policy // Used when neither query nor body names one
	MaxHorizon   int64              // Simulation tick limit
	MaxWorkload  int64              // Analysis step limit, see feasibility.TaskSet.Workload
	MaxBodyBytes int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Policy:       feasibility.RateMonotonic,
		MaxHorizon:   feasibility.DefaultSimulationConfig().MaxHorizon,
		MaxWorkload:  10_000_000,
		MaxBodyBytes: 1 << 20,
	}
}

// Server routes analysis requests.
type Server struct {
	cfg    Config
	logger *slog.Logger
	log    *requestLog
	router *httprouter.Router
}

// New creates a server. Zero fields of cfg take their defaults.
func New(logger *slog.Logger, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}
	if cfg.MaxHorizon <= 0 {
		cfg.MaxHorizon = def.MaxHorizon
	}
	if cfg.MaxWorkload <= 0 {
		cfg.MaxWorkload = def.MaxWorkload
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		log:    newRequestLog(logger),
		router: httprouter.New(),
	}
	s.router.GET("/ping", s.ping)
	s.router.GET("/stats", s.stats)
	s.router.POST("/analyze", s.analyze)
	s.router.POST("/simulate", s.simulate)
	s.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error("handler panic", "path", r.URL.Path, "panic", v)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
	return s
}

// Handler returns the router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.log.Wrap(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "policy", s.cfg.Policy)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("server stopping", "addr", addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// SetReport is the analysis of one named set.
type SetReport struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	feasibility.Report
}

// AnalyzeResponse is the body of a successful POST /analyze.
type AnalyzeResponse struct {
	Feasible bool        `json:"feasible"`
	Sets     []SetReport `json:"sets"`
}

// SetSimulation is the simulation of one named set.
type SetSimulation struct {
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	Feasible bool   `json:"feasible"`
	feasibility.Simulation
}

// SimulateResponse is the body of a successful POST /simulate.
type SimulateResponse struct {
	Feasible bool            `json:"feasible"`
	Sets     []SetSimulation `json:"sets"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	fmt.Fprintf(w, "Pong %v", time.Now().UnixNano())
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.log.Stats())
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sets, policy, ok := s.readSets(w, r)
	if !ok {
		return
	}

	a := feasibility.NewAnalyzer(feasibility.Config{Policy: policy})
	resp := AnalyzeResponse{Feasible: true}
	for _, set := range sets {
		if err := r.Context().Err(); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		if err := set.Tasks.Validate(policy); err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%s: %w", set.Name, err))
			return
		}
		if work := set.Tasks.Workload(); work > s.cfg.MaxWorkload {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%s: %w: %d steps, limit %d",
				set.Name, ErrWorkloadTooLarge, work, s.cfg.MaxWorkload))
			return
		}

		report, err := a.Analyze(set.Tasks)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("%s: %w", set.Name, err))
			return
		}
		resp.Feasible = resp.Feasible && report.Feasible()
		resp.Sets = append(resp.Sets, SetReport{
			Name:    set.Name,
			Summary: set.Tasks.Summary(),
			Report:  report,
		})
		s.logger.Debug("analyzed", "set", set.Name, "verdict", report.Verdict)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) simulate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sets, policy, ok := s.readSets(w, r)
	if !ok {
		return
	}

	cfg := feasibility.SimulationConfig{Policy: policy, MaxHorizon: s.cfg.MaxHorizon}
	resp := SimulateResponse{Feasible: true}
	for _, set := range sets {
		sim, err := feasibility.Simulate(r.Context(), set.Tasks, cfg)
		if err != nil {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusServiceUnavailable
			}
			writeError(w, status, fmt.Errorf("%s: %w", set.Name, err))
			return
		}
		resp.Feasible = resp.Feasible && sim.Feasible()
		resp.Sets = append(resp.Sets, SetSimulation{
			Name:       set.Name,
			Summary:    set.Tasks.Summary(),
			Feasible:   sim.Feasible(),
			Simulation: sim,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// readSets decodes the body and resolves the policy. On failure it has already
// written the response.
func (s *Server) readSets(w http.ResponseWriter, r *http.Request) ([]taskfile.Set, feasibility.Policy, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return nil, "", false
	}
	if err := r.Body.Close(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("close body: %w", err))
		return nil, "", false
	}
	if int64(len(body)) > s.cfg.MaxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("body exceeds %d bytes", s.cfg.MaxBodyBytes))
		return nil, "", false
	}

	f, err := taskfile.Parse(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return nil, "", false
	}

	name := r.URL.Query().Get("policy")
	if name == "" {
		name = f.Policy
	}
	policy := s.cfg.Policy
	if name != "" {
		if policy, err = feasibility.ParsePolicy(name); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return nil, "", false
		}
	}

	if sortParam := r.URL.Query().Get("sort"); sortParam != "" {
		sorted, err := strconv.ParseBool(sortParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid sort parameter %q", sortParam))
			return nil, "", false
		}
		if sorted {
			for i := range f.Sets {
				f.Sets[i].Tasks = f.Sets[i].Tasks.Sorted(policy)
			}
		}
	}
	return f.Sets, policy, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var inputErr *feasibility.InputError
	if errors.As(err, &inputErr) {
		resp.Code = string(inputErr.Code)
	}
	writeJSON(w, status, resp)
}
