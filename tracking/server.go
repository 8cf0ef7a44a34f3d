package tracking

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server exposes a Store over HTTP. Routes live under /api and speak JSON,
// except artifact bodies which are raw bytes.
type Server struct {
	store  Store
	log    zerolog.Logger
	router *chi.Mux
}

// NewServer wires the REST routes around store.
func NewServer(store Store, log zerolog.Logger) *Server {
	s := &Server{
		store: store,
		log:   log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/experiments", s.handleListExperiments)
		r.Post("/experiments", s.handleCreateExperiment)

		r.Get("/runs", s.handleListRuns)
		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Post("/runs/{runID}/end", s.handleEndRun)
		r.Post("/runs/{runID}/params", s.handleLogParam)
		r.Post("/runs/{runID}/metrics", s.handleLogMetric)
		r.Put("/runs/{runID}/artifacts/*", s.handlePutArtifact)
		r.Get("/runs/{runID}/artifacts/*", s.handleGetArtifact)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the tracking API on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("tracking server listening")
	return http.ListenAndServe(addr, s.router)
}

type experimentRequest struct {
	Name string `json:"name"`
}

type createRunRequest struct {
	Experiment string `json:"experiment"`
	Name       string `json:"name"`
}

type endRunRequest struct {
	Status RunStatus `json:"status"`
}

type paramRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type metricRequest struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := s.store.ListExperiments(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exps == nil {
		exps = []Experiment{}
	}
	s.writeJSON(w, http.StatusOK, exps)
}

func (s *Server) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req experimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	exp, err := s.store.GetOrCreateExperiment(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Experiment == "" {
		http.Error(w, "experiment is required", http.StatusBadRequest)
		return
	}

	run, err := s.store.CreateRun(r.Context(), req.Experiment, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info().Str("run_id", run.ID).Str("experiment", req.Experiment).Msg("run created")
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleEndRun(w http.ResponseWriter, r *http.Request) {
	var req endRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	switch req.Status {
	case StatusFinished, StatusFailed:
	default:
		http.Error(w, "status must be finished or failed", http.StatusBadRequest)
		return
	}

	if err := s.store.EndRun(r.Context(), chi.URLParam(r, "runID"), req.Status); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogParam(w http.ResponseWriter, r *http.Request) {
	var req paramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	if err := s.store.LogParam(r.Context(), chi.URLParam(r, "runID"), req.Key, req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}

	if err := s.store.LogMetric(r.Context(), chi.URLParam(r, "runID"), req.Key, req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutArtifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		http.Error(w, "artifact name is required", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if err := s.store.LogArtifact(r.Context(), chi.URLParam(r, "runID"), name, data); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.GetArtifact(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.Error().Err(err).Msg("store error")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
