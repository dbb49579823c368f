// Package server exposes the lead funnel over a JSON REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/timkosters/edge-city-finder/internal/model"
	"github.com/timkosters/edge-city-finder/internal/pipeline"
	"github.com/timkosters/edge-city-finder/internal/scout"
	"github.com/timkosters/edge-city-finder/internal/store"
)

// Runner triggers pipeline work on demand. Implemented by
// pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	VerifyLead(ctx context.Context, id string) (*model.Lead, error)
}

// Server holds the API's dependencies.
type Server struct {
	store  store.Store
	runner Runner
}

// New creates a Server. runner may be nil when discovery is not
// configured; the scout endpoints then return 503.
func New(st store.Store, runner Runner) *Server {
	return &Server{store: st, runner: runner}
}

// Routes builds the chi router with all API endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleRoot)

	r.Route("/api/properties", func(r chi.Router) {
		r.Get("/", s.handleListLeads)
		r.Get("/qualified", s.handleListStage(model.StageQualified))
		r.Get("/interesting", s.handleListStage(model.StageInteresting))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLead)
			r.Delete("/", s.handleDeleteLead)
			r.Patch("/status", s.handleUpdateStatus)
			r.Post("/dismiss", s.handleDismiss)
			r.Post("/mark-seen", s.handleMarkSeen)
		})
	})

	r.Route("/api/scout", func(r chi.Router) {
		r.Post("/run", s.handleScoutRun)
		r.Post("/search", s.handleScoutSearch)
	})
	r.Post("/api/analyst/verify/{id}", s.handleVerifyLead)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "edge-city-finder",
	})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	filter := store.LeadFilter{
		IncludeDismissed: r.URL.Query().Get("include_dismissed") == "true",
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !model.ValidStatus(model.Status(v)) {
			respondError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = model.Status(v)
	}
	if v := r.URL.Query().Get("funnel_stage"); v != "" {
		if !model.ValidStage(model.FunnelStage(v)) {
			respondError(w, http.StatusBadRequest, "invalid funnel stage")
			return
		}
		filter.FunnelStage = model.FunnelStage(v)
	}

	leads, err := s.store.ListLeads(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, leadList(leads))
}

func (s *Server) handleListStage(stage model.FunnelStage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leads, err := s.store.ListLeads(r.Context(), store.LeadFilter{FunnelStage: stage})
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, leadList(leads))
	}
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidStatus(model.Status(req.Status)) {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	lead, err := s.store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), model.Status(req.Status))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason  string `json:"reason"`
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := s.store.Dismiss(r.Context(), chi.URLParam(r, "id"), req.Reason, req.Pattern)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (s *Server) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.MarkSeen(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

func (s *Server) handleScoutRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		respondError(w, http.StatusServiceUnavailable, "discovery not configured")
		return
	}

	var req struct {
		Query      string   `json:"query"`
		Categories []string `json:"categories"`
		Verify     *bool    `json:"verify"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	verify := true
	if req.Verify != nil {
		verify = *req.Verify
	}
	categories := make([]scout.Category, 0, len(req.Categories))
	for _, c := range req.Categories {
		categories = append(categories, scout.Category(c))
	}

	result, err := s.runner.Run(r.Context(), pipeline.Request{
		Query:      req.Query,
		Categories: categories,
		Verify:     verify,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			respondError(w, http.StatusConflict, "a scout run is already in progress")
			return
		}
		zap.L().Error("server: scout run failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "scout run failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleScoutSearch(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		respondError(w, http.StatusServiceUnavailable, "discovery not configured")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.runner.Run(r.Context(), pipeline.Request{Query: query, Verify: true})
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			respondError(w, http.StatusConflict, "a scout run is already in progress")
			return
		}
		zap.L().Error("server: scout search failed", zap.String("query", query), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "scout search failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerifyLead(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		respondError(w, http.StatusServiceUnavailable, "verification not configured")
		return
	}

	lead, err := s.runner.VerifyLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		zap.L().Error("server: verify failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// leadList keeps empty results as [] instead of null in JSON.
func leadList(leads []model.Lead) []model.Lead {
	if leads == nil {
		return []model.Lead{}
	}
	return leads
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encoding response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "lead not found")
		return
	}
	zap.L().Error("server: store error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}
