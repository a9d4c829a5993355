package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adpilot/adpilot/internal/stats"
	"github.com/adpilot/adpilot/internal/store"
)

type HealthResponse struct {
	Status           string `json:"status"`
	ExperimentsCount int    `json:"experiments_count"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type ArmResponse struct {
	Label       string  `json:"label"`
	Visitors    int     `json:"visitors"`
	Conversions int     `json:"conversions"`
	Rate        float64 `json:"rate"`
	CILower     float64 `json:"ci_lower"`
	CIUpper     float64 `json:"ci_upper"`
}

type AnalysisResponse struct {
	Control ArmResponse   `json:"control"`
	Variant ArmResponse   `json:"variant"`
	Result  *stats.Result `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type ExperimentResponse struct {
	Name           string           `json:"name"`
	Hypothesis     string           `json:"hypothesis,omitempty"`
	State          string           `json:"state"`
	DeclaredWinner string           `json:"declared_winner,omitempty"`
	Counts         store.Counts     `json:"counts"`
	Analysis       AnalysisResponse `json:"analysis"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := s.store.CountExperiments(r.Context())
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "ok",
		ExperimentsCount: count,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
	})
}

// handleSignificance evaluates counts posted by the caller without storing them
func (s *Server) handleSignificance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in stats.Input
	if err := decodeStrict(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := stats.Evaluate(in)
	if err != nil {
		s.writeEvalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	experiments, err := s.store.ListExperiments(r.Context())
	if err != nil {
		s.logger.Error("failed to list experiments", "error", err)
		http.Error(w, "Failed to fetch experiments", http.StatusInternalServerError)
		return
	}

	// Return empty array instead of null
	response := make([]ExperimentResponse, 0, len(experiments))
	for _, exp := range experiments {
		response = append(response, toExperimentResponse(exp))
	}

	writeJSON(w, http.StatusOK, response)
}

// handleExperiment serves /api/experiments/{name} and /api/experiments/{name}/counts
func (s *Server) handleExperiment(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/experiments/")
	name, sub, _ := strings.Cut(path, "/")
	if name == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.getExperiment(w, r, name)
	case sub == "counts" && r.Method == http.MethodPut:
		s.putCounts(w, r, name)
	case sub == "" || sub == "counts":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) getExperiment(w http.ResponseWriter, r *http.Request, name string) {
	exp, err := s.store.GetExperiment(r.Context(), name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toExperimentResponse(exp))
}

func (s *Server) putCounts(w http.ResponseWriter, r *http.Request, name string) {
	var counts store.Counts
	if err := decodeStrict(r, &counts); err != nil {
		writeDecodeError(w, err)
		return
	}

	exp, err := s.store.SetCounts(r.Context(), name, counts)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info("counts updated", "experiment", name)
	writeJSON(w, http.StatusOK, toExperimentResponse(exp))
}

func (s *Server) writeEvalError(w http.ResponseWriter, err error) {
	var verr *stats.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, stats.ErrUndefinedResult):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "enter at least one visitor per group"})
	default:
		s.logger.Error("evaluation failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "experiment not found"})
	case errors.Is(err, store.ErrInvalidCounts):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrCompleted):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error("store operation failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func toExperimentResponse(exp *store.Experiment) ExperimentResponse {
	a := stats.Analyze(exp)

	resp := ExperimentResponse{
		Name:       exp.Name,
		Hypothesis: exp.Hypothesis,
		State:      string(exp.State),
		Counts:     exp.Counts,
		Analysis: AnalysisResponse{
			Control: toArmResponse(a.Control),
			Variant: toArmResponse(a.Variant),
		},
		CreatedAt: exp.CreatedAt,
		UpdatedAt: exp.UpdatedAt,
	}
	if exp.Winner != nil {
		resp.DeclaredWinner = *exp.Winner
	}

	if a.Err != nil {
		resp.Analysis.Error = a.Err.Error()
	} else {
		result := a.Result
		resp.Analysis.Result = &result
	}

	return resp
}

func toArmResponse(arm stats.ArmSummary) ArmResponse {
	return ArmResponse{
		Label:       arm.Label,
		Visitors:    arm.Visitors,
		Conversions: arm.Conversions,
		Rate:        arm.Rate,
		CILower:     arm.CILower,
		CIUpper:     arm.CIUpper,
	}
}

// decodeStrict rejects unknown fields and non-integer counts
func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeDecodeError names the offending field when a count has the wrong type
func writeDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid %s: must be a whole number", typeErr.Field),
			Field: typeErr.Field,
		})
	case errors.Is(err, io.EOF):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "request body is required"})
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
