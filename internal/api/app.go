// Package api exposes the assessment service over HTTP and MCP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hpatkar/verdeiq/internal/assess"
	"github.com/hpatkar/verdeiq/internal/profile"
	"github.com/hpatkar/verdeiq/internal/scoring"
	"github.com/hpatkar/verdeiq/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ScoreRequest carries answers for a one-shot scoring call. Sector, when
// set, overrides the stored company profile.
type ScoreRequest struct {
	Answers map[string]string `json:"answers"`
	Sector  string            `json:"sector,omitempty"`
}

type AppDeps struct {
	Assess  *assess.Service
	Store   *storage.Store
	Profile *profile.Manager
	Token   string
}

// NewAppHandler builds the HTTP router. /health stays unauthenticated so
// liveness probes work without the token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/questions", handleListQuestions(deps))
		r.Post("/score", handleScore(deps))
		r.Post("/assessments", handleCreateAssessment(deps))
		r.Get("/assessments", handleListAssessments(deps))
		r.Get("/assessments/{id}", handleGetAssessment(deps))
		r.Delete("/assessments/{id}", handleDeleteAssessment(deps))
		r.Get("/assessments/{id}/export", handleExportAssessment(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))
	})

	return r
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func handleListQuestions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(deps.Assess.Bank().Questions)
	}
}

// handleScore computes a score without persisting anything.
func handleScore(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeScoreRequest(w, r)
		if !ok {
			return
		}

		var result scoring.Result
		if req.Sector != "" {
			result = deps.Assess.ScoreForSector(req.Answers, req.Sector)
		} else {
			result = deps.Assess.Score(req.Answers)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"result": result,
			"radar":  result.Radar(),
		})
	}
}

// handleCreateAssessment runs the full pipeline: score, persist, narrative.
func handleCreateAssessment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeScoreRequest(w, r)
		if !ok {
			return
		}

		out, err := deps.Assess.Run(r.Context(), req.Answers)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to run assessment: %v", err)
			return
		}

		resp := map[string]any{
			"assessment": out.Assessment,
			"result":     out.Result,
			"radar":      out.Result.Radar(),
		}
		if out.Warning != "" {
			resp["warning"] = out.Warning
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(resp)
	}
}

func handleListAssessments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		assessments, err := deps.Store.ListAssessments(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list assessments: %v", err)
			return
		}
		if assessments == nil {
			assessments = []storage.Assessment{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(assessments)
	}
}

func handleGetAssessment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := fetchAssessment(w, deps, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(a)
	}
}

func handleDeleteAssessment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteAssessment(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "assessment not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete assessment: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

// handleExportAssessment returns the flat report snapshot for one
// assessment: company, score, badge, pillar scores, answers.
func handleExportAssessment(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := fetchAssessment(w, deps, chi.URLParam(r, "id"))
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "verdeiq_"+a.ID+".json"))
		json.NewEncoder(w).Encode(assess.Export(a))
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := deps.Profile.Get()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

func handlePatchProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var fields map[string]string
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		for key, value := range fields {
			if err := deps.Profile.SetField(key, value); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to set field %q: %v", key, err)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func decodeScoreRequest(w http.ResponseWriter, r *http.Request) (ScoreRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return ScoreRequest{}, false
	}
	if len(req.Answers) == 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "answers is required")
		return ScoreRequest{}, false
	}
	return req, true
}

func fetchAssessment(w http.ResponseWriter, deps AppDeps, id string) (storage.Assessment, bool) {
	a, err := deps.Store.GetAssessment(id)
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "not_found", "assessment not found")
		return storage.Assessment{}, false
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to get assessment: %v", err)
		return storage.Assessment{}, false
	}
	return a, true
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
