package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/testrun"
)

// TestRunHandler handles test run-related requests.
type TestRunHandler struct {
	store   testrun.Store
	reports *testrun.ReportCache
	logger  logger.Logger
}

// NewTestRunHandler creates a new test run handler.
func NewTestRunHandler(store testrun.Store, reports *testrun.ReportCache, log logger.Logger) *TestRunHandler {
	return &TestRunHandler{
		store:   store,
		reports: reports,
		logger:  log,
	}
}

// CreateTestRunRequest represents a test run creation request.
type CreateTestRunRequest struct {
	RunName string `json:"run_name"`
}

// FinalizeTestRunRequest represents a test run finalization request.
type FinalizeTestRunRequest struct {
	Status testrun.Status `json:"status"`
}

// ListTestRunsResponse represents a list test runs response.
type ListTestRunsResponse struct {
	TestRuns []*testrun.TestRun `json:"test_runs"`
	Total    int                `json:"total"`
}

// Create handles creating a new test run placeholder.
func (h *TestRunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTestRunRequest
	if r.ContentLength > 0 {
		if err := parseJSON(r, &req, h.logger); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	run := &testrun.TestRun{RunName: req.RunName}
	if err := h.store.Create(r.Context(), run); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, run)
}

// GetByID handles retrieving a single test run.
func (h *TestRunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test run")
	if !ok {
		return
	}

	run, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// List handles listing recent test runs.
func (h *TestRunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "'limit' must be an integer")
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ListTestRunsResponse{TestRuns: runs, Total: len(runs)})
}

// Finalize handles marking a run as finished with a final status.
func (h *TestRunHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test run")
	if !ok {
		return
	}

	var req FinalizeTestRunRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.store.Finalize(r.Context(), id, req.Status); err != nil {
		respondDomainError(w, err)
		return
	}

	run, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Delete handles soft-deleting a test run.
func (h *TestRunHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test run")
	if !ok {
		return
	}

	if err := h.store.SoftDelete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, "test run deleted")
}

// GetReport streams the run's cached report. Generation happens out of
// band; a missing report is a 404 rather than a trigger.
func (h *TestRunHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test run")
	if !ok {
		return
	}

	if _, err := h.store.GetByID(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	stream, err := h.reports.Open(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/html")
	if _, err := io.Copy(w, stream); err != nil {
		h.logger.Error(r.Context(), "failed to stream report", map[string]interface{}{
			"test_run_id": id,
			"error":       err.Error(),
		})
	}
}
