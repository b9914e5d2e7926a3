package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/testcase"
	"github.com/hairizuan-noorazman/testcase-archive/testrun"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response with a message.
type SuccessResponse struct {
	Message string `json:"message"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondSuccess writes a success response with the given message.
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, SuccessResponse{Message: message})
}

// parseJSON parses JSON from the request body into the given destination.
func parseJSON(r *http.Request, dest interface{}, log logger.Logger) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		log.Error(r.Context(), "failed to parse JSON", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// parseID parses a numeric ID from the request path parameters.
func parseID(r *http.Request, paramName string) (uint, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars[paramName], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// parseIDOrRespond parses an ID from path parameters and responds with an
// error if invalid. Returns the ID and true on success; on failure the
// error response has already been sent.
func parseIDOrRespond(w http.ResponseWriter, r *http.Request, paramName, entityName string) (uint, bool) {
	id, err := parseID(r, paramName)
	if err != nil {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid %s ID: must be a positive integer", entityName))
		return 0, false
	}
	return id, true
}

// respondPayloadError maps request body decode failures to 400. Domain
// validation errors keep their message; raw JSON syntax errors get a
// generic one.
func respondPayloadError(w http.ResponseWriter, err error) {
	if testcase.IsValidation(err) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondError(w, http.StatusBadRequest, "invalid JSON body")
}

// respondDomainError maps domain error kinds to HTTP status codes:
// malformed input is 400, absent entities 404, integrity conflicts 409
// and everything else 500.
func respondDomainError(w http.ResponseWriter, err error) {
	var ve *testcase.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, testcase.ErrTestCaseNotFound),
		errors.Is(err, testcase.ErrAttachmentNotFound),
		errors.Is(err, testrun.ErrTestRunNotFound),
		errors.Is(err, testrun.ErrReportNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, testcase.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, testrun.ErrInvalidStatus),
		errors.Is(err, testrun.ErrInvalidRunName),
		errors.Is(err, testrun.ErrTestRunFinalized):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
