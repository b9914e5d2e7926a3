package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/testcase"
)

// MaxUploadSize is the maximum attachment upload size (100MB).
const MaxUploadSize = 100 * 1024 * 1024

// TestCaseHandler handles test case-related requests.
type TestCaseHandler struct {
	store  testcase.Store
	logger logger.Logger
}

// NewTestCaseHandler creates a new test case handler.
func NewTestCaseHandler(store testcase.Store, log logger.Logger) *TestCaseHandler {
	return &TestCaseHandler{
		store:  store,
		logger: log,
	}
}

// ListTestCasesResponse represents one page of a cursored listing.
type ListTestCasesResponse struct {
	Items      []testcase.SerializedTestCase `json:"items"`
	NextCursor string                        `json:"next_cursor,omitempty"`
}

// Create handles creating a new test case.
func (h *TestCaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload testcase.Payload
	if err := parseJSON(r, &payload, h.logger); err != nil {
		respondPayloadError(w, err)
		return
	}

	tc, err := h.store.Create(r.Context(), payload)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, testcase.Serialize(tc))
}

// GetByID handles retrieving a single test case.
func (h *TestCaseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test case")
	if !ok {
		return
	}

	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	tc, err := h.store.GetByID(r.Context(), id, includeDeleted)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, testcase.Serialize(tc))
}

// Update handles replacing a test case with a new desired state.
func (h *TestCaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test case")
	if !ok {
		return
	}

	var payload testcase.Payload
	if err := parseJSON(r, &payload, h.logger); err != nil {
		respondPayloadError(w, err)
		return
	}

	tc, err := h.store.Update(r.Context(), id, payload)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, testcase.Serialize(tc))
}

// Delete handles soft-deleting a test case.
func (h *TestCaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test case")
	if !ok {
		return
	}

	if _, err := h.store.SoftDelete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, "test case deleted")
}

// List handles the cursored listing of test cases.
func (h *TestCaseHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := searchParamsFromQuery(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := h.store.Search(r.Context(), params)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ListTestCasesResponse{
		Items:      testcase.SerializeMany(result.Items),
		NextCursor: result.NextCursor,
	})
}

// searchParamsFromQuery translates URL query parameters into typed search
// parameters. Malformed numbers are a validation error, not a 500.
func searchParamsFromQuery(r *http.Request) (testcase.SearchParams, error) {
	q := r.URL.Query()

	params := testcase.SearchParams{
		Query:          q.Get("q"),
		SuiteName:      q.Get("suite_name"),
		Cursor:         q.Get("cursor"),
		Sort:           q.Get("sort"),
		Order:          testcase.SortOrder(q.Get("order")),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}

	if tags := q.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				params.Tags = append(params.Tags, tag)
			}
		}
	}

	if suiteIDs := q.Get("suite_ids"); suiteIDs != "" {
		for _, raw := range strings.Split(suiteIDs, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return testcase.SearchParams{}, testcase.NewValidationError("'suite_ids' must be a comma-separated list of integers")
			}
			params.SuiteIDs = append(params.SuiteIDs, uint(id))
		}
	}

	if limit := q.Get("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			return testcase.SearchParams{}, testcase.NewValidationError("'limit' must be an integer")
		}
		params.Limit = parsed
	}

	return params, nil
}

// UploadAttachment handles a multipart attachment upload for a test case.
func (h *TestCaseHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test case")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form: file may be too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing 'file' form field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	attachment, err := h.store.AddAttachment(r.Context(), id, header.Filename, contentType, file, header.Size)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

// ListAttachments handles listing a test case's attachment metadata.
func (h *TestCaseHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "test case")
	if !ok {
		return
	}

	attachments, err := h.store.ListAttachments(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, attachments)
}

// DownloadAttachment streams an attachment's bytes to the client.
func (h *TestCaseHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "attachment")
	if !ok {
		return
	}

	attachment, stream, err := h.store.OpenAttachment(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	defer stream.Close()

	if attachment.ContentType != nil {
		w.Header().Set("Content-Type", *attachment.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", attachment.OriginalFilename))
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))

	if _, err := io.Copy(w, stream); err != nil {
		h.logger.Error(r.Context(), "failed to stream attachment", map[string]interface{}{
			"attachment_id": id,
			"error":         err.Error(),
		})
	}
}

// DeleteAttachment handles removing an attachment.
func (h *TestCaseHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "attachment")
	if !ok {
		return
	}

	if err := h.store.DeleteAttachment(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, "attachment deleted")
}
