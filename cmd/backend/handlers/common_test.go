package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hairizuan-noorazman/testcase-archive/testcase"
	"github.com/hairizuan-noorazman/testcase-archive/testrun"
)

func TestSearchParamsFromQuery(t *testing.T) {
	t.Parallel()

	t.Run("translates all parameters", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet,
			"/testcases?q=login&tags=smoke,%20auth&suite_ids=1,2&suite_name=reg&limit=10&cursor=abc&sort=created_at&order=asc&include_deleted=true",
			nil)

		params, err := searchParamsFromQuery(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if params.Query != "login" {
			t.Errorf("expected query login, got %q", params.Query)
		}
		if len(params.Tags) != 2 || params.Tags[0] != "smoke" || params.Tags[1] != "auth" {
			t.Errorf("unexpected tags: %v", params.Tags)
		}
		if len(params.SuiteIDs) != 2 || params.SuiteIDs[0] != 1 || params.SuiteIDs[1] != 2 {
			t.Errorf("unexpected suite ids: %v", params.SuiteIDs)
		}
		if params.SuiteName != "reg" {
			t.Errorf("unexpected suite name: %q", params.SuiteName)
		}
		if params.Limit != 10 {
			t.Errorf("unexpected limit: %d", params.Limit)
		}
		if params.Cursor != "abc" {
			t.Errorf("unexpected cursor: %q", params.Cursor)
		}
		if params.Order != testcase.SortAsc {
			t.Errorf("unexpected order: %q", params.Order)
		}
		if !params.IncludeDeleted {
			t.Error("expected include_deleted true")
		}
	})

	t.Run("rejects non-integer suite ids", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/testcases?suite_ids=1,abc", nil)
		if _, err := searchParamsFromQuery(req); !testcase.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects non-integer limit", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/testcases?limit=lots", nil)
		if _, err := searchParamsFromQuery(req); !testcase.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestRespondDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			err:        testcase.NewValidationError("bad payload"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("%w: id=3", testcase.ErrTestCaseNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "attachment not found",
			err:        testcase.ErrAttachmentNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "test run not found",
			err:        testrun.ErrTestRunNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "report not found",
			err:        testrun.ErrReportNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "conflict",
			err:        fmt.Errorf("%w: duplicate name", testcase.ErrConflict),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "already finalized",
			err:        testrun.ErrTestRunFinalized,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown error",
			err:        errors.New("database exploded"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondDomainError(w, tc.err)

			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, w.Code)
			}

			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Error == "" {
				t.Error("expected a non-empty error message")
			}
		})
	}
}
