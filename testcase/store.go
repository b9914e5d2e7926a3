package testcase

import (
	"context"
	"io"
)

// SortOrder is the direction of the created_at sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchParams are the typed query parameters of a cursored search.
// Zero values mean "no filter".
type SearchParams struct {
	// Query matches case-insensitively against name or description.
	Query string

	// Tags matches cases carrying ANY of the given tag names.
	Tags []string

	// SuiteIDs matches cases belonging to ANY of the given suites.
	SuiteIDs []uint

	// SuiteName matches case-insensitively against the names of suites
	// the case belongs to.
	SuiteName string

	// Limit is clamped to [1, MaxSearchLimit]; 0 means DefaultSearchLimit.
	Limit int

	// Cursor is the opaque token of the previous page's last row.
	Cursor string

	// Sort names the sort field; only "created_at" (or empty) is accepted.
	Sort string

	// Order is asc or desc; empty means desc.
	Order SortOrder

	// IncludeDeleted selects the soft-deleted partition exclusively.
	IncludeDeleted bool
}

// SearchResult is one page of matches plus the cursor of the next page,
// empty when the page is the last one.
type SearchResult struct {
	Items      []*TestCase
	NextCursor string
}

// Store is the transactional domain engine for test cases: mutations,
// hydrated reads and the cursored query engine.
type Store interface {
	// Create inserts a test case with its steps, tags and suite links in
	// one transaction and returns the hydrated entity.
	Create(ctx context.Context, payload Payload) (*TestCase, error)

	// Update replaces the case's scalar fields, steps, tags and suite
	// links with the payload's desired end state.
	Update(ctx context.Context, id uint, payload Payload) (*TestCase, error)

	// SoftDelete hides a case, removes its stored attachment objects and
	// recomputes suite visibility. Idempotent: deleting a deleted case
	// returns it unchanged.
	SoftDelete(ctx context.Context, id uint) (*TestCase, error)

	// GetByID returns a hydrated case. Soft-deleted cases are only
	// visible with includeDeleted.
	GetByID(ctx context.Context, id uint, includeDeleted bool) (*TestCase, error)

	// Search runs the keyset-paginated query engine. It performs no writes.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// AddAttachment uploads an object and records its metadata.
	AddAttachment(ctx context.Context, testCaseID uint, filename, contentType string, reader io.Reader, size int64) (*Attachment, error)

	// ListAttachments returns attachment metadata for a case.
	ListAttachments(ctx context.Context, testCaseID uint) ([]Attachment, error)

	// OpenAttachment returns attachment metadata plus a stream of its bytes.
	OpenAttachment(ctx context.Context, attachmentID uint) (*Attachment, io.ReadCloser, error)

	// DeleteAttachment removes the stored object and its metadata row.
	DeleteAttachment(ctx context.Context, attachmentID uint) error
}
