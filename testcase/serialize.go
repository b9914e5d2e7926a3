package testcase

import (
	"sort"
	"time"
)

// SerializedTestCase is the wire rendition of a hydrated test case.
type SerializedTestCase struct {
	ID             uint                 `json:"id"`
	Name           string               `json:"name"`
	Preconditions  *string              `json:"preconditions"`
	Description    *string              `json:"description"`
	ExpectedResult *string              `json:"expected_result"`
	IsDeleted      bool                 `json:"is_deleted"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	DeletedAt      *time.Time           `json:"deleted_at,omitempty"`
	Steps          []SerializedStep     `json:"steps"`
	Tags           []SerializedTag      `json:"tags"`
	Suites         []SerializedSuiteRef `json:"suites"`
	Attachments    []SerializedBlobRef  `json:"attachments"`
}

// SerializedStep is the wire rendition of a test case step.
type SerializedStep struct {
	ID          uint            `json:"id"`
	Position    int             `json:"position"`
	Action      string          `json:"action"`
	Expected    *string         `json:"expected"`
	Attachments StepAttachments `json:"attachments"`
}

// SerializedTag is the wire rendition of a tag reference.
type SerializedTag struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// SerializedSuiteRef is the wire rendition of a suite membership.
type SerializedSuiteRef struct {
	SuiteID   uint   `json:"suite_id"`
	SuiteName string `json:"suite_name"`
	Position  *int   `json:"position"`
}

// SerializedBlobRef is the wire rendition of attachment metadata. The
// object itself is streamed separately.
type SerializedBlobRef struct {
	ID               uint      `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      *string   `json:"content_type"`
	Size             int64     `json:"size"`
	CreatedAt        time.Time `json:"created_at"`
}

// Serialize maps a hydrated test case to its wire form. Steps come out
// ordered by position regardless of hydration order; nil child slices
// render as empty arrays.
func Serialize(tc *TestCase) SerializedTestCase {
	out := SerializedTestCase{
		ID:             tc.ID,
		Name:           tc.Name,
		Preconditions:  tc.Preconditions,
		Description:    tc.Description,
		ExpectedResult: tc.ExpectedResult,
		IsDeleted:      tc.IsDeleted,
		CreatedAt:      tc.CreatedAt,
		UpdatedAt:      tc.UpdatedAt,
		DeletedAt:      tc.DeletedAt,
		Steps:          make([]SerializedStep, 0, len(tc.Steps)),
		Tags:           make([]SerializedTag, 0, len(tc.Tags)),
		Suites:         make([]SerializedSuiteRef, 0, len(tc.SuiteLinks)),
		Attachments:    make([]SerializedBlobRef, 0, len(tc.Attachments)),
	}

	for _, step := range tc.Steps {
		attachments := step.Attachments
		if attachments == nil {
			attachments = StepAttachments{}
		}
		out.Steps = append(out.Steps, SerializedStep{
			ID:          step.ID,
			Position:    step.Position,
			Action:      step.Action,
			Expected:    step.Expected,
			Attachments: attachments,
		})
	}
	sort.Slice(out.Steps, func(i, j int) bool {
		return out.Steps[i].Position < out.Steps[j].Position
	})

	for _, tag := range tc.Tags {
		out.Tags = append(out.Tags, SerializedTag{ID: tag.ID, Name: tag.Name})
	}

	for _, link := range tc.SuiteLinks {
		out.Suites = append(out.Suites, SerializedSuiteRef{
			SuiteID:   link.SuiteID,
			SuiteName: link.SuiteName,
			Position:  link.Position,
		})
	}

	for _, a := range tc.Attachments {
		out.Attachments = append(out.Attachments, SerializedBlobRef{
			ID:               a.ID,
			OriginalFilename: a.OriginalFilename,
			ContentType:      a.ContentType,
			Size:             a.Size,
			CreatedAt:        a.CreatedAt,
		})
	}

	return out
}

// SerializeMany maps a page of hydrated test cases.
func SerializeMany(cases []*TestCase) []SerializedTestCase {
	out := make([]SerializedTestCase, 0, len(cases))
	for _, tc := range cases {
		out = append(out, Serialize(tc))
	}
	return out
}
