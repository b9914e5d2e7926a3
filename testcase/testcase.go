package testcase

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	// DefaultSearchLimit is the page size used when the caller does not
	// provide one.
	DefaultSearchLimit = 50

	// MaxSearchLimit caps the page size of cursored searches.
	MaxSearchLimit = 200

	// DefaultAttachmentBucket is the object-storage bucket for test case
	// attachments.
	DefaultAttachmentBucket = "testcase-attachments"
)

// StepAttachments holds arbitrary attachment metadata for a step, stored
// as a JSON column.
type StepAttachments []map[string]interface{}

// Value implements the driver.Valuer interface for database storage.
func (a StepAttachments) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for database retrieval.
func (a *StepAttachments) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StepAttachments: unsupported column type")
	}

	return json.Unmarshal(bytes, a)
}

// TestCase is the root entity of the repository. It exclusively owns its
// steps and suite links and shares tags with other cases.
//
// Name uniqueness is scoped to (name, is_deleted): a soft-deleted case and
// a live case may share a name. Timestamps are engine-assigned, never
// store defaults. Child slices are hydrated explicitly by the store.
type TestCase struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:uniq_test_case_name_live"`
	IsDeleted      bool       `json:"is_deleted" gorm:"not null;default:false;uniqueIndex:uniq_test_case_name_live"`
	Preconditions  *string    `json:"preconditions" gorm:"type:text"`
	Description    *string    `json:"description" gorm:"type:text"`
	ExpectedResult *string    `json:"expected_result" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at" gorm:"not null;index:idx_test_case_created_at;autoCreateTime:false"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
	DeletedAt      *time.Time `json:"deleted_at"`

	Steps       []TestCaseStep  `json:"steps" gorm:"-"`
	Tags        []Tag           `json:"tags" gorm:"-"`
	SuiteLinks  []TestCaseSuite `json:"suite_links" gorm:"-"`
	Attachments []Attachment    `json:"attachments" gorm:"-"`
}

// TestCaseStep is a single ordered step of a test case. Its lifecycle is
// bound to the owning case and the whole set is replaced wholesale on
// update.
type TestCaseStep struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TestCaseID  uint            `json:"test_case_id" gorm:"not null;uniqueIndex:uniq_step_case_position"`
	Position    int             `json:"position" gorm:"not null;uniqueIndex:uniq_step_case_position"`
	Action      string          `json:"action" gorm:"type:text;not null"`
	Expected    *string         `json:"expected" gorm:"type:text"`
	Attachments StepAttachments `json:"attachments" gorm:"type:json"`
}

// Tag is a shared dictionary entity, resolved by name or id and created
// on demand.
type Tag struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:uniq_tag_name"`
	IsDeleted bool   `json:"is_deleted" gorm:"not null;default:false"`
}

// TestSuite groups test cases. IsDeleted is a derived visibility flag:
// true exactly when the suite has no live member cases, recomputed after
// every mutation that touches its membership.
type TestSuite struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:uniq_test_suite_name"`
	Description *string   `json:"description" gorm:"type:text"`
	ParentID    *uint     `json:"parent_id" gorm:"index:idx_test_suite_parent"`
	IsDeleted   bool      `json:"is_deleted" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
}

// TestCaseSuite links a test case to a suite. Identity is the composite
// (test_case_id, suite_id). The link is owned by the test case.
type TestCaseSuite struct {
	TestCaseID uint `json:"test_case_id" gorm:"primaryKey;autoIncrement:false"`
	SuiteID    uint `json:"suite_id" gorm:"primaryKey;autoIncrement:false"`
	Position   *int `json:"position"`

	// SuiteName is hydrated from the suite row for serialization.
	SuiteName string `json:"suite_name" gorm:"-"`
}

// TestCaseTag links a test case to a shared tag.
type TestCaseTag struct {
	TestCaseID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID      uint `gorm:"primaryKey;autoIncrement:false"`
}

// Attachment is metadata for an externally stored binary attached to a
// test case. The payload lives in object storage under (bucket, object_name).
type Attachment struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	TestCaseID       uint      `json:"test_case_id" gorm:"not null;index:idx_attachment_test_case"`
	OriginalFilename string    `json:"original_filename" gorm:"type:varchar(512);not null"`
	ObjectName       string    `json:"object_name" gorm:"type:varchar(512);not null"`
	Bucket           string    `json:"bucket" gorm:"type:varchar(255);not null"`
	ContentType      *string   `json:"content_type" gorm:"type:varchar(255)"`
	Size             int64     `json:"size" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at" gorm:"not null;autoCreateTime:false"`
}

// Models returns every model of the package for migrations in tests.
func Models() []interface{} {
	return []interface{}{
		&TestCase{},
		&TestCaseStep{},
		&Tag{},
		&TestSuite{},
		&TestCaseSuite{},
		&TestCaseTag{},
		&Attachment{},
	}
}
