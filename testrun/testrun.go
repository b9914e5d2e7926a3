package testrun

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrTestRunNotFound is returned when a test run is not found.
	ErrTestRunNotFound = errors.New("test run not found")

	// ErrInvalidStatus is returned when status is invalid.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidRunName is returned when run_name is blank.
	ErrInvalidRunName = errors.New("run_name must not be blank")

	// ErrTestRunFinalized is returned when trying to finalize a test run
	// that already carries a final status.
	ErrTestRunFinalized = errors.New("test run already finalized")
)

// Status represents the status of a test run.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFail:
		return true
	default:
		return false
	}
}

// IsFinal checks if the status is a final status (can't be changed).
func (s Status) IsFinal() bool {
	return s == StatusSuccess || s == StatusFail
}

// TestRun is an archived execution of a test plan. Runs start as pending
// placeholders and are finalized exactly once with a final status.
type TestRun struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	RunName   string     `json:"run_name" gorm:"type:varchar(255);not null;index:idx_test_run_name"`
	Status    Status     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_test_run_status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	FileLink  *string    `json:"file_link,omitempty" gorm:"type:varchar(512)"`
	IsDeleted bool       `json:"is_deleted" gorm:"not null;default:false"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate hook assigns a uuid-suffixed default name when none was
// provided.
func (tr *TestRun) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(tr.RunName) == "" {
		tr.RunName = "run-" + uuid.New().String()[:8]
	}
	return nil
}

// Validate checks if the test run has valid required fields.
func (tr *TestRun) Validate() error {
	if !tr.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Start sets the start_date timestamp if it is not set yet.
func (tr *TestRun) Start() {
	if tr.StartDate == nil {
		now := time.Now().UTC()
		tr.StartDate = &now
	}
}

// Finalize sets the end_date timestamp and the final status.
// Returns an error if the test run already carries a final status.
func (tr *TestRun) Finalize(status Status) error {
	if tr.Status.IsFinal() {
		return ErrTestRunFinalized
	}
	if !status.IsFinal() {
		return ErrInvalidStatus
	}
	now := time.Now().UTC()
	tr.EndDate = &now
	tr.Status = status
	return nil
}
