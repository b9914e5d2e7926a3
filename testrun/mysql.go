package testrun

import (
	"context"
	"errors"

	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"gorm.io/gorm"
)

// DefaultListLimit bounds ListRecent when the caller passes no limit.
const DefaultListLimit = 20

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed test run store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new test run in the database. Runs start pending and
// get a generated name when none is provided.
func (s *MySQLStore) Create(ctx context.Context, testRun *TestRun) error {
	if testRun.Status == "" {
		testRun.Status = StatusPending
	}

	if err := testRun.Validate(); err != nil {
		return err
	}

	testRun.Start()

	if err := s.db.WithContext(ctx).Create(testRun).Error; err != nil {
		s.logger.Error(ctx, "failed to create test run", map[string]interface{}{
			"error":    err.Error(),
			"run_name": testRun.RunName,
		})
		return err
	}

	s.logger.Info(ctx, "test run created", map[string]interface{}{
		"test_run_id": testRun.ID,
		"run_name":    testRun.RunName,
	})

	return nil
}

// GetByID retrieves a live test run by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uint) (*TestRun, error) {
	var testRun TestRun
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&testRun).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestRunNotFound
		}
		s.logger.Error(ctx, "failed to get test run by ID", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		return nil, err
	}

	return &testRun, nil
}

// Update updates a test run with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uint, setters ...UpdateSetter) error {
	testRun, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(testRun); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(testRun).Error; err != nil {
		s.logger.Error(ctx, "failed to update test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		return err
	}

	s.logger.Info(ctx, "test run updated", map[string]interface{}{
		"test_run_id": id,
	})

	return nil
}

// Finalize marks a test run as finished with a final status.
func (s *MySQLStore) Finalize(ctx context.Context, id uint, status Status) error {
	testRun, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := testRun.Finalize(status); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(testRun).Error; err != nil {
		s.logger.Error(ctx, "failed to finalize test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		return err
	}

	s.logger.Info(ctx, "test run finalized", map[string]interface{}{
		"test_run_id": id,
		"status":      status,
	})

	return nil
}

// ListRecent retrieves the newest live test runs, up to limit.
func (s *MySQLStore) ListRecent(ctx context.Context, limit int) ([]*TestRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	testRuns := []*TestRun{}
	err := s.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&testRuns).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list test runs", map[string]interface{}{
			"error": err.Error(),
			"limit": limit,
		})
		return nil, err
	}

	return testRuns, nil
}

// SoftDelete hides a test run. Deleting a deleted run is a no-op.
func (s *MySQLStore) SoftDelete(ctx context.Context, id uint) error {
	var testRun TestRun
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&testRun).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTestRunNotFound
		}
		return err
	}

	if testRun.IsDeleted {
		return nil
	}

	err = s.db.WithContext(ctx).
		Model(&TestRun{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
	if err != nil {
		s.logger.Error(ctx, "failed to soft-delete test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id,
		})
		return err
	}

	s.logger.Info(ctx, "test run soft-deleted", map[string]interface{}{
		"test_run_id": id,
	})

	return nil
}
