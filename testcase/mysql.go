package testcase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/storage"
	"gorm.io/gorm"
)

// MySQLStore implements Store using GORM. Every mutating operation runs in
// exactly one top-level transaction; when the store is bound to a caller
// transaction via WithTx, operations nest as savepoints instead.
type MySQLStore struct {
	db     *gorm.DB
	blobs  storage.BlobStorage
	bucket string
	logger logger.Logger
}

// NewMySQLStore creates a GORM-backed test case store. blobs holds the
// attachment objects referenced from attachment metadata rows.
func NewMySQLStore(db *gorm.DB, blobs storage.BlobStorage, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		blobs:  blobs,
		bucket: DefaultAttachmentBucket,
		logger: log,
	}
}

// WithTx returns a store bound to a caller-managed transaction. Mutations
// on the returned store become savepoints of that transaction, so the
// caller keeps the single commit.
func (s *MySQLStore) WithTx(tx *gorm.DB) *MySQLStore {
	return &MySQLStore{
		db:     tx,
		blobs:  s.blobs,
		bucket: s.bucket,
		logger: s.logger,
	}
}

// WithAttachmentBucket returns a store writing attachment objects to the
// given bucket.
func (s *MySQLStore) WithAttachmentBucket(bucket string) *MySQLStore {
	return &MySQLStore{
		db:     s.db,
		blobs:  s.blobs,
		bucket: bucket,
		logger: s.logger,
	}
}

// Create inserts a test case with its steps, tags and suite links.
func (s *MySQLStore) Create(ctx context.Context, payload Payload) (*TestCase, error) {
	norm, err := payload.normalize()
	if err != nil {
		return nil, err
	}
	steps, err := assignStepPositions(norm.Steps)
	if err != nil {
		return nil, err
	}

	var created *TestCase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		tc := &TestCase{
			Name:           norm.Name,
			Preconditions:  norm.Preconditions,
			Description:    norm.Description,
			ExpectedResult: norm.ExpectedResult,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Create(tc).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: a live test case named %q already exists", ErrConflict, norm.Name)
			}
			return err
		}

		if err := s.replaceTags(ctx, tx, tc.ID, norm.Tags); err != nil {
			return err
		}

		for i := range steps {
			steps[i].TestCaseID = tc.ID
		}
		if len(steps) > 0 {
			if err := tx.Create(&steps).Error; err != nil {
				if isDuplicateKey(err) {
					return fmt.Errorf("%w: duplicate step position for test case %q", ErrConflict, norm.Name)
				}
				return err
			}
		}

		if _, err := s.replaceSuiteLinks(ctx, tx, tc.ID, norm.SuiteLinks); err != nil {
			return err
		}

		hydrated, err := s.getHydrated(ctx, tx, tc.ID, false)
		if err != nil {
			return err
		}
		created = hydrated
		return nil
	})

	if err != nil {
		s.logFailure(ctx, "failed to create test case", err, map[string]interface{}{
			"name": payload.Name,
		})
		return nil, err
	}

	s.logger.Info(ctx, "test case created", map[string]interface{}{
		"test_case_id": created.ID,
		"name":         created.Name,
	})
	return created, nil
}

// Update replaces the test case with the payload's desired end state:
// scalars, tags, steps and suite links are all replaced wholesale.
func (s *MySQLStore) Update(ctx context.Context, id uint, payload Payload) (*TestCase, error) {
	norm, err := payload.normalize()
	if err != nil {
		return nil, err
	}
	steps, err := assignStepPositions(norm.Steps)
	if err != nil {
		return nil, err
	}

	var updated *TestCase
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tc TestCase
		if err := tx.Where("id = ?", id).First(&tc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id=%d", ErrTestCaseNotFound, id)
			}
			return err
		}
		if tc.IsDeleted {
			return fmt.Errorf("%w: id=%d is deleted", ErrTestCaseNotFound, id)
		}

		prevSuiteIDs, err := linkedSuiteIDs(tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		scalars := map[string]interface{}{
			"name":            norm.Name,
			"preconditions":   norm.Preconditions,
			"description":     norm.Description,
			"expected_result": norm.ExpectedResult,
			"updated_at":      now,
		}
		if err := tx.Model(&TestCase{}).Where("id = ?", id).Updates(scalars).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: a live test case named %q already exists", ErrConflict, norm.Name)
			}
			return err
		}

		if err := tx.Where("test_case_id = ?", id).Delete(&TestCaseTag{}).Error; err != nil {
			return err
		}
		if err := s.replaceTags(ctx, tx, id, norm.Tags); err != nil {
			return err
		}

		// Existing steps must be gone from the store before the new set
		// is inserted: the replacement may reuse (test_case_id, position)
		// pairs and would otherwise trip the unique key.
		if err := tx.Where("test_case_id = ?", id).Delete(&TestCaseStep{}).Error; err != nil {
			return err
		}
		for i := range steps {
			steps[i].TestCaseID = id
		}
		if len(steps) > 0 {
			if err := tx.Create(&steps).Error; err != nil {
				if isDuplicateKey(err) {
					return fmt.Errorf("%w: duplicate step position for test case %q", ErrConflict, norm.Name)
				}
				return err
			}
		}

		if err := tx.Where("test_case_id = ?", id).Delete(&TestCaseSuite{}).Error; err != nil {
			return err
		}
		newSuiteIDs, err := s.replaceSuiteLinks(ctx, tx, id, norm.SuiteLinks)
		if err != nil {
			return err
		}

		// Suites the case left may have lost their last live member.
		for _, suiteID := range prevSuiteIDs {
			if _, still := newSuiteIDs[suiteID]; still {
				continue
			}
			if err := recomputeSuiteVisibility(tx, suiteID); err != nil {
				return err
			}
		}

		hydrated, err := s.getHydrated(ctx, tx, id, false)
		if err != nil {
			return err
		}
		updated = hydrated
		return nil
	})

	if err != nil {
		s.logFailure(ctx, "failed to update test case", err, map[string]interface{}{
			"test_case_id": id,
		})
		return nil, err
	}

	s.logger.Info(ctx, "test case updated", map[string]interface{}{
		"test_case_id": id,
	})
	return updated, nil
}

// SoftDelete hides the test case, removes its attachment objects from
// storage (aborting the whole operation on a storage failure), drops the
// attachment metadata rows and recomputes visibility for every suite the
// case belonged to. Deleting an already-deleted case is a no-op.
func (s *MySQLStore) SoftDelete(ctx context.Context, id uint) (*TestCase, error) {
	var deleted *TestCase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tc TestCase
		if err := tx.Where("id = ?", id).First(&tc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id=%d", ErrTestCaseNotFound, id)
			}
			return err
		}

		if tc.IsDeleted {
			hydrated, err := s.getHydrated(ctx, tx, id, true)
			if err != nil {
				return err
			}
			deleted = hydrated
			return nil
		}

		var attachments []Attachment
		if err := tx.Where("test_case_id = ?", id).Find(&attachments).Error; err != nil {
			return err
		}
		for _, a := range attachments {
			if err := s.blobs.Remove(ctx, a.Bucket, a.ObjectName); err != nil {
				if errors.Is(err, storage.ErrObjectNotFound) {
					// The metadata row outlived its object; nothing to remove.
					continue
				}
				return fmt.Errorf("failed to remove attachment object %s/%s: %w", a.Bucket, a.ObjectName, err)
			}
		}
		if err := tx.Where("test_case_id = ?", id).Delete(&Attachment{}).Error; err != nil {
			return err
		}

		suiteIDs, err := linkedSuiteIDs(tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		flags := map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"updated_at": now,
		}
		if err := tx.Model(&TestCase{}).Where("id = ?", id).Updates(flags).Error; err != nil {
			// The deleted partition has its own slot in the (name, is_deleted)
			// key; a previously deleted case may already hold this name.
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: a soft-deleted test case named %q already exists", ErrConflict, tc.Name)
			}
			return err
		}

		for _, suiteID := range suiteIDs {
			if err := recomputeSuiteVisibility(tx, suiteID); err != nil {
				return err
			}
		}

		hydrated, err := s.getHydrated(ctx, tx, id, true)
		if err != nil {
			return err
		}
		deleted = hydrated
		return nil
	})

	if err != nil {
		s.logFailure(ctx, "failed to soft-delete test case", err, map[string]interface{}{
			"test_case_id": id,
		})
		return nil, err
	}

	s.logger.Info(ctx, "test case soft-deleted", map[string]interface{}{
		"test_case_id": id,
	})
	return deleted, nil
}

// GetByID returns a hydrated test case.
func (s *MySQLStore) GetByID(ctx context.Context, id uint, includeDeleted bool) (*TestCase, error) {
	return s.getHydrated(ctx, s.db.WithContext(ctx), id, includeDeleted)
}

// getHydrated loads the case row and its children inside the given handle.
func (s *MySQLStore) getHydrated(ctx context.Context, tx *gorm.DB, id uint, includeDeleted bool) (*TestCase, error) {
	var tc TestCase
	if err := tx.Where("id = ?", id).First(&tc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrTestCaseNotFound, id)
		}
		return nil, err
	}
	if tc.IsDeleted && !includeDeleted {
		return nil, fmt.Errorf("%w: id=%d is deleted", ErrTestCaseNotFound, id)
	}

	if err := s.hydrate(ctx, tx, []*TestCase{&tc}); err != nil {
		return nil, err
	}
	return &tc, nil
}

// hydrate batch-loads steps, tags, suite links and attachment metadata for
// the given cases.
func (s *MySQLStore) hydrate(ctx context.Context, tx *gorm.DB, cases []*TestCase) error {
	if len(cases) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(cases))
	byID := make(map[uint]*TestCase, len(cases))
	for _, tc := range cases {
		ids = append(ids, tc.ID)
		byID[tc.ID] = tc
		tc.Steps = []TestCaseStep{}
		tc.Tags = []Tag{}
		tc.SuiteLinks = []TestCaseSuite{}
		tc.Attachments = []Attachment{}
	}

	var steps []TestCaseStep
	if err := tx.Where("test_case_id IN ?", ids).Order("test_case_id, position").Find(&steps).Error; err != nil {
		return err
	}
	for _, step := range steps {
		tc := byID[step.TestCaseID]
		tc.Steps = append(tc.Steps, step)
	}

	type taggedRow struct {
		TestCaseID uint
		ID         uint
		Name       string
		IsDeleted  bool
	}
	var tagRows []taggedRow
	err := tx.Table("test_case_tags").
		Select("test_case_tags.test_case_id, tags.id, tags.name, tags.is_deleted").
		Joins("JOIN tags ON tags.id = test_case_tags.tag_id").
		Where("test_case_tags.test_case_id IN ?", ids).
		Order("test_case_tags.test_case_id, tags.id").
		Scan(&tagRows).Error
	if err != nil {
		return err
	}
	for _, row := range tagRows {
		tc := byID[row.TestCaseID]
		tc.Tags = append(tc.Tags, Tag{ID: row.ID, Name: row.Name, IsDeleted: row.IsDeleted})
	}

	type linkRow struct {
		TestCaseID uint
		SuiteID    uint
		Position   *int
		SuiteName  string
	}
	var linkRows []linkRow
	err = tx.Table("test_case_suites").
		Select("test_case_suites.test_case_id, test_case_suites.suite_id, test_case_suites.position, test_suites.name AS suite_name").
		Joins("JOIN test_suites ON test_suites.id = test_case_suites.suite_id").
		Where("test_case_suites.test_case_id IN ?", ids).
		Order("test_case_suites.test_case_id, test_case_suites.suite_id").
		Scan(&linkRows).Error
	if err != nil {
		return err
	}
	for _, row := range linkRows {
		tc := byID[row.TestCaseID]
		tc.SuiteLinks = append(tc.SuiteLinks, TestCaseSuite{
			TestCaseID: row.TestCaseID,
			SuiteID:    row.SuiteID,
			Position:   row.Position,
			SuiteName:  row.SuiteName,
		})
	}

	var attachments []Attachment
	if err := tx.Where("test_case_id IN ?", ids).Order("test_case_id, id").Find(&attachments).Error; err != nil {
		return err
	}
	for _, a := range attachments {
		tc := byID[a.TestCaseID]
		tc.Attachments = append(tc.Attachments, a)
	}

	return nil
}

// replaceTags resolves the tag references and writes the join rows for the
// case. Unresolvable id references are skipped with a warning, never an
// abort: tags are optional.
func (s *MySQLStore) replaceTags(ctx context.Context, tx *gorm.DB, testCaseID uint, refs []TagRef) error {
	seen := make(map[uint]struct{}, len(refs))
	for _, ref := range refs {
		var tag *Tag
		switch ref.Kind() {
		case TagRefSkip:
			continue
		case TagRefByID:
			var found Tag
			if err := tx.Where("id = ?", ref.ID()).First(&found).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.logger.Warn(ctx, "referenced tag not found, skipping", map[string]interface{}{
						"tag_id":       ref.ID(),
						"test_case_id": testCaseID,
					})
					continue
				}
				return err
			}
			tag = &found
		case TagRefByName:
			resolved, err := s.getOrCreateTag(ctx, tx, ref.Name())
			if err != nil {
				return err
			}
			tag = resolved
		}

		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}

		if err := tx.Create(&TestCaseTag{TestCaseID: testCaseID, TagID: tag.ID}).Error; err != nil {
			return err
		}
	}
	return nil
}

// replaceSuiteLinks resolves the suite references, writes the link rows
// and recomputes visibility for every suite it linked. Returns the set of
// linked suite ids. Unresolvable suite_id references are skipped with a
// warning.
func (s *MySQLStore) replaceSuiteLinks(ctx context.Context, tx *gorm.DB, testCaseID uint, refs []SuiteRef) (map[uint]struct{}, error) {
	linked := make(map[uint]struct{}, len(refs))
	for _, ref := range refs {
		var suite *TestSuite
		if ref.SuiteID != nil {
			var found TestSuite
			if err := tx.Where("id = ?", *ref.SuiteID).First(&found).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					s.logger.Warn(ctx, "referenced suite not found, skipping", map[string]interface{}{
						"suite_id":     *ref.SuiteID,
						"test_case_id": testCaseID,
					})
					continue
				}
				return nil, err
			}
			suite = &found
		} else {
			resolved, err := s.getOrCreateSuite(ctx, tx, ref.SuiteName)
			if err != nil {
				return nil, err
			}
			suite = resolved
		}

		if _, dup := linked[suite.ID]; dup {
			continue
		}
		linked[suite.ID] = struct{}{}

		link := &TestCaseSuite{TestCaseID: testCaseID, SuiteID: suite.ID, Position: ref.Position}
		if err := tx.Create(link).Error; err != nil {
			return nil, err
		}
		if err := recomputeSuiteVisibility(tx, suite.ID); err != nil {
			return nil, err
		}
	}
	return linked, nil
}

// linkedSuiteIDs returns the ids of suites the case currently belongs to.
func linkedSuiteIDs(tx *gorm.DB, testCaseID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&TestCaseSuite{}).
		Where("test_case_id = ?", testCaseID).
		Pluck("suite_id", &ids).Error
	return ids, err
}

// recomputeSuiteVisibility enforces the derived invariant: a suite is
// invisible exactly when it has zero live member cases.
func recomputeSuiteVisibility(tx *gorm.DB, suiteID uint) error {
	var liveCount int64
	err := tx.Model(&TestCase{}).
		Joins("JOIN test_case_suites ON test_case_suites.test_case_id = test_cases.id").
		Where("test_case_suites.suite_id = ? AND test_cases.is_deleted = ?", suiteID, false).
		Count(&liveCount).Error
	if err != nil {
		return err
	}

	return tx.Model(&TestSuite{}).
		Where("id = ?", suiteID).
		Update("is_deleted", liveCount == 0).Error
}

// logFailure logs non-validation errors; malformed payloads are the
// caller's problem, not an operational signal.
func (s *MySQLStore) logFailure(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if IsValidation(err) {
		return
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["error"] = err.Error()
	s.logger.Error(ctx, msg, fields)
}
