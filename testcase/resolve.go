package testcase

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// getOrCreateTag returns the tag with the given name, inserting it when
// absent. The speculative insert runs in a savepoint: when a concurrent
// transaction wins the race for the unique name, only the insert rolls
// back and the winner's row is re-read. Resolving a soft-hidden tag
// revives it.
func (s *MySQLStore) getOrCreateTag(ctx context.Context, tx *gorm.DB, name string) (*Tag, error) {
	var tag Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if err == nil {
		if tag.IsDeleted {
			if err := tx.Model(&Tag{}).Where("id = ?", tag.ID).Update("is_deleted", false).Error; err != nil {
				return nil, err
			}
			tag.IsDeleted = false
		}
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	insertErr := tx.Transaction(func(sp *gorm.DB) error {
		tag = Tag{Name: name}
		return sp.Create(&tag).Error
	})
	if insertErr == nil {
		return &tag, nil
	}
	if !isDuplicateKey(insertErr) {
		return nil, insertErr
	}

	s.logger.Debug(ctx, "lost tag insert race, re-reading", map[string]interface{}{
		"name": name,
	})
	if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// getOrCreateSuite resolves a suite by name the same way getOrCreateTag
// resolves tags. A freshly created suite starts hidden; linking a live
// case makes it visible through the recount that follows every link.
func (s *MySQLStore) getOrCreateSuite(ctx context.Context, tx *gorm.DB, name string) (*TestSuite, error) {
	var suite TestSuite
	err := tx.Where("name = ?", name).First(&suite).Error
	if err == nil {
		return &suite, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	insertErr := tx.Transaction(func(sp *gorm.DB) error {
		now := time.Now().UTC()
		suite = TestSuite{Name: name, IsDeleted: true, CreatedAt: now, UpdatedAt: now}
		return sp.Create(&suite).Error
	})
	if insertErr == nil {
		return &suite, nil
	}
	if !isDuplicateKey(insertErr) {
		return nil, insertErr
	}

	s.logger.Debug(ctx, "lost suite insert race, re-reading", map[string]interface{}{
		"name": name,
	})
	if err := tx.Where("name = ?", name).First(&suite).Error; err != nil {
		return nil, err
	}
	return &suite, nil
}
