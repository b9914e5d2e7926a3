package testcase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/testcase-archive/storage"
	"gorm.io/gorm"
)

// AddAttachment uploads the object and records its metadata for a live
// test case. The object goes to storage first; if the metadata insert
// then fails the uploaded object is removed on a best-effort basis so
// storage does not accumulate orphans.
func (s *MySQLStore) AddAttachment(ctx context.Context, testCaseID uint, filename, contentType string, reader io.Reader, size int64) (*Attachment, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, NewValidationError("attachment filename must not be blank")
	}
	if size < 0 {
		return nil, NewValidationError("attachment size must not be negative")
	}

	if _, err := s.GetByID(ctx, testCaseID, false); err != nil {
		return nil, err
	}

	objectName := uuid.New().String()
	if ext := filepath.Ext(filename); ext != "" {
		objectName += ext
	}

	if err := s.blobs.Put(ctx, s.bucket, objectName, reader, size, contentType); err != nil {
		s.logger.Error(ctx, "failed to upload attachment object", map[string]interface{}{
			"test_case_id": testCaseID,
			"object_name":  objectName,
			"error":        err.Error(),
		})
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}

	attachment := &Attachment{
		TestCaseID:       testCaseID,
		OriginalFilename: filename,
		ObjectName:       objectName,
		Bucket:           s.bucket,
		Size:             size,
		CreatedAt:        time.Now().UTC(),
	}
	if contentType != "" {
		attachment.ContentType = &contentType
	}

	if err := s.db.WithContext(ctx).Create(attachment).Error; err != nil {
		if removeErr := s.blobs.Remove(ctx, s.bucket, objectName); removeErr != nil {
			s.logger.Warn(ctx, "failed to clean up attachment object after insert failure", map[string]interface{}{
				"object_name": objectName,
				"error":       removeErr.Error(),
			})
		}
		s.logger.Error(ctx, "failed to record attachment", map[string]interface{}{
			"test_case_id": testCaseID,
			"error":        err.Error(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "attachment added", map[string]interface{}{
		"test_case_id":  testCaseID,
		"attachment_id": attachment.ID,
		"object_name":   objectName,
	})
	return attachment, nil
}

// ListAttachments returns the attachment metadata of a live test case.
func (s *MySQLStore) ListAttachments(ctx context.Context, testCaseID uint) ([]Attachment, error) {
	if _, err := s.GetByID(ctx, testCaseID, false); err != nil {
		return nil, err
	}

	attachments := []Attachment{}
	err := s.db.WithContext(ctx).
		Where("test_case_id = ?", testCaseID).
		Order("id").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// OpenAttachment returns the attachment metadata together with a stream
// of its bytes. The caller owns closing the stream.
func (s *MySQLStore) OpenAttachment(ctx context.Context, attachmentID uint) (*Attachment, io.ReadCloser, error) {
	var attachment Attachment
	if err := s.db.WithContext(ctx).Where("id = ?", attachmentID).First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: id=%d", ErrAttachmentNotFound, attachmentID)
		}
		return nil, nil, err
	}

	stream, err := s.blobs.GetStream(ctx, attachment.Bucket, attachment.ObjectName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("%w: object %s/%s is missing", ErrAttachmentNotFound, attachment.Bucket, attachment.ObjectName)
		}
		return nil, nil, err
	}
	return &attachment, stream, nil
}

// DeleteAttachment removes the stored object and then the metadata row.
// A missing object is tolerated so a dangling row can still be cleared.
func (s *MySQLStore) DeleteAttachment(ctx context.Context, attachmentID uint) error {
	var attachment Attachment
	if err := s.db.WithContext(ctx).Where("id = ?", attachmentID).First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id=%d", ErrAttachmentNotFound, attachmentID)
		}
		return err
	}

	if err := s.blobs.Remove(ctx, attachment.Bucket, attachment.ObjectName); err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("failed to remove attachment object %s/%s: %w", attachment.Bucket, attachment.ObjectName, err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(&Attachment{}, attachment.ID).Error; err != nil {
		return err
	}

	s.logger.Info(ctx, "attachment deleted", map[string]interface{}{
		"attachment_id": attachmentID,
		"test_case_id":  attachment.TestCaseID,
	})
	return nil
}
