package testrun

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/storage"
)

const (
	// DefaultReportBucket is the object-storage bucket for run reports.
	DefaultReportBucket = "testrun-reports"

	reportContentType = "text/html"
)

// ErrReportNotFound is returned when a run has no cached report.
var ErrReportNotFound = errors.New("report not found")

// ReportGenerator produces the report bytes for a run on a cache miss.
type ReportGenerator func(ctx context.Context) (io.Reader, int64, error)

// ReportCache caches rendered run reports in object storage. Generation
// is expensive and happens outside this package; the cache only decides
// whether it needs to happen at all.
type ReportCache struct {
	blobs  storage.BlobStorage
	bucket string
	logger logger.Logger
}

// NewReportCache creates a report cache over the given blob storage.
func NewReportCache(blobs storage.BlobStorage, log logger.Logger) *ReportCache {
	return &ReportCache{
		blobs:  blobs,
		bucket: DefaultReportBucket,
		logger: log,
	}
}

// WithBucket returns a cache reading and writing the given bucket.
func (c *ReportCache) WithBucket(bucket string) *ReportCache {
	return &ReportCache{blobs: c.blobs, bucket: bucket, logger: c.logger}
}

func (c *ReportCache) objectName(runID uint) string {
	return fmt.Sprintf("run-%d-report.html", runID)
}

// Exists reports whether the run has a cached report.
func (c *ReportCache) Exists(ctx context.Context, runID uint) (bool, error) {
	_, err := c.blobs.Stat(ctx, c.bucket, c.objectName(runID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Open streams the cached report of a run.
func (c *ReportCache) Open(ctx context.Context, runID uint) (io.ReadCloser, error) {
	stream, err := c.blobs.GetStream(ctx, c.bucket, c.objectName(runID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return stream, nil
}

// Put stores a rendered report for a run, replacing any cached one.
func (c *ReportCache) Put(ctx context.Context, runID uint, reader io.Reader, size int64) error {
	return c.blobs.Put(ctx, c.bucket, c.objectName(runID), reader, size, reportContentType)
}

// GetOrGenerate streams the run's report, invoking the generator only on
// a cache miss.
func (c *ReportCache) GetOrGenerate(ctx context.Context, runID uint, generate ReportGenerator) (io.ReadCloser, error) {
	exists, err := c.Exists(ctx, runID)
	if err != nil {
		return nil, err
	}

	if !exists {
		c.logger.Info(ctx, "report cache miss, generating", map[string]interface{}{
			"test_run_id": runID,
		})
		reader, size, err := generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate report: %w", err)
		}
		if err := c.Put(ctx, runID, reader, size); err != nil {
			return nil, fmt.Errorf("failed to cache report: %w", err)
		}
	}

	return c.Open(ctx, runID)
}
