package testrun

import (
	"testing"

	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/storage"
	"github.com/hairizuan-noorazman/testcase-archive/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestStore creates a test database and test run store for testing.
func setupTestStore(t *testing.T) (*gorm.DB, Store) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &TestRun{})

	return db, NewMySQLStore(db, logger.NewTestLogger())
}

// setupReportCache creates a report cache over throwaway local storage.
func setupReportCache(t *testing.T) *ReportCache {
	t.Helper()

	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return NewReportCache(blobs, logger.NewTestLogger())
}
