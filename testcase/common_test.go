package testcase

import (
	"context"
	"testing"
	"time"

	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/storage"
	"github.com/hairizuan-noorazman/testcase-archive/testutil"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store backed by an in-memory database and a
// throwaway local blob storage.
func setupTestStore(t *testing.T) *MySQLStore {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, Models()...)

	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return NewMySQLStore(db, blobs, logger.NewTestLogger())
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func uintPtr(u uint) *uint { return &u }

// mustCreate creates a test case from a minimal payload.
func mustCreate(t *testing.T, store *MySQLStore, name string) *TestCase {
	t.Helper()

	tc, err := store.Create(context.Background(), Payload{Name: name})
	require.NoError(t, err)
	return tc
}

// setCreatedAt pins a row's created_at so ordering in pagination tests is
// deterministic.
func setCreatedAt(t *testing.T, store *MySQLStore, id uint, at time.Time) {
	t.Helper()

	err := store.db.Model(&TestCase{}).Where("id = ?", id).Update("created_at", at).Error
	require.NoError(t, err)
}
