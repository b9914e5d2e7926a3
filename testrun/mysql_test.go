package testrun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	t.Run("defaults to pending with a generated name", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))

		assert.NotZero(t, run.ID)
		assert.Equal(t, StatusPending, run.Status)
		assert.NotEmpty(t, run.RunName)
		assert.Contains(t, run.RunName, "run-")
		require.NotNil(t, run.StartDate)
	})

	t.Run("keeps an explicit name", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{RunName: "nightly regression"}
		require.NoError(t, store.Create(context.Background(), run))
		assert.Equal(t, "nightly regression", run.RunName)
	})

	t.Run("rejects an invalid status", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{Status: Status("exploded")}
		err := store.Create(context.Background(), run)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStatus))
	})
}

func TestGetByID(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		_, store := setupTestStore(t)

		_, err := store.GetByID(context.Background(), 9999)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTestRunNotFound))
	})

	t.Run("soft-deleted run is invisible", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))
		require.NoError(t, store.SoftDelete(context.Background(), run.ID))

		_, err := store.GetByID(context.Background(), run.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTestRunNotFound))
	})
}

func TestUpdate(t *testing.T) {
	t.Run("applies setters", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))

		err := store.Update(context.Background(), run.ID,
			SetRunName("renamed"),
			SetFileLink("reports/run-1.html"),
		)
		require.NoError(t, err)

		got, err := store.GetByID(context.Background(), run.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.RunName)
		require.NotNil(t, got.FileLink)
		assert.Equal(t, "reports/run-1.html", *got.FileLink)
	})

	t.Run("setter failure aborts the update", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{RunName: "original"}
		require.NoError(t, store.Create(context.Background(), run))

		err := store.Update(context.Background(), run.ID, SetRunName("   "))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRunName))

		got, err := store.GetByID(context.Background(), run.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", got.RunName)
	})
}

func TestFinalize(t *testing.T) {
	t.Run("sets end date and final status", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))
		require.NoError(t, store.Finalize(context.Background(), run.ID, StatusSuccess))

		got, err := store.GetByID(context.Background(), run.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, got.Status)
		require.NotNil(t, got.EndDate)
		assert.WithinDuration(t, time.Now().UTC(), *got.EndDate, time.Minute)
	})

	t.Run("cannot finalize twice", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))
		require.NoError(t, store.Finalize(context.Background(), run.ID, StatusFail))

		err := store.Finalize(context.Background(), run.ID, StatusSuccess)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTestRunFinalized))
	})

	t.Run("rejects a non-final status", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))

		err := store.Finalize(context.Background(), run.ID, StatusPending)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStatus))
	})
}

func TestListRecent(t *testing.T) {
	t.Run("newest first, live only, limited", func(t *testing.T) {
		db, store := setupTestStore(t)

		base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		var ids []uint
		for i := 0; i < 4; i++ {
			run := &TestRun{}
			require.NoError(t, store.Create(context.Background(), run))
			require.NoError(t, db.Model(&TestRun{}).Where("id = ?", run.ID).
				Update("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
			ids = append(ids, run.ID)
		}
		require.NoError(t, store.SoftDelete(context.Background(), ids[3]))

		runs, err := store.ListRecent(context.Background(), 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, ids[2], runs[0].ID)
		assert.Equal(t, ids[1], runs[1].ID)
	})

	t.Run("zero limit uses the default", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))

		runs, err := store.ListRecent(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})
}

func TestSoftDelete(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		_, store := setupTestStore(t)

		run := &TestRun{}
		require.NoError(t, store.Create(context.Background(), run))
		require.NoError(t, store.SoftDelete(context.Background(), run.ID))
		require.NoError(t, store.SoftDelete(context.Background(), run.ID))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, store := setupTestStore(t)

		err := store.SoftDelete(context.Background(), 9999)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTestRunNotFound))
	})
}
