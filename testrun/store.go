package testrun

import (
	"context"
)

// Store defines the interface for test run persistence operations.
type Store interface {
	// Create creates a new test run in the store.
	Create(ctx context.Context, testRun *TestRun) error

	// GetByID retrieves a live test run by its ID.
	GetByID(ctx context.Context, id uint) (*TestRun, error)

	// Update updates a test run with the given setters.
	Update(ctx context.Context, id uint, setters ...UpdateSetter) error

	// Finalize marks a test run as finished with a final status.
	Finalize(ctx context.Context, id uint, status Status) error

	// ListRecent retrieves the newest live test runs, up to limit.
	ListRecent(ctx context.Context, limit int) ([]*TestRun, error)

	// SoftDelete hides a test run. Deleting a deleted run is a no-op.
	SoftDelete(ctx context.Context, id uint) error
}

// UpdateSetter is a function that updates a test run field.
type UpdateSetter func(*TestRun) error
