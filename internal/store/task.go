package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
//
// Update and Delete serialize concurrent callers on the same task: fn sees
// the latest committed state and no other write to that task interleaves
// with it.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns the tasks matching filter ordered by due date ascending.
	List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)

	// Update loads the task, passes it to fn and persists the result.
	// If fn returns an error nothing is written and that error is returned
	// unchanged. Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id uuid.UUID, fn func(*domain.Task) error) (*domain.Task, error)

	// Delete loads the task, passes it to fn and removes it if fn returns
	// nil. The removed task is returned.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID, fn func(*domain.Task) error) (*domain.Task, error)
}
