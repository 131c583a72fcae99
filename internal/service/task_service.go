package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/audit"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/policy"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// CreateTaskInput carries the fields of a new task as received from a client.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     string
	// Priority is optional and defaults to Medium.
	Priority   string
	AssigneeID *uuid.UUID
}

// UpdateTaskInput carries a partial task update. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
	AssigneeID  *uuid.UUID
}

// TaskQuery carries the optional list filters as received from a client.
type TaskQuery struct {
	Search   string
	Status   string
	Priority string
	// DueDate keeps tasks due on or before this date.
	DueDate string
}

// TaskService manages the task lifecycle.
type TaskService interface {
	// Create stores a new task created by actor, who must be Admin or Manager.
	Create(ctx context.Context, actor *policy.Actor, in CreateTaskInput) (*domain.Task, error)

	// List returns the tasks visible to actor that match q, ordered by due date.
	List(ctx context.Context, actor *policy.Actor, q TaskQuery) ([]*domain.Task, error)

	// Get returns a single task.
	Get(ctx context.Context, actor *policy.Actor, id uuid.UUID) (*domain.Task, error)

	// Update applies a partial update to a task.
	Update(ctx context.Context, actor *policy.Actor, id uuid.UUID, in UpdateTaskInput) (*domain.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, actor *policy.Actor, id uuid.UUID) error
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	tasks     store.TaskStore
	users     store.UserStore
	audit     audit.Recorder
	publisher notify.Publisher
	logger    *slog.Logger
}

var _ TaskService = (*TaskServiceImpl)(nil)

// NewTaskService creates a new TaskService. Assignment and deletion events
// are handed to publisher.
func NewTaskService(
	tasks store.TaskStore,
	users store.UserStore,
	recorder audit.Recorder,
	publisher notify.Publisher,
	logger *slog.Logger,
) *TaskServiceImpl {
	return &TaskServiceImpl{
		tasks:     tasks,
		users:     users,
		audit:     recorder,
		publisher: publisher,
		logger:    logger.With("component", "task_service"),
	}
}

func (s *TaskServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// assigneeExists reports whether a user with id exists.
func (s *TaskServiceImpl) assigneeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.users.GetByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case store.IsNotFoundError(err):
		return false, nil
	default:
		return false, err
	}
}

// Create implements TaskService.
func (s *TaskServiceImpl) Create(
	ctx context.Context,
	actor *policy.Actor,
	in CreateTaskInput,
) (*domain.Task, error) {
	if err := authorize(actor, policy.CreateTask{}); err != nil {
		return nil, err
	}

	dueDate, err := domain.ParseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	var priority domain.Priority
	if in.Priority != "" {
		if priority, err = domain.ParsePriority(in.Priority); err != nil {
			return nil, err
		}
	}

	if in.AssigneeID != nil {
		exists, err := s.assigneeExists(ctx, *in.AssigneeID)
		if err != nil {
			s.log(ctx).Error("failed to look up assignee", "error", redact.Error(err))
			return nil, taskError("create", err)
		}
		if err := authorize(actor, policy.AssignTask{
			AssigneeID:     *in.AssigneeID,
			AssigneeExists: exists,
			CreatorID:      actor.ID,
		}); err != nil {
			return nil, err
		}
	}

	task, err := domain.NewTask(actor.ID, in.Title, in.Description, dueDate, priority, in.AssigneeID)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.log(ctx).Error("failed to save task", "error", redact.Error(err))
		return nil, taskError("create", err)
	}

	s.audit.Record(ctx, actor.ID, domain.AuditCreate, domain.ResourceTask, task.ID,
		fmt.Sprintf("Task %s created", task.Title))

	if task.AssigneeID != nil {
		s.publisher.Publish(ctx, *task.AssigneeID, notify.TaskAssigned(task.ID, task.Title, actor.Name))
	}

	s.log(ctx).Info("task created", "task_id", task.ID, "creator_id", actor.ID)

	return task, nil
}

// List implements TaskService.
func (s *TaskServiceImpl) List(
	ctx context.Context,
	actor *policy.Actor,
	q TaskQuery,
) ([]*domain.Task, error) {
	if err := authorize(actor, policy.ListTasks{}); err != nil {
		return nil, err
	}

	filter := domain.TaskFilter{
		Search:    q.Search,
		VisibleTo: policy.ListScope(actor),
	}
	var err error
	if q.Status != "" {
		if filter.Status, err = domain.ParseStatus(q.Status); err != nil {
			return nil, err
		}
	}
	if q.Priority != "" {
		if filter.Priority, err = domain.ParsePriority(q.Priority); err != nil {
			return nil, err
		}
	}
	if q.DueDate != "" {
		due, err := domain.ParseDueDate(q.DueDate)
		if err != nil {
			return nil, err
		}
		filter.DueBefore = &due
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		s.log(ctx).Error("failed to list tasks", "error", redact.Error(err))
		return nil, taskError("list", err)
	}

	s.log(ctx).Debug("listed tasks", "count", len(tasks), "actor_id", actor.ID)
	return tasks, nil
}

// Get implements TaskService.
func (s *TaskServiceImpl) Get(ctx context.Context, actor *policy.Actor, id uuid.UUID) (*domain.Task, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "get", id, err)
	}

	if err := authorize(actor, policy.ReadTask{Task: task}); err != nil {
		return nil, err
	}
	return task, nil
}

// Update implements TaskService.
func (s *TaskServiceImpl) Update(
	ctx context.Context,
	actor *policy.Actor,
	id uuid.UUID,
	in UpdateTaskInput,
) (*domain.Task, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	// The lookup must happen before the store locks the task: a store may
	// hold its only connection for the duration of the callback. Users are
	// never deleted, so the answer cannot go stale.
	assigneeFound := false
	if in.AssigneeID != nil {
		exists, err := s.assigneeExists(ctx, *in.AssigneeID)
		if err != nil {
			s.log(ctx).Error("failed to look up assignee", "error", redact.Error(err))
			return nil, taskError("update", err)
		}
		assigneeFound = exists
	}

	var previousAssignee *uuid.UUID
	updated, err := s.tasks.Update(ctx, id, func(task *domain.Task) error {
		if err := authorize(actor, policy.UpdateTask{Task: task}); err != nil {
			return err
		}

		patch, err := buildPatch(actor, task, in, assigneeFound)
		if err != nil {
			return err
		}

		previousAssignee = task.AssigneeID
		return patch.Apply(task)
	})
	if err != nil {
		return nil, s.storeError(ctx, "update", id, err)
	}

	s.audit.Record(ctx, actor.ID, domain.AuditUpdate, domain.ResourceTask, updated.ID,
		fmt.Sprintf("Task %s updated", updated.Title))

	if updated.AssigneeID != nil && !sameAssignee(previousAssignee, updated.AssigneeID) {
		s.publisher.Publish(ctx, *updated.AssigneeID, notify.TaskAssigned(updated.ID, updated.Title, actor.Name))
	}

	return updated, nil
}

// buildPatch parses in against the current state of task. A supplied
// assignee is always checked against the assignment rules, even when it
// matches the current one.
func buildPatch(
	actor *policy.Actor,
	task *domain.Task,
	in UpdateTaskInput,
	assigneeFound bool,
) (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
	}

	if in.DueDate != nil {
		due, err := domain.ParseDueDate(*in.DueDate)
		if err != nil {
			return patch, err
		}
		patch.DueDate = &due
	}
	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &p
	}
	if in.Status != nil {
		st, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &st
	}

	if in.AssigneeID != nil {
		if err := authorize(actor, policy.AssignTask{
			AssigneeID:     *in.AssigneeID,
			AssigneeExists: assigneeFound,
			CreatorID:      task.CreatorID,
		}); err != nil {
			return patch, err
		}
		if !sameAssignee(task.AssigneeID, in.AssigneeID) {
			patch.AssigneeID = in.AssigneeID
		}
	}

	return patch, nil
}

// Delete implements TaskService.
func (s *TaskServiceImpl) Delete(ctx context.Context, actor *policy.Actor, id uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}

	removed, err := s.tasks.Delete(ctx, id, func(task *domain.Task) error {
		return authorize(actor, policy.DeleteTask{Task: task})
	})
	if err != nil {
		return s.storeError(ctx, "delete", id, err)
	}

	s.audit.Record(ctx, actor.ID, domain.AuditDelete, domain.ResourceTask, removed.ID,
		fmt.Sprintf("Task %s deleted", removed.Title))

	if removed.AssigneeID != nil {
		s.publisher.Publish(ctx, *removed.AssigneeID, notify.TaskDeleted(removed.ID))
	}

	s.log(ctx).Info("task deleted", "task_id", removed.ID, "actor_id", actor.ID)
	return nil
}

// storeError translates an error returned from a store call. Denials and
// validation errors raised inside an Update or Delete callback pass through.
func (s *TaskServiceImpl) storeError(ctx context.Context, op string, id uuid.UUID, err error) error {
	var denied *DeniedError
	switch {
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: task", ErrNotFound)
	case errors.As(err, &denied), errors.Is(err, domain.ErrValidation):
		s.log(ctx).Debug("task operation rejected", "op", op, "task_id", id, "error", err)
		return err
	default:
		s.log(ctx).Error("task store operation failed", "op", op, "task_id", id, "error", redact.Error(err))
		return taskError(op, err)
	}
}

func sameAssignee(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
