package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const taskColumns = `id, title, description, due_date, priority, status, creator_id, assignee_id, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     DB
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, slog.Default is used.
func NewPostgresTaskStore(db DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t                domain.Task
		priority, status string
		assignee         uuid.NullUUID
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.DueDate, &priority, &status,
		&t.CreatorID, &assignee, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.Status(status)
	if assignee.Valid {
		id := assignee.UUID
		t.AssigneeID = &id
	}
	t.DueDate = t.DueDate.UTC()
	return &t, nil
}

func nullableID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.Title, task.Description, task.DueDate, string(task.Priority), string(task.Status),
		task.CreatorID, nullableID(task.AssigneeID), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to insert task", "error", redact.Error(err), "task_id", task.ID)
		return MapError(err)
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.getOne(ctx, s.db, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
}

func (s *PostgresTaskStore) getOne(ctx context.Context, q store.DBTX, query string, id uuid.UUID) (*domain.Task, error) {
	task, err := scanTask(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		s.logger.Error("failed to query task", "error", redact.Error(err), "task_id", id)
		return nil, MapError(err)
	}
	return task, nil
}

// escapeLike escapes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildListQuery translates filter into a SELECT with positional arguments.
func buildListQuery(filter domain.TaskFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.VisibleTo != nil {
		p := arg(*filter.VisibleTo)
		where = append(where, fmt.Sprintf("(creator_id = %s OR assignee_id = %s)", p, p))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.Priority != "" {
		where = append(where, "priority = "+arg(string(filter.Priority)))
	}
	if filter.DueBefore != nil {
		where = append(where, "due_date <= "+arg(*filter.DueBefore))
	}
	if filter.Search != "" {
		p := arg("%" + escapeLike(filter.Search) + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", p, p))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY due_date ASC, created_at ASC`
	return query, args
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", redact.Error(err))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update. The row is locked for the
// duration of fn.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	fn func(*domain.Task) error,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := s.getOne(ctx, tx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		if err := fn(task); err != nil {
			return err
		}
		// fn may mutate fields directly; nothing invalid reaches the table.
		if err := task.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE tasks
			SET title = $1, description = $2, due_date = $3, priority = $4, status = $5,
				assignee_id = $6, updated_at = $7
			WHERE id = $8`,
			task.Title, task.Description, task.DueDate, string(task.Priority), string(task.Status),
			nullableID(task.AssigneeID), task.UpdatedAt, task.ID,
		)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "task"); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements store.TaskStore.Delete. The row is locked while fn runs.
func (s *PostgresTaskStore) Delete(
	ctx context.Context,
	id uuid.UUID,
	fn func(*domain.Task) error,
) (*domain.Task, error) {
	var removed *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := s.getOne(ctx, tx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		if err := fn(task); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "task"); err != nil {
			return err
		}

		removed = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("task deleted", "task_id", id)
	return removed, nil
}
