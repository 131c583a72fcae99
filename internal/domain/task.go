package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the urgency of a task.
type Priority string

// Possible task priorities.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Status is the progress state of a task.
type Status string

// Possible task statuses.
const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// dueDateLayouts lists the accepted due date formats, most precise first.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParsePriority converts a priority name into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
	}
}

// ParseStatus converts a status name into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusToDo, StatusInProgress, StatusDone:
		return st, nil
	default:
		return "", NewValidationError("status", "must be one of To Do, In Progress, Done", ErrInvalidStatus)
	}
}

// ParseDueDate parses an RFC 3339 timestamp or a calendar date.
// Values without a zone are interpreted as UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, NewValidationError("dueDate", "is required", nil)
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewValidationError("dueDate", "has invalid format", ErrInvalidDueDate)
}

// Task is a unit of work created by a privileged user and optionally
// assigned to another user.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     time.Time  `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatorID   uuid.UUID  `json:"creator"`
	AssigneeID  *uuid.UUID `json:"assignee,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a task in the To Do state. An empty priority defaults to Medium.
func NewTask(
	creatorID uuid.UUID,
	title, description string,
	dueDate time.Time,
	priority Priority,
	assigneeID *uuid.UUID,
) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      StatusToDo,
		CreatorID:   creatorID,
		AssigneeID:  assigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "is required", nil)
	}
	if t.DueDate.IsZero() {
		return NewValidationError("dueDate", "is required", nil)
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	if t.CreatorID == uuid.Nil {
		return NewValidationError("creator", "cannot be empty", ErrInvalidID)
	}
	if t.AssigneeID != nil && *t.AssigneeID == uuid.Nil {
		return NewValidationError("assignee", "cannot be empty", ErrInvalidID)
	}
	return nil
}

// IsCreator reports whether userID created the task.
func (t *Task) IsCreator(userID uuid.UUID) bool {
	return t.CreatorID == userID
}

// IsAssignee reports whether the task is assigned to userID.
func (t *Task) IsAssignee(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TaskPatch carries the fields of a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *Priority
	Status      *Status
	AssigneeID  *uuid.UUID
}

// Apply copies the supplied fields onto t and validates the result.
func (p TaskPatch) Apply(t *Task) error {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssigneeID != nil {
		id := *p.AssigneeID
		t.AssigneeID = &id
	}
	t.UpdatedAt = time.Now().UTC()
	return t.Validate()
}

// TaskFilter narrows a task listing. Zero-valued fields do not filter.
type TaskFilter struct {
	// Search is matched case-insensitively against title and description.
	Search   string
	Status   Status
	Priority Priority
	// DueBefore keeps tasks due on or before this instant.
	DueBefore *time.Time
	// VisibleTo restricts results to tasks created by or assigned to this user.
	VisibleTo *uuid.UUID
}

// Matches reports whether t passes every filter criterion.
func (f TaskFilter) Matches(t *Task) bool {
	if f.VisibleTo != nil && !t.IsCreator(*f.VisibleTo) && !t.IsAssignee(*f.VisibleTo) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.DueBefore != nil && t.DueDate.After(*f.DueBefore) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}
