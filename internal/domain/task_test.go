package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask_Defaults(t *testing.T) {
	creator := uuid.New()
	due := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	task, err := NewTask(creator, "  Ship ", "", due, "", nil)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, "Ship", task.Title)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, StatusToDo, task.Status)
	assert.Equal(t, creator, task.CreatorID)
	assert.Nil(t, task.AssigneeID)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestNewTask_Invalid(t *testing.T) {
	creator := uuid.New()
	due := time.Now().Add(time.Hour)
	nilID := uuid.Nil

	tests := []struct {
		name     string
		creator  uuid.UUID
		title    string
		due      time.Time
		priority Priority
		assignee *uuid.UUID
		cause    error
	}{
		{"blank title", creator, "   ", due, PriorityLow, nil, ErrValidation},
		{"zero due date", creator, "t", time.Time{}, PriorityLow, nil, ErrValidation},
		{"bad priority", creator, "t", due, Priority("Urgent"), nil, ErrInvalidPriority},
		{"no creator", uuid.Nil, "t", due, PriorityLow, nil, ErrInvalidID},
		{"nil assignee id", creator, "t", due, PriorityLow, &nilID, ErrInvalidID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTask(tc.creator, tc.title, "", tc.due, tc.priority, tc.assignee)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tc.cause)
		})
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2099-01-01", time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2099-01-01T10:30:00Z", time.Date(2099, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"2099-01-01T10:30:00+02:00", time.Date(2099, 1, 1, 8, 30, 0, 0, time.UTC)},
		{"2099-01-01T10:30:00.250Z", time.Date(2099, 1, 1, 10, 30, 0, 250_000_000, time.UTC)},
		{"2099-01-01T10:30:00", time.Date(2099, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"2099-01-01T10:30", time.Date(2099, 1, 1, 10, 30, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDueDate(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}

	_, err := ParseDueDate("tomorrow")
	assert.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = ParseDueDate("2099-02-30")
	assert.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = ParseDueDate("")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParsePriorityAndStatus(t *testing.T) {
	p, err := ParsePriority("High")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("high")
	assert.ErrorIs(t, err, ErrInvalidPriority)

	s, err := ParseStatus("In Progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseStatus("Closed")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTaskPatch_Apply(t *testing.T) {
	creator := uuid.New()
	task, err := NewTask(creator, "Ship", "desc", time.Now().Add(time.Hour), PriorityLow, nil)
	require.NoError(t, err)

	status := StatusDone
	assignee := uuid.New()
	err = TaskPatch{Status: &status, AssigneeID: &assignee}.Apply(task)
	require.NoError(t, err)

	// Omitted fields keep their values.
	assert.Equal(t, "Ship", task.Title)
	assert.Equal(t, "desc", task.Description)
	assert.Equal(t, PriorityLow, task.Priority)
	assert.Equal(t, StatusDone, task.Status)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, assignee, *task.AssigneeID)

	empty := ""
	err = TaskPatch{Description: &empty}.Apply(task)
	require.NoError(t, err)
	assert.Empty(t, task.Description)

	blank := "  "
	err = TaskPatch{Title: &blank}.Apply(task)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTaskOwnership(t *testing.T) {
	creator, assignee, other := uuid.New(), uuid.New(), uuid.New()
	task := &Task{CreatorID: creator, AssigneeID: &assignee}

	assert.True(t, task.IsCreator(creator))
	assert.False(t, task.IsCreator(assignee))
	assert.True(t, task.IsAssignee(assignee))
	assert.False(t, task.IsAssignee(other))
	assert.False(t, (&Task{CreatorID: creator}).IsAssignee(creator))
}

func TestTaskFilter_Matches(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	cutoff := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &Task{
		Title:       "Write Release Notes",
		Description: "for v2",
		DueDate:     cutoff,
		Priority:    PriorityHigh,
		Status:      StatusInProgress,
		CreatorID:   other,
		AssigneeID:  &me,
	}
	before := cutoff.Add(-time.Second)

	tests := []struct {
		name   string
		filter TaskFilter
		want   bool
	}{
		{"empty filter", TaskFilter{}, true},
		{"search title case-insensitive", TaskFilter{Search: "release"}, true},
		{"search description", TaskFilter{Search: "V2"}, true},
		{"search miss", TaskFilter{Search: "deploy"}, false},
		{"status match", TaskFilter{Status: StatusInProgress}, true},
		{"status miss", TaskFilter{Status: StatusDone}, false},
		{"priority miss", TaskFilter{Priority: PriorityLow}, false},
		{"due on cutoff", TaskFilter{DueBefore: &cutoff}, true},
		{"due after cutoff", TaskFilter{DueBefore: &before}, false},
		{"visible to assignee", TaskFilter{VisibleTo: &me}, true},
		{"visible to creator", TaskFilter{VisibleTo: &other}, true},
		{"invisible to stranger", TaskFilter{VisibleTo: ptr(uuid.New())}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(task))
		})
	}
}

func ptr[T any](v T) *T { return &v }
