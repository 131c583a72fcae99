package notify

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Event names.
const (
	EventTaskAssigned = "taskAssigned"
	EventTaskDeleted  = "taskDeleted"
)

// Event is a named notification with a JSON payload.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// TaskAssignedPayload is the body of a taskAssigned event.
type TaskAssignedPayload struct {
	TaskID     uuid.UUID `json:"taskId"`
	Title      string    `json:"title"`
	AssignedBy string    `json:"assignedBy"`
}

// TaskDeletedPayload is the body of a taskDeleted event.
type TaskDeletedPayload struct {
	TaskID uuid.UUID `json:"taskId"`
}

// NewEvent builds an Event by encoding payload as JSON.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: data}, nil
}

// TaskAssigned builds the event sent to a task's new assignee.
func TaskAssigned(taskID uuid.UUID, title, assignedBy string) Event {
	// Encoding a struct of strings and UUIDs cannot fail.
	ev, _ := NewEvent(EventTaskAssigned, TaskAssignedPayload{
		TaskID:     taskID,
		Title:      title,
		AssignedBy: assignedBy,
	})
	return ev
}

// TaskDeleted builds the event sent to the assignee of a removed task.
func TaskDeleted(taskID uuid.UUID) Event {
	ev, _ := NewEvent(EventTaskDeleted, TaskDeletedPayload{TaskID: taskID})
	return ev
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}
