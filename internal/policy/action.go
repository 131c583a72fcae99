package policy

import (
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Actor is the authenticated user performing an operation.
// A nil *Actor means the request is unauthenticated.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
	// Name is shown to other users, e.g. as the sender of a notification.
	Name string
}

// ActorFor builds the Actor for a loaded user.
func ActorFor(u *domain.User) *Actor {
	return &Actor{ID: u.ID, Role: u.Role, Name: u.Name}
}

// Action is a request to be authorized. The set of implementations is closed.
type Action interface {
	action()
}

// RegisterUser creates an account with the given role.
type RegisterUser struct {
	Role domain.Role
}

// PromoteUser raises Target to Manager.
type PromoteUser struct {
	Target *domain.User
}

// ListUsers lists every registered user.
type ListUsers struct{}

// CreateTask creates a new task.
type CreateTask struct{}

// ListTasks lists the tasks visible to the actor.
type ListTasks struct{}

// ReadTask fetches a single task.
type ReadTask struct {
	Task *domain.Task
}

// UpdateTask changes fields of an existing task.
type UpdateTask struct {
	Task *domain.Task
}

// DeleteTask removes a task.
type DeleteTask struct {
	Task *domain.Task
}

// AssignTask sets the assignee of a task being created or updated.
type AssignTask struct {
	AssigneeID uuid.UUID
	// AssigneeExists is false when no user with AssigneeID was found.
	AssigneeExists bool
	CreatorID      uuid.UUID
}

func (RegisterUser) action() {}
func (PromoteUser) action()  {}
func (ListUsers) action()    {}
func (CreateTask) action()   {}
func (ListTasks) action()    {}
func (ReadTask) action()     {}
func (UpdateTask) action()   {}
func (DeleteTask) action()   {}
func (AssignTask) action()   {}
