package api

import (
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	// Role defaults to User. Admin requires an authenticated Admin caller.
	Role string `json:"role" validate:"omitempty,oneof=Admin Manager User"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token   string            `json:"token"`
	Message string            `json:"message,omitempty"`
	User    domain.PublicUser `json:"user"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	// DueDate accepts RFC 3339 timestamps or plain dates (2006-01-02).
	DueDate  string `json:"dueDate"  validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	// Assignee is a user ID. Empty means unassigned.
	Assignee string `json:"assignee" validate:"omitempty,uuid"`
}

// UpdateTaskRequest defines the payload for a partial task update.
// Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	// An empty Assignee leaves the assignment unchanged.
	Assignee *string `json:"assignee"`
}

// PromoteResponse is returned by the promote endpoint.
type PromoteResponse struct {
	Message string            `json:"message"`
	User    domain.PublicUser `json:"user"`
}
