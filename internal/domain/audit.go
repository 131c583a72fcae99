package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names a privileged operation recorded in the audit trail.
type AuditAction string

// Recorded actions.
const (
	AuditRegister AuditAction = "REGISTER"
	AuditLogin    AuditAction = "LOGIN"
	AuditCreate   AuditAction = "CREATE"
	AuditUpdate   AuditAction = "UPDATE"
	AuditDelete   AuditAction = "DELETE"
	AuditPromote  AuditAction = "PROMOTE"
)

// ResourceKind is the type of entity an audit entry refers to.
type ResourceKind string

// Audited resource kinds.
const (
	ResourceUser ResourceKind = "USER"
	ResourceTask ResourceKind = "TASK"
)

// AuditEntry is an immutable record of who did what to which resource.
type AuditEntry struct {
	ID         uuid.UUID    `json:"id"`
	ActorID    uuid.UUID    `json:"actorId"`
	Action     AuditAction  `json:"action"`
	Resource   ResourceKind `json:"resource"`
	ResourceID uuid.UUID    `json:"resourceId"`
	Details    string       `json:"details"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// NewAuditEntry stamps a new entry with an ID and the current time.
func NewAuditEntry(
	actorID uuid.UUID,
	action AuditAction,
	resource ResourceKind,
	resourceID uuid.UUID,
	details string,
) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}
