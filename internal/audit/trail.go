// Package audit records privileged actions in an append-only trail.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Recorder appends audit entries. Record runs synchronously but never
// fails the caller: write errors are logged and dropped.
type Recorder interface {
	Record(
		ctx context.Context,
		actorID uuid.UUID,
		action domain.AuditAction,
		resource domain.ResourceKind,
		resourceID uuid.UUID,
		details string,
	)
}

// Trail is the Recorder backed by an AuditStore.
type Trail struct {
	store  store.AuditStore
	logger *slog.Logger
}

var _ Recorder = (*Trail)(nil)

// NewTrail creates a Trail writing to s.
func NewTrail(s store.AuditStore, logger *slog.Logger) *Trail {
	return &Trail{
		store:  s,
		logger: logger.With("component", "audit_trail"),
	}
}

// Record implements Recorder.
func (t *Trail) Record(
	ctx context.Context,
	actorID uuid.UUID,
	action domain.AuditAction,
	resource domain.ResourceKind,
	resourceID uuid.UUID,
	details string,
) {
	entry := domain.NewAuditEntry(actorID, action, resource, resourceID, details)

	if err := t.store.Append(ctx, entry); err != nil {
		t.logger.ErrorContext(ctx, "failed to write audit entry",
			"error", redact.Error(err),
			"actor_id", actorID,
			"action", action,
			"resource", resource,
			"resource_id", resourceID)
		return
	}

	t.logger.DebugContext(ctx, "audit entry written",
		"entry_id", entry.ID,
		"action", action,
		"resource", resource)
}
