package store

import (
	"context"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// AuditStore persists audit entries. Entries are never updated or deleted.
type AuditStore interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}
