package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PostgresAuditStore implements store.AuditStore on the audit_logs table.
type PostgresAuditStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AuditStore = (*PostgresAuditStore)(nil)

// NewPostgresAuditStore creates a PostgresAuditStore.
func NewPostgresAuditStore(db store.DBTX, logger *slog.Logger) *PostgresAuditStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuditStore{
		db:     db,
		logger: logger.With(slog.String("component", "audit_store")),
	}
}

// Append implements store.AuditStore.Append
func (s *PostgresAuditStore) Append(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, resource, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorID, string(entry.Action), string(entry.Resource),
		entry.ResourceID, entry.Details, entry.CreatedAt,
	)
	return MapError(err)
}
