package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/audit"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockAuditStore is a mock of store.AuditStore for use with testify/mock
type TestifyMockAuditStore struct {
	mock.Mock
}

var _ store.AuditStore = (*TestifyMockAuditStore)(nil)

// Append is a mock implementation of store.AuditStore.Append
func (m *TestifyMockAuditStore) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// AuditRecorder implements audit.Recorder by keeping entries in memory.
type AuditRecorder struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

var _ audit.Recorder = (*AuditRecorder)(nil)

// Record implements audit.Recorder
func (r *AuditRecorder) Record(
	_ context.Context,
	actorID uuid.UUID,
	action domain.AuditAction,
	resource domain.ResourceKind,
	resourceID uuid.UUID,
	details string,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *domain.NewAuditEntry(actorID, action, resource, resourceID, details))
}

// Entries returns a copy of every recorded entry.
func (r *AuditRecorder) Entries() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEntry(nil), r.entries...)
}

// ByAction returns the recorded entries with the given action.
func (r *AuditRecorder) ByAction(action domain.AuditAction) []domain.AuditEntry {
	var out []domain.AuditEntry
	for _, e := range r.Entries() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
