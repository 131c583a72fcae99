package service_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/policy"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery"

type fixture struct {
	users     *mocks.MockUserStore
	tasks     *mocks.MockTaskStore
	audit     *mocks.AuditRecorder
	publisher *mocks.RecordingPublisher
	hasher    *auth.BcryptHasher
	tokens    auth.TokenService
	userSvc   *service.UserServiceImpl
	taskSvc   *service.TaskServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService(config.AuthConfig{JWTSecret: strings.Repeat("k", 32)})
	require.NoError(t, err)

	f := &fixture{
		users:     mocks.NewMockUserStore(),
		tasks:     mocks.NewMockTaskStore(),
		audit:     &mocks.AuditRecorder{},
		publisher: &mocks.RecordingPublisher{},
		hasher:    auth.NewBcryptHasher(bcrypt.MinCost),
		tokens:    tokens,
	}
	f.userSvc = service.NewUserService(f.users, f.hasher, f.tokens, f.audit, service.UserServiceConfig{}, logger)
	f.taskSvc = service.NewTaskService(f.tasks, f.users, f.audit, f.publisher, logger)
	return f
}

// seedUser stores a user with testPassword and returns it.
func (f *fixture) seedUser(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()

	hashed, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)
	u, err := domain.NewUser(name, strings.ToLower(name)+"@example.com", hashed, role)
	require.NoError(t, err)
	f.users.Seed(u)
	return u
}

// seedTask stores a task directly, bypassing policy.
func (f *fixture) seedTask(t *testing.T, title string, creator *domain.User, assignee *domain.User) *domain.Task {
	t.Helper()

	due, err := domain.ParseDueDate("2099-01-01")
	require.NoError(t, err)
	task, err := domain.NewTask(creator.ID, title, "", due, "", nil)
	require.NoError(t, err)
	if assignee != nil {
		id := assignee.ID
		task.AssigneeID = &id
	}
	f.tasks.Seed(task)
	return task
}

func actor(u *domain.User) *policy.Actor {
	return policy.ActorFor(u)
}
