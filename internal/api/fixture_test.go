package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api"
	apimw "github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct horse battery"

type fixture struct {
	users   *mocks.MockUserStore
	tasks   *mocks.MockTaskStore
	audit   *mocks.AuditRecorder
	hub     *notify.Hub
	hasher  *auth.BcryptHasher
	tokens  auth.TokenService
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService(config.AuthConfig{JWTSecret: strings.Repeat("s", 32)})
	require.NoError(t, err)

	f := &fixture{
		users:  mocks.NewMockUserStore(),
		tasks:  mocks.NewMockTaskStore(),
		audit:  &mocks.AuditRecorder{},
		hub:    notify.NewHub(logger),
		hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		tokens: tokens,
	}
	t.Cleanup(func() { _ = f.hub.Close() })

	userSvc := service.NewUserService(f.users, f.hasher, tokens, f.audit, service.UserServiceConfig{}, logger)
	taskSvc := service.NewTaskService(f.tasks, f.users, f.audit, hubPublisher{f.hub}, logger)

	authMW := apimw.NewAuthMiddleware(userSvc, logger)
	authH := api.NewAuthHandler(userSvc, logger)
	taskH := api.NewTaskHandler(taskSvc, logger)
	userH := api.NewUserHandler(userSvc, logger)
	notifyH := api.NewNotificationHandler(f.hub, "*", logger)

	r := chi.NewRouter()
	r.Use(apimw.Trace(logger))
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authMW.OptionalAuthenticate).Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Get("/me", authH.Me)
		})
		r.With(authMW.AuthenticateWebSocket).Get("/notifications", notifyH.Stream)
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Get("/tasks", taskH.List)
			r.Post("/tasks", taskH.Create)
			r.Get("/tasks/{id}", taskH.Get)
			r.Put("/tasks/{id}", taskH.Update)
			r.Delete("/tasks/{id}", taskH.Delete)
			r.Get("/users", userH.List)
			r.Put("/users/{id}/promote", userH.Promote)
		})
	})
	f.handler = r
	return f
}

// hubPublisher delivers synchronously so tests can observe events without
// running a dispatcher.
type hubPublisher struct{ hub *notify.Hub }

func (p hubPublisher) Publish(ctx context.Context, channel uuid.UUID, event notify.Event) {
	_ = p.hub.Publish(ctx, channel, event)
}

func (f *fixture) seedUser(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()

	hashed, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)
	u, err := domain.NewUser(name, strings.ToLower(name)+"@example.com", hashed, role)
	require.NoError(t, err)
	f.users.Seed(u)
	return u
}

func (f *fixture) seedTask(t *testing.T, title string, creator, assignee *domain.User) *domain.Task {
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

func (f *fixture) tokenFor(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := f.tokens.IssueToken(context.Background(), u.ID, u.Role, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request with an optional JSON body and bearer token.
func (f *fixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[shared.ErrorResponse](t, rec)
	return resp.Error
}
