package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/policy"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

// Authenticator resolves a bearer token to the user it was issued to.
// service.UserService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// ErrInvalidAuthFormat is returned for an Authorization header that is not
// "Bearer <token>".
var ErrInvalidAuthFormat = errors.New("invalid authorization format")

// AuthMiddleware resolves the bearer token of a request to a policy actor.
// The user is loaded from the store on every request, so role changes take
// effect without a new token.
type AuthMiddleware struct {
	users  Authenticator
	logger *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(users Authenticator, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		users:  users,
		logger: logger.With(slog.String("component", "auth_middleware")),
	}
}

// BearerToken extracts the token from the Authorization header. It returns
// auth.ErrMissingToken when the header is absent.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidAuthFormat
	}
	return strings.TrimSpace(token), nil
}

// Authenticate rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			m.rejectToken(w, r, err)
			return
		}
		m.serveAs(w, r, next, token)
	})
}

// OptionalAuthenticate lets anonymous requests through. A request that
// does carry a token must carry a valid one.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if errors.Is(err, auth.ErrMissingToken) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			m.rejectToken(w, r, err)
			return
		}
		m.serveAs(w, r, next, token)
	})
}

// AuthenticateWebSocket accepts the token from the Authorization header or,
// for browser clients that cannot set headers on an upgrade, from the
// "token" query parameter.
func (m *AuthMiddleware) AuthenticateWebSocket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if errors.Is(err, auth.ErrMissingToken) {
			if q := r.URL.Query().Get("token"); q != "" {
				token, err = q, nil
			}
		}
		if err != nil {
			m.rejectToken(w, r, err)
			return
		}
		m.serveAs(w, r, next, token)
	})
}

func (m *AuthMiddleware) serveAs(w http.ResponseWriter, r *http.Request, next http.Handler, token string) {
	user, err := m.users.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err,
				shared.WithElevatedLogLevel())
			return
		}
		logger.FromContextOrDefault(r.Context(), m.logger).
			Error("failed to authenticate request", "error", redact.Error(err))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
		return
	}

	actor := policy.ActorFor(user)
	ctx := shared.WithActor(r.Context(), actor)
	ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx, m.logger).With("user_id", actor.ID))
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (m *AuthMiddleware) rejectToken(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrMissingToken) {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
		return
	}
	shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
}
