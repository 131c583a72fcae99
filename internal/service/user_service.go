package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/audit"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/policy"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Default token lifetimes.
const (
	DefaultRegisterTokenTTL = time.Hour
	DefaultLoginTokenTTL    = 24 * time.Hour
)

// timingPassword is hashed once and verified against when a login email is
// unknown, so that both failure paths cost one bcrypt comparison.
const timingPassword = "taskflow-login-timing-equalizer"

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// Role is optional and defaults to User.
	Role string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  domain.PublicUser
}

// UserService provides registration, authentication and user administration.
type UserService interface {
	// Register creates an account. actor is nil for anonymous registration;
	// only an Admin actor may create another Admin.
	Register(ctx context.Context, actor *policy.Actor, in RegisterInput) (*AuthResult, error)

	// Login exchanges an email and password for a session token.
	// Every failure is ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Promote raises a plain User to Manager. Only an Admin may promote.
	Promote(ctx context.Context, actor *policy.Actor, targetID uuid.UUID) (*domain.PublicUser, error)

	// WhoAmI returns the user a token belongs to.
	WhoAmI(ctx context.Context, token string) (*domain.PublicUser, error)

	// Authenticate verifies token and reloads its user from the store, so
	// role changes take effect immediately.
	Authenticate(ctx context.Context, token string) (*domain.User, error)

	// List returns every user. Only an Admin or Manager may list users.
	List(ctx context.Context, actor *policy.Actor) ([]domain.PublicUser, error)
}

// UserServiceConfig holds the token lifetimes issued by UserService.
type UserServiceConfig struct {
	RegisterTokenTTL time.Duration
	LoginTokenTTL    time.Duration
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users  store.UserStore
	hasher auth.PasswordHasher
	tokens auth.TokenService
	audit  audit.Recorder
	cfg    UserServiceConfig
	logger *slog.Logger

	timingOnce sync.Once
	timingHash string
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService. Zero token lifetimes fall back
// to DefaultRegisterTokenTTL and DefaultLoginTokenTTL.
func NewUserService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	tokens auth.TokenService,
	recorder audit.Recorder,
	cfg UserServiceConfig,
	logger *slog.Logger,
) *UserServiceImpl {
	if cfg.RegisterTokenTTL <= 0 {
		cfg.RegisterTokenTTL = DefaultRegisterTokenTTL
	}
	if cfg.LoginTokenTTL <= 0 {
		cfg.LoginTokenTTL = DefaultLoginTokenTTL
	}
	return &UserServiceImpl{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		audit:  recorder,
		cfg:    cfg,
		logger: logger.With("component", "user_service"),
	}
}

func (s *UserServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Register implements UserService.
func (s *UserServiceImpl) Register(
	ctx context.Context,
	actor *policy.Actor,
	in RegisterInput,
) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required", nil)
	}
	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, policy.RegisterUser{Role: role}); err != nil {
		s.log(ctx).Warn("registration denied", "role", role, "error", err)
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !store.IsNotFoundError(err) {
		s.log(ctx).Error("failed to check existing user", "error", redact.Error(err))
		return nil, userError("register", err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, userError("register", err)
	}

	user, err := domain.NewUser(name, email, hashed, role)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can win the race past GetByEmail.
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrConflict
		}
		s.log(ctx).Error("failed to save user", "error", redact.Error(err))
		return nil, userError("register", err)
	}

	token, err := s.tokens.IssueToken(ctx, user.ID, user.Role, s.cfg.RegisterTokenTTL)
	if err != nil {
		s.log(ctx).Error("failed to issue registration token", "error", redact.Error(err), "user_id", user.ID)
		return nil, userError("register", err)
	}

	auditActor := user.ID
	if actor != nil {
		auditActor = actor.ID
	}
	s.audit.Record(ctx, auditActor, domain.AuditRegister, domain.ResourceUser, user.ID,
		fmt.Sprintf("User %s registered as %s", user.Email, user.Role))

	s.log(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)

	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Login implements UserService.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.log(ctx).Error("failed to look up user for login", "error", redact.Error(err))
			return nil, userError("login", err)
		}
		s.hasher.Verify(s.dummyHash(), password)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(user.HashedPassword, password) {
		s.log(ctx).Debug("login rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(ctx, user.ID, user.Role, s.cfg.LoginTokenTTL)
	if err != nil {
		s.log(ctx).Error("failed to issue login token", "error", redact.Error(err), "user_id", user.ID)
		return nil, userError("login", err)
	}

	s.audit.Record(ctx, user.ID, domain.AuditLogin, domain.ResourceUser, user.ID,
		fmt.Sprintf("User %s logged in", user.Email))

	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *UserServiceImpl) dummyHash() string {
	s.timingOnce.Do(func() {
		h, err := s.hasher.Hash(timingPassword)
		if err != nil {
			s.logger.Error("failed to prepare timing hash", "error", err)
			return
		}
		s.timingHash = h
	})
	return s.timingHash
}

// Promote implements UserService.
func (s *UserServiceImpl) Promote(
	ctx context.Context,
	actor *policy.Actor,
	targetID uuid.UUID,
) (*domain.PublicUser, error) {
	updated, err := s.users.Update(ctx, targetID, func(u *domain.User) error {
		if err := authorize(actor, policy.PromoteUser{Target: u}); err != nil {
			return err
		}
		u.Role = domain.RoleManager
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		var denied *DeniedError
		switch {
		case store.IsNotFoundError(err):
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		case errors.As(err, &denied):
			s.log(ctx).Warn("promotion denied", "target_id", targetID, "reason", denied.Reason.String())
			return nil, err
		default:
			s.log(ctx).Error("failed to promote user", "error", redact.Error(err), "target_id", targetID)
			return nil, userError("promote", err)
		}
	}

	s.audit.Record(ctx, actor.ID, domain.AuditPromote, domain.ResourceUser, updated.ID,
		fmt.Sprintf("User %s promoted to Manager", updated.Name))

	s.log(ctx).Info("user promoted", "target_id", updated.ID, "actor_id", actor.ID)

	pub := updated.Public()
	return &pub, nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.VerifyToken(ctx, token)
	if err != nil {
		s.log(ctx).Debug("token rejected", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		s.log(ctx).Error("failed to load token user", "error", redact.Error(err), "user_id", claims.UserID)
		return nil, userError("authenticate", err)
	}

	return user, nil
}

// WhoAmI implements UserService.
func (s *UserServiceImpl) WhoAmI(ctx context.Context, token string) (*domain.PublicUser, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// List implements UserService.
func (s *UserServiceImpl) List(ctx context.Context, actor *policy.Actor) ([]domain.PublicUser, error) {
	if err := authorize(actor, policy.ListUsers{}); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		s.log(ctx).Error("failed to list users", "error", redact.Error(err))
		return nil, userError("list", err)
	}

	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}
