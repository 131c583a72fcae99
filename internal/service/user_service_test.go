package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/policy"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	t.Run("anonymous user registration", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.userSvc.Register(context.Background(), nil, service.RegisterInput{
			Name:     "Bob",
			Email:    "  Bob@Example.COM ",
			Password: testPassword,
		})
		require.NoError(t, err)

		assert.Equal(t, "bob@example.com", res.User.Email)
		assert.Equal(t, domain.RoleUser, res.User.Role)

		claims, err := f.tokens.VerifyToken(context.Background(), res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, claims.UserID)
		assert.WithinDuration(t, time.Now().Add(service.DefaultRegisterTokenTTL), claims.ExpiresAt, time.Minute)

		entries := f.audit.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditRegister, entries[0].Action)
		assert.Equal(t, domain.ResourceUser, entries[0].Resource)
		assert.Equal(t, res.User.ID, entries[0].ActorID)
		assert.Equal(t, res.User.ID, entries[0].ResourceID)
	})

	t.Run("public view never carries the password", func(t *testing.T) {
		f := newFixture(t)

		for _, role := range []string{"", "User", "Manager"} {
			res, err := f.userSvc.Register(context.Background(), nil, service.RegisterInput{
				Name:     "Someone",
				Email:    uuid.NewString() + "@example.com",
				Password: testPassword,
				Role:     role,
			})
			require.NoError(t, err)

			raw, err := json.Marshal(res.User)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "password")
			assert.NotContains(t, string(raw), "$2a$")
		}
	})

	t.Run("unauthenticated admin registration is forbidden", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.userSvc.Register(context.Background(), nil, service.RegisterInput{
			Name:     "Ann",
			Email:    "Ann@X.com",
			Password: "p1",
			Role:     "Admin",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrForbidden)

		_, lookupErr := f.users.GetByEmail(context.Background(), "ann@x.com")
		assert.Error(t, lookupErr, "no user must be written")
		assert.Empty(t, f.audit.Entries())
	})

	t.Run("manager cannot create an admin", func(t *testing.T) {
		f := newFixture(t)
		manager := f.seedUser(t, "Mia", domain.RoleManager)

		_, err := f.userSvc.Register(context.Background(), actor(manager), service.RegisterInput{
			Name: "Ann", Email: "ann@x.com", Password: "p1", Role: "Admin",
		})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("admin creates an admin", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedUser(t, "Root", domain.RoleAdmin)

		res, err := f.userSvc.Register(context.Background(), actor(admin), service.RegisterInput{
			Name: "Ann", Email: "ann@x.com", Password: "p1", Role: "Admin",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, res.User.Role)

		entries := f.audit.ByAction(domain.AuditRegister)
		require.Len(t, entries, 1)
		assert.Equal(t, admin.ID, entries[0].ActorID)
		assert.Equal(t, res.User.ID, entries[0].ResourceID)
	})

	t.Run("duplicate email is a conflict regardless of case", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "Bob", domain.RoleUser)

		_, err := f.userSvc.Register(context.Background(), nil, service.RegisterInput{
			Name: "Bobby", Email: "BOB@example.com", Password: testPassword,
		})
		assert.ErrorIs(t, err, service.ErrConflict)
		assert.Empty(t, f.audit.Entries())
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name  string
			input service.RegisterInput
		}{
			{"missing name", service.RegisterInput{Email: "a@b.co", Password: "pw"}},
			{"missing email", service.RegisterInput{Name: "A", Password: "pw"}},
			{"malformed email", service.RegisterInput{Name: "A", Email: "not-an-email", Password: "pw"}},
			{"missing password", service.RegisterInput{Name: "A", Email: "a@b.co"}},
			{"unknown role", service.RegisterInput{Name: "A", Email: "a@b.co", Password: "pw", Role: "Owner"}},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				f := newFixture(t)
				_, err := f.userSvc.Register(context.Background(), nil, tc.input)
				assert.ErrorIs(t, err, domain.ErrValidation)
			})
		}
	})
}

func TestUserService_Login(t *testing.T) {
	t.Run("succeeds with normalized email", func(t *testing.T) {
		f := newFixture(t)
		bob := f.seedUser(t, "Bob", domain.RoleManager)

		res, err := f.userSvc.Login(context.Background(), " BOB@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, res.User.ID)
		assert.Equal(t, domain.RoleManager, res.User.Role)

		claims, err := f.tokens.VerifyToken(context.Background(), res.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleManager, claims.Role)
		assert.WithinDuration(t, time.Now().Add(service.DefaultLoginTokenTTL), claims.ExpiresAt, time.Minute)

		entries := f.audit.ByAction(domain.AuditLogin)
		require.Len(t, entries, 1)
		assert.Equal(t, bob.ID, entries[0].ActorID)
		assert.Equal(t, bob.ID, entries[0].ResourceID)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		f := newFixture(t)
		f.seedUser(t, "Bob", domain.RoleUser)

		_, unknownErr := f.userSvc.Login(context.Background(), "nobody@example.com", testPassword)
		_, wrongErr := f.userSvc.Login(context.Background(), "bob@example.com", "wrong password")

		require.Error(t, unknownErr)
		require.Error(t, wrongErr)
		assert.ErrorIs(t, unknownErr, service.ErrInvalidCredentials)
		assert.ErrorIs(t, wrongErr, service.ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
		assert.Empty(t, f.audit.Entries())
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		f := newFixture(t)
		f.users.GetByEmailFn = func(context.Context, string) (*domain.User, error) {
			return nil, errors.New("connection reset")
		}

		_, err := f.userSvc.Login(context.Background(), "bob@example.com", testPassword)
		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestUserService_Promote(t *testing.T) {
	t.Run("promotion is not idempotent", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedUser(t, "Root", domain.RoleAdmin)
		bob := f.seedUser(t, "Bob", domain.RoleUser)

		promoted, err := f.userSvc.Promote(context.Background(), actor(admin), bob.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleManager, promoted.Role)

		stored, err := f.users.GetByID(context.Background(), bob.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleManager, stored.Role)

		_, err = f.userSvc.Promote(context.Background(), actor(admin), bob.ID)
		assert.ErrorIs(t, err, service.ErrInvalidState)

		entries := f.audit.ByAction(domain.AuditPromote)
		require.Len(t, entries, 1)
		assert.Equal(t, admin.ID, entries[0].ActorID)
		assert.Equal(t, bob.ID, entries[0].ResourceID)
	})

	t.Run("admin target is invalid state", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedUser(t, "Root", domain.RoleAdmin)
		other := f.seedUser(t, "Other", domain.RoleAdmin)

		_, err := f.userSvc.Promote(context.Background(), actor(admin), other.ID)
		assert.ErrorIs(t, err, service.ErrInvalidState)

		stored, _ := f.users.GetByID(context.Background(), other.ID)
		assert.Equal(t, domain.RoleAdmin, stored.Role)
	})

	t.Run("only admins promote", func(t *testing.T) {
		f := newFixture(t)
		manager := f.seedUser(t, "Mia", domain.RoleManager)
		bob := f.seedUser(t, "Bob", domain.RoleUser)

		_, err := f.userSvc.Promote(context.Background(), actor(manager), bob.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)

		_, err = f.userSvc.Promote(context.Background(), nil, bob.ID)
		assert.ErrorIs(t, err, service.ErrUnauthorized)

		stored, _ := f.users.GetByID(context.Background(), bob.ID)
		assert.Equal(t, domain.RoleUser, stored.Role)
		assert.Empty(t, f.audit.Entries())
	})

	t.Run("missing target", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedUser(t, "Root", domain.RoleAdmin)

		_, err := f.userSvc.Promote(context.Background(), actor(admin), uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestUserService_WhoAmI(t *testing.T) {
	f := newFixture(t)
	bob := f.seedUser(t, "Bob", domain.RoleUser)

	token, err := f.tokens.IssueToken(context.Background(), bob.ID, bob.Role, time.Hour)
	require.NoError(t, err)

	me, err := f.userSvc.WhoAmI(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, me.ID)
	assert.Equal(t, "bob@example.com", me.Email)

	t.Run("role comes from the store, not the token", func(t *testing.T) {
		staleToken, err := f.tokens.IssueToken(context.Background(), bob.ID, domain.RoleAdmin, time.Hour)
		require.NoError(t, err)

		u, err := f.userSvc.Authenticate(context.Background(), staleToken)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, u.Role)
	})

	t.Run("rejections", func(t *testing.T) {
		ghostToken, err := f.tokens.IssueToken(context.Background(), uuid.New(), domain.RoleUser, time.Hour)
		require.NoError(t, err)

		for name, tok := range map[string]string{
			"empty":        "",
			"garbage":      "not.a.token",
			"deleted user": ghostToken,
		} {
			t.Run(name, func(t *testing.T) {
				_, err := f.userSvc.WhoAmI(context.Background(), tok)
				assert.ErrorIs(t, err, service.ErrUnauthorized)
			})
		}
	})
}

func TestUserService_List(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "Root", domain.RoleAdmin)
	manager := f.seedUser(t, "Mia", domain.RoleManager)
	bob := f.seedUser(t, "Bob", domain.RoleUser)

	for _, a := range []*policy.Actor{actor(admin), actor(manager)} {
		users, err := f.userSvc.List(context.Background(), a)
		require.NoError(t, err)
		assert.Len(t, users, 3)
	}

	_, err := f.userSvc.List(context.Background(), actor(bob))
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.userSvc.List(context.Background(), nil)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}
