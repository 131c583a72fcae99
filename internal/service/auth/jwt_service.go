package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TokenService issues and verifies signed session tokens.
type TokenService interface {
	// IssueToken creates a signed token binding userID and role that
	// expires after ttl.
	IssueToken(ctx context.Context, userID uuid.UUID, role domain.Role, ttl time.Duration) (string, error)

	// VerifyToken checks the signature and expiry of tokenString and returns
	// its claims. Every failure matches ErrInvalidToken.
	VerifyToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the verified content of a session token.
type Claims struct {
	UserID    uuid.UUID
	Role      domain.Role
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
