// Package auth validates the bearer tokens presented to the HTTP API.
//
// Tokens are HS256 JWTs signed with the project secret. The subject is the
// user id and the role claim separates end users from operators holding the
// service role.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token roles.
const (
	RoleAuthenticated = "authenticated"
	RoleService       = "service_role"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed token for userID with the given role.
	GenerateToken(ctx context.Context, userID uuid.UUID, role string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, ErrInvalidSubject or
	// ErrInvalidToken when validation fails.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated contents of a token.
type Claims struct {
	// UserID is parsed from the subject claim.
	UserID uuid.UUID

	Role      string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// IsService reports whether the token carries the service role.
func (c *Claims) IsService() bool {
	return c != nil && c.Role == RoleService
}
