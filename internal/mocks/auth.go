package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/service/auth"
	"github.com/stretchr/testify/mock"
)

// JWTService is a mock of auth.JWTService.
type JWTService struct {
	mock.Mock
}

var _ auth.JWTService = (*JWTService)(nil)

// GenerateToken is a mock implementation of auth.JWTService.GenerateToken
func (m *JWTService) GenerateToken(ctx context.Context, userID uuid.UUID, role string) (string, error) {
	args := m.Called(ctx, userID, role)
	return args.String(0), args.Error(1)
}

// ValidateToken is a mock implementation of auth.JWTService.ValidateToken
func (m *JWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	args := m.Called(ctx, tokenString)
	if c, ok := args.Get(0).(*auth.Claims); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
