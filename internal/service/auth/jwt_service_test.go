package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/resumeq/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestService(t *testing.T, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(testSecret, time.Hour, func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	svc := newTestService(t, fixedTime)

	token, err := svc.GenerateToken(context.Background(), userID, RoleAuthenticated)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, RoleAuthenticated, claims.Role)
	assert.False(t, claims.IsService())
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Errors(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	issuer := newTestService(t, fixedTime)
	token, err := issuer.GenerateToken(context.Background(), userID, RoleService)
	require.NoError(t, err)

	wrongKey, err := newHMACJWTService("wrong-secret-that-is-long-enough-for-testing", time.Hour,
		func() time.Time { return fixedTime })
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: userID.String(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		Role: RoleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *hmacJWTService
		token   string
		wantErr error
	}{
		{"expired", newTestService(t, fixedTime.Add(2*time.Hour)), token, ErrExpiredToken},
		{"within clock skew", newTestService(t, fixedTime.Add(61*time.Minute)), token, nil},
		{"not yet issued", newTestService(t, fixedTime.Add(-10*time.Minute)), token, ErrTokenNotYetValid},
		{"wrong secret", wrongKey, token, ErrInvalidToken},
		{"malformed", issuer, "not.a.token", ErrInvalidToken},
		{"none algorithm", issuer, noneToken, ErrInvalidToken},
		{"subject not uuid", issuer, badSubject, ErrInvalidSubject},
		{"empty", issuer, "", ErrMissingToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			claims, err := tc.svc.ValidateToken(context.Background(), tc.token)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.True(t, claims.IsService())
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
