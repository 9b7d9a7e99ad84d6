package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecrm/internal/middleware"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := NewAuthService([]byte("test-key"))

	hash, err := svc.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, svc.CheckPassword(hash, "s3cret"))
	assert.False(t, svc.CheckPassword(hash, "wrong"))
}

func TestGenerateTokenCarriesClaims(t *testing.T) {
	key := []byte("test-key")
	svc := NewAuthService(key)

	tokenStr, err := svc.GenerateToken(42, 5, "manager")
	require.NoError(t, err)

	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, 5, claims.MemberID)
	assert.Equal(t, "manager", claims.Role)
	require.NotNil(t, claims.ExpiresAt)
}
