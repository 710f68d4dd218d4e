package jwtutil_test

import (
	"errors"
	"testing"

	"rental-api/pkg/config"
	"rental-api/pkg/jwtutil"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	j := jwtutil.New(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := j.GenerateToken(42, "owner@example.com", 7, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "owner@example.com", claims.Email)
	require.Equal(t, uint(7), claims.TenantID)
	require.Equal(t, "admin", claims.Role)
}

func TestValidateToken_WrongKey(t *testing.T) {
	issuer := jwtutil.New(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	verifier := jwtutil.New(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})

	token, err := issuer.GenerateToken(1, "a@b.com", 1, "member")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	require.False(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestValidateToken_Expired(t *testing.T) {
	// A negative expiration issues a token that is already expired.
	j := jwtutil.New(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: -1})

	token, err := j.GenerateToken(1, "a@b.com", 1, "member")
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestValidateToken_Garbage(t *testing.T) {
	j := jwtutil.New(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	_, err := j.ValidateToken("not.a.token")
	require.Error(t, err)
}
