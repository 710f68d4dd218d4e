package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"rental-api/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// UserClaims represents the JWT claims for an authenticated session
type UserClaims struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	TenantID uint   `json:"tenant_id"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTUtil signs and verifies session tokens. The signing key is injected
// at construction rather than read from package state.
type JWTUtil struct {
	signingKey []byte
	expiration time.Duration
}

// New creates a JWT utility with the given configuration
func New(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{
		signingKey: []byte(cfg.SigningKey),
		expiration: time.Duration(cfg.ExpirationHours) * time.Hour,
	}
}

// GenerateToken creates a signed token carrying the user and tenant identity
func (j *JWTUtil) GenerateToken(userID uint, email string, tenantID uint, role string) (string, error) {
	if len(j.signingKey) == 0 {
		return "", errors.New("JWT signing key not configured")
	}

	claims := UserClaims{
		UserID:   userID,
		Email:    email,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.signingKey)
}

// ValidateToken validates and parses the JWT token. Expired tokens surface
// an error wrapping jwt.ErrTokenExpired so callers can distinguish them
// from malformed or forged tokens.
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return j.signingKey, nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
