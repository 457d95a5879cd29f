package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// Claims carry the user ID in the subject. Use tells access tokens from
// refresh tokens so neither can stand in for the other.
type Claims struct {
	Use string `json:"use"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access and refresh tokens.
type TokenManager struct {
	secret     []byte
	ttl        time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager issues access tokens valid for ttl and refresh tokens valid
// for refreshTTL. A non-positive refreshTTL falls back to ttl.
func NewTokenManager(secret string, ttl, refreshTTL time.Duration) *TokenManager {
	if refreshTTL <= 0 {
		refreshTTL = ttl
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, refreshTTL: refreshTTL, now: time.Now}
}

// TTL is how long a signed access token stays valid.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Sign creates an access token for userID.
func (m *TokenManager) Sign(userID string) (string, error) {
	return m.sign(userID, useAccess, m.ttl)
}

// SignRefresh creates a refresh token for userID.
func (m *TokenManager) SignRefresh(userID string) (string, error) {
	return m.sign(userID, useRefresh, m.refreshTTL)
}

// Verify validates an access token and returns the user ID it was issued for.
func (m *TokenManager) Verify(tokenStr string) (string, error) {
	return m.verify(tokenStr, useAccess)
}

// VerifyRefresh validates a refresh token and returns its user ID.
func (m *TokenManager) VerifyRefresh(tokenStr string) (string, error) {
	return m.verify(tokenStr, useRefresh)
}

func (m *TokenManager) sign(userID, use string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		Use: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", use, err)
	}
	return signed, nil
}

func (m *TokenManager) verify(tokenStr, use string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if claims.Use != use {
		return "", fmt.Errorf("%w: %s token used as %s token", ErrInvalidToken, claims.Use, use)
	}
	return claims.Subject, nil
}
