// Package auth issues and validates access tokens, hashes credentials,
// and revokes tokens on logout.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken means the token failed signature, expiry, or claim
// checks.
var ErrInvalidToken = errors.New("invalid token")

// TokenPair holds the access and refresh tokens returned after login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenManager signs and validates JWTs with an HMAC secret.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a manager. accessTTL governs access tokens;
// refresh tokens live seven times longer.
func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: 7 * 24 * time.Hour,
	}
}

// IssueTokens returns a fresh access/refresh pair for the username.
func (m *TokenManager) IssueTokens(username string) (*TokenPair, error) {
	now := time.Now().UTC()

	access, err := m.sign(jwt.MapClaims{
		"username": username,
		"type":     "access",
		"iat":      now.Unix(),
		"exp":      now.Add(m.accessTTL).Unix(),
	})
	if err != nil {
		return nil, err
	}

	refresh, err := m.sign(jwt.MapClaims{
		"username": username,
		"type":     "refresh",
		"iat":      now.Unix(),
		"exp":      now.Add(m.refreshTTL).Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccess checks an access token and returns its username.
func (m *TokenManager) ValidateAccess(tokenStr string) (string, error) {
	return m.validate(tokenStr, "access")
}

// ValidateRefresh checks a refresh token and returns its username.
func (m *TokenManager) ValidateRefresh(tokenStr string) (string, error) {
	return m.validate(tokenStr, "refresh")
}

// AccessTTL returns the configured access-token lifetime; logout uses it
// to bound how long a revoked token must stay blacklisted.
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// RefreshTTL returns the refresh-token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *TokenManager) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) validate(tokenStr, wantType string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return "", ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}
