package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// minKeyLength is the HMAC key size required for HS512.
const minKeyLength = 32

var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed token payload. Subject carries the user id as a
// string; UserID carries it as a number.
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies bearer tokens.
type TokenManager struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenManager builds a manager for secret. A secret shorter than 32 bytes
// is zero-padded unless strict is set, in which case it is rejected.
func NewTokenManager(secret string, lifetime time.Duration, strict bool) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	key := []byte(secret)
	if len(key) < minKeyLength {
		if strict {
			return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", minKeyLength, len(key))
		}
		padded := make([]byte, minKeyLength)
		copy(padded, key)
		key = padded
	}
	return &TokenManager{key: key, lifetime: lifetime, now: time.Now}, nil
}

// Generate issues a token for userID valid for the configured lifetime.
func (m *TokenManager) Generate(userID int64) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the user id.
func (m *TokenManager) Parse(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	return claims.UserID, nil
}
