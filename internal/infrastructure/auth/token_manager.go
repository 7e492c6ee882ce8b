package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"chatwave/pkg/errors"
)

// TokenManager issues and verifies the bearer credentials presented on REST
// calls and socket handshakes. Signing is HMAC-SHA256 against the server
// secret; the subject claim carries the user ID.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (m *TokenManager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		Issuer:    "chatwave",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Internal("Failed to sign token", err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the embedded subject ID.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("Unexpected signing method", nil)
		}
		return m.secret, nil
	})
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}

	return claims.Subject, nil
}
