// Package auth issues and verifies the bearer tokens that point at a
// server-side session.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the account and the session row the token belongs to.
// Revoking the session row invalidates the token before it expires.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"aid"`
	SessionID string `json:"sid"`
}

// GenerateToken signs an HS256 token valid until expiresAt.
func GenerateToken(accountID, sessionID string, secretKey []byte, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AccountID: accountID,
		SessionID: sessionID,
	})
	return token.SignedString(secretKey)
}

// ParseToken verifies signature, algorithm and expiry. An expired token
// maps to common.ErrSessionExpired, anything else to common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrSessionExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.AccountID == "" || claims.SessionID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
