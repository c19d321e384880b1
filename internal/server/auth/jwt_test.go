package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParse(t *testing.T) {
	now := time.Now()
	tok, err := GenerateToken("acc-1", "sess-1", secret, now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestParseToken_Expired(t *testing.T) {
	now := time.Now()
	tok, err := GenerateToken("acc-1", "sess-1", secret, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestParseToken_Invalid(t *testing.T) {
	now := time.Now()
	good, err := GenerateToken("acc-1", "sess-1", secret, now, now.Add(time.Hour))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{AccountID: "a", SessionID: "s"}).SignedString(secret)
	require.NoError(t, err)

	noSession, err := GenerateToken("acc-1", "", secret, now, now.Add(time.Hour))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		AccountID:        "a", SessionID: "s",
	}).SignedString(secret)
	require.NoError(t, err)

	tests := map[string]struct {
		token  string
		secret []byte
	}{
		"wrong secret":    {good, []byte("other")},
		"garbage":         {"not.a.jwt", secret},
		"empty":           {"", secret},
		"no expiry":       {noExp, secret},
		"no session":      {noSession, secret},
		"other algorithm": {hs512, secret},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}
