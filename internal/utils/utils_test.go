package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Exp, 5*time.Second)

	id, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	good, err := NewAccessToken("secret", 1, 5)
	require.NoError(t, err)
	expired, err := NewAccessToken("secret", 1, -1)
	require.NoError(t, err)
	noUser, err := NewAccessToken("secret", 0, 5)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expired.Token},
		"no user id":   {"secret", noUser.Token},
		"alg none":     {"secret", none},
		"garbage":      {"secret", "not-a-jwt"},
	}
	for name, tt := range tests {
		_, err := ParseAccessToken(tt.secret, tt.raw)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("password1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "password1"))
	assert.False(t, VerifyPassword(h, "password2"))

	h, err = Hasher(0)("x")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
