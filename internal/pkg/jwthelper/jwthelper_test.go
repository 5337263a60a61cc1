package jwthelper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "signing-key"

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken(key, "user-1", "manager", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "manager", claims.Role)
}

func TestParseRejects(t *testing.T) {
	expired, err := GenerateToken(key, "user-1", "user", -time.Minute)
	require.NoError(t, err)

	otherKey, err := GenerateToken("another-key", "user-1", "user", time.Hour)
	require.NoError(t, err)

	noSubject, err := GenerateToken(key, "", "user", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte(key))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":    "not.a.token",
		"expired":    expired,
		"other key":  otherKey,
		"no subject": noSubject,
		"no expiry":  noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(key, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
