package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "invoice-scanner", time.Hour)

	token, err := m.GenerateToken("dashboard")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", claims.Client)
	assert.Equal(t, "invoice-scanner", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTManager_NoExpiry(t *testing.T) {
	m := NewJWTManager("secret", "invoice-scanner", 0)

	token, err := m.GenerateToken("cron")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", "invoice-scanner", time.Hour)

	otherKey, err := NewJWTManager("other", "invoice-scanner", time.Hour).GenerateToken("x")
	require.NoError(t, err)
	otherIssuer, err := NewJWTManager("secret", "someone-else", time.Hour).GenerateToken("x")
	require.NoError(t, err)
	expired, err := NewJWTManager("secret", "invoice-scanner", -time.Hour).GenerateToken("x")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
