package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", "frontdesk", time.Hour)

	token, expires, err := svc.GenerateToken("sess-1", "7012345677", "receptionist", "Asha")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, "receptionist", claims.Role)
	assert.Equal(t, "Asha", claims.Name)
	assert.Equal(t, "7012345677", claims.Subject)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	token, _, err := NewJWTService("one", "frontdesk", time.Hour).GenerateToken("s", "u", "admin", "")
	require.NoError(t, err)

	_, err = NewJWTService("two", "frontdesk", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", "frontdesk", time.Minute).(*jwtService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateToken("s", "u", "admin", "")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret", "frontdesk", time.Hour).ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
