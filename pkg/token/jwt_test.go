package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 1, 1)
	tok, err := m.GenerateToken(7, "alice", "a@example.com")
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager("secret", 1, 1)
	access, err := m.GenerateToken(1, "alice", "")
	require.NoError(t, err)
	refresh, err := m.GenerateRefreshToken(1, "alice", "")
	require.NoError(t, err)

	_, err = m.VerifyToken(refresh)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	_, err = m.VerifyRefreshToken(access)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = m.VerifyRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	tok, err := NewJWTManager("other", 1, 1).GenerateToken(1, "alice", "")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", 1, 1).VerifyToken(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired, err := NewJWTManager("secret", -1, 1).GenerateToken(1, "alice", "")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", 1, 1).VerifyToken(expired)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = NewJWTManager("secret", 1, 1).VerifyToken("garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
