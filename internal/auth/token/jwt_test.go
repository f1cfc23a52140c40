package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := NewSigner("secret", 15*time.Minute, func() time.Time { return now })

	raw, err := signer.Issue("42", "farmer@agrilink.local", "FARMER")
	require.NoError(t, err)

	claims, err := signer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "FARMER", claims.Role)
}

func TestSignerRejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	signer := NewSigner("secret", time.Minute, clock)

	raw, err := signer.Issue("42", "a@b.c", "ADMIN")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = signer.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)

	other := NewSigner("other-secret", time.Hour, clock)
	foreign, err := other.Issue("42", "a@b.c", "ADMIN")
	require.NoError(t, err)
	_, err = signer.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = signer.Parse("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	raw, hash, err := NewRefreshToken()
	require.NoError(t, err)
	assert.Len(t, raw, 128)
	assert.Equal(t, hash, HashRefreshToken(raw))
	assert.NotEqual(t, raw, hash)
}
