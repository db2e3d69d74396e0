package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandertrails/tours-api/internal/platform/token"
)

const secret = "test-secret"

func TestSignParseRoundTrip(t *testing.T) {
	tok, err := token.Sign(42, secret, time.Hour)
	require.NoError(t, err)

	claims, err := token.Parse(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.Sub)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
}

func TestParse_Expired(t *testing.T) {
	tok, err := token.Sign(1, secret, -time.Minute)
	require.NoError(t, err)

	_, err = token.Parse(tok, secret)
	assert.ErrorIs(t, err, token.ErrExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := token.Sign(1, secret, time.Hour)
	require.NoError(t, err)

	_, err = token.Parse(tok, "another-secret")
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestParse_Garbage(t *testing.T) {
	_, err := token.Parse("definitely.not.a-jwt", secret)
	assert.ErrorIs(t, err, token.ErrInvalid)
}
