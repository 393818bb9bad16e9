package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRememberToken(t *testing.T) {
	tok, err := NewRememberToken(time.Hour)
	require.NoError(t, err)
	require.Len(t, tok.Raw, 96)
	require.WithinDuration(t, time.Now().UTC().Add(time.Hour), tok.Exp, 5*time.Second)

	other, err := NewRememberToken(time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, tok.Raw, other.Raw)
}

func TestHashTokenIsStable(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.Len(t, HashToken("abc"), 64)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!123", 4)
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "s3cret!123"))
	require.False(t, VerifyPassword(hash, "wrong"))
}
