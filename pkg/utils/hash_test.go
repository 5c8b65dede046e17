package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret!", hash)
	require.True(t, CheckPassword("s3cret!", hash))
	require.False(t, CheckPassword("wrong", hash))
	require.False(t, CheckPassword("s3cret!", ""))
}

func TestHashRejectsShortPassword(t *testing.T) {
	_, err := HashPassword("abc")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}
