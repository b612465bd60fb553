// internal/auth/passcode_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPasscode(t *testing.T) {
	hash, err := HashPasscode("hunter2")
	require.NoError(t, err)
	assert.NotContains(t, hash, "hunter2")

	ok, err := VerifyPasscode("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPasscode("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPasscode("hunter2")
	require.NoError(t, err)
	b, err := HashPasscode("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPasscode("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
