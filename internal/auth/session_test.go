// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	Init()

	playerID := uuid.New()
	token, err := CreateSeatToken("abc123", playerID)
	require.NoError(t, err)

	claims, err := AuthenticateSeatToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc123", claims.RoomCode)
	assert.Equal(t, playerID, claims.PlayerID)
}

func TestSeatTokenRejectsGarbage(t *testing.T) {
	Init()

	_, err := AuthenticateSeatToken("not.a.token")
	assert.Error(t, err)
}
