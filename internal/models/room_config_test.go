// internal/models/room_config_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoomConfigIsValid(t *testing.T) {
	cfg := DefaultRoomConfig(4)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.HandSize)
	assert.Equal(t, 2, cfg.PeekBudget)
	assert.Equal(t, MatchFirst, cfg.MatchPolicy)
	assert.True(t, cfg.AllowSteal)
	assert.True(t, cfg.TieGoesToCaller)
}

func TestRoomConfigUpdate(t *testing.T) {
	cfg := DefaultRoomConfig(2)
	err := cfg.Update(map[string]interface{}{
		"playerCount":      float64(4), // JSON numbers decode as float64
		"variant":          VariantJokers,
		"matchPolicy":      MatchMulti,
		"allowSteal":       false,
		"tieGoesToCaller":  false,
		"reactionWindowMs": 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.PlayerCount)
	assert.Equal(t, VariantJokers, cfg.Variant)
	assert.Equal(t, MatchMulti, cfg.MatchPolicy)
	assert.False(t, cfg.AllowSteal)
	assert.False(t, cfg.TieGoesToCaller)
	assert.Equal(t, 5000, cfg.ReactionWindowMs)
	assert.Equal(t, 4, cfg.HandSize, "absent keys keep their defaults")
}

func TestRoomConfigUpdateRejectsBadValues(t *testing.T) {
	cfg := DefaultRoomConfig(2)
	assert.Error(t, cfg.Update(map[string]interface{}{"variant": "pinochle"}))

	cfg = DefaultRoomConfig(2)
	assert.Error(t, cfg.Update(map[string]interface{}{"playerCount": "four"}))

	cfg = DefaultRoomConfig(2)
	assert.Error(t, cfg.Update(map[string]interface{}{"playerCount": float64(1)}))

	cfg = DefaultRoomConfig(2)
	assert.Error(t, cfg.Update(map[string]interface{}{"reactionWindowMs": float64(0)}))
}

func TestActionSlot(t *testing.T) {
	a := Action{Type: ActionPeek, Payload: map[string]interface{}{"slot": float64(2)}}
	slot, ok := a.Slot()
	require.True(t, ok)
	assert.Equal(t, 2, slot)

	b := Action{Type: ActionPeek}
	_, ok = b.Slot()
	assert.False(t, ok)
}
