// internal/game/view_test.go
package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaboom-gg/kaboom-service/internal/models"
)

func TestViewRedactsHandsInMainPhase(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	r = startRound(t, r, ids, now)

	view := ViewFor(r, ids[0])
	assert.Equal(t, PhaseMain, view.Phase)
	for _, vp := range view.Players {
		assert.Equal(t, 4, vp.HandSize)
		for _, vc := range vp.Hand {
			assert.False(t, vc.Known, "no slot is readable in the main phase")
			assert.Empty(t, vc.Rank)
			assert.Zero(t, vc.Value)
		}
	}
	assert.Equal(t, len(r.Deck), view.DeckSize)
}

func TestViewShowsOwnPeekedSlotsOnly(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	r, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionStart}, now)
	require.NoError(t, err)
	r, err = ApplyAction(r, ids[0], act(models.ActionPeek, 1), now)
	require.NoError(t, err)

	own := ViewFor(r, ids[0])
	assert.True(t, own.Players[0].Hand[1].Known)
	assert.Equal(t, r.Players[0].Hand[1].Rank, own.Players[0].Hand[1].Rank)
	assert.False(t, own.Players[0].Hand[0].Known)
	assert.False(t, own.Players[1].Hand[0].Known)

	other := ViewFor(r, ids[1])
	assert.False(t, other.Players[0].Hand[1].Known, "peeks are private")
	require.Len(t, other.PeekLog, 1)
	assert.Equal(t, 1, other.PeekLog[0].Slot, "the log carries indices, never values")
}

func TestViewDrawnCardVisibility(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	r = startRound(t, r, ids, now)
	r, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionDraw}, now)
	require.NoError(t, err)

	active := ViewFor(r, ids[0])
	require.NotNil(t, active.DrawnCard)
	assert.True(t, active.DrawnCard.Known)
	assert.Equal(t, r.DrawnCard.Rank, active.DrawnCard.Rank)

	other := ViewFor(r, ids[1])
	require.NotNil(t, other.DrawnCard)
	assert.False(t, other.DrawnCard.Known)
	assert.Empty(t, other.DrawnCard.Rank)
	assert.True(t, other.Players[0].HasDrawn)
}

func TestViewWindowTriggerIsPublic(t *testing.T) {
	r, ids := windowRoom(t, models.MatchFirst)
	now := time.Now()
	r = openTestWindow(t, r, ids, now)

	view := ViewFor(r, ids[2])
	require.NotNil(t, view.Window)
	assert.True(t, view.Window.Trigger.Known)
	assert.Equal(t, "7", view.Window.Trigger.Rank)
	assert.Equal(t, ids[0], view.Window.TriggeredBy)

	require.NotNil(t, view.DiscardTop)
	assert.True(t, view.DiscardTop.Known, "the discard top is always face up")
}

func TestViewEncodesZeroValueFaceUpCards(t *testing.T) {
	redKing := &models.Card{ID: uuid.New(), Suit: "H", Rank: "K", Value: 0}
	r := showdownRoom(t, []int{5, 9}, 0, true)
	r.Players[0].Hand = []*models.Card{redKing}
	r.runShowdown()

	view := ViewFor(r, r.Players[1].ID)
	vc := view.Players[0].Hand[0]
	require.True(t, vc.Known)

	data, err := json.Marshal(vc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":0`, "a face-up zero is still a value on the wire")
}

func TestViewRevealsAllAtEnd(t *testing.T) {
	r := showdownRoom(t, []int{7, 5}, 0, true)
	r.runShowdown()

	view := ViewFor(r, uuid.New())
	assert.Equal(t, PhaseEnded, view.Phase)
	for _, vp := range view.Players {
		for _, vc := range vp.Hand {
			assert.True(t, vc.Known, "ended rooms are fully public")
		}
	}
	assert.Equal(t, []int{7, 5}, view.FinalTotals)
	require.NotNil(t, view.Winner)
}
