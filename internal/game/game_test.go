// internal/game/game_test.go
package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaboom-gg/kaboom-service/internal/models"
)

// setupTestRoom creates a full lobby of numPlayers seats.
func setupTestRoom(t *testing.T, numPlayers int) (*Room, []uuid.UUID) {
	t.Helper()
	cfg := models.DefaultRoomConfig(numPlayers)
	r, err := NewRoom("test", cfg, 99, time.Now())
	require.NoError(t, err)

	ids := make([]uuid.UUID, numPlayers)
	for i := 0; i < numPlayers; i++ {
		next, p, err := Join(r, "player")
		require.NoError(t, err)
		r = next
		ids[i] = p.ID
	}
	return r, ids
}

// startRound starts the room and skips the peek phase for every seat.
func startRound(t *testing.T, r *Room, ids []uuid.UUID, now time.Time) *Room {
	t.Helper()
	next, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionStart}, now)
	require.NoError(t, err)
	for _, id := range ids {
		next, err = ApplyAction(next, id, models.Action{Type: models.ActionPeekDone}, now)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseMain, next.Phase)
	require.Equal(t, 0, next.ActiveIndex)
	return next
}

func act(typ string, slot int) models.Action {
	return models.Action{Type: typ, Payload: map[string]interface{}{"slot": slot}}
}

func TestJoinLifecycle(t *testing.T) {
	cfg := models.DefaultRoomConfig(2)
	r, err := NewRoom("test", cfg, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Version)

	r1, _, err := Join(r, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r1.Version)
	assert.Len(t, r.Players, 0, "input room is untouched")

	r2, _, err := Join(r1, "bob")
	require.NoError(t, err)

	_, _, err = Join(r2, "carol")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestLeaveLobbyPromotesNextHost(t *testing.T) {
	cfg := models.DefaultRoomConfig(3)
	r, err := NewRoom("test", cfg, 1, time.Now())
	require.NoError(t, err)

	r, host, err := Join(r, "alice")
	require.NoError(t, err)
	r, second, err := Join(r, "bob")
	require.NoError(t, err)

	next, err := Leave(r, host.ID)
	require.NoError(t, err)
	require.Len(t, next.Players, 1)
	assert.Equal(t, second.ID, next.Players[0].ID, "next joiner takes seat 0")
	assert.Equal(t, r.Version+1, next.Version)
	assert.Len(t, r.Players, 2, "input room is untouched")

	// A re-seated host may start once the room refills.
	next, _, err = Join(next, "carol")
	require.NoError(t, err)
	next, _, err = Join(next, "dave")
	require.NoError(t, err)
	_, err = ApplyAction(next, second.ID, models.Action{Type: models.ActionStart}, time.Now())
	assert.NoError(t, err)
}

func TestLeaveCanEmptyRoom(t *testing.T) {
	cfg := models.DefaultRoomConfig(2)
	r, err := NewRoom("test", cfg, 1, time.Now())
	require.NoError(t, err)
	r, solo, err := Join(r, "alice")
	require.NoError(t, err)

	next, err := Leave(r, solo.ID)
	require.NoError(t, err)
	assert.Empty(t, next.Players)
}

func TestLeaveRejectedOutsideLobby(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	started, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionStart}, now)
	require.NoError(t, err)

	_, err = Leave(started, ids[1])
	assert.ErrorIs(t, err, ErrRoomAlreadyStarted)

	_, err = Leave(r, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestResetStartsNewRoundKeepingScores(t *testing.T) {
	r := showdownRoom(t, []int{7, 5, 9}, 2, true)
	r.runShowdown()
	require.Equal(t, PhaseEnded, r.Phase)
	hostID := r.Players[0].ID

	_, err := Reset(r, r.Players[1].ID, 77)
	assert.ErrorIs(t, err, ErrNotYourTurn, "only the host resets")

	next, err := Reset(r, hostID, 77)
	require.NoError(t, err)

	assert.Equal(t, PhaseLobby, next.Phase)
	assert.Len(t, next.Deck, 52)
	assert.Empty(t, next.DiscardPile)
	assert.Nil(t, next.KaboomCaller)
	assert.Nil(t, next.Winner)
	assert.Nil(t, next.Window)
	assert.False(t, next.InstantWin)
	assert.Equal(t, int64(77), next.ShuffleSeed)
	assert.Equal(t, r.Version+1, next.Version)
	for i, p := range next.Players {
		assert.Empty(t, p.Hand)
		assert.Equal(t, next.Config.PeekBudget, p.PeekBudget)
		assert.False(t, p.PeekDone)
		assert.Equal(t, r.Players[i].Score, p.Score, "cumulative scores survive the reset")
	}

	_, err = Reset(next, hostID, 78)
	assert.ErrorIs(t, err, ErrInvalidPhase, "only ended rooms reset")
}

func TestStartRequiresHostAndFullRoom(t *testing.T) {
	r, ids := setupTestRoom(t, 3)
	now := time.Now()

	_, err := ApplyAction(r, ids[1], models.Action{Type: models.ActionStart}, now)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	partial, pids := func() (*Room, []uuid.UUID) {
		cfg := models.DefaultRoomConfig(3)
		room, err := NewRoom("partial", cfg, 1, now)
		require.NoError(t, err)
		room, p, err := Join(room, "solo")
		require.NoError(t, err)
		return room, []uuid.UUID{p.ID}
	}()
	_, err = ApplyAction(partial, pids[0], models.Action{Type: models.ActionStart}, now)
	assert.ErrorIs(t, err, ErrRoomNotFull)

	_, err = ApplyAction(r, uuid.New(), models.Action{Type: models.ActionStart}, now)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestStartDealsHands(t *testing.T) {
	r, ids := setupTestRoom(t, 3)
	now := time.Now()

	started, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionStart}, now)
	require.NoError(t, err)

	assert.Equal(t, PhasePeek, started.Phase)
	assert.Equal(t, 0, started.ActiveIndex)
	for _, p := range started.Players {
		assert.Len(t, p.Hand, 4)
		assert.Equal(t, 2, p.PeekBudget)
	}
	assert.Equal(t, 52, started.CardCount())
	assert.Equal(t, r.Version+1, started.Version)

	// Same seed deals the same hands.
	again, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionStart}, now)
	require.NoError(t, err)
	for i := range started.Players {
		for slot := range started.Players[i].Hand {
			assert.Equal(t, started.Players[i].Hand[slot].ID, again.Players[i].Hand[slot].ID)
		}
	}
}

func TestPeekBudgetAndTurnOrder(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	r, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionStart}, now)
	require.NoError(t, err)

	_, err = ApplyAction(r, ids[1], act(models.ActionPeek, 0), now)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	r, err = ApplyAction(r, ids[0], act(models.ActionPeek, 0), now)
	require.NoError(t, err)
	assert.True(t, r.Players[0].HasPeeked(0))
	require.Len(t, r.PeekLog, 1)
	assert.Equal(t, 0, r.PeekLog[0].Slot)

	_, err = ApplyAction(r, ids[0], act(models.ActionPeek, 0), now)
	assert.ErrorIs(t, err, ErrSlotAlreadyPeeked)

	_, err = ApplyAction(r, ids[0], act(models.ActionPeek, 9), now)
	assert.ErrorIs(t, err, ErrInvalidSlot)

	// Second peek exhausts the budget and auto-advances the turn.
	r, err = ApplyAction(r, ids[0], act(models.ActionPeek, 1), now)
	require.NoError(t, err)
	assert.True(t, r.Players[0].PeekDone)
	assert.Equal(t, 1, r.ActiveIndex)

	_, err = ApplyAction(r, ids[1], act(models.ActionPeek, 2), now)
	require.NoError(t, err)

	// Ending the last seat's peek turn opens the main phase on seat 0.
	r, err = ApplyAction(r, ids[1], models.Action{Type: models.ActionPeekDone}, now)
	require.NoError(t, err)
	assert.Equal(t, PhaseMain, r.Phase)
	assert.Equal(t, 0, r.ActiveIndex)
}

func TestDrawSwapDiscardFlow(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	r = startRound(t, r, ids, now)

	_, err := ApplyAction(r, ids[0], act(models.ActionSwap, 0), now)
	assert.ErrorIs(t, err, ErrNothingDrawn)

	r, err = ApplyAction(r, ids[0], models.Action{Type: models.ActionDraw}, now)
	require.NoError(t, err)
	require.NotNil(t, r.DrawnCard)
	assert.Equal(t, 52, r.CardCount())

	_, err = ApplyAction(r, ids[0], models.Action{Type: models.ActionDraw}, now)
	assert.ErrorIs(t, err, ErrAlreadyDrawn)

	displaced := r.Players[0].Hand[1]
	drawn := r.DrawnCard
	r, err = ApplyAction(r, ids[0], act(models.ActionSwap, 1), now)
	require.NoError(t, err)

	assert.Same(t, drawn, r.Players[0].Hand[1])
	assert.Same(t, displaced, r.PeekTopDiscard())
	assert.Nil(t, r.DrawnCard)
	assert.Equal(t, PhaseReaction, r.Phase)
	require.NotNil(t, r.Window)
	assert.Same(t, displaced, r.Window.Trigger)
	assert.Equal(t, 52, r.CardCount())

	// Both seats pass; the turn moves to seat 1.
	r, err = ApplyAction(r, ids[0], models.Action{Type: models.ActionReactPass}, now)
	require.NoError(t, err)
	r, err = ApplyAction(r, ids[1], models.Action{Type: models.ActionReactPass}, now)
	require.NoError(t, err)
	assert.Nil(t, r.Window)
	assert.Equal(t, PhaseMain, r.Phase)
	assert.Equal(t, 1, r.ActiveIndex)
}

func TestDiscardDrawnOpensWindow(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	r = startRound(t, r, ids, now)

	r, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionDraw}, now)
	require.NoError(t, err)
	drawn := r.DrawnCard

	r, err = ApplyAction(r, ids[0], models.Action{Type: models.ActionDiscardDrawn}, now)
	require.NoError(t, err)
	assert.Same(t, drawn, r.PeekTopDiscard())
	assert.Len(t, r.Players[0].Hand, 4)
	assert.Equal(t, PhaseReaction, r.Phase)
}

func TestTickWithoutWindowIsNoop(t *testing.T) {
	r, ids := setupTestRoom(t, 2)
	now := time.Now()
	r = startRound(t, r, ids, now)

	same, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionTick}, now)
	require.NoError(t, err)
	assert.Equal(t, r.Version, same.Version)
}

func TestActionsRejectedAfterEnd(t *testing.T) {
	r, _ := setupTestRoom(t, 2)
	r.Phase = PhaseEnded

	_, err := ApplyAction(r, r.Players[0].ID, models.Action{Type: models.ActionDraw}, time.Now())
	assert.ErrorIs(t, err, ErrRoomEnded)

	_, _, err = Join(r, "late")
	assert.ErrorIs(t, err, ErrRoomEnded)
}

// endgameRoom builds a main-phase room with fixed hands so showdown
// totals are exact: seat 0 totals 7, seat 1 totals 5, seat 2 totals 9.
func endgameRoom(t *testing.T) (*Room, []uuid.UUID) {
	t.Helper()
	cfg := models.DefaultRoomConfig(3)
	r, err := NewRoom("endgame", cfg, 5, time.Now())
	require.NoError(t, err)

	hands := [][]*models.Card{
		{testCard("2", 2), testCard("5", 5)},
		{testCard("A", 1), testCard("4", 4)},
		{testCard("3", 3), testCard("6", 6)},
	}
	ids := make([]uuid.UUID, 3)
	players := make([]*models.Player, 3)
	for i, hand := range hands {
		id := uuid.New()
		ids[i] = id
		players[i] = &models.Player{ID: id, Name: "p", Hand: hand, PeekDone: true}
	}
	r.Players = players
	r.Phase = PhaseMain
	r.Version = 10
	return r, ids
}

func TestKaboomEndgame(t *testing.T) {
	r, ids := endgameRoom(t)
	base := time.Now()
	r.ActiveIndex = 2

	r, err := ApplyAction(r, ids[2], models.Action{Type: models.ActionKaboom}, base)
	require.NoError(t, err)
	require.NotNil(t, r.KaboomCaller)
	assert.Equal(t, 2, *r.KaboomCaller)
	assert.Equal(t, 2, r.FinalTurns)
	assert.Equal(t, 0, r.ActiveIndex)

	_, err = ApplyAction(r, ids[0], models.Action{Type: models.ActionKaboom}, base)
	assert.ErrorIs(t, err, ErrKaboomCalled)

	// Each remaining seat takes exactly one final turn: draw, discard,
	// everyone lets the window lapse.
	for _, seat := range []int{0, 1} {
		r, err = ApplyAction(r, ids[seat], models.Action{Type: models.ActionDraw}, base)
		require.NoError(t, err)
		r, err = ApplyAction(r, ids[seat], models.Action{Type: models.ActionDiscardDrawn}, base)
		require.NoError(t, err)
		expired := base.Add(16 * time.Second)
		r, err = ApplyAction(r, ids[seat], models.Action{Type: models.ActionTick}, expired)
		require.NoError(t, err)
	}

	require.Equal(t, PhaseEnded, r.Phase)
	assert.Equal(t, []int{7, 5, 9}, r.FinalTotals)
	require.NotNil(t, r.Winner)
	assert.Equal(t, 1, *r.Winner, "lowest total wins, caller missed")
	assert.Equal(t, 7, r.Players[0].Score)
	assert.Equal(t, 5, r.Players[1].Score)
	assert.Equal(t, 9+r.Config.CallerPenalty, r.Players[2].Score, "caller total plus penalty")
}

func TestKaboomRequiresNoPendingDraw(t *testing.T) {
	r, ids := endgameRoom(t)
	now := time.Now()

	r, err := ApplyAction(r, ids[0], models.Action{Type: models.ActionDraw}, now)
	require.NoError(t, err)
	_, err = ApplyAction(r, ids[0], models.Action{Type: models.ActionKaboom}, now)
	assert.ErrorIs(t, err, ErrAlreadyDrawn)
}
