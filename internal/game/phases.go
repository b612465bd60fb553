// internal/game/phases.go
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/kaboom-gg/kaboom-service/internal/models"
)

// ApplyAction validates a player's intended action against the room
// snapshot and returns the updated room. It is a pure transition: the
// input room is never touched, every accepted mutation bumps Version by
// exactly one, and a rejected action returns a nil room — with one
// documented exception. A wrong-rank reaction is recorded as an
// implicit pass plus a penalty draw, so ErrNoMatch comes back alongside
// the penalized room and must be persisted.
//
// Deadlines are data, not timers: an expired reaction window is settled
// by the tick action, which callers issue while polling. A tick with
// nothing to settle returns the input room unchanged (same version) so
// pollers do not contend on writes.
func ApplyAction(r *Room, playerID uuid.UUID, action models.Action, now time.Time) (*Room, error) {
	if r.Phase == PhaseEnded {
		return nil, ErrRoomEnded
	}

	if action.Type == models.ActionTick {
		next := r.clone()
		changed, err := next.settleExpiredWindow(now)
		if err != nil {
			return nil, err
		}
		if !changed {
			return r, nil
		}
		next.Version++
		return next, nil
	}

	if r.playerIndex(playerID) < 0 {
		return nil, ErrUnknownPlayer
	}

	next := r.clone()
	var err error
	switch action.Type {
	case models.ActionStart:
		err = next.handleStart(playerID)
	case models.ActionPeek:
		slot, ok := action.Slot()
		if !ok {
			return nil, ErrInvalidSlot
		}
		err = next.handlePeek(playerID, slot)
	case models.ActionPeekDone:
		err = next.handlePeekDone(playerID)
	case models.ActionDraw:
		err = next.handleDraw(playerID)
	case models.ActionSwap:
		slot, ok := action.Slot()
		if !ok {
			return nil, ErrInvalidSlot
		}
		err = next.handleSwap(playerID, slot, now)
	case models.ActionDiscardDrawn:
		err = next.handleDiscardDrawn(playerID, now)
	case models.ActionReactMatch:
		slot, ok := action.Slot()
		if !ok {
			return nil, ErrInvalidSlot
		}
		err = next.handleReactMatch(playerID, slot, now)
	case models.ActionReactSteal:
		targetSeat, ok := action.Int("targetSeat")
		if !ok {
			return nil, ErrInvalidSeat
		}
		targetSlot, ok := action.Int("targetSlot")
		if !ok {
			return nil, ErrInvalidSlot
		}
		giveSlot, ok := action.Int("giveSlot")
		if !ok {
			return nil, ErrInvalidSlot
		}
		err = next.handleReactSteal(playerID, targetSeat, targetSlot, giveSlot, now)
	case models.ActionReactPass:
		err = next.handleReactPass(playerID, now)
	case models.ActionKaboom:
		err = next.handleKaboom(playerID)
	default:
		return nil, ErrUnknownAction
	}

	if err != nil && err != ErrNoMatch {
		return nil, err
	}
	next.Version++
	return next, err
}

// handleStart deals the round once every seat is filled. Host only.
func (r *Room) handleStart(playerID uuid.UUID) error {
	if r.Phase != PhaseLobby {
		return ErrRoomAlreadyStarted
	}
	if len(r.Players) == 0 || r.Players[0].ID != playerID {
		return ErrNotYourTurn
	}
	if len(r.Players) != r.Config.PlayerCount {
		return ErrRoomNotFull
	}

	shuffleCards(r.Deck, r.ShuffleSeed)
	for i := 0; i < r.Config.HandSize; i++ {
		for _, p := range r.Players {
			card, err := r.drawTop()
			if err != nil {
				return err
			}
			p.Hand = append(p.Hand, card)
		}
	}
	r.Phase = PhasePeek
	r.ActiveIndex = 0
	return nil
}

// handlePeek reveals one of the active player's own still-unseen slots
// during the pre-round peek phase, spending one point of budget. The
// peek turn ends automatically when the budget runs out.
func (r *Room) handlePeek(playerID uuid.UUID, slot int) error {
	if r.Phase != PhasePeek {
		return ErrInvalidPhase
	}
	p := r.ActivePlayer()
	if p == nil || p.ID != playerID {
		return ErrNotYourTurn
	}
	if p.PeekBudget <= 0 {
		return ErrBudgetExhausted
	}
	if slot < 0 || slot >= len(p.Hand) {
		return ErrInvalidSlot
	}
	if p.HasPeeked(slot) {
		return ErrSlotAlreadyPeeked
	}

	p.PeekedSlots = append(p.PeekedSlots, slot)
	p.PeekBudget--
	r.PeekLog = append(r.PeekLog, PeekEvent{PlayerID: p.ID, Slot: slot})
	if p.PeekBudget == 0 {
		r.advancePeekTurn()
	}
	return nil
}

// handlePeekDone ends the active player's peek turn early.
func (r *Room) handlePeekDone(playerID uuid.UUID) error {
	if r.Phase != PhasePeek {
		return ErrInvalidPhase
	}
	p := r.ActivePlayer()
	if p == nil || p.ID != playerID {
		return ErrNotYourTurn
	}
	r.advancePeekTurn()
	return nil
}

// advancePeekTurn marks the current seat's mandatory peek as taken and
// moves on. Once the last seat finishes, the main phase opens with the
// turn pointer back on seat 0: the host leads the first draw.
func (r *Room) advancePeekTurn() {
	r.ActivePlayer().PeekDone = true
	if r.ActiveIndex == len(r.Players)-1 {
		r.Phase = PhaseMain
		r.ActiveIndex = 0
		return
	}
	r.ActiveIndex++
}

// handleDraw takes the top deck card into the active player's pending
// slot. Reshuffle on an empty deck happens inside drawTop and is never
// visible to the caller.
func (r *Room) handleDraw(playerID uuid.UUID) error {
	if r.Phase != PhaseMain {
		return ErrInvalidPhase
	}
	p := r.ActivePlayer()
	if p == nil || p.ID != playerID {
		return ErrNotYourTurn
	}
	if r.DrawnCard != nil {
		return ErrAlreadyDrawn
	}
	card, err := r.drawTop()
	if err != nil {
		return err
	}
	r.DrawnCard = card
	return nil
}

// handleSwap exchanges the pending drawn card with a hand slot and
// discards the displaced card, opening a reaction window on it.
func (r *Room) handleSwap(playerID uuid.UUID, slot int, now time.Time) error {
	if r.Phase != PhaseMain {
		return ErrInvalidPhase
	}
	p := r.ActivePlayer()
	if p == nil || p.ID != playerID {
		return ErrNotYourTurn
	}
	if r.DrawnCard == nil {
		return ErrNothingDrawn
	}
	if slot < 0 || slot >= len(p.Hand) {
		return ErrInvalidSlot
	}

	displaced := p.Hand[slot]
	p.Hand[slot] = r.DrawnCard
	r.DrawnCard = nil
	r.discard(displaced)
	r.openWindow(displaced, p.ID, now)
	return nil
}

// handleDiscardDrawn discards the pending drawn card without touching
// the hand, opening a reaction window on it.
func (r *Room) handleDiscardDrawn(playerID uuid.UUID, now time.Time) error {
	if r.Phase != PhaseMain {
		return ErrInvalidPhase
	}
	p := r.ActivePlayer()
	if p == nil || p.ID != playerID {
		return ErrNotYourTurn
	}
	if r.DrawnCard == nil {
		return ErrNothingDrawn
	}

	card := r.DrawnCard
	r.DrawnCard = nil
	r.discard(card)
	r.openWindow(card, p.ID, now)
	return nil
}

// handleKaboom lets the active player end the round in place of
// drawing. Every other seat gets exactly one more turn, tracked by the
// final-turn counter; one call per room.
func (r *Room) handleKaboom(playerID uuid.UUID) error {
	if r.Phase != PhaseMain {
		return ErrInvalidPhase
	}
	p := r.ActivePlayer()
	if p == nil || p.ID != playerID {
		return ErrNotYourTurn
	}
	if r.DrawnCard != nil {
		return ErrAlreadyDrawn
	}
	if r.KaboomCaller != nil {
		return ErrKaboomCalled
	}

	caller := r.ActiveIndex
	r.KaboomCaller = &caller
	r.FinalTurns = len(r.Players) - 1
	r.ActiveIndex = (r.ActiveIndex + 1) % len(r.Players)
	return nil
}

// completeTurn runs after a reaction window resolves: the turn that
// produced the discard is over. During the kaboom endgame each
// completion consumes one final turn; when the counter empties, the
// round goes to showdown.
func (r *Room) completeTurn() error {
	if r.KaboomCaller != nil {
		r.FinalTurns--
		if r.FinalTurns <= 0 {
			r.runShowdown()
			return nil
		}
	}
	r.ActiveIndex = (r.ActiveIndex + 1) % len(r.Players)
	return nil
}

// endInstantWin ends the round immediately for a seat that shed its
// last card during a reaction window. Totals are recorded as they
// stand; the winner's empty hand scores zero.
func (r *Room) endInstantWin(seat int) {
	totals := make([]int, len(r.Players))
	for i, p := range r.Players {
		totals[i] = p.HandTotal()
		p.Score += totals[i]
	}
	r.FinalTotals = totals
	r.Window = nil
	r.InstantWin = true
	r.Winner = &seat
	r.Phase = PhaseEnded
}
