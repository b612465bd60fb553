// internal/game/reaction.go
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/kaboom-gg/kaboom-service/internal/models"
)

// ReactionWindow is the bounded opportunity, opened after any discard,
// for eligible seats to play a matching-rank card. It is an explicit
// fan-in data structure — eligible set, responded set, deadline —
// rather than blocking code, so resolution is a pure fold over the
// responses observed so far plus a deadline check.
type ReactionWindow struct {
	// Trigger is the discarded card that opened the window; it sits on
	// top of the discard pile.
	Trigger     *models.Card `json:"trigger"`
	TriggeredBy uuid.UUID    `json:"triggeredBy"`

	// Eligible holds every seat, the discarder included (house rule).
	Eligible  []uuid.UUID `json:"eligible"`
	Responded []uuid.UUID `json:"responded,omitempty"`
	Matched   []uuid.UUID `json:"matched,omitempty"`

	// MatchConsumed is set once a valid match lands under the "first"
	// policy; later valid matches resolve as no-ops.
	MatchConsumed bool `json:"matchConsumed"`

	OpenedAt time.Time `json:"openedAt"`
	Deadline time.Time `json:"deadline"`
	Resolved bool      `json:"resolved"`
}

func (w *ReactionWindow) clone() *ReactionWindow {
	next := *w
	next.Eligible = append([]uuid.UUID(nil), w.Eligible...)
	next.Responded = append([]uuid.UUID(nil), w.Responded...)
	next.Matched = append([]uuid.UUID(nil), w.Matched...)
	return &next
}

// HasResponded reports whether the seat already accepted or passed.
func (w *ReactionWindow) HasResponded(id uuid.UUID) bool {
	for _, r := range w.Responded {
		if r == id {
			return true
		}
	}
	return false
}

// AllResponded reports whether every eligible seat has responded.
func (w *ReactionWindow) AllResponded() bool {
	return len(w.Responded) >= len(w.Eligible)
}

// Expired reports whether the deadline has elapsed.
func (w *ReactionWindow) Expired(now time.Time) bool {
	return now.After(w.Deadline)
}

// openWindow starts a reaction window for a freshly discarded card and
// moves the room into the reaction phase.
func (r *Room) openWindow(trigger *models.Card, triggeredBy uuid.UUID, now time.Time) {
	eligible := make([]uuid.UUID, len(r.Players))
	for i, p := range r.Players {
		eligible[i] = p.ID
	}
	r.Window = &ReactionWindow{
		Trigger:     trigger,
		TriggeredBy: triggeredBy,
		Eligible:    eligible,
		OpenedAt:    now,
		Deadline:    now.Add(time.Duration(r.Config.ReactionWindowMs) * time.Millisecond),
	}
	r.Phase = PhaseReaction
}

// handleReactPass records an explicit pass. Resolves the window once
// the last eligible seat has responded.
func (r *Room) handleReactPass(playerID uuid.UUID, now time.Time) error {
	if err := r.checkRespond(playerID, now); err != nil {
		return err
	}
	r.Window.Responded = append(r.Window.Responded, playerID)
	return r.maybeResolveWindow()
}

// handleReactMatch attempts to play the card at the given hand slot
// against the trigger rank. A wrong rank is the one validation error
// that mutates: it records an implicit pass and draws a penalty card
// into the offender's hand, then still reports ErrNoMatch. A valid
// match after the window's opportunity is consumed (first-match policy)
// records a pass without moving a card.
func (r *Room) handleReactMatch(playerID uuid.UUID, slot int, now time.Time) error {
	if err := r.checkRespond(playerID, now); err != nil {
		return err
	}
	idx := r.playerIndex(playerID)
	p := r.Players[idx]
	if slot < 0 || slot >= len(p.Hand) {
		return ErrInvalidSlot
	}

	card := p.Hand[slot]
	if !card.Matches(r.Window.Trigger) {
		r.Window.Responded = append(r.Window.Responded, playerID)
		penalty, err := r.drawTop()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, penalty)
		if rerr := r.maybeResolveWindow(); rerr != nil {
			return rerr
		}
		return ErrNoMatch
	}

	r.Window.Responded = append(r.Window.Responded, playerID)
	if r.Config.MatchPolicy == models.MatchFirst && r.Window.MatchConsumed {
		// The discard slot is already taken; a late valid match is a no-op.
		return r.maybeResolveWindow()
	}

	p.Hand = append(p.Hand[:slot], p.Hand[slot+1:]...)
	r.discard(card)
	r.Window.Matched = append(r.Window.Matched, playerID)
	r.Window.MatchConsumed = true

	if len(p.Hand) == 0 {
		// Shedding the last card ends the round on the spot.
		r.endInstantWin(idx)
		return nil
	}
	return r.maybeResolveWindow()
}

// handleReactSteal discards an opponent's matching card and hands the
// opponent one of the reactor's own cards in exchange. The opponent's
// hand size is unchanged; the reactor sheds one card, so emptying the
// hand this way still ends the round on the spot. Naming a target card
// of the wrong rank costs the same penalty as a wrong own-card match.
func (r *Room) handleReactSteal(playerID uuid.UUID, targetSeat, targetSlot, giveSlot int, now time.Time) error {
	if !r.Config.AllowSteal {
		return ErrStealDisabled
	}
	if err := r.checkRespond(playerID, now); err != nil {
		return err
	}
	idx := r.playerIndex(playerID)
	p := r.Players[idx]
	if targetSeat < 0 || targetSeat >= len(r.Players) || targetSeat == idx {
		return ErrInvalidSeat
	}
	target := r.Players[targetSeat]
	if targetSlot < 0 || targetSlot >= len(target.Hand) {
		return ErrInvalidSlot
	}
	if giveSlot < 0 || giveSlot >= len(p.Hand) {
		return ErrInvalidSlot
	}

	stolen := target.Hand[targetSlot]
	if !stolen.Matches(r.Window.Trigger) {
		r.Window.Responded = append(r.Window.Responded, playerID)
		penalty, err := r.drawTop()
		if err != nil {
			return err
		}
		p.Hand = append(p.Hand, penalty)
		if rerr := r.maybeResolveWindow(); rerr != nil {
			return rerr
		}
		return ErrNoMatch
	}

	r.Window.Responded = append(r.Window.Responded, playerID)
	if r.Config.MatchPolicy == models.MatchFirst && r.Window.MatchConsumed {
		return r.maybeResolveWindow()
	}

	target.Hand = append(target.Hand[:targetSlot], target.Hand[targetSlot+1:]...)
	r.discard(stolen)
	given := p.Hand[giveSlot]
	p.Hand = append(p.Hand[:giveSlot], p.Hand[giveSlot+1:]...)
	target.Hand = append(target.Hand, given)
	r.Window.Matched = append(r.Window.Matched, playerID)
	r.Window.MatchConsumed = true

	if len(p.Hand) == 0 {
		r.endInstantWin(idx)
		return nil
	}
	return r.maybeResolveWindow()
}

// checkRespond validates that a seat may respond to the open window.
func (r *Room) checkRespond(playerID uuid.UUID, now time.Time) error {
	if r.Window == nil || r.Window.Resolved {
		return ErrWindowClosed
	}
	if r.Window.Expired(now) {
		// Settlement of an expired window happens through the tick
		// action, never as a side effect of a rejected response.
		return ErrWindowClosed
	}
	if r.playerIndex(playerID) < 0 {
		return ErrUnknownPlayer
	}
	if r.Window.HasResponded(playerID) {
		return ErrAlreadyResponded
	}
	return nil
}

// maybeResolveWindow resolves once every eligible seat has responded.
func (r *Room) maybeResolveWindow() error {
	if r.Window != nil && !r.Window.Resolved && r.Window.AllResponded() {
		return r.resolveWindow()
	}
	return nil
}

// settleExpiredWindow treats every silent seat as an implicit pass once
// the deadline has elapsed, then resolves. Reports whether anything
// changed, so a no-op tick does not bump the version.
func (r *Room) settleExpiredWindow(now time.Time) (bool, error) {
	if r.Window == nil || r.Window.Resolved || !r.Window.Expired(now) {
		return false, nil
	}
	for _, id := range r.Window.Eligible {
		if !r.Window.HasResponded(id) {
			r.Window.Responded = append(r.Window.Responded, id)
		}
	}
	return true, r.resolveWindow()
}

// resolveWindow closes the window, returns the room to the main phase
// and hands the turn to the next seat (or into showdown when the
// kaboom final-turn counter runs out).
func (r *Room) resolveWindow() error {
	r.Window.Resolved = true
	r.Window = nil
	r.Phase = PhaseMain
	return r.completeTurn()
}
