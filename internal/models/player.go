package models

import "github.com/google/uuid"

// Player is one seat in a room. The ID is stable and distinct from the
// display name; seat order in the room's player list is turn order.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// Hand is the ordered set of face-down card slots.
	Hand []*Card `json:"hand"`

	// PeekBudget counts how many of their own cards this player may
	// still look at before the main phase. Never negative.
	PeekBudget int `json:"peekBudget"`

	// PeekedSlots are the slot indices this player has privately seen
	// during the peek phase.
	PeekedSlots []int `json:"peekedSlots,omitempty"`

	// PeekDone marks the mandatory pre-round peek turn as taken.
	PeekDone bool `json:"peekDone"`

	// Score accumulates across rounds; showdown adds the hand total and
	// any caller penalty.
	Score int `json:"score"`
}

// HasPeeked reports whether the player already looked at the given slot.
func (p *Player) HasPeeked(slot int) bool {
	for _, s := range p.PeekedSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// HandTotal sums the scoring values of every card left in the hand.
func (p *Player) HandTotal() int {
	total := 0
	for _, c := range p.Hand {
		total += c.Value
	}
	return total
}
