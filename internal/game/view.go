// internal/game/view.go
package game

import (
	"time"

	"github.com/google/uuid"
)

// ViewCard is a hand or pile slot as one player is allowed to see it.
// Known=false slots carry the card identity only, never rank or value.
// Value stays in the encoding even at zero: red kings and jokers are
// legitimately worth 0 when face up, and Known is the only signal for
// whether the field is meaningful.
type ViewCard struct {
	ID    uuid.UUID `json:"id"`
	Known bool      `json:"known"`
	Rank  string    `json:"rank,omitempty"`
	Suit  string    `json:"suit,omitempty"`
	Value int       `json:"value"`
	Slot  int       `json:"slot"`
}

// ViewPlayer is one seat from the perspective of the requesting player.
type ViewPlayer struct {
	PlayerID     uuid.UUID  `json:"playerId"`
	Name         string     `json:"name"`
	HandSize     int        `json:"handSize"`
	Hand         []ViewCard `json:"hand,omitempty"`
	PeekBudget   int        `json:"peekBudget"`
	PeekDone     bool       `json:"peekDone"`
	Score        int        `json:"score"`
	IsActiveTurn bool       `json:"isActiveTurn"`
	HasDrawn     bool       `json:"hasDrawn,omitempty"`
}

// ViewWindow mirrors the open reaction window; the trigger card is
// public since it sits face up on the discard pile.
type ViewWindow struct {
	Trigger     ViewCard    `json:"trigger"`
	TriggeredBy uuid.UUID   `json:"triggeredBy"`
	Responded   []uuid.UUID `json:"responded,omitempty"`
	Deadline    time.Time   `json:"deadline"`
}

// RoomView is the per-player projection of the room: everything a
// well-behaved renderer may show. The raw room record never crosses
// this boundary.
type RoomView struct {
	Code         string       `json:"code"`
	Phase        Phase        `json:"phase"`
	Version      uint64       `json:"version"`
	ActiveIndex  int          `json:"activeIndex"`
	Players      []ViewPlayer `json:"players"`
	DeckSize     int          `json:"deckSize"`
	DiscardSize  int          `json:"discardSize"`
	DiscardTop   *ViewCard    `json:"discardTop,omitempty"`
	DrawnCard    *ViewCard    `json:"drawnCard,omitempty"`
	Window       *ViewWindow  `json:"window,omitempty"`
	KaboomCaller *int         `json:"kaboomCaller,omitempty"`
	FinalTurns   int          `json:"finalTurns,omitempty"`
	Winner       *int         `json:"winner,omitempty"`
	FinalTotals  []int        `json:"finalTotals,omitempty"`
	InstantWin   bool         `json:"instantWin,omitempty"`
	PeekLog      []PeekEvent  `json:"peekLog,omitempty"`
}

// ViewFor produces the redacted projection for one player. Own slots
// are visible only while the owner is peeking them in the peek phase;
// from the main phase on, every face-down slot is a placeholder even
// for its owner. All hands become public only once the room has ended.
func ViewFor(r *Room, playerID uuid.UUID) RoomView {
	allVisible := r.Phase == PhaseShowdown || r.Phase == PhaseEnded

	view := RoomView{
		Code:         r.Code,
		Phase:        r.Phase,
		Version:      r.Version,
		ActiveIndex:  r.ActiveIndex,
		DeckSize:     len(r.Deck),
		DiscardSize:  len(r.DiscardPile),
		KaboomCaller: r.KaboomCaller,
		FinalTurns:   r.FinalTurns,
		Winner:       r.Winner,
		FinalTotals:  append([]int(nil), r.FinalTotals...),
		InstantWin:   r.InstantWin,
		PeekLog:      append([]PeekEvent(nil), r.PeekLog...),
	}

	if top := r.PeekTopDiscard(); top != nil {
		view.DiscardTop = &ViewCard{
			ID: top.ID, Known: true, Rank: top.Rank, Suit: top.Suit, Value: top.Value,
		}
	}

	for i, p := range r.Players {
		vp := ViewPlayer{
			PlayerID:     p.ID,
			Name:         p.Name,
			HandSize:     len(p.Hand),
			PeekBudget:   p.PeekBudget,
			PeekDone:     p.PeekDone,
			Score:        p.Score,
			IsActiveTurn: i == r.ActiveIndex,
		}
		for slot, c := range p.Hand {
			vc := ViewCard{ID: c.ID, Slot: slot}
			switch {
			case allVisible:
				vc.Known, vc.Rank, vc.Suit, vc.Value = true, c.Rank, c.Suit, c.Value
			case p.ID == playerID && r.Phase == PhasePeek && p.HasPeeked(slot):
				vc.Known, vc.Rank, vc.Suit, vc.Value = true, c.Rank, c.Suit, c.Value
			}
			vp.Hand = append(vp.Hand, vc)
		}
		if i == r.ActiveIndex && r.DrawnCard != nil {
			vp.HasDrawn = true
		}
		view.Players = append(view.Players, vp)
	}

	if r.DrawnCard != nil {
		vc := ViewCard{ID: r.DrawnCard.ID}
		if active := r.ActivePlayer(); active != nil && active.ID == playerID {
			vc.Known = true
			vc.Rank, vc.Suit, vc.Value = r.DrawnCard.Rank, r.DrawnCard.Suit, r.DrawnCard.Value
		}
		view.DrawnCard = &vc
	}

	if r.Window != nil && !r.Window.Resolved {
		view.Window = &ViewWindow{
			Trigger: ViewCard{
				ID:    r.Window.Trigger.ID,
				Known: true,
				Rank:  r.Window.Trigger.Rank,
				Suit:  r.Window.Trigger.Suit,
				Value: r.Window.Trigger.Value,
			},
			TriggeredBy: r.Window.TriggeredBy,
			Responded:   append([]uuid.UUID(nil), r.Window.Responded...),
			Deadline:    r.Window.Deadline,
		}
	}

	return view
}
