// internal/game/room.go
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/kaboom-gg/kaboom-service/internal/models"
)

// Phase is the room's position in the round state machine.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePeek     Phase = "peek"
	PhaseMain     Phase = "main"
	PhaseReaction Phase = "reaction"
	PhaseShowdown Phase = "showdown"
	PhaseEnded    Phase = "ended"
)

// PeekEvent records that a seat looked at one of its own slots. Indices
// only; card values never enter the log.
type PeekEvent struct {
	PlayerID uuid.UUID `json:"playerId"`
	Slot     int       `json:"slot"`
}

// Room is the single unit of atomic mutation: every card, seat and
// phase of one game, serializable as one record. The engine never
// mutates a Room it was handed; ApplyAction clones first, so callers
// can retry a rejected action against a fresh read.
type Room struct {
	Code   string            `json:"code"`
	Config models.RoomConfig `json:"config"`
	Phase  Phase             `json:"phase"`

	// Players in seat order; seat order is turn order.
	Players []*models.Player `json:"players"`

	Deck        []*models.Card `json:"deck"`
	DiscardPile []*models.Card `json:"discardPile"`

	// ActiveIndex is the seat whose turn (or peek turn) it is.
	ActiveIndex int `json:"activeIndex"`

	// DrawnCard is the active player's pending draw, not yet swapped or
	// discarded. It lives outside deck, hands and discard while pending.
	DrawnCard *models.Card `json:"drawnCard,omitempty"`

	// KaboomCaller is the seat that called kaboom, nil before the call.
	// FinalTurns counts the remaining one-per-seat final turns.
	KaboomCaller *int `json:"kaboomCaller,omitempty"`
	FinalTurns   int  `json:"finalTurns"`

	Window *ReactionWindow `json:"window,omitempty"`

	PeekLog []PeekEvent `json:"peekLog,omitempty"`

	// Winner is set when the round ends; FinalTotals holds per-seat hand
	// totals from showdown. InstantWin marks a round ended by a reaction
	// match emptying a hand.
	Winner      *int  `json:"winner,omitempty"`
	FinalTotals []int `json:"finalTotals,omitempty"`
	InstantWin  bool  `json:"instantWin,omitempty"`

	// ShuffleSeed makes every shuffle a pure function of the record.
	ShuffleSeed int64 `json:"shuffleSeed"`
	Reshuffles  int   `json:"reshuffles"`

	// Version increases by one on every accepted mutation. The store
	// compares it to detect and reject stale concurrent writes.
	Version uint64 `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewRoom creates an empty lobby-phase room. Seats fill through Join;
// the first joiner is the host.
func NewRoom(code string, cfg models.RoomConfig, shuffleSeed int64, now time.Time) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Room{
		Code:        code,
		Config:      cfg,
		Phase:       PhaseLobby,
		Players:     []*models.Player{},
		Deck:        BuildDeck(cfg.Variant),
		DiscardPile: []*models.Card{},
		ShuffleSeed: shuffleSeed,
		CreatedAt:   now,
	}, nil
}

// Join seats a new player and returns the updated room plus the seat
// record. Fails once the room is full or the round has started; leaving
// mid-game is disallowed, so seats are never removed.
func Join(r *Room, displayName string) (*Room, *models.Player, error) {
	if r.Phase == PhaseEnded {
		return nil, nil, ErrRoomEnded
	}
	if r.Phase != PhaseLobby {
		return nil, nil, ErrRoomAlreadyStarted
	}
	if len(r.Players) >= r.Config.PlayerCount {
		return nil, nil, ErrRoomFull
	}
	next := r.clone()
	p := &models.Player{
		ID:         uuid.New(),
		Name:       displayName,
		Hand:       []*models.Card{},
		PeekBudget: r.Config.PeekBudget,
	}
	next.Players = append(next.Players, p)
	next.Version++
	return next, p, nil
}

// Leave removes a seat from a room that has not started. The host is
// always seat 0, so removing the host promotes the next joiner without
// any bookkeeping. Leaving mid-game stays disallowed; callers delete
// the room once the last seat leaves.
func Leave(r *Room, playerID uuid.UUID) (*Room, error) {
	if r.Phase == PhaseEnded {
		return nil, ErrRoomEnded
	}
	if r.Phase != PhaseLobby {
		return nil, ErrRoomAlreadyStarted
	}
	idx := r.playerIndex(playerID)
	if idx < 0 {
		return nil, ErrUnknownPlayer
	}
	next := r.clone()
	next.Players = append(next.Players[:idx], next.Players[idx+1:]...)
	next.Version++
	return next, nil
}

// Reset returns an ended room to the lobby for another round with the
// same seats. Hands, piles and round state are wiped; cumulative scores
// survive. Host only, and the new shuffle seed keeps the next deal
// independent of the last.
func Reset(r *Room, playerID uuid.UUID, shuffleSeed int64) (*Room, error) {
	if r.Phase != PhaseEnded {
		return nil, ErrInvalidPhase
	}
	if len(r.Players) == 0 || r.Players[0].ID != playerID {
		return nil, ErrNotYourTurn
	}
	next := r.clone()
	for _, p := range next.Players {
		p.Hand = []*models.Card{}
		p.PeekBudget = r.Config.PeekBudget
		p.PeekedSlots = nil
		p.PeekDone = false
	}
	next.Phase = PhaseLobby
	next.Deck = BuildDeck(r.Config.Variant)
	next.DiscardPile = []*models.Card{}
	next.ActiveIndex = 0
	next.DrawnCard = nil
	next.KaboomCaller = nil
	next.FinalTurns = 0
	next.Window = nil
	next.PeekLog = nil
	next.Winner = nil
	next.FinalTotals = nil
	next.InstantWin = false
	next.ShuffleSeed = shuffleSeed
	next.Reshuffles = 0
	next.Version++
	return next, nil
}

// clone makes a copy safe to mutate. Cards are immutable, so the card
// pointers themselves are shared; every slice and player record is
// copied.
func (r *Room) clone() *Room {
	next := *r
	next.Players = make([]*models.Player, len(r.Players))
	for i, p := range r.Players {
		pc := *p
		pc.Hand = append([]*models.Card(nil), p.Hand...)
		pc.PeekedSlots = append([]int(nil), p.PeekedSlots...)
		next.Players[i] = &pc
	}
	next.Deck = append([]*models.Card(nil), r.Deck...)
	next.DiscardPile = append([]*models.Card(nil), r.DiscardPile...)
	next.PeekLog = append([]PeekEvent(nil), r.PeekLog...)
	next.FinalTotals = append([]int(nil), r.FinalTotals...)
	if r.KaboomCaller != nil {
		v := *r.KaboomCaller
		next.KaboomCaller = &v
	}
	if r.Winner != nil {
		v := *r.Winner
		next.Winner = &v
	}
	if r.Window != nil {
		next.Window = r.Window.clone()
	}
	return &next
}

// playerIndex returns the seat index for a player ID, or -1.
func (r *Room) playerIndex(id uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ActivePlayer returns the seat whose turn it is, or nil before start.
func (r *Room) ActivePlayer() *models.Player {
	if r.ActiveIndex < 0 || r.ActiveIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.ActiveIndex]
}

// CardCount tallies every card the room tracks: deck, hands, discard
// pile and the pending drawn card. It must equal the variant's deck
// size at all times.
func (r *Room) CardCount() int {
	n := len(r.Deck) + len(r.DiscardPile)
	for _, p := range r.Players {
		n += len(p.Hand)
	}
	if r.DrawnCard != nil {
		n++
	}
	return n
}

// DeckSize returns the full card count for a variant.
func DeckSize(variant string) int {
	if variant == models.VariantJokers {
		return 54
	}
	return 52
}
