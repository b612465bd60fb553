// internal/game/errors.go
package game

import "errors"

// Validation errors: expected, non-fatal, reported to the acting caller
// only. An action rejected with one of these leaves the room unchanged,
// with the single documented exception of ErrNoMatch (see ApplyAction).
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidPhase       = errors.New("action not allowed in this phase")
	ErrBudgetExhausted    = errors.New("peek budget exhausted")
	ErrSlotAlreadyPeeked  = errors.New("slot already peeked")
	ErrInvalidSlot        = errors.New("invalid hand slot")
	ErrInvalidSeat        = errors.New("invalid target seat")
	ErrStealDisabled      = errors.New("match steal is disabled in this room")
	ErrAlreadyDrawn       = errors.New("a card has already been drawn this turn")
	ErrNothingDrawn       = errors.New("no card has been drawn this turn")
	ErrNoMatch            = errors.New("card does not match the trigger rank")
	ErrAlreadyResponded   = errors.New("already responded to this reaction window")
	ErrWindowClosed       = errors.New("reaction window is closed")
	ErrKaboomCalled       = errors.New("kaboom has already been called")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomNotFull        = errors.New("room does not have enough players yet")
	ErrRoomAlreadyStarted = errors.New("room has already started")
	ErrRoomEnded          = errors.New("room has ended")
	ErrUnknownPlayer      = errors.New("player is not seated in this room")
	ErrUnknownAction      = errors.New("unknown action type")
)

// ErrStaleWrite is the concurrency rejection surfaced by the store when
// the room version observed at read time no longer matches at write
// time. The caller re-reads and retries; a stale action never partially
// applied.
var ErrStaleWrite = errors.New("stale write: room version changed")

// ErrInvariant marks an internal inconsistency (card conservation
// broken, deck underflow with no reshuffle possible). It indicates a
// bug and must never be swallowed.
var ErrInvariant = errors.New("room invariant violated")
