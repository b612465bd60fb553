// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaboom-gg/kaboom-service/internal/game"
)

// Storage errors. Version conflicts surface as game.ErrStaleWrite so
// callers handle one error across backends.
var (
	ErrNotFound = errors.New("room not found")
	ErrExists   = errors.New("room code already taken")
)

// RoomStore persists Room records keyed by room code and provides the
// compare-and-swap primitive the engine assumes: Update applies only
// when the stored version still equals expectedVersion, otherwise it
// fails with game.ErrStaleWrite and the caller re-reads and retries.
// Implementations must give read-your-writes visibility.
type RoomStore interface {
	Create(ctx context.Context, room *game.Room) error
	Get(ctx context.Context, code string) (*game.Room, error)
	Update(ctx context.Context, room *game.Room, expectedVersion uint64) error
	Delete(ctx context.Context, code string) error
}

// encodeRoom and decodeRoom are the shared record codec; every backend
// stores the same JSON document.
func encodeRoom(r *game.Room) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode room %s: %w", r.Code, err)
	}
	return data, nil
}

func decodeRoom(data []byte) (*game.Room, error) {
	var r game.Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode room record: %w", err)
	}
	return &r, nil
}
