// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/kaboom-gg/kaboom-service/internal/game"
)

// MemoryStore keeps room records in process memory. Records are stored
// as encoded bytes so every Get returns an isolated copy; two sessions
// holding the same snapshot race through the same CAS discipline as
// with a networked backend.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]byte)}
}

func (s *MemoryStore) Create(_ context.Context, room *game.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code]; exists {
		return ErrExists
	}
	s.rooms[room.Code] = data
	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (*game.Room, error) {
	s.mu.Lock()
	data, exists := s.rooms[code]
	s.mu.Unlock()
	if !exists {
		return nil, ErrNotFound
	}
	return decodeRoom(data)
}

func (s *MemoryStore) Update(_ context.Context, room *game.Room, expectedVersion uint64) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.rooms[room.Code]
	if !exists {
		return ErrNotFound
	}
	cur, err := decodeRoom(stored)
	if err != nil {
		return err
	}
	if cur.Version != expectedVersion {
		return game.ErrStaleWrite
	}
	s.rooms[room.Code] = data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

// SweepExpired drops rooms created before the cutoff. The expiry policy
// for abandoned rooms lives at the store, not in the engine.
func (s *MemoryStore) SweepExpired(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for code, data := range s.rooms {
		r, err := decodeRoom(data)
		if err != nil {
			continue
		}
		if r.CreatedAt.Before(cutoff) {
			delete(s.rooms, code)
			removed++
		}
	}
	return removed
}
