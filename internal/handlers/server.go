// internal/handlers/server.go
package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kaboom-gg/kaboom-service/internal/cache"
	"github.com/kaboom-gg/kaboom-service/internal/game"
	"github.com/kaboom-gg/kaboom-service/internal/models"
	"github.com/kaboom-gg/kaboom-service/internal/notify"
	"github.com/kaboom-gg/kaboom-service/internal/store"
)

// Server is the gateway between client sessions and the shared room
// records. It owns no game state: every request is a read-validate-
// apply-write cycle against the store, with stale writes retried
// against a fresh read.
type Server struct {
	Store    store.RoomStore
	Queue    *cache.ActionQueue // nil => action history disabled
	Notifier *notify.Notifier   // nil => no update fan-out
	Logger   *logrus.Logger

	// MaxRetries bounds the re-read-and-retry loop on StaleWrite.
	MaxRetries int
}

func NewServer(st store.RoomStore, logger *logrus.Logger) *Server {
	return &Server{
		Store:      st,
		Logger:     logger,
		MaxRetries: 5,
	}
}

// applyWithRetry runs one action through the optimistic-concurrency
// cycle. Retrying after ErrStaleWrite is always safe: a stale action
// never partially applied, and if it is still valid against the fresh
// snapshot it produces the same result as an uncontended run.
//
// ErrNoMatch is the one engine rejection that returns a mutated room
// (implicit pass plus penalty); it is persisted and then still reported
// to the caller.
func (s *Server) applyWithRetry(ctx context.Context, code string, playerID uuid.UUID, act models.Action) (*game.Room, error) {
	var lastErr error = game.ErrStaleWrite
	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		room, err := s.Store.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		next, aerr := game.ApplyAction(room, playerID, act, time.Now())
		if aerr != nil && !errors.Is(aerr, game.ErrNoMatch) {
			return nil, aerr
		}
		if next.Version == room.Version {
			// Idle tick: nothing resolved, nothing to persist.
			return next, aerr
		}
		if err := s.Store.Update(ctx, next, room.Version); err != nil {
			if errors.Is(err, game.ErrStaleWrite) {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.afterWrite(ctx, next, playerID, act)
		return next, aerr
	}
	return nil, lastErr
}

// afterWrite publishes the accepted action to the history queue and
// fans out the version bump. Both are advisory; failures are logged and
// never unwind a committed write.
func (s *Server) afterWrite(ctx context.Context, room *game.Room, playerID uuid.UUID, act models.Action) {
	if err := s.Queue.Publish(ctx, cache.ActionRecord{
		RoomCode:   room.Code,
		Version:    room.Version,
		ActorID:    playerID,
		ActionType: act.Type,
		Payload:    act.Payload,
		Timestamp:  time.Now().UnixMilli(),
	}); err != nil {
		s.Logger.Warnf("failed to publish action record for room %s: %v", room.Code, err)
	}
	s.Notifier.Publish(room.Code, room.Version)
}

const roomCodeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// newRoomCode returns a short join code. Ambiguous characters are left
// out since players read these aloud.
func newRoomCode(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()[:length]
	}
	for i, b := range buf {
		buf[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
	}
	return string(buf)
}
