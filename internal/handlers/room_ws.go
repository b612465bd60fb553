// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/kaboom-gg/kaboom-service/internal/game"
	"github.com/kaboom-gg/kaboom-service/internal/models"
	"github.com/kaboom-gg/kaboom-service/internal/store"
)

// viewPollInterval is how often the stream re-reads the store looking
// for a version bump. Deadline settlement rides the same loop: each
// poll sends a tick action so expired reaction windows resolve even
// when every client is idle.
const viewPollInterval = 500 * time.Millisecond

// wsEnvelope is one client->server frame on the room socket.
type wsEnvelope struct {
	Type   string         `json:"type"`
	Action *models.Action `json:"action,omitempty"`
}

// actionErrorFrame reports a failed action back over the socket. A
// wrong-rank reaction is distinguished as "rejected": the penalty was
// applied and persisted, so the client must not retry it.
func actionErrorFrame(err error) map[string]string {
	typ := "error"
	if errors.Is(err, game.ErrNoMatch) {
		typ = "rejected"
	}
	return map[string]string{"type": typ, "error": err.Error()}
}

// RoomWSHandler upgrades to a websocket and streams the caller's
// redacted view of the room. The client may also submit actions over
// the same socket; each accepted action is answered by the next view
// push.
func (s *Server) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.seatFromRequest(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.Logger.Warnf("failed to accept websocket for room %s: %v", claims.RoomCode, err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := s.Logger.WithField("room", claims.RoomCode).WithField("player", claims.PlayerID)

	// Reader: forward client actions into the apply loop.
	go func() {
		defer cancel()
		for {
			var env wsEnvelope
			if err := wsjson.Read(ctx, conn, &env); err != nil {
				return
			}
			if env.Type != "action" || env.Action == nil {
				continue
			}
			if _, err := s.applyWithRetry(ctx, claims.RoomCode, claims.PlayerID, *env.Action); err != nil {
				if werr := wsjson.Write(ctx, conn, actionErrorFrame(err)); werr != nil {
					return
				}
			}
		}
	}()

	var lastVersion uint64
	ticker := time.NewTicker(viewPollInterval)
	defer ticker.Stop()

	for {
		room, err := s.Store.Get(ctx, claims.RoomCode)
		if errors.Is(err, store.ErrNotFound) {
			conn.Close(websocket.StatusNormalClosure, "room gone")
			return
		}
		if err != nil {
			log.Warnf("failed to read room for view stream: %v", err)
		} else {
			if room.Window != nil && room.Window.Expired(time.Now()) {
				if next, terr := s.applyWithRetry(ctx, claims.RoomCode, claims.PlayerID, models.Action{Type: models.ActionTick}); terr == nil {
					room = next
				}
			}
			if room.Version != lastVersion {
				view := game.ViewFor(room, claims.PlayerID)
				if err := wsjson.Write(ctx, conn, map[string]interface{}{"type": "view", "view": view}); err != nil {
					return
				}
				lastVersion = room.Version
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
