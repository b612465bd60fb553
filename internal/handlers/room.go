// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kaboom-gg/kaboom-service/internal/auth"
	"github.com/kaboom-gg/kaboom-service/internal/game"
	"github.com/kaboom-gg/kaboom-service/internal/models"
	"github.com/kaboom-gg/kaboom-service/internal/store"
)

// CreateRoomRequest carries the room configuration overrides plus an
// optional passcode for private rooms.
type CreateRoomRequest struct {
	Config   map[string]interface{} `json:"config,omitempty"`
	Passcode string                 `json:"passcode,omitempty"`
}

type CreateRoomResponse struct {
	Code string `json:"code"`
}

type JoinRoomRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
}

type JoinRoomResponse struct {
	Code     string        `json:"code"`
	PlayerID string        `json:"playerId"`
	Token    string        `json:"token"`
	View     game.RoomView `json:"view"`
}

type ActionRequest struct {
	Action models.Action `json:"action"`
}

// ActionResponse returns the caller's redacted view of the resulting
// room. Rejected is set for the one rejection that still persists
// (wrong-rank reaction: implicit pass plus penalty card).
type ActionResponse struct {
	View     game.RoomView `json:"view"`
	Rejected string        `json:"rejected,omitempty"`
}

// CreateRoomHandler allocates a fresh lobby-phase room. The creator is
// not seated yet; they join like everyone else and become the host by
// taking seat 0.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}

	cfg := models.DefaultRoomConfig(2)
	if err := cfg.Update(req.Config); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Passcode != "" {
		hash, err := auth.HashPasscode(req.Passcode)
		if err != nil {
			s.Logger.Errorf("failed to hash room passcode: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		cfg.PasscodeHash = hash
	}

	// Room codes can collide; retry with a fresh code.
	for attempt := 0; attempt < 5; attempt++ {
		code := newRoomCode(6)
		room, err := game.NewRoom(code, cfg, time.Now().UnixNano(), time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = s.Store.Create(r.Context(), room)
		if errors.Is(err, store.ErrExists) {
			continue
		}
		if err != nil {
			s.Logger.Errorf("failed to create room: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.Logger.WithField("room", code).Info("room created")
		writeJSON(w, CreateRoomResponse{Code: code})
		return
	}
	http.Error(w, "could not allocate a room code", http.StatusServiceUnavailable)
}

// JoinRoomHandler seats a player and issues their seat token.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}
	if req.Code == "" || strings.TrimSpace(req.Name) == "" {
		http.Error(w, "code and name are required", http.StatusBadRequest)
		return
	}

	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		room, err := s.Store.Get(r.Context(), req.Code)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.Logger.Errorf("failed to read room %s: %v", req.Code, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if room.Config.PasscodeHash != "" {
			ok, err := auth.VerifyPasscode(req.Passcode, room.Config.PasscodeHash)
			if err != nil || !ok {
				http.Error(w, "wrong passcode", http.StatusForbidden)
				return
			}
		}

		next, player, err := game.Join(room, strings.TrimSpace(req.Name))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if err := s.Store.Update(r.Context(), next, room.Version); err != nil {
			if errors.Is(err, game.ErrStaleWrite) {
				continue
			}
			s.Logger.Errorf("failed to persist join for room %s: %v", req.Code, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.Notifier.Publish(next.Code, next.Version)

		token, err := auth.CreateSeatToken(next.Code, player.ID)
		if err != nil {
			s.Logger.Errorf("failed to sign seat token: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.Logger.WithField("room", next.Code).Infof("player %s joined as %q", player.ID, player.Name)
		writeJSON(w, JoinRoomResponse{
			Code:     next.Code,
			PlayerID: player.ID.String(),
			Token:    token,
			View:     game.ViewFor(next, player.ID),
		})
		return
	}
	http.Error(w, "room is too contended, try again", http.StatusConflict)
}

// LeaveRoomHandler removes the authenticated seat from a lobby-phase
// room. The room record is deleted once the last seat leaves.
func (s *Server) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := s.seatFromRequest(w, r)
	if !ok {
		return
	}

	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		room, err := s.Store.Get(r.Context(), claims.RoomCode)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.Logger.Errorf("failed to read room %s: %v", claims.RoomCode, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		next, err := game.Leave(room, claims.PlayerID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if len(next.Players) == 0 {
			if err := s.Store.Delete(r.Context(), next.Code); err != nil {
				s.Logger.Errorf("failed to delete emptied room %s: %v", next.Code, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			s.Logger.WithField("room", next.Code).Info("room emptied and deleted")
			writeJSON(w, map[string]bool{"left": true})
			return
		}
		if err := s.Store.Update(r.Context(), next, room.Version); err != nil {
			if errors.Is(err, game.ErrStaleWrite) {
				continue
			}
			s.Logger.Errorf("failed to persist leave for room %s: %v", claims.RoomCode, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.Notifier.Publish(next.Code, next.Version)
		writeJSON(w, map[string]bool{"left": true})
		return
	}
	http.Error(w, "room is too contended, try again", http.StatusConflict)
}

// ResetRoomHandler returns an ended room to the lobby for a rematch.
// Host only; cumulative scores carry over.
func (s *Server) ResetRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := s.seatFromRequest(w, r)
	if !ok {
		return
	}

	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		room, err := s.Store.Get(r.Context(), claims.RoomCode)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.Logger.Errorf("failed to read room %s: %v", claims.RoomCode, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		next, err := game.Reset(room, claims.PlayerID, time.Now().UnixNano())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if err := s.Store.Update(r.Context(), next, room.Version); err != nil {
			if errors.Is(err, game.ErrStaleWrite) {
				continue
			}
			s.Logger.Errorf("failed to persist reset for room %s: %v", claims.RoomCode, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.Notifier.Publish(next.Code, next.Version)
		s.Logger.WithField("room", next.Code).Info("room reset for a new round")
		writeJSON(w, game.ViewFor(next, claims.PlayerID))
		return
	}
	http.Error(w, "room is too contended, try again", http.StatusConflict)
}

// ViewHandler returns the caller's redacted projection of the room.
// The raw record never leaves the store unfiltered.
func (s *Server) ViewHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.seatFromRequest(w, r)
	if !ok {
		return
	}
	room, err := s.Store.Get(r.Context(), claims.RoomCode)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Logger.Errorf("failed to read room %s: %v", claims.RoomCode, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, game.ViewFor(room, claims.PlayerID))
}

// ActionHandler applies one engine action for the authenticated seat.
func (s *Server) ActionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := s.seatFromRequest(w, r)
	if !ok {
		return
	}
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request payload", http.StatusBadRequest)
		return
	}

	room, err := s.applyWithRetry(r.Context(), claims.RoomCode, claims.PlayerID, req.Action)
	if err != nil && !errors.Is(err, game.ErrNoMatch) {
		writeEngineError(w, err)
		return
	}
	resp := ActionResponse{View: game.ViewFor(room, claims.PlayerID)}
	if errors.Is(err, game.ErrNoMatch) {
		resp.Rejected = err.Error()
	}
	writeJSON(w, resp)
}

// seatFromRequest authenticates the seat token from the Authorization
// header (Bearer), the seat_token cookie, or a token query parameter
// (websocket clients cannot set headers).
func (s *Server) seatFromRequest(w http.ResponseWriter, r *http.Request) (*auth.SeatClaims, bool) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else if c, err := r.Cookie("seat_token"); err == nil {
		token = c.Value
	} else {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing seat token", http.StatusUnauthorized)
		return nil, false
	}
	claims, err := auth.AuthenticateSeatToken(token)
	if err != nil {
		http.Error(w, "invalid seat token", http.StatusForbidden)
		return nil, false
	}
	return claims, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone at this point; nothing left to do.
		return
	}
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses:
// validation errors are the caller's problem, stale-write exhaustion is
// contention, invariant violations are ours.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, game.ErrStaleWrite):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInvariant):
		status = http.StatusInternalServerError
	case errors.Is(err, game.ErrUnknownPlayer):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}
