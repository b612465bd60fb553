// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// privateKey and publicKey sign and verify seat tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// TOKEN_EXPIRE_TIME_SEC indicates how many seconds until token expiration (0 => never).
	TOKEN_EXPIRE_TIME_SEC int
)

// SeatClaims is what a verified seat token asserts: this session holds
// this player's seat in this room. Actions for any other seat or room
// are rejected at the gateway before the engine ever sees them.
type SeatClaims struct {
	RoomCode string
	PlayerID uuid.UUID
}

// parseTokenExpireTime reads the TOKEN_EXPIRE_TIME env var and sets TOKEN_EXPIRE_TIME_SEC accordingly.
func parseTokenExpireTime() {
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		TOKEN_EXPIRE_TIME_SEC = 0
	} else {
		d, err := time.ParseDuration(duration)
		if err != nil {
			fmt.Printf("failed to parse token expire time: %v\n", err)
			os.Exit(1)
		}
		TOKEN_EXPIRE_TIME_SEC = int(d.Seconds())
	}
}

// Init generates a fresh ed25519 key pair at runtime and sets the token
// expiration. Tokens do not survive a restart; seats are rejoinable by
// design since player IDs are stored on the room record.
func Init() {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		fmt.Printf("failed to generate ed25519 key pair: %v\n", err)
		os.Exit(1)
	}
	parseTokenExpireTime()
}

// CreateSeatToken issues a signed token binding a client session to a
// seat. Issued once at join time.
func CreateSeatToken(roomCode string, playerID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub":  playerID.String(),
		"room": roomCode,
	}
	if TOKEN_EXPIRE_TIME_SEC > 0 {
		claims["exp"] = time.Now().Add(time.Duration(TOKEN_EXPIRE_TIME_SEC) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateSeatToken verifies a token string and returns its claims.
func AuthenticateSeatToken(tokenString string) (*SeatClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid seat token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid seat token claims")
	}
	sub, _ := claims["sub"].(string)
	room, _ := claims["room"].(string)
	playerID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid player id in seat token: %w", err)
	}
	if room == "" {
		return nil, fmt.Errorf("missing room claim in seat token")
	}
	return &SeatClaims{RoomCode: room, PlayerID: playerID}, nil
}
