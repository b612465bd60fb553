// internal/notify/notify.go
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// RoomUpdate announces that a room's version advanced. Pollers
// subscribed to room.<code>.updates re-read the store instead of
// tight-polling it; the payload deliberately carries no game state.
type RoomUpdate struct {
	Code    string `json:"code"`
	Version uint64 `json:"version"`
}

// Notifier publishes room updates over NATS. A nil *Notifier is a
// no-op, so the gateway runs fine without a broker.
type Notifier struct {
	nc     *nats.Conn
	logger *logrus.Logger
}

// Connect dials NATS_URL with retrying options. Returns an error when
// the variable is unset so callers can treat the notifier as optional.
func Connect(logger *logrus.Logger) (*Notifier, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil, fmt.Errorf("NATS_URL is not set")
	}
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &Notifier{nc: nc, logger: logger}, nil
}

// Publish fans out a version bump for one room. Publish failures are
// logged and swallowed: the notifier is advisory, pollers still see the
// committed write on their next read.
func (n *Notifier) Publish(code string, version uint64) {
	if n == nil || n.nc == nil {
		return
	}
	data, err := json.Marshal(RoomUpdate{Code: code, Version: version})
	if err != nil {
		n.logger.Warnf("failed to marshal room update for %s: %v", code, err)
		return
	}
	topic := fmt.Sprintf("room.%s.updates", code)
	if err := n.nc.Publish(topic, data); err != nil {
		n.logger.Warnf("failed to publish room update on %s: %v", topic, err)
	}
}

// Close drains the connection.
func (n *Notifier) Close() {
	if n != nil && n.nc != nil {
		n.nc.Close()
	}
}
