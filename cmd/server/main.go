// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/kaboom-gg/kaboom-service/internal/auth"
	"github.com/kaboom-gg/kaboom-service/internal/cache"
	"github.com/kaboom-gg/kaboom-service/internal/handlers"
	"github.com/kaboom-gg/kaboom-service/internal/middleware"
	"github.com/kaboom-gg/kaboom-service/internal/notify"
	"github.com/kaboom-gg/kaboom-service/internal/store"
)

// newStore selects the room store backend from the STORE env var:
// "memory" (default), "redis", or "postgres".
func newStore(ctx context.Context, logger *logrus.Logger) store.RoomStore {
	switch os.Getenv("STORE") {
	case "redis":
		st, err := store.NewRedisStore(ctx)
		if err != nil {
			log.Fatalf("failed to init redis store: %v", err)
		}
		logger.Info("using redis room store")
		return st
	case "postgres":
		st, err := store.NewPostgresStore(ctx)
		if err != nil {
			log.Fatalf("failed to init postgres store: %v", err)
		}
		logger.Info("using postgres room store")
		return st
	default:
		logger.Info("using in-memory room store")
		return store.NewMemoryStore()
	}
}

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	srv := handlers.NewServer(newStore(ctx, logger), logger)

	if queue, err := cache.NewActionQueue(ctx); err != nil {
		logger.Warnf("action history disabled: %v", err)
	} else {
		srv.Queue = queue
	}
	if notifier, err := notify.Connect(logger); err != nil {
		logger.Warnf("room update fan-out disabled: %v", err)
	} else {
		srv.Notifier = notifier
		defer notifier.Close()
	}

	mux := http.NewServeMux()
	logReq := middleware.LogMiddleware(logger)

	mux.Handle("/room/create", logReq(http.HandlerFunc(srv.CreateRoomHandler)))
	mux.Handle("/room/join", logReq(http.HandlerFunc(srv.JoinRoomHandler)))
	mux.Handle("/room/leave", logReq(http.HandlerFunc(srv.LeaveRoomHandler)))
	mux.Handle("/room/reset", logReq(http.HandlerFunc(srv.ResetRoomHandler)))
	mux.Handle("/room/view", logReq(http.HandlerFunc(srv.ViewHandler)))
	mux.Handle("/room/action", logReq(http.HandlerFunc(srv.ActionHandler)))
	mux.Handle("/room/ws", logReq(http.HandlerFunc(srv.RoomWSHandler)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
