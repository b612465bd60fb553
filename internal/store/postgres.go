// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaboom-gg/kaboom-service/internal/game"
)

// PostgresStore persists room records in a rooms table and archives
// finished rounds. Expected schema:
//
//	CREATE TABLE rooms (
//	    code       TEXT PRIMARY KEY,
//	    version    BIGINT NOT NULL,
//	    record     JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE rounds (
//	    id           BIGSERIAL PRIMARY KEY,
//	    room_code    TEXT NOT NULL,
//	    winner_seat  INT,
//	    instant_win  BOOLEAN NOT NULL,
//	    totals       JSONB,
//	    ended_at     TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// The conditional UPDATE on version is the compare-and-swap.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects using DATABASE_URL.
func NewPostgresStore(ctx context.Context) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Create(ctx context.Context, room *game.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (code, version, record, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`, room.Code, room.Version, data, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("pg create room %s: %w", room.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, code string) (*game.Room, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM rooms WHERE code = $1`, code).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg get room %s: %w", code, err)
	}
	return decodeRoom(data)
}

func (s *PostgresStore) Update(ctx context.Context, room *game.Room, expectedVersion uint64) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms SET version = $2, record = $3, updated_at = now()
		WHERE code = $1 AND version = $4
	`, room.Code, room.Version, data, expectedVersion)
	if err != nil {
		return fmt.Errorf("pg update room %s: %w", room.Code, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)`, room.Code).Scan(&exists); err != nil {
			return fmt.Errorf("pg update room %s: %w", room.Code, err)
		}
		if !exists {
			return ErrNotFound
		}
		return game.ErrStaleWrite
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, code string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("pg delete room %s: %w", code, err)
	}
	return nil
}

// ArchiveRound records the outcome of a finished round for history and
// leaderboards, then leaves the live record for the expiry sweep.
func (s *PostgresStore) ArchiveRound(ctx context.Context, room *game.Room) error {
	if room.Phase != game.PhaseEnded {
		return fmt.Errorf("room %s has not ended", room.Code)
	}
	totals, err := json.Marshal(room.FinalTotals)
	if err != nil {
		return fmt.Errorf("marshal totals for %s: %w", room.Code, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rounds (room_code, winner_seat, instant_win, totals)
		VALUES ($1, $2, $3, $4)
	`, room.Code, room.Winner, room.InstantWin, totals)
	if err != nil {
		return fmt.Errorf("pg archive round %s: %w", room.Code, err)
	}
	return nil
}

// SweepExpired deletes rooms created before the cutoff.
func (s *PostgresStore) SweepExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pg sweep rooms: %w", err)
	}
	return tag.RowsAffected(), nil
}
