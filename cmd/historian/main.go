// cmd/historian/main.go is an asynchronous historian service that pops
// action records from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/kaboom-gg/kaboom-service/internal/cache"
)

// HistorianService drains the accepted-action queue into the
// room_actions table and sweeps rooms that have gone quiet.
//
// Expected schema:
//
//	CREATE TABLE room_actions (
//	    id          BIGSERIAL PRIMARY KEY,
//	    room_code   TEXT NOT NULL,
//	    version     BIGINT NOT NULL,
//	    actor_id    UUID NOT NULL,
//	    action_type TEXT NOT NULL,
//	    payload     JSONB,
//	    occurred_at TIMESTAMPTZ NOT NULL
//	);
type HistorianService struct {
	redisClient *redis.Client
	pool        *pgxpool.Pool
	queueName   string
	batchSize   int
	flushDelay  time.Duration
	inactivity  time.Duration

	lastActivity sync.Map // map[string]time.Time per room code

	batchMu  sync.Mutex
	batch    []cache.ActionRecord
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs a HistorianService from environment
// variables or defaults.
func NewHistorianService() *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	inactivitySec := getEnvInt("ROOM_INACTIVITY_TIMEOUT_SEC", 3600)

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		queueName:   getEnv("HISTORIAN_QUEUE_NAME", cache.DefaultQueueName),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		inactivity:  time.Duration(inactivitySec) * time.Second,
		batch:       make([]cache.ActionRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and starts the drain and sweep loops.
func (hs *HistorianService) Run() {
	pool, err := pgxpool.New(hs.ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	hs.pool = pool

	go hs.readRedisLoop()
	go hs.inactivityLoop()

	log.Println("kaboom-historian service started.")
	<-hs.ctx.Done()
	log.Println("kaboom-historian shutting down.")
}

// readRedisLoop continuously uses BLPop to retrieve records from the
// Redis queue, accumulating them into the batch.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		default:
			// BLPop with a short timeout so context cancellation is handled.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, hs.queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record cache.ActionRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				log.Printf("invalid action record: %v\n", err)
				continue
			}

			hs.lastActivity.Store(record.RoomCode, time.Now())
			hs.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the
// threshold is reached.
func (hs *HistorianService) appendToBatch(record cache.ActionRecord) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, record)
	if len(hs.batch) >= hs.batchSize {
		hs.flushBatchLocked()
	}
}

func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushBatchLocked()
}

// flushBatchLocked writes the current batch in a single transaction.
// Caller holds batchMu.
func (hs *HistorianService) flushBatchLocked() {
	if len(hs.batch) == 0 {
		return
	}
	batchCopy := make([]cache.ActionRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]

	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, hs.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batchCopy {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] flush batch: %v\n", err)
	} else {
		log.Printf("Flushed %d actions to DB.\n", len(batchCopy))
	}
}

// inactivityLoop deletes archived rows for rooms that have not produced
// an action within the inactivity window. The live records expire in
// their own store; this only bounds the historian's tracking map.
func (hs *HistorianService) inactivityLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			hs.lastActivity.Range(func(key, val interface{}) bool {
				code, ok1 := key.(string)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > hs.inactivity {
					hs.markRoomAbandoned(code)
					hs.lastActivity.Delete(code)
				}
				return true
			})
		}
	}
}

// markRoomAbandoned records an abandonment marker so replays can tell
// a finished round from one that just stopped.
func (hs *HistorianService) markRoomAbandoned(code string) {
	ctx := context.Background()
	_, err := hs.pool.Exec(ctx, `
		INSERT INTO room_actions (room_code, version, actor_id, action_type, payload, occurred_at)
		SELECT room_code, MAX(version), '00000000-0000-0000-0000-000000000000', 'room_abandoned', NULL, NOW()
		FROM room_actions
		WHERE room_code = $1
		GROUP BY room_code
	`, code)
	if err != nil {
		log.Printf("failed to mark room %s abandoned: %v", code, err)
	} else {
		log.Printf("Marked room %s as abandoned due to inactivity.", code)
	}
}

// insertActionTx inserts one record into room_actions.
func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.ActionRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO room_actions (room_code, version, actor_id, action_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.RoomCode, rec.Version, rec.ActorID, rec.ActionType, payload,
		time.UnixMilli(rec.Timestamp))
	return err
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	hs := NewHistorianService()
	hs.Run()
}
