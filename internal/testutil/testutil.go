// Package testutil 整合測試共用的連線與資料建立工具。
// Postgres 或 Redis 連不上時測試會被 skip，單元測試不受影響。
package testutil

import (
	"context"
	"testing"
	"time"

	"go-gin-event-ticketing/config"
	"go-gin-event-ticketing/internal/database"
	"go-gin-event-ticketing/internal/database/migrations"
	"go-gin-event-ticketing/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// 同一時間只允許一個 package 的整合測試使用資料庫
const testDBLockID int64 = 731500002

// NewTestPool 連線測試資料庫、套用 migration 並清空資料表
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg := config.LoadTestConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.InitDatabase(ctx, &cfg.Database)
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	t.Cleanup(pool.Close)

	lockTestDB(t, pool)

	if err := migrations.Apply(context.Background(), pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	TruncateAll(t, pool)

	return pool
}

// NewTestRedis 連線測試 Redis 並清空目前的 DB
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	cfg := config.LoadTestConfig()

	rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		t.Skipf("skipping Redis integration tests: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return rdb
}

func TruncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE tickets, events, venues, categories, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func CreateUser(t *testing.T, pool *pgxpool.Pool, username string, organizer bool) int {
	t.Helper()

	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (username, email, password_hash, is_organizer)
		VALUES ($1, $2, 'x', $3)
		RETURNING id`,
		username, username+"@example.com", organizer,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func CreateEvent(t *testing.T, pool *pgxpool.Pool, organizerID, general, vip int, state model.EventState) *model.Event {
	t.Helper()

	event := &model.Event{
		EventID:         uuid.New(),
		Title:           "Test event",
		Description:     "Integration test event",
		ScheduledAt:     time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
		OrganizerID:     organizerID,
		GeneralCapacity: general,
		VipCapacity:     vip,
		State:           state,
	}
	err := pool.QueryRow(context.Background(), `
		INSERT INTO events (event_id, title, description, scheduled_at, organizer_id,
			general_capacity, vip_capacity, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		event.EventID, event.Title, event.Description, event.ScheduledAt, event.OrganizerID,
		event.GeneralCapacity, event.VipCapacity, event.State,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func CreateTicket(t *testing.T, pool *pgxpool.Pool, eventID, userID, quantity int, ticketType model.TicketType) int {
	t.Helper()

	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO tickets (ticket_code, quantity, type, user_id, event_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		model.GenerateTicketCode(), quantity, ticketType, userID, eventID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return id
}

func lockTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		conn.Release()
		t.Fatalf("acquire test lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		conn.Release()
	})
}
