// Package store is the persistent transactional backing for the Session
// aggregate, plus the distributed lock that makes per-session serialization
// hold across more than one server instance.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

// Store persists a committed Session aggregate and provides a cross-instance
// advisory lock keyed by session id, so that a deployment running more than
// one server process still serializes commands against the same session.
type Store struct {
	pg    *pgxpool.Pool
	redis *redis.Client
}

func New(ctx context.Context, pgDSN, redisAddr string) (*Store, error) {
	pgPool, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Store{pg: pgPool, redis: redisClient}, nil
}

func (s *Store) Close() {
	s.pg.Close()
	s.redis.Close()
}

func (s *Store) Health(ctx context.Context) error {
	if err := s.pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unhealthy: %w", err)
	}
	return nil
}

// SaveSession upserts a snapshot of the session's scalar state (id, code,
// phase, day count, win state) inside a single transaction. Participants,
// round state, votes and leave requests are not part of the snapshot.
func (s *Store) SaveSession(ctx context.Context, session *entity.Session) error {
	body, err := json.Marshal(sessionSnapshot{
		ID:       session.ID,
		Code:     session.Code,
		Phase:    session.Phase,
		DayCount: session.DayCount,
		WinState: session.WinState,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, code, updated_at, body)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (id) DO UPDATE SET code = $2, updated_at = now(), body = $3
	`, session.ID, session.Code, body)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.pg.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

type sessionSnapshot struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Phase    entity.Phase    `json:"phase"`
	DayCount int             `json:"dayCount"`
	WinState entity.WinState `json:"winState"`
}

// AcquireLock takes the Redis SET NX PX advisory lock for a session id,
// the multi-instance realization of the per-session mutual-exclusion region
// a single process already gets for free from Session's own sync.RWMutex.
func (s *Store) AcquireLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, lockKey(sessionID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	return ok, nil
}

func (s *Store) ReleaseLock(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, lockKey(sessionID)).Err()
}

func lockKey(sessionID string) string {
	return "nightwatch:session-lock:" + sessionID
}
