package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/ledger/internal/models"
)

// SessionStore keeps authenticated sessions keyed by session ID
type SessionStore interface {
	Put(ctx context.Context, session *models.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type memorySession struct {
	session   models.Session
	expiresAt time.Time // zero means no expiry
}

// MemorySessionStore is the single-process session store. Entries expire
// after their ttl like Redis keys do; expired entries are dropped on access
// and swept on every Put.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      Clock
}

func NewMemorySessionStore() *MemorySessionStore {
	return NewMemorySessionStoreWithClock(time.Now)
}

func NewMemorySessionStoreWithClock(now Clock) *MemorySessionStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{sessions: make(map[string]memorySession), now: now}
}

func (s *MemorySessionStore) Put(ctx context.Context, session *models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, id)
		}
	}

	entry := memorySession{session: *session}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	s.sessions[session.ID] = entry
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if entry.expired(s.now()) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (e memorySession) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// RedisSessionStore shares sessions across processes; keys expire with the session timeout
type RedisSessionStore struct {
	redis *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{redis: client}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisSessionStore) Put(ctx context.Context, session *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}
