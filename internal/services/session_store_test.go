package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() *models.Session {
	login := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &models.Session{
		ID:        "sess-1",
		Token:     "token",
		Username:  "alice",
		LoginAt:   login,
		ExpiresAt: login.Add(30 * time.Minute),
	}
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	store := NewRedisSessionStore(client)

	session := testSession()
	data, err := json.Marshal(session)
	require.NoError(t, err)

	t.Run("put", func(t *testing.T) {
		mock.ExpectSet("session:sess-1", data, 30*time.Minute).SetVal("OK")
		assert.NoError(t, store.Put(ctx, session, 30*time.Minute))
	})

	t.Run("get", func(t *testing.T) {
		mock.ExpectGet("session:sess-1").SetVal(string(data))
		got, err := store.Get(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, session.Username, got.Username)
		assert.True(t, session.LoginAt.Equal(got.LoginAt))
	})

	t.Run("get missing", func(t *testing.T) {
		mock.ExpectGet("session:nope").RedisNil()
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("get failure", func(t *testing.T) {
		mock.ExpectGet("session:sess-1").SetErr(errors.New("connection refused"))
		_, err := store.Get(ctx, "sess-1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		mock.ExpectDel("session:sess-1").SetVal(1)
		assert.NoError(t, store.Delete(ctx, "sess-1"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	require.NoError(t, store.Put(ctx, testSession(), time.Minute))
	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStore_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemorySessionStoreWithClock(clock.Now)

	require.NoError(t, store.Put(ctx, testSession(), time.Minute))
	clock.Advance(59 * time.Second)
	_, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, store.sessions)

	t.Run("put sweeps expired entries", func(t *testing.T) {
		stale := testSession()
		stale.ID = "stale"
		require.NoError(t, store.Put(ctx, stale, time.Minute))
		clock.Advance(2 * time.Minute)

		require.NoError(t, store.Put(ctx, testSession(), 0))
		assert.Len(t, store.sessions, 1)
		assert.Contains(t, store.sessions, "sess-1")

		clock.Advance(24 * time.Hour)
		_, err := store.Get(ctx, "sess-1")
		assert.NoError(t, err, "zero ttl never expires")
	})
}
