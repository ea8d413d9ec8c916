package redis_test

import (
	"context"
	"testing"
	"time"

	"med-agent-be/internal/repository/contract"
	sessionredis "med-agent-be/internal/repository/redis"
	"med-agent-be/pkg/store"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...sessionredis.Option) (*sessionredis.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return sessionredis.NewSessionStore(client, opts...), mr
}

func TestSessionStore_RoundTrip(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, s.AppendUser(ctx, "abc", "pharmacies in Lebu"))
	require.NoError(t, s.AppendAssistant(ctx, "abc", "Pharmacies available: ..."))

	history, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []store.Message{
		{Role: store.RoleUser, Text: "pharmacies in Lebu"},
		{Role: store.RoleAssistant, Text: "Pharmacies available: ..."},
	}, history)
}

func TestSessionStore_UnknownSessionIsEmpty(t *testing.T) {
	s, _ := setup(t)

	history, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSessionStore_ClearAndIsolation(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, s.AppendUser(ctx, "a", "one"))
	require.NoError(t, s.AppendUser(ctx, "b", "two"))
	require.NoError(t, s.Clear(ctx, "a"))

	a, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, a)

	b, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, b, 1)
}

func TestSessionStore_TTLAndPrefix(t *testing.T) {
	s, mr := setup(t, sessionredis.WithTTL(time.Minute), sessionredis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, s.AppendUser(ctx, "x", "hola"))

	assert.True(t, mr.Exists("test:x"))
	assert.Equal(t, time.Minute, mr.TTL("test:x"))

	mr.FastForward(2 * time.Minute)
	history, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSessionStore_BackendDownIsWrapped(t *testing.T) {
	s, mr := setup(t)
	mr.Close()

	_, err := s.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, contract.ErrSessionStore)
}
