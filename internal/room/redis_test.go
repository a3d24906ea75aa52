package room

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/tierclash/internal/tierlist"
)

// newTestRedisStore connects to TIERCLASH_TEST_REDIS, skipping when unset.
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("TIERCLASH_TEST_REDIS")
	if addr == "" {
		t.Skip("TIERCLASH_TEST_REDIS not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())

	store := NewRedisStore(rdb, quartz.NewReal(), time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "tierclash:room:ABCD", roomKey("ABCD"))
	assert.Equal(t, "tierclash:room:ABCD:events", eventsChannel("ABCD"))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	created, err := store.Create(ctx, newTestSession(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(context.Background(), created.Code) })

	updates := make(chan *tierlist.Session, 4)
	unsubscribe, err := store.Subscribe(ctx, created.Code, func(s *tierlist.Session) {
		updates <- s
	})
	require.NoError(t, err)
	defer unsubscribe()

	updated, err := store.Update(ctx, created.Code, tierlist.Start)
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, updated.Version)

	select {
	case s := <-updates:
		require.NotNil(t, s)
		assert.Equal(t, tierlist.PhasePackSelection, s.Phase)
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
	}

	fetched, err := store.Fetch(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, updated.Version, fetched.Version)

	require.NoError(t, store.Delete(ctx, created.Code))
	select {
	case s := <-updates:
		assert.Nil(t, s)
	case <-time.After(2 * time.Second):
		t.Fatal("no deletion published")
	}

	_, err = store.Fetch(ctx, created.Code)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreDeliveryOutlivesSubscribeContext(t *testing.T) {
	store := newTestRedisStore(t)

	created, err := store.Create(context.Background(), newTestSession(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(context.Background(), created.Code) })

	ctx, cancel := context.WithCancel(context.Background())

	updates := make(chan *tierlist.Session, 4)
	unsubscribe, err := store.Subscribe(ctx, created.Code, func(s *tierlist.Session) {
		updates <- s
	})
	require.NoError(t, err)
	cancel()

	_, err = store.Update(context.Background(), created.Code, tierlist.Start)
	require.NoError(t, err)

	select {
	case s := <-updates:
		require.NotNil(t, s)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelling the subscribe context stopped delivery")
	}

	unsubscribe()

	_, err = store.Update(context.Background(), created.Code, func(s tierlist.Session) (tierlist.Session, error) {
		return tierlist.Reset(s, false, s.Seed), nil
	})
	require.NoError(t, err)

	select {
	case s := <-updates:
		t.Fatalf("delivered after unsubscribe: %+v", s)
	case <-time.After(300 * time.Millisecond):
	}
}
