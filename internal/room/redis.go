package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/go-redis/redis/v8"

	"github.com/Seednode/tierclash/internal/tierlist"
)

const (
	keyPrefix = "tierclash:room:"

	// maxUpdateAttempts bounds optimistic retries when another writer
	// touches a room between WATCH and EXEC.
	maxUpdateAttempts = 8

	deletedPayload = "deleted"
)

// RedisStore shares rooms between server instances. Each room is a JSON
// value with a ttl that is refreshed on every write; changes are published
// on a per-room channel.
type RedisStore struct {
	rdb     *redis.Client
	clock   quartz.Clock
	ttl     time.Duration
	newCode func() string
}

func NewRedisStore(rdb *redis.Client, clock quartz.Clock, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb:     rdb,
		clock:   clock,
		ttl:     ttl,
		newCode: NewCode,
	}
}

func roomKey(code string) string {
	return keyPrefix + code
}

func eventsChannel(code string) string {
	return keyPrefix + code + ":events"
}

func (r *RedisStore) Create(ctx context.Context, s tierlist.Session) (tierlist.Session, error) {
	for range maxCodeAttempts {
		code := r.newCode()

		now := r.clock.Now()
		out := s.Clone()
		out.Code = code
		out.Version = 1
		out.CreatedAt = now
		out.UpdatedAt = now

		data, err := json.Marshal(out)
		if err != nil {
			return tierlist.Session{}, err
		}

		ok, err := r.rdb.SetNX(ctx, roomKey(code), data, r.ttl).Result()
		if err != nil {
			return tierlist.Session{}, fmt.Errorf("create room: %w", err)
		}
		if ok {
			return out, nil
		}
	}

	return tierlist.Session{}, ErrCodeSpaceExhausted
}

func decodeSession(code string, data []byte, err error) (tierlist.Session, error) {
	if errors.Is(err, redis.Nil) {
		return tierlist.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, code)
	}
	if err != nil {
		return tierlist.Session{}, fmt.Errorf("fetch room %s: %w", code, err)
	}

	var s tierlist.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return tierlist.Session{}, fmt.Errorf("decode room %s: %w", code, err)
	}

	return s, nil
}

func (r *RedisStore) Fetch(ctx context.Context, code string) (tierlist.Session, error) {
	data, err := r.rdb.Get(ctx, roomKey(code)).Bytes()
	return decodeSession(code, data, err)
}

func (r *RedisStore) Update(ctx context.Context, code string, fn UpdateFunc) (tierlist.Session, error) {
	key := roomKey(code)

	for range maxUpdateAttempts {
		var next tierlist.Session

		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			cur, err := decodeSession(code, data, err)
			if err != nil {
				return err
			}

			next, err = fn(cur.Clone())
			if err != nil {
				next = cur
				return err
			}

			next.Code = cur.Code
			next.CreatedAt = cur.CreatedAt
			next.Version = cur.Version + 1
			next.UpdatedAt = r.clock.Now()

			out, err := json.Marshal(next)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, r.ttl)
				pipe.Publish(ctx, eventsChannel(code), out)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return next, err
	}

	return tierlist.Session{}, fmt.Errorf("%w: %s", ErrConflict, code)
}

func (r *RedisStore) Delete(ctx context.Context, code string) error {
	n, err := r.rdb.Del(ctx, roomKey(code)).Result()
	if err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, code)
	}

	return r.rdb.Publish(ctx, eventsChannel(code), deletedPayload).Err()
}

// Subscribe listens on the room's channel until unsubscribe is called.
// ctx only bounds the initial fetch and SUBSCRIBE; cancelling it later does
// not end delivery. Expiry by ttl is not published, so callers should also
// fetch periodically if they need to notice it.
func (r *RedisStore) Subscribe(ctx context.Context, code string, fn func(*tierlist.Session)) (func(), error) {
	if _, err := r.Fetch(ctx, code); err != nil {
		return nil, err
	}

	pubsub := r.rdb.Subscribe(ctx, eventsChannel(code))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe room %s: %w", code, err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			if msg.Payload == deletedPayload {
				fn(nil)
				continue
			}

			var s tierlist.Session
			if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
				continue
			}
			fn(&s)
		}
	}()

	return func() {
		_ = pubsub.Close()
	}, nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
