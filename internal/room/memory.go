package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/Seednode/tierclash/internal/tierlist"
)

// MemoryStore keeps rooms in process. Rooms untouched for longer than ttl
// are removed by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	clock   quartz.Clock
	ttl     time.Duration
	newCode func() string

	rooms   map[string]tierlist.Session
	subs    map[string]map[int]func(*tierlist.Session)
	nextSub int
}

func NewMemoryStore(clock quartz.Clock, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		ttl:     ttl,
		newCode: NewCode,
		rooms:   make(map[string]tierlist.Session),
		subs:    make(map[string]map[int]func(*tierlist.Session)),
	}
}

// notifyLocked snapshots the subscriber list. The caller must invoke the
// returned func after releasing mu.
func (m *MemoryStore) notifyLocked(code string, s *tierlist.Session) func() {
	fns := make([]func(*tierlist.Session), 0, len(m.subs[code]))
	for _, fn := range m.subs[code] {
		fns = append(fns, fn)
	}

	return func() {
		for _, fn := range fns {
			if s == nil {
				fn(nil)
				continue
			}
			snap := s.Clone()
			fn(&snap)
		}
	}
}

func (m *MemoryStore) Create(ctx context.Context, s tierlist.Session) (tierlist.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for range maxCodeAttempts {
		code := m.newCode()
		if _, exists := m.rooms[code]; exists {
			continue
		}

		now := m.clock.Now()
		out := s.Clone()
		out.Code = code
		out.Version = 1
		out.CreatedAt = now
		out.UpdatedAt = now
		m.rooms[code] = out

		return out.Clone(), nil
	}

	return tierlist.Session{}, ErrCodeSpaceExhausted
}

func (m *MemoryStore) Fetch(ctx context.Context, code string) (tierlist.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rooms[code]
	if !ok {
		return tierlist.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, code)
	}

	return s.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, code string, fn UpdateFunc) (tierlist.Session, error) {
	m.mu.Lock()

	cur, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return tierlist.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, code)
	}

	next, err := fn(cur.Clone())
	if err != nil {
		m.mu.Unlock()
		return cur.Clone(), err
	}

	next.Code = cur.Code
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	next.UpdatedAt = m.clock.Now()
	m.rooms[code] = next

	notify := m.notifyLocked(code, &next)
	m.mu.Unlock()

	notify()

	return next.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, code string) error {
	m.mu.Lock()

	if _, ok := m.rooms[code]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, code)
	}
	delete(m.rooms, code)

	notify := m.notifyLocked(code, nil)
	delete(m.subs, code)
	m.mu.Unlock()

	notify()

	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, code string, fn func(*tierlist.Session)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[code]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, code)
	}

	if m.subs[code] == nil {
		m.subs[code] = make(map[int]func(*tierlist.Session))
	}
	id := m.nextSub
	m.nextSub++
	m.subs[code][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs[code], id)
		})
	}, nil
}

// Sweep deletes rooms idle for longer than the store's ttl and returns
// their codes. A ttl of zero disables expiry.
func (m *MemoryStore) Sweep(ctx context.Context) []string {
	if m.ttl <= 0 {
		return nil
	}

	cutoff := m.clock.Now().Add(-m.ttl)

	m.mu.Lock()
	var (
		expired []string
		notify  []func()
	)
	for code, s := range m.rooms {
		if s.UpdatedAt.Before(cutoff) {
			expired = append(expired, code)
			delete(m.rooms, code)
			notify = append(notify, m.notifyLocked(code, nil))
			delete(m.subs, code)
		}
	}
	m.mu.Unlock()

	for _, fn := range notify {
		fn()
	}

	return expired
}

func (m *MemoryStore) Close() error {
	return nil
}
