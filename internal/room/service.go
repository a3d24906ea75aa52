package room

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/Seednode/tierclash/internal/tierlist"
)

// errUnchanged aborts an update that has nothing to write.
var errUnchanged = errors.New("room: unchanged")

// Identity is what a client remembers between visits: who it was and
// which room it was last in. The transport reads it from wherever the
// client keeps it and passes it in.
type Identity struct {
	PlayerID string
	RoomCode string
}

// Service applies game operations to stored rooms and enforces who may
// perform them. The tierlist package itself trusts its caller.
type Service struct {
	store      Store
	seeds      tierlist.SeedSource
	maxPlayers int
	logger     *log.Logger
}

type Option func(*Service)

func WithSeedSource(seeds tierlist.SeedSource) Option {
	return func(s *Service) {
		s.seeds = seeds
	}
}

func WithMaxPlayers(n int) Option {
	return func(s *Service) {
		s.maxPlayers = n
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService seeds games from clock unless WithSeedSource says otherwise.
func NewService(store Store, clock quartz.Clock, opts ...Option) *Service {
	s := &Service{
		store:      store,
		seeds:      tierlist.ClockSeed(func() time.Time { return clock.Now() }),
		maxPlayers: tierlist.MaxPlayers,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() Store {
	return s.store
}

func newPlayer(name string) tierlist.Player {
	return tierlist.Player{
		ID:         uuid.NewString(),
		Name:       name,
		AvatarSeed: rand.IntN(1000),
	}
}

// CreateRoom opens a room hosted by a new player called name.
func (s *Service) CreateRoom(ctx context.Context, name string) (tierlist.Session, tierlist.Player, error) {
	host := newPlayer(name)

	session, err := tierlist.NewSession(host, s.seeds())
	if err != nil {
		return tierlist.Session{}, tierlist.Player{}, err
	}

	session, err = s.store.Create(ctx, session)
	if err != nil {
		return tierlist.Session{}, tierlist.Player{}, err
	}

	host = session.Players[0]
	s.logger.Info("room created", "code", session.Code, "host", host.Name)

	return session, host, nil
}

// JoinRoom adds a new player called name to the room. If playerID already
// belongs to the room, that player is returned unchanged so a returning
// client keeps its seat. Players may join in any phase; joiners during a
// game watch until the next one.
func (s *Service) JoinRoom(ctx context.Context, code, name, playerID string) (tierlist.Session, tierlist.Player, error) {
	code, ok := NormalizeCode(code)
	if !ok {
		return tierlist.Session{}, tierlist.Player{}, fmt.Errorf("%w: %q", ErrSessionNotFound, code)
	}

	var joined tierlist.Player

	session, err := s.store.Update(ctx, code, func(cur tierlist.Session) (tierlist.Session, error) {
		if p, ok := cur.Player(playerID); ok {
			joined = p
			return cur, errUnchanged
		}

		p := newPlayer(name)
		next, err := tierlist.AddPlayer(cur, p, s.maxPlayers)
		if err != nil {
			return cur, err
		}

		joined = next.Players[len(next.Players)-1]
		return next, nil
	})
	if errors.Is(err, errUnchanged) {
		return session, joined, nil
	}
	if err != nil {
		return tierlist.Session{}, tierlist.Player{}, err
	}

	s.logger.Info("player joined", "code", code, "player", joined.Name)

	return session, joined, nil
}

// Resume finds the room id remembers and checks the player is still in it.
func (s *Service) Resume(ctx context.Context, id Identity) (tierlist.Session, tierlist.Player, error) {
	code, ok := NormalizeCode(id.RoomCode)
	if !ok || id.PlayerID == "" {
		return tierlist.Session{}, tierlist.Player{}, ErrSessionNotFound
	}

	session, err := s.store.Fetch(ctx, code)
	if err != nil {
		return tierlist.Session{}, tierlist.Player{}, err
	}

	p, ok := session.Player(id.PlayerID)
	if !ok {
		return tierlist.Session{}, tierlist.Player{}, fmt.Errorf("%w: no longer a member of %s", ErrSessionNotFound, code)
	}

	return session, p, nil
}

// Snapshot returns the current room record.
func (s *Service) Snapshot(ctx context.Context, code string) (tierlist.Session, error) {
	return s.store.Fetch(ctx, code)
}

// Leave removes playerID from the room. When the host leaves, the room is
// deleted for everyone.
func (s *Service) Leave(ctx context.Context, code, playerID string) error {
	session, err := s.store.Fetch(ctx, code)
	if err != nil {
		return err
	}

	if session.IsHost(playerID) {
		s.logger.Info("host left, closing room", "code", code)
		return s.store.Delete(ctx, code)
	}

	_, err = s.store.Update(ctx, code, func(cur tierlist.Session) (tierlist.Session, error) {
		return tierlist.RemovePlayer(cur, playerID)
	})
	if errors.Is(err, tierlist.ErrNotInRoom) {
		return nil
	}

	return err
}

// hostOnly wraps fn so it only runs for the room's host.
func hostOnly(playerID string, fn UpdateFunc) UpdateFunc {
	return func(cur tierlist.Session) (tierlist.Session, error) {
		if !cur.IsHost(playerID) {
			return cur, fmt.Errorf("%w: only the host can do that", ErrNotAuthorized)
		}
		return fn(cur)
	}
}

// Kick removes targetID on the host's behalf.
func (s *Service) Kick(ctx context.Context, code, hostID, targetID string) (tierlist.Session, error) {
	if hostID == targetID {
		return tierlist.Session{}, fmt.Errorf("%w: the host cannot remove themselves", ErrNotAuthorized)
	}

	session, err := s.store.Update(ctx, code, hostOnly(hostID, func(cur tierlist.Session) (tierlist.Session, error) {
		return tierlist.RemovePlayer(cur, targetID)
	}))
	if err == nil {
		s.logger.Info("player removed", "code", code, "player", targetID)
	}

	return session, err
}

func (s *Service) Start(ctx context.Context, code, playerID string) (tierlist.Session, error) {
	return s.store.Update(ctx, code, hostOnly(playerID, tierlist.Start))
}

func (s *Service) SelectPack(ctx context.Context, code, playerID, packID string) (tierlist.Session, error) {
	session, err := s.store.Update(ctx, code, hostOnly(playerID, func(cur tierlist.Session) (tierlist.Session, error) {
		return tierlist.SelectPack(cur, packID, s.seeds())
	}))
	if err == nil {
		s.logger.Info("game started", "code", code, "pack", packID, "seed", session.Seed)
	}

	return session, err
}

// Place commits the judge's choice for the card revealed at turn. The turn
// index guards against a stale or repeated drop landing on a later card.
func (s *Service) Place(ctx context.Context, code, playerID string, turn int, tier tierlist.Tier) (tierlist.Session, error) {
	session, err := s.store.Update(ctx, code, func(cur tierlist.Session) (tierlist.Session, error) {
		if cur.Phase != tierlist.PhaseActive {
			return cur, fmt.Errorf("%w: %s", tierlist.ErrWrongPhase, cur.Phase)
		}
		if cur.TurnIndex != turn {
			return cur, fmt.Errorf("%w: turn %d, now %d", ErrStaleTurn, turn, cur.TurnIndex)
		}

		current, err := cur.Turn()
		if err != nil {
			return cur, err
		}
		if current.Judge.ID != playerID {
			return cur, fmt.Errorf("%w: it is %s's turn", ErrNotAuthorized, current.Judge.Name)
		}

		return tierlist.ConfirmPlacement(cur, tier)
	})
	if err != nil {
		return session, err
	}

	if session.Phase == tierlist.PhaseFinished {
		s.logger.Info("game finished", "code", code, "pack", session.PackID, "turns", session.TurnIndex)
	}

	return session, nil
}

// Finalize finishes a complete game on the host's behalf. It reports
// whether this call made the transition; calling it on a room that is
// already finished, or not yet complete, changes nothing.
func (s *Service) Finalize(ctx context.Context, code, playerID string) (tierlist.Session, bool, error) {
	var changed bool

	session, err := s.store.Update(ctx, code, hostOnly(playerID, func(cur tierlist.Session) (tierlist.Session, error) {
		var next tierlist.Session
		next, changed = tierlist.Finalize(cur)
		if !changed {
			return cur, errUnchanged
		}
		return next, nil
	}))
	if errors.Is(err, errUnchanged) {
		return session, false, nil
	}

	return session, changed, err
}

func (s *Service) PlayAgain(ctx context.Context, code, playerID string) (tierlist.Session, error) {
	return s.store.Update(ctx, code, hostOnly(playerID, func(cur tierlist.Session) (tierlist.Session, error) {
		return tierlist.PlayAgain(cur, s.seeds())
	}))
}

func (s *Service) ReturnToLobby(ctx context.Context, code, playerID string) (tierlist.Session, error) {
	return s.store.Update(ctx, code, hostOnly(playerID, func(cur tierlist.Session) (tierlist.Session, error) {
		return tierlist.ReturnToLobby(cur, s.seeds())
	}))
}
