package tierlist

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// Phase is the room lifecycle. The wire names are kept stable for clients.
type Phase string

const (
	PhaseSetup         Phase = "LOBBY"
	PhasePackSelection Phase = "PACK_SELECTION"
	PhaseActive        Phase = "GAME_LOOP"
	PhaseFinished      Phase = "RESULT"
)

// SeedSource draws a new game seed. Values only need to differ in practice
// between games in the same room.
type SeedSource func() Seed

// ClockSeed derives seeds from the wall-clock milliseconds of now.
func ClockSeed(now func() time.Time) SeedSource {
	return func() Seed {
		return Seed(uint32(now().UnixMilli()))
	}
}

// PlacedItem is an item bound to the turn that placed it.
type PlacedItem struct {
	Item
	PlacedBy string  `json:"attached_by"`
	Tier     Tier    `json:"tier"`
	Rotation float64 `json:"rotation"`
}

// Session is the shared room record. Operations in this package treat it
// as a value and return modified copies.
type Session struct {
	Code          string       `json:"id"`
	HostID        string       `json:"host_id"`
	HostName      string       `json:"host_name"`
	Phase         Phase        `json:"phase"`
	Players       []Player     `json:"players"`
	PackID        string       `json:"selected_pack_id,omitempty"`
	Composition   []PlacedItem `json:"composition"`
	TurnIndex     int          `json:"current_turn_index"`
	Seed          Seed         `json:"seed"`
	Rotation      []string     `json:"rotation,omitempty"`
	PlayedPackIDs []string     `json:"played_pack_ids"`

	// Version is bumped by the store on every write.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession opens a room in setup with host as its only player.
func NewSession(host Player, seed Seed) (Session, error) {
	name, err := NormalizeName(host.Name)
	if err != nil {
		return Session{}, err
	}
	host.Name = name

	return Session{
		HostID:        host.ID,
		HostName:      host.Name,
		Phase:         PhaseSetup,
		Players:       []Player{host},
		Composition:   []PlacedItem{},
		Seed:          seed,
		PlayedPackIDs: []string{},
	}, nil
}

func (s Session) Clone() Session {
	out := s
	out.Players = slices.Clone(s.Players)
	out.Composition = slices.Clone(s.Composition)
	out.Rotation = slices.Clone(s.Rotation)
	out.PlayedPackIDs = slices.Clone(s.PlayedPackIDs)
	return out
}

func (s Session) IsHost(playerID string) bool {
	return playerID != "" && s.HostID == playerID
}

func (s Session) HasPlayer(playerID string) bool {
	return indexOfPlayer(s.Players, playerID) >= 0
}

func (s Session) Player(playerID string) (Player, bool) {
	i := indexOfPlayer(s.Players, playerID)
	if i < 0 {
		return Player{}, false
	}
	return s.Players[i], true
}

func (s Session) Pack() (Pack, bool) {
	return PackByID(s.PackID)
}

// PlacedIDs lists item ids in composition order.
func (s Session) PlacedIDs() []string {
	ids := make([]string, len(s.Composition))
	for i, p := range s.Composition {
		ids[i] = p.ID
	}
	return ids
}

// Complete reports whether every item of the selected pack has been placed.
func (s Session) Complete() bool {
	pack, ok := s.Pack()
	if !ok {
		return false
	}

	placed := make(map[string]bool, len(s.Composition))
	for _, p := range s.Composition {
		placed[p.ID] = true
	}
	for _, item := range pack.Items {
		if !placed[item.ID] {
			return false
		}
	}
	return true
}

// Turn resolves the current judge and card from the session's own fields.
func (s Session) Turn() (Turn, error) {
	if s.Phase != PhaseActive {
		return Turn{}, fmt.Errorf("%w: %s", ErrWrongPhase, s.Phase)
	}

	pack, ok := s.Pack()
	if !ok {
		return Turn{}, fmt.Errorf("%w: %q", ErrUnknownPack, s.PackID)
	}

	return Resolve(s.Seed, s.TurnIndex, s.Rotation, s.Players, pack, s.PlacedIDs())
}

// Start moves a room from setup to pack selection.
func Start(s Session) (Session, error) {
	if s.Phase != PhaseSetup {
		return s, fmt.Errorf("%w: cannot start from %s", ErrWrongPhase, s.Phase)
	}
	if len(s.Players) == 0 {
		return s, ErrNoPlayers
	}

	out := s.Clone()
	out.Phase = PhasePackSelection

	return out, nil
}

// SelectPack begins a game with packID. The current roster becomes the
// judge rotation for the whole game; later joiners watch until the next one.
// PlayedPackIDs is history only, so a pack can be picked again.
func SelectPack(s Session, packID string, seed Seed) (Session, error) {
	if s.Phase != PhasePackSelection {
		return s, fmt.Errorf("%w: cannot select a pack from %s", ErrWrongPhase, s.Phase)
	}
	if _, ok := PackByID(packID); !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownPack, packID)
	}
	if len(s.Players) == 0 {
		return s, ErrNoPlayers
	}

	out := s.Clone()
	out.PackID = packID
	out.Phase = PhaseActive
	out.Composition = []PlacedItem{}
	out.TurnIndex = 0
	out.Seed = seed
	out.Rotation = make([]string, len(s.Players))
	for i, p := range s.Players {
		out.Rotation[i] = p.ID
	}

	return out, nil
}

func cosmeticRotation() float64 {
	return (rand.Float64() - 0.5) * 10
}

// ConfirmPlacement places the current card into tier on behalf of the
// current judge and advances the turn. The engine does not check who is
// calling. Placing the last card finishes the game in the same step.
func ConfirmPlacement(s Session, tier Tier) (Session, error) {
	if s.Phase != PhaseActive {
		return s, fmt.Errorf("%w: cannot place in %s", ErrWrongPhase, s.Phase)
	}
	if !tier.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}

	turn, err := s.Turn()
	if err != nil {
		return s, err
	}
	if turn.Card == nil {
		return s, ErrNoCard
	}

	out := s.Clone()
	out.Composition = append(out.Composition, PlacedItem{
		Item:     *turn.Card,
		PlacedBy: turn.Judge.ID,
		Tier:     tier,
		Rotation: cosmeticRotation(),
	})
	out.TurnIndex++

	out, _ = Finalize(out)

	return out, nil
}

// Finalize ends an active game whose pack is fully placed. It changes
// nothing and reports false in any other state, so repeating it is safe.
func Finalize(s Session) (Session, bool) {
	if s.Phase != PhaseActive || !s.Complete() {
		return s, false
	}

	out := s.Clone()
	out.Phase = PhaseFinished
	if !slices.Contains(out.PlayedPackIDs, out.PackID) {
		out.PlayedPackIDs = append(out.PlayedPackIDs, out.PackID)
	}

	return out, true
}

// Reset clears the board and draws a fresh seed. With keepPack the room
// goes back to pack selection, otherwise to setup with no pack selected.
// It applies from any phase.
func Reset(s Session, keepPack bool, seed Seed) Session {
	out := s.Clone()
	out.Composition = []PlacedItem{}
	out.TurnIndex = 0
	out.Seed = seed
	out.Rotation = nil

	if keepPack {
		out.Phase = PhasePackSelection
	} else {
		out.Phase = PhaseSetup
		out.PackID = ""
	}

	return out
}

// PlayAgain returns a finished room to pack selection.
func PlayAgain(s Session, seed Seed) (Session, error) {
	if s.Phase != PhaseFinished {
		return s, fmt.Errorf("%w: cannot play again from %s", ErrWrongPhase, s.Phase)
	}
	return Reset(s, true, seed), nil
}

// ReturnToLobby returns a finished room to setup.
func ReturnToLobby(s Session, seed Seed) (Session, error) {
	if s.Phase != PhaseFinished {
		return s, fmt.Errorf("%w: cannot return to lobby from %s", ErrWrongPhase, s.Phase)
	}
	return Reset(s, false, seed), nil
}
