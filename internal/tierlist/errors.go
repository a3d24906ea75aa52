package tierlist

import (
	"errors"
	"fmt"

	"github.com/Seednode/tierclash/internal/rng"
)

var (
	ErrNoPlayers     = errors.New("tierlist: no players left to judge")
	ErrEmptyName     = errors.New("tierlist: player name is empty")
	ErrNameTooLong   = errors.New("tierlist: player name is too long")
	ErrDuplicateName = errors.New("tierlist: a player with that name is already in the room")
	ErrRoomFull      = errors.New("tierlist: room is full")
	ErrNotInRoom     = errors.New("tierlist: player is not in the room")
	ErrWrongPhase    = errors.New("tierlist: operation not allowed in this phase")
	ErrInvalidTier   = errors.New("tierlist: unknown tier")
	ErrUnknownPack   = errors.New("tierlist: unknown pack")

	// ErrNoCard means a placement was attempted after every card was placed,
	// so end of game was missed upstream.
	ErrNoCard = fmt.Errorf("tierlist: no card left to place: %w", rng.ErrEmptyList)
)
