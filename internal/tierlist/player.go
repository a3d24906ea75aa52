package tierlist

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPlayers is the default room capacity.
	MaxPlayers = 6

	MaxNameLength = 24
)

type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AvatarSeed int    `json:"avatar_seed"`
}

// NormalizeName trims surrounding whitespace and checks length.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return "", ErrEmptyName
	case utf8.RuneCountInString(name) > MaxNameLength:
		return "", fmt.Errorf("%w (max %d characters)", ErrNameTooLong, MaxNameLength)
	}

	return name, nil
}

// NameTaken reports whether name collides case-insensitively with anyone
// in players other than the player with id except.
func NameTaken(players []Player, name, except string) bool {
	for _, p := range players {
		if p.ID == except {
			continue
		}
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func indexOfPlayer(players []Player, id string) int {
	return slices.IndexFunc(players, func(p Player) bool {
		return p.ID == id
	})
}

// AddPlayer appends p to the roster. A limit of zero or less means
// MaxPlayers. Re-adding an id that is already present is a no-op.
func AddPlayer(s Session, p Player, limit int) (Session, error) {
	if limit <= 0 {
		limit = MaxPlayers
	}

	name, err := NormalizeName(p.Name)
	if err != nil {
		return s, err
	}
	p.Name = name

	if indexOfPlayer(s.Players, p.ID) >= 0 {
		return s, nil
	}

	if NameTaken(s.Players, p.Name, p.ID) {
		return s, ErrDuplicateName
	}

	if len(s.Players) >= limit {
		return s, fmt.Errorf("%w (max %d players)", ErrRoomFull, limit)
	}

	out := s.Clone()
	out.Players = append(out.Players, p)

	return out, nil
}

// RemovePlayer drops id from the roster. The rotation snapshot is left
// alone so later turns keep their slots.
func RemovePlayer(s Session, id string) (Session, error) {
	i := indexOfPlayer(s.Players, id)
	if i < 0 {
		return s, ErrNotInRoom
	}

	out := s.Clone()
	out.Players = slices.Delete(out.Players, i, i+1)

	return out, nil
}
