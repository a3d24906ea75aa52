package tierlist

import (
	"fmt"
	"strings"
)

// Tier is one rank on the board. The set is closed.
type Tier string

const (
	Diamond Tier = "DIAMOND"
	Gold    Tier = "GOLD"
	Silver  Tier = "SILVER"
	Bronze  Tier = "BRONZE"
	Trash   Tier = "TRASH"
)

// Tiers lists every tier from best to worst.
func Tiers() []Tier {
	return []Tier{Diamond, Gold, Silver, Bronze, Trash}
}

func (t Tier) Valid() bool {
	switch t {
	case Diamond, Gold, Silver, Bronze, Trash:
		return true
	}
	return false
}

// Rank is 0 for the best tier and 4 for the worst, or -1 if t is not a tier.
func (t Tier) Rank() int {
	for i, tier := range Tiers() {
		if tier == t {
			return i
		}
	}
	return -1
}

func (t Tier) Label() string {
	if !t.Valid() {
		return string(t)
	}
	return string(t[0]) + strings.ToLower(string(t[1:]))
}

// Color is the board color for the tier, as a hex RGB string.
func (t Tier) Color() string {
	switch t {
	case Diamond:
		return "#22d3ee"
	case Gold:
		return "#facc15"
	case Silver:
		return "#cbd5e1"
	case Bronze:
		return "#d97706"
	case Trash:
		return "#44403c"
	}
	return "#000000"
}

// ParseTier accepts any letter case.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}
