package tierlist

import (
	"fmt"

	"github.com/Seednode/tierclash/internal/rng"
)

// Seed parameterizes all turn derivation for one game.
type Seed uint32

// Turn is what every observer derives for the current turn index.
type Turn struct {
	Index int `json:"index"`

	// Judge is the player placing Card. Slot is Judge's position in the
	// rotation snapshot.
	Judge Player `json:"judge"`
	Slot  int    `json:"slot"`

	// Card is nil once every item in the pack has been placed.
	Card      *Item `json:"card"`
	Remaining int   `json:"remaining"`
}

// Order is the reveal order of pack for seed. Every observer computes the
// same permutation.
func Order(seed Seed, pack Pack) []Item {
	return rng.Shuffle(pack.Items, rng.New(uint32(seed)))
}

// StartingSlot is the rotation slot that judges turn 0.
func StartingSlot(seed Seed, rotationLen int) int {
	if rotationLen <= 0 {
		return 0
	}
	return rng.New(uint32(seed)).Int(0, rotationLen-1)
}

// NextCard returns the first item of the reveal order not yet placed, or
// nil when all are placed.
func NextCard(seed Seed, pack Pack, placed []string) *Item {
	done := make(map[string]bool, len(placed))
	for _, id := range placed {
		done[id] = true
	}

	for _, item := range Order(seed, pack) {
		if !done[item.ID] {
			return &item
		}
	}

	return nil
}

// JudgeSlot picks the rotation slot for turnIndex. Slots run round-robin
// from StartingSlot; a slot whose player has left the roster passes to the
// next slot still present.
func JudgeSlot(seed Seed, turnIndex int, rotation []string, roster []Player) (int, error) {
	if turnIndex < 0 {
		panic(fmt.Sprintf("tierlist: negative turn index %d", turnIndex))
	}

	n := len(rotation)
	if n == 0 || len(roster) == 0 {
		return -1, ErrNoPlayers
	}

	present := make(map[string]bool, len(roster))
	for _, p := range roster {
		present[p.ID] = true
	}

	base := (StartingSlot(seed, n) + turnIndex) % n
	for k := 0; k < n; k++ {
		slot := (base + k) % n
		if present[rotation[slot]] {
			return slot, nil
		}
	}

	return -1, ErrNoPlayers
}

// Resolve derives the judge and card for turnIndex. It is a pure function
// of its arguments.
func Resolve(seed Seed, turnIndex int, rotation []string, roster []Player, pack Pack, placed []string) (Turn, error) {
	slot, err := JudgeSlot(seed, turnIndex, rotation, roster)
	if err != nil {
		return Turn{}, err
	}

	i := indexOfPlayer(roster, rotation[slot])
	if i < 0 {
		panic("tierlist: resolved judge is not in the roster")
	}

	card := NextCard(seed, pack, placed)

	remaining := len(pack.Items) - len(placed)
	if remaining < 0 {
		remaining = 0
	}

	return Turn{
		Index:     turnIndex,
		Judge:     roster[i],
		Slot:      slot,
		Card:      card,
		Remaining: remaining,
	}, nil
}
