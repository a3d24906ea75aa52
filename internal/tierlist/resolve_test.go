package tierlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlayers(names ...string) []Player {
	players := make([]Player, len(names))
	for i, n := range names {
		players[i] = Player{ID: "id-" + n, Name: n}
	}
	return players
}

func rotationOf(players []Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func miePack(t *testing.T) Pack {
	t.Helper()
	pack, ok := PackByID("mie-instan")
	require.True(t, ok)
	require.Len(t, pack.Items, 6)
	return pack
}

func TestResolveDeterministic(t *testing.T) {
	players := testPlayers("A", "B", "C")
	pack := miePack(t)

	first, err := Resolve(42, 0, rotationOf(players), players, pack, nil)
	require.NoError(t, err)
	second, err := Resolve(42, 0, rotationOf(players), players, pack, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "B", first.Judge.Name)
	require.NotNil(t, first.Card)
	assert.Equal(t, "goreng-biasa", first.Card.ID)
	assert.Equal(t, 6, first.Remaining)
}

func TestOrderIsPermutation(t *testing.T) {
	pack := miePack(t)

	got := Order(42, pack)

	ids := make([]string, len(got))
	for i, item := range got {
		ids[i] = item.ID
	}
	assert.Equal(t, []string{"goreng-biasa", "rendang", "ayam-bawang", "soto", "mie-aceh", "kari-ayam"}, ids)

	for seed := Seed(0); seed < 50; seed++ {
		assert.ElementsMatch(t, pack.Items, Order(seed, pack))
	}
}

func TestNextCardSkipsPlaced(t *testing.T) {
	pack := miePack(t)

	card := NextCard(42, pack, []string{"goreng-biasa"})
	require.NotNil(t, card)
	assert.Equal(t, "rendang", card.ID)

	// Placement order does not have to follow the reveal order.
	card = NextCard(42, pack, []string{"rendang"})
	require.NotNil(t, card)
	assert.Equal(t, "goreng-biasa", card.ID)

	all := make([]string, 0, len(pack.Items))
	for _, item := range pack.Items {
		all = append(all, item.ID)
	}
	assert.Nil(t, NextCard(42, pack, all))
}

func TestFairRotation(t *testing.T) {
	for seed := Seed(0); seed < 200; seed++ {
		players := testPlayers("A", "B", "C", "D")
		rotation := rotationOf(players)
		start := StartingSlot(seed, len(rotation))

		seen := make(map[string]int)
		for turn := 0; turn < len(players); turn++ {
			slot, err := JudgeSlot(seed, turn, rotation, players)
			require.NoError(t, err)
			require.Equal(t, (start+turn)%len(players), slot)
			seen[rotation[slot]]++
		}

		require.Len(t, seen, len(players))
		for id, n := range seen {
			require.Equal(t, 1, n, "seed %d player %s", seed, id)
		}
	}
}

func TestJudgeSlotSkipsRemovedPlayers(t *testing.T) {
	players := testPlayers("A", "B", "C")
	rotation := rotationOf(players)

	// seed 42 starts at slot 1 (B).
	slot, err := JudgeSlot(42, 0, rotation, players)
	require.NoError(t, err)
	require.Equal(t, 1, slot)

	withoutB := []Player{players[0], players[2]}

	slot, err = JudgeSlot(42, 0, rotation, withoutB)
	require.NoError(t, err)
	assert.Equal(t, 2, slot, "B's turn passes to C")

	// Turns that did not belong to B keep their judge.
	for _, turn := range []int{1, 2, 4, 5} {
		before, err := JudgeSlot(42, turn, rotation, players)
		require.NoError(t, err)
		after, err := JudgeSlot(42, turn, rotation, withoutB)
		require.NoError(t, err)
		assert.Equal(t, before, after, "turn %d", turn)
	}
}

func TestJudgeSlotIgnoresLateJoiners(t *testing.T) {
	players := testPlayers("A", "B")
	rotation := rotationOf(players)
	withLate := append(testPlayers("A", "B"), Player{ID: "id-Z", Name: "Z"})

	for turn := 0; turn < 6; turn++ {
		slot, err := JudgeSlot(7, turn, rotation, withLate)
		require.NoError(t, err)
		assert.NotEqual(t, "id-Z", rotation[slot])
	}
}

func TestResolveNoPlayers(t *testing.T) {
	pack := miePack(t)

	_, err := Resolve(1, 0, nil, nil, pack, nil)
	require.ErrorIs(t, err, ErrNoPlayers)

	players := testPlayers("A")
	_, err = Resolve(1, 0, rotationOf(players), []Player{{ID: "someone-else", Name: "X"}}, pack, nil)
	require.ErrorIs(t, err, ErrNoPlayers)
}

func TestResolveNegativeTurnPanics(t *testing.T) {
	players := testPlayers("A")

	assert.Panics(t, func() {
		_, _ = Resolve(1, -1, rotationOf(players), players, miePack(t), nil)
	})
}
