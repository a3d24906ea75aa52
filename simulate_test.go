package main

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/tierclash/internal/tierlist"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestSimulate(t *testing.T) {
	var out bytes.Buffer

	s, err := simulate(&out, simulateOptions{
		seed:    42,
		packID:  "mie-instan",
		players: []string{"Ana", "Budi", "Citra"},
	})
	require.NoError(t, err)

	assert.Equal(t, tierlist.PhaseFinished, s.Phase)
	assert.Len(t, s.Composition, 6)

	text := ansi.ReplaceAllString(out.String(), "")
	assert.Contains(t, text, "turn 1 Budi puts Goreng Biasa in Bronze")
	assert.Contains(t, text, "turn 2 Citra puts Rendang in Silver")
	assert.Contains(t, text, "turn 3 Ana puts Ayam Bawang")
	assert.Contains(t, text, "Diamond")

	var again bytes.Buffer
	_, err = simulate(&again, simulateOptions{seed: 42, packID: "mie-instan", players: []string{"Ana", "Budi", "Citra"}})
	require.NoError(t, err)
	assert.Equal(t, out.String(), again.String(), "output depends only on the options")
}

func TestSimulateRejectsBadInput(t *testing.T) {
	var out bytes.Buffer

	_, err := simulate(&out, simulateOptions{seed: 1, packID: "mie-instan"})
	require.ErrorIs(t, err, tierlist.ErrNoPlayers)

	_, err = simulate(&out, simulateOptions{seed: 1, packID: "nope", players: []string{"Ana"}})
	require.ErrorIs(t, err, tierlist.ErrUnknownPack)

	_, err = simulate(&out, simulateOptions{seed: 1, packID: "mie-instan", players: []string{"Ana", "ana"}})
	require.ErrorIs(t, err, tierlist.ErrDuplicateName)
}
